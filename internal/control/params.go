package control

import (
	"fmt"

	"github.com/san-kum/lockbox/internal/fixed"
)

const (
	NumInputs   = 2
	NumOutputs  = 2
	NumChannels = NumInputs * NumOutputs
	NumSources  = 4
)

// Channel selects one element of the PID matrix. PIDij drives output i from
// input j.
type Channel int

const (
	PID11 Channel = iota
	PID12
	PID21
	PID22
)

var channelNames = [NumChannels]string{"pid11", "pid12", "pid21", "pid22"}

func (c Channel) Valid() bool { return c >= 0 && c < NumChannels }

// Input is the analog input index this channel reads.
func (c Channel) Input() int { return int(c) & 1 }

// Output is the output index this channel contributes to.
func (c Channel) Output() int { return int(c) >> 1 }

func (c Channel) String() string {
	if !c.Valid() {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// ParseChannel accepts "pid11".."pid22" or a bare index.
func ParseChannel(s string) (Channel, bool) {
	for i, name := range channelNames {
		if s == name {
			return Channel(i), true
		}
	}
	var idx int
	if _, err := fmt.Sscanf(s, "%d", &idx); err == nil && Channel(idx).Valid() {
		return Channel(idx), true
	}
	return 0, false
}

// ResetPolicy chooses the value the integrator is forced to on reset.
type ResetPolicy int

const (
	ResetZero ResetPolicy = iota
	ResetCenter
)

func (p ResetPolicy) String() string {
	switch p {
	case ResetZero:
		return "zero"
	case ResetCenter:
		return "center"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

type PIDParams struct {
	Setpoint        fixed.Sample
	Kp              uint32
	Ki              uint32
	Kd              uint32
	Inverted        bool
	IntegratorReset bool
	ResetWhenRailed bool
	Hold            bool
	ResetPolicy     ResetPolicy
	ResetCenter     fixed.Sample
}

type RelockParams struct {
	Enabled  bool
	Min      fixed.Sample
	Max      fixed.Sample
	Stepsize uint32
	Source   int
}

type LimitParams struct {
	Min fixed.Sample
	Max fixed.Sample
}

type ChannelParams struct {
	PID    PIDParams
	Relock RelockParams
}

// Params is the complete parameter set read by one tick. It is a plain value
// so that copying it is a consistent snapshot.
type Params struct {
	Channels [NumChannels]ChannelParams
	Limits   [NumOutputs]LimitParams
}

// DefaultParams returns zero gains, relock disabled and full-range limits.
func DefaultParams() Params {
	var p Params
	for i := range p.Limits {
		p.Limits[i] = LimitParams{Min: fixed.SampleMin, Max: fixed.SampleMax}
	}
	return p
}
