package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/lockbox/internal/control"
	"github.com/san-kum/lockbox/internal/engine"
	"github.com/san-kum/lockbox/internal/fixed"
)

// fraction counts ticks where a predicate held.
type fraction struct {
	name    string
	hit     func(engine.Outputs) bool
	hits    int
	samples int
}

func (f *fraction) Name() string { return f.name }

func (f *fraction) Observe(in engine.Inputs, out engine.Outputs) {
	f.samples++
	if f.hit(out) {
		f.hits++
	}
}

func (f *fraction) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return float64(f.hits) / float64(f.samples)
}

func (f *fraction) Reset() {
	f.hits = 0
	f.samples = 0
}

// NewLockFraction reports the share of ticks a channel's relock saw lock.
func NewLockFraction(ch control.Channel) engine.Metric {
	return &fraction{
		name: "lock_fraction_" + ch.String(),
		hit:  func(out engine.Outputs) bool { return out.Locked[ch] },
	}
}

// NewRailFraction reports the share of ticks an output sat on either rail.
func NewRailFraction(output int) engine.Metric {
	return &fraction{
		name: fmt.Sprintf("rail_fraction_out%d", output+1),
		hit:  func(out engine.Outputs) bool { return out.Rail[output].Any() },
	}
}

// RMSError is the root mean square distance of an input from a target.
type RMSError struct {
	name    string
	input   int
	target  fixed.Sample
	sumSq   float64
	samples int
}

func NewRMSError(input int, target fixed.Sample) *RMSError {
	return &RMSError{
		name:   fmt.Sprintf("rms_error_in%d", input+1),
		input:  input,
		target: target,
	}
}

func (r *RMSError) Name() string { return r.name }

func (r *RMSError) Observe(in engine.Inputs, out engine.Outputs) {
	d := float64(in.Analog[r.input]) - float64(r.target)
	r.sumSq += d * d
	r.samples++
}

func (r *RMSError) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return math.Sqrt(r.sumSq / float64(r.samples))
}

func (r *RMSError) Reset() {
	r.sumSq = 0
	r.samples = 0
}

// LockBand is the distance from setpoint, in LSB, beyond which an input
// counts as out of band in the standard metric set.
const LockBand = 64

// Standard returns the metric set recorded for every run. Tracking error and
// out-of-band time are measured for each input against the setpoint of its
// diagonal channel.
func Standard(p control.Params) []engine.Metric {
	ms := []engine.Metric{NewControlEffort()}
	for ch := control.Channel(0); ch < control.NumChannels; ch++ {
		ms = append(ms, NewLockFraction(ch))
	}
	for o := 0; o < control.NumOutputs; o++ {
		ms = append(ms, NewRailFraction(o))
	}
	diagonal := [control.NumInputs]control.Channel{control.PID11, control.PID22}
	for i, ch := range diagonal {
		sp := p.Channels[ch].PID.Setpoint
		ms = append(ms, NewRMSError(i, sp), NewOutOfBand(i, sp, LockBand))
	}
	return ms
}
