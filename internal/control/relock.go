package control

import "github.com/san-kum/lockbox/internal/fixed"

type SweepState int

const (
	SweepZero SweepState = iota
	SweepRampUp
	SweepRampDown
)

func (s SweepState) String() string {
	switch s {
	case SweepZero:
		return "zero"
	case SweepRampUp:
		return "up"
	case SweepRampDown:
		return "down"
	default:
		return "unknown"
	}
}

const (
	// initialAmplitudeSteps is the first sweep half-width in stepsizes.
	initialAmplitudeSteps = 256
	// MaxSweepAmplitude is half the output range in ramp units.
	MaxSweepAmplitude = 1<<(fixed.SampleBits-1+fixed.StepShift) - 1
)

// RelockState is the volatile state of one relock channel. Current and
// Amplitude are in 2^-StepShift counts.
type RelockState struct {
	Locked    bool
	Sweep     SweepState
	Current   int64
	Amplitude int64
}

type RelockInput struct {
	// Signal is the monitored relock source.
	Signal fixed.Sample
	Rail   RailStatus
	// Hold stops the sweep from advancing.
	Hold bool
}

type RelockOutput struct {
	// Signal is the bias added to the owning PID output.
	Signal fixed.Sample
	// Hold freezes the owning PID while a sweep runs.
	Hold bool
	// ClearIntegrator is a one-tick pulse on loss of lock while railed.
	ClearIntegrator bool
	Locked          bool
}

type Relock struct {
	state RelockState
}

func idleRelockState() RelockState {
	return RelockState{Locked: true}
}

func (r *Relock) Step(par RelockParams, in RelockInput) RelockOutput {
	if !par.Enabled {
		r.state = idleRelockState()
		return RelockOutput{Locked: true}
	}
	s := &r.state

	locked := par.Min < in.Signal && in.Signal < par.Max
	clear := !locked && s.Locked && in.Rail.Any()
	s.Locked = locked

	if !in.Hold {
		step := int64(par.Stepsize)
		if locked {
			r.decay(step)
		} else {
			r.sweep(step, in.Rail)
		}
	}

	return RelockOutput{
		Signal:          fixed.SaturateSample(s.Current >> fixed.StepShift),
		Hold:            !locked,
		ClearIntegrator: clear,
		Locked:          locked,
	}
}

func (r *Relock) sweep(step int64, rail RailStatus) {
	s := &r.state
	// A lock that lasts shorter than the decay leaves the ramp mid-flight
	// with no amplitude; the search restarts from the initial width.
	if s.Amplitude == 0 {
		s.Amplitude = min(step*initialAmplitudeSteps, MaxSweepAmplitude)
	}
	switch s.Sweep {
	case SweepZero:
		s.Sweep = SweepRampUp
	case SweepRampUp:
		s.Current = fixed.Saturate(s.Current+step, fixed.SweepBits)
		if s.Current >= s.Amplitude || rail.Upper {
			s.Sweep = SweepRampDown
			s.Amplitude = min(s.Amplitude*2, MaxSweepAmplitude)
		}
	case SweepRampDown:
		s.Current = fixed.Saturate(s.Current-step, fixed.SweepBits)
		if s.Current <= -s.Amplitude || rail.Lower {
			s.Sweep = SweepRampUp
		}
	}
}

func (r *Relock) decay(step int64) {
	s := &r.state
	s.Amplitude = 0
	if s.Sweep == SweepZero {
		return
	}
	switch {
	case s.Current > step:
		s.Current -= step
	case s.Current < -step:
		s.Current += step
	default:
		s.Current = 0
		s.Sweep = SweepZero
	}
}

func (r *Relock) State() RelockState { return r.state }

func (r *Relock) Reset() { r.state = idleRelockState() }
