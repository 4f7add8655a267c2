package control

import "github.com/san-kum/lockbox/internal/fixed"

// PIDState is the volatile state of one channel.
type PIDState struct {
	Integrator       int64
	LastDerivative   int64
	HeldProportional int64
	HeldDerivative   int64
}

// Terms are the contributions summed into the last output, before
// saturation.
type Terms struct {
	P, I, D int64
}

type PIDInput struct {
	Sample fixed.Sample
	// Rail is the owning output's rail status from the previous tick.
	Rail RailStatus
	// Hold freezes the channel in addition to PIDParams.Hold.
	Hold bool
	// ClearIntegrator forces an integrator reset for this tick.
	ClearIntegrator bool
}

type PID struct {
	state PIDState
	terms Terms
}

func (p *PID) Step(par PIDParams, in PIDInput) fixed.Sample {
	s := &p.state

	e := int64(in.Sample) - int64(par.Setpoint)
	if par.Inverted {
		e = -e
	}
	hold := par.Hold || in.Hold

	if !hold {
		s.HeldProportional = (e * int64(par.Kp)) >> fixed.PSR
	}

	product := e * int64(par.Ki)
	reset := par.IntegratorReset || in.ClearIntegrator ||
		(par.ResetWhenRailed && in.Rail.Any())
	switch {
	case reset:
		s.Integrator = resetValue(par)
	case hold:
	case in.Rail.Lower && product < 0:
	case in.Rail.Upper && product > 0:
	default:
		s.Integrator = fixed.Saturate(s.Integrator+product, fixed.IntegratorBits)
	}

	dec := (e * int64(par.Kd)) >> fixed.DSR
	if !hold {
		s.HeldDerivative = dec - s.LastDerivative
	}
	s.LastDerivative = dec

	p.terms = Terms{
		P: s.HeldProportional,
		I: s.Integrator >> fixed.ISR,
		D: s.HeldDerivative,
	}
	return fixed.SaturateSample(p.terms.P + p.terms.I + p.terms.D)
}

func resetValue(par PIDParams) int64 {
	if par.ResetPolicy == ResetCenter {
		return int64(par.ResetCenter) << fixed.ISR
	}
	return 0
}

func (p *PID) State() PIDState { return p.state }

func (p *PID) Terms() Terms { return p.terms }

// Reset clears integrator and derivative history.
func (p *PID) Reset() {
	p.state = PIDState{}
	p.terms = Terms{}
}
