package control

import "github.com/san-kum/lockbox/internal/fixed"

type MatrixInput struct {
	In     [NumInputs]fixed.Sample
	Relock [NumSources]fixed.Sample
	// Rail is the limiter status from the previous tick.
	Rail [NumOutputs]RailStatus
}

type MatrixOutput struct {
	Raw [NumOutputs]fixed.Sample
	// Channel holds each PID output with its relock bias already added.
	Channel [NumChannels]fixed.Sample
	Locked  [NumChannels]bool
	Cleared [NumChannels]bool
}

type stage struct {
	pid    PID
	relock Relock
}

// Matrix is the 2x2 cross-coupled controller.
type Matrix struct {
	stages [NumChannels]stage
}

func NewMatrix() *Matrix {
	m := &Matrix{}
	m.Reset()
	return m
}

func (m *Matrix) Step(p *Params, in MatrixInput) MatrixOutput {
	var out MatrixOutput
	for i := range m.stages {
		ch := Channel(i)
		st := &m.stages[i]
		cp := &p.Channels[i]
		rail := in.Rail[ch.Output()]

		var monitor fixed.Sample
		if src := cp.Relock.Source; src >= 0 && src < NumSources {
			monitor = in.Relock[src]
		}
		ro := st.relock.Step(cp.Relock, RelockInput{
			Signal: monitor,
			Rail:   rail,
			Hold:   cp.PID.Hold,
		})
		po := st.pid.Step(cp.PID, PIDInput{
			Sample:          in.In[ch.Input()],
			Rail:            rail,
			Hold:            ro.Hold,
			ClearIntegrator: ro.ClearIntegrator,
		})

		out.Channel[i] = fixed.SaturateSample(int64(po) + int64(ro.Signal))
		out.Locked[i] = ro.Locked
		out.Cleared[i] = ro.ClearIntegrator
	}
	for o := range out.Raw {
		a := out.Channel[o*NumInputs]
		b := out.Channel[o*NumInputs+1]
		out.Raw[o] = fixed.SaturateSample(int64(a) + int64(b))
	}
	return out
}

// Reset returns every channel to its power-on state.
func (m *Matrix) Reset() {
	for i := range m.stages {
		m.stages[i].pid.Reset()
		m.stages[i].relock.Reset()
	}
}

func (m *Matrix) PID(ch Channel) *PID { return &m.stages[ch].pid }

func (m *Matrix) Relock(ch Channel) *Relock { return &m.stages[ch].relock }
