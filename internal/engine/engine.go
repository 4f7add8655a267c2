package engine

import (
	"github.com/san-kum/lockbox/internal/config"
	"github.com/san-kum/lockbox/internal/control"
)

// Engine owns all per-tick state. It is not safe for concurrent use; only the
// Store it reads from may be shared.
type Engine struct {
	store   *config.Store
	matrix  *control.Matrix
	limiter control.Limiter
	rail    [control.NumOutputs]control.RailStatus
	params  control.Params
	ticks   uint64
}

func New(store *config.Store) *Engine {
	return &Engine{
		store:  store,
		matrix: control.NewMatrix(),
		params: store.Snapshot(),
	}
}

// Tick runs one sample period.
func (e *Engine) Tick(in Inputs) Outputs {
	e.params = e.store.Snapshot()

	mo := e.matrix.Step(&e.params, control.MatrixInput{
		In:     in.Analog,
		Relock: in.Relock,
		Rail:   e.rail,
	})
	out, rail := e.limiter.Step(mo.Raw, e.params.Limits)
	e.rail = rail
	e.ticks++

	return Outputs{
		Out:     out,
		Raw:     mo.Raw,
		Rail:    rail,
		Locked:  mo.Locked,
		Cleared: mo.Cleared,
		Tick:    e.ticks,
	}
}

// Reset returns the controller to its power-on state. Parameters are kept.
func (e *Engine) Reset() {
	e.matrix.Reset()
	e.limiter.Reset()
	e.rail = [control.NumOutputs]control.RailStatus{}
	e.ticks = 0
}

func (e *Engine) Store() *config.Store { return e.store }

// Params is the snapshot the last tick ran with.
func (e *Engine) Params() control.Params { return e.params }

func (e *Engine) Ticks() uint64 { return e.ticks }

func (e *Engine) Rail() [control.NumOutputs]control.RailStatus { return e.rail }

func (e *Engine) PIDState(ch control.Channel) control.PIDState {
	return e.matrix.PID(ch).State()
}

func (e *Engine) Terms(ch control.Channel) control.Terms {
	return e.matrix.PID(ch).Terms()
}

func (e *Engine) RelockState(ch control.Channel) control.RelockState {
	return e.matrix.Relock(ch).State()
}
