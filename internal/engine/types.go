package engine

import (
	"github.com/san-kum/lockbox/internal/config"
	"github.com/san-kum/lockbox/internal/control"
	"github.com/san-kum/lockbox/internal/fixed"
)

// Inputs are the samples presented to one tick.
type Inputs struct {
	Analog [control.NumInputs]fixed.Sample
	// Relock holds the monitor signals the relock channels can select.
	Relock [control.NumSources]fixed.Sample
}

func (in Inputs) Valid() bool {
	for _, s := range in.Analog {
		if !s.Valid() {
			return false
		}
	}
	for _, s := range in.Relock {
		if !s.Valid() {
			return false
		}
	}
	return true
}

// Outputs is everything one tick produced.
type Outputs struct {
	// Out is the clamped output, delayed one tick behind Raw.
	Out     [control.NumOutputs]fixed.Sample
	Raw     [control.NumOutputs]fixed.Sample
	Rail    [control.NumOutputs]control.RailStatus
	Locked  [control.NumChannels]bool
	Cleared [control.NumChannels]bool
	Tick    uint64
}

// Plant is the system under control. Inputs reports what the plant shows the
// controller now; Apply feeds back the clamped outputs of the tick.
type Plant interface {
	Name() string
	Inputs() Inputs
	Apply(out [control.NumOutputs]fixed.Sample)
	Reset()
}

type Metric interface {
	Name() string
	Observe(in Inputs, out Outputs)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(in Inputs, out Outputs)
}

// Hook runs before every tick and may write parameters. Writes land in the
// tick that follows the hook.
type Hook interface {
	BeforeTick(tick uint64, store *config.Store) error
}

type RunConfig struct {
	Ticks int
	// Record keeps every tick's inputs and outputs in the Result.
	Record bool
}

type Result struct {
	Inputs   []Inputs
	Outputs  []Outputs
	Metrics  map[string]float64
	TicksRun int
}

// HookFunc adapts a function to Hook.
type HookFunc func(tick uint64, store *config.Store) error

func (f HookFunc) BeforeTick(tick uint64, store *config.Store) error {
	return f(tick, store)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(in Inputs, out Outputs)

func (f ObserverFunc) OnTick(in Inputs, out Outputs) { f(in, out) }
