package engine

import (
	"context"
	"fmt"

	"github.com/san-kum/lockbox/internal/control"
	"github.com/san-kum/lockbox/internal/logger"
)

var log = logger.New("engine")

// Simulator closes the loop between an Engine and a Plant.
type Simulator struct {
	engine    *Engine
	plant     Plant
	hooks     []Hook
	metrics   []Metric
	observers []Observer
	locked    [control.NumChannels]bool
}

func NewSimulator(e *Engine, p Plant) *Simulator {
	return &Simulator{
		engine:    e,
		plant:     p,
		hooks:     make([]Hook, 0),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddHook(h Hook)         { s.hooks = append(s.hooks, h) }
func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Engine() *Engine { return s.engine }
func (s *Simulator) Plant() Plant    { return s.plant }

// Reset rewinds the engine, the plant and every metric.
func (s *Simulator) Reset() {
	s.engine.Reset()
	s.plant.Reset()
	for _, m := range s.metrics {
		m.Reset()
	}
	s.locked = [control.NumChannels]bool{}
}

// Step runs hooks, one engine tick and the plant update.
func (s *Simulator) Step() (Inputs, Outputs, error) {
	tick := s.engine.Ticks()
	for _, h := range s.hooks {
		if err := h.BeforeTick(tick, s.engine.Store()); err != nil {
			return Inputs{}, Outputs{}, &TickError{Tick: tick, Wrapped: err}
		}
	}

	in := s.plant.Inputs()
	if !in.Valid() {
		return in, Outputs{}, &TickError{Tick: tick, Wrapped: ErrInvalidInput}
	}
	out := s.engine.Tick(in)
	s.plant.Apply(out.Out)

	for _, m := range s.metrics {
		m.Observe(in, out)
	}
	for _, obs := range s.observers {
		obs.OnTick(in, out)
	}
	if logger.IsDebug() {
		s.logTransitions(out)
	}
	return in, out, nil
}

func (s *Simulator) logTransitions(out Outputs) {
	for i, locked := range out.Locked {
		if locked != s.locked[i] {
			state := "unlocked"
			if locked {
				state = "locked"
			}
			log.Debug("tick %d: %s %s", out.Tick, control.Channel(i), state)
		}
		s.locked[i] = locked
	}
}

// Run advances the loop cfg.Ticks times from wherever it currently is. The
// context is checked between ticks.
func (s *Simulator) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{Metrics: make(map[string]float64)}
	if cfg.Record {
		result.Inputs = make([]Inputs, 0, cfg.Ticks)
		result.Outputs = make([]Outputs, 0, cfg.Ticks)
	}

	log.Info("run %s for %d ticks", s.plant.Name(), cfg.Ticks)
	var runErr error
	for i := 0; i < cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		in, out, err := s.Step()
		if err != nil {
			runErr = err
			break
		}
		result.TicksRun++
		if cfg.Record {
			result.Inputs = append(result.Inputs, in)
			result.Outputs = append(result.Outputs, out)
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if runErr != nil {
		log.Error("run stopped after %d ticks: %v", result.TicksRun, runErr)
		return result, runErr
	}
	log.Info("run finished after %d ticks", result.TicksRun)
	return result, nil
}

func validateConfig(cfg RunConfig) error {
	if cfg.Ticks <= 0 {
		return fmt.Errorf("%w: ticks must be positive, got %d", ErrInvalidRunConfig, cfg.Ticks)
	}
	return nil
}
