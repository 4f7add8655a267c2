package config

import (
	"fmt"
	"sync"

	"github.com/san-kum/lockbox/internal/control"
	"github.com/san-kum/lockbox/internal/fixed"
	"github.com/san-kum/lockbox/internal/logger"
)

var log = logger.New("config")

// Store holds the pending parameter set. Writers may run concurrently with the
// tick loop; the loop takes one Snapshot per tick and never sees a partial write.
type Store struct {
	mu      sync.Mutex
	params  control.Params
	version uint64
}

// NewStore validates p and returns a store holding it.
func NewStore(p control.Params) (*Store, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	return &Store{params: p}, nil
}

// Set writes one named parameter on one channel. Gains above their register
// width are truncated to the register maximum; any other bad write is rejected
// and leaves the store unchanged.
func (s *Store) Set(channel int, name string, value int64) error {
	par, err := lookup(channel, name, value)
	if err != nil {
		log.Debug("rejected %s[%d]=%d: %v", name, channel, value, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.params
	if err := par.set(&next, channel, value); err != nil {
		log.Debug("rejected %s[%d]=%d: %v", name, channel, value, err)
		return &ParamError{Channel: channel, Name: name, Value: value, Wrapped: err}
	}
	s.params = next
	s.version++
	return nil
}

// Get reads one named parameter back in its register form.
func (s *Store) Get(channel int, name string) (int64, error) {
	par, err := lookup(channel, name, 0)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return par.get(&s.params, channel), nil
}

// Update applies fn to a copy of the pending set and commits the result only
// if fn succeeds and the result validates.
func (s *Store) Update(fn func(p *control.Params) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.params
	if err := fn(&next); err != nil {
		return err
	}
	if err := Validate(next); err != nil {
		return err
	}
	s.params = next
	s.version++
	return nil
}

// Snapshot returns a consistent copy of the pending set.
func (s *Store) Snapshot() control.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Version increments on every committed write.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func lookup(channel int, name string, value int64) (param, error) {
	par, ok := params[name]
	if !ok {
		return param{}, &ParamError{Channel: channel, Name: name, Value: value, Wrapped: ErrUnknownParameter}
	}
	if channel < 0 || channel >= par.scope.channels() {
		return param{}, &ParamError{Channel: channel, Name: name, Value: value, Wrapped: ErrInvalidChannel}
	}
	return par, nil
}

// Validate checks every field of p against its register range.
func Validate(p control.Params) error {
	for i, cp := range p.Channels {
		pid := cp.PID
		checks := []struct {
			name string
			ok   bool
		}{
			{"setpoint", pid.Setpoint.Valid()},
			{"kp", int64(pid.Kp) <= fixed.Max(fixed.KpBits)},
			{"ki", int64(pid.Ki) <= fixed.Max(fixed.KiBits)},
			{"kd", int64(pid.Kd) <= fixed.Max(fixed.KdBits)},
			{"integrator.resetPolicy", pid.ResetPolicy == control.ResetZero || pid.ResetPolicy == control.ResetCenter},
			{"integrator.center", pid.ResetCenter.Valid()},
			{"relock.min", cp.Relock.Min.Valid()},
			{"relock.max", cp.Relock.Max.Valid()},
			{"relock.stepsize", int64(cp.Relock.Stepsize) <= fixed.Max(fixed.StepsizeBits)},
			{"relock.sourceChannel", cp.Relock.Source >= 0 && cp.Relock.Source < control.NumSources},
		}
		for _, c := range checks {
			if !c.ok {
				return &ParamError{Channel: i, Name: c.name, Value: params[c.name].get(&p, i), Wrapped: ErrInvalidValue}
			}
		}
	}
	for i, lim := range p.Limits {
		if !lim.Min.Valid() {
			return &ParamError{Channel: i, Name: "limiter.min", Value: int64(lim.Min), Wrapped: ErrInvalidValue}
		}
		if !lim.Max.Valid() {
			return &ParamError{Channel: i, Name: "limiter.max", Value: int64(lim.Max), Wrapped: ErrInvalidValue}
		}
	}
	return nil
}

// Describe renders the parameters of one channel for display.
func Describe(p control.Params, ch control.Channel) string {
	cp := p.Channels[ch]
	return fmt.Sprintf("%s: setpoint=%d kp=%d ki=%d kd=%d inverted=%t relock=%t src=%d [%d,%d]",
		ch, cp.PID.Setpoint, cp.PID.Kp, cp.PID.Ki, cp.PID.Kd, cp.PID.Inverted,
		cp.Relock.Enabled, cp.Relock.Source, cp.Relock.Min, cp.Relock.Max)
}
