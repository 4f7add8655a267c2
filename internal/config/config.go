package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/san-kum/lockbox/internal/control"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPlant = "lag"
	DefaultTicks = 8000
)

// Config is a run file: the plant to drive, how long to drive it, and the
// initial register contents.
type Config struct {
	Plant       string                   `yaml:"plant"`
	Ticks       int                      `yaml:"ticks"`
	Seed        int64                    `yaml:"seed"`
	Scenario    string                   `yaml:"scenario,omitempty"`
	Channels    map[string]ChannelConfig `yaml:"channels,omitempty"`
	Limits      map[string]LimitConfig   `yaml:"limits,omitempty"`
	PlantParams PlantConfig              `yaml:"plant_params"`
}

// ChannelConfig sets one PID channel. KpGain and KiGain, when present, take
// precedence over the raw register values.
type ChannelConfig struct {
	Setpoint        int64        `yaml:"setpoint"`
	Kp              int64        `yaml:"kp"`
	Ki              int64        `yaml:"ki"`
	Kd              int64        `yaml:"kd"`
	KpGain          *float64     `yaml:"kp_gain,omitempty"`
	KiGain          *float64     `yaml:"ki_gain,omitempty"`
	Inverted        bool         `yaml:"inverted"`
	IntegratorReset bool         `yaml:"integrator_reset"`
	ResetWhenRailed bool         `yaml:"reset_when_railed"`
	Hold            bool         `yaml:"hold"`
	ResetPolicy     string       `yaml:"reset_policy,omitempty"`
	ResetCenter     int64        `yaml:"reset_center,omitempty"`
	Relock          RelockConfig `yaml:"relock"`
}

type RelockConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Min      int64    `yaml:"min"`
	Max      int64    `yaml:"max"`
	Stepsize int64    `yaml:"stepsize"`
	Rate     *float64 `yaml:"rate,omitempty"`
	Source   int64    `yaml:"source"`
}

// LimitConfig bounds one output. An omitted bound keeps its full-range
// default.
type LimitConfig struct {
	Min *int64 `yaml:"min,omitempty"`
	Max *int64 `yaml:"max,omitempty"`
}

// PlantConfig carries the parameters of every plant; each plant reads the
// fields it knows.
type PlantConfig struct {
	Alpha     float64      `yaml:"alpha,omitempty"`
	Coupling  [][]float64  `yaml:"coupling,omitempty"`
	Offset    []float64    `yaml:"offset,omitempty"`
	Noise     float64      `yaml:"noise,omitempty"`
	Linewidth float64      `yaml:"linewidth,omitempty"`
	Amplitude float64      `yaml:"amplitude,omitempty"`
	Gain      float64      `yaml:"gain,omitempty"`
	Jumps     []JumpConfig `yaml:"jumps,omitempty"`
}

// JumpConfig moves a plant's offset at a given tick.
type JumpConfig struct {
	Tick   int     `yaml:"tick"`
	Offset float64 `yaml:"offset"`
}

var outputNames = [control.NumOutputs]string{"out1", "out2"}

func DefaultConfig() *Config {
	return &Config{
		Plant: DefaultPlant,
		Ticks: DefaultTicks,
		PlantParams: PlantConfig{
			Alpha: 0.1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Store builds a parameter store holding the register values described by c.
// Every value goes through the same checks as a runtime write.
func (c *Config) Store() (*Store, error) {
	s, err := NewStore(control.DefaultParams())
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(c.Channels))
	for k := range c.Channels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ch, ok := control.ParseChannel(key)
		if !ok {
			return nil, fmt.Errorf("channels.%s: %w", key, ErrInvalidChannel)
		}
		if err := applyChannel(s, int(ch), c.Channels[key]); err != nil {
			return nil, fmt.Errorf("channels.%s: %w", key, err)
		}
	}

	for key, lim := range c.Limits {
		out := -1
		for i, name := range outputNames {
			if key == name {
				out = i
			}
		}
		if out < 0 {
			return nil, fmt.Errorf("limits.%s: %w", key, ErrInvalidChannel)
		}
		for _, b := range []struct {
			name string
			v    *int64
		}{{"limiter.min", lim.Min}, {"limiter.max", lim.Max}} {
			if b.v == nil {
				continue
			}
			if err := s.Set(out, b.name, *b.v); err != nil {
				return nil, fmt.Errorf("limits.%s: %w", key, err)
			}
		}
	}
	return s, nil
}

// Params returns the register values described by c.
func (c *Config) Params() (control.Params, error) {
	s, err := c.Store()
	if err != nil {
		return control.Params{}, err
	}
	return s.Snapshot(), nil
}

func applyChannel(s *Store, ch int, cc ChannelConfig) error {
	kp, ki := cc.Kp, cc.Ki
	if cc.KpGain != nil {
		reg, err := control.KpFromGain(*cc.KpGain)
		if err != nil {
			return fmt.Errorf("kp_gain: %w", ErrInvalidValue)
		}
		kp = int64(reg)
	}
	if cc.KiGain != nil {
		reg, err := control.KiFromGain(*cc.KiGain)
		if err != nil {
			return fmt.Errorf("ki_gain: %w", ErrInvalidValue)
		}
		ki = int64(reg)
	}
	step := cc.Relock.Stepsize
	if cc.Relock.Rate != nil {
		reg, err := control.StepsizeFromRate(*cc.Relock.Rate)
		if err != nil {
			return fmt.Errorf("relock.rate: %w", ErrInvalidValue)
		}
		step = int64(reg)
	}
	policy := int64(control.ResetZero)
	switch cc.ResetPolicy {
	case "", "zero":
	case "center":
		policy = int64(control.ResetCenter)
	default:
		return fmt.Errorf("reset_policy %q: %w", cc.ResetPolicy, ErrInvalidValue)
	}

	writes := []struct {
		name  string
		value int64
	}{
		{"setpoint", cc.Setpoint},
		{"kp", kp},
		{"ki", ki},
		{"kd", cc.Kd},
		{"inverted", b2i(cc.Inverted)},
		{"integratorReset", b2i(cc.IntegratorReset)},
		{"resetWhenRailed", b2i(cc.ResetWhenRailed)},
		{"hold", b2i(cc.Hold)},
		{"integrator.resetPolicy", policy},
		{"integrator.center", cc.ResetCenter},
		{"relock.enabled", b2i(cc.Relock.Enabled)},
		{"relock.min", cc.Relock.Min},
		{"relock.max", cc.Relock.Max},
		{"relock.stepsize", step},
		{"relock.sourceChannel", cc.Relock.Source},
	}
	for _, w := range writes {
		if err := s.Set(ch, w.name, w.value); err != nil {
			return err
		}
	}
	return nil
}
