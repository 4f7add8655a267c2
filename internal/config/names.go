package config

import (
	"sort"

	"github.com/san-kum/lockbox/internal/control"
	"github.com/san-kum/lockbox/internal/fixed"
)

type scope int

const (
	// scopeChannel parameters belong to one of the four PID/relock channels.
	scopeChannel scope = iota
	// scopeOutput parameters belong to one of the two limiter outputs.
	scopeOutput
)

func (s scope) channels() int {
	if s == scopeOutput {
		return control.NumOutputs
	}
	return control.NumChannels
}

type param struct {
	scope scope
	get   func(p *control.Params, ch int) int64
	set   func(p *control.Params, ch int, v int64) error
}

func pidParam(get func(*control.PIDParams) int64, set func(*control.PIDParams, int64) error) param {
	return param{
		scope: scopeChannel,
		get:   func(p *control.Params, ch int) int64 { return get(&p.Channels[ch].PID) },
		set:   func(p *control.Params, ch int, v int64) error { return set(&p.Channels[ch].PID, v) },
	}
}

func relockParam(get func(*control.RelockParams) int64, set func(*control.RelockParams, int64) error) param {
	return param{
		scope: scopeChannel,
		get:   func(p *control.Params, ch int) int64 { return get(&p.Channels[ch].Relock) },
		set:   func(p *control.Params, ch int, v int64) error { return set(&p.Channels[ch].Relock, v) },
	}
}

func limitParam(get func(*control.LimitParams) int64, set func(*control.LimitParams, int64) error) param {
	return param{
		scope: scopeOutput,
		get:   func(p *control.Params, ch int) int64 { return get(&p.Limits[ch]) },
		set:   func(p *control.Params, ch int, v int64) error { return set(&p.Limits[ch], v) },
	}
}

func sampleValue(v int64) (fixed.Sample, error) {
	if !fixed.InRange(v) {
		return 0, ErrInvalidValue
	}
	return fixed.Sample(v), nil
}

func boolValue(v int64) (bool, error) {
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidValue
	}
}

// registerValue rejects negative values and truncates oversized ones to the
// register maximum.
func registerValue(v int64, bits uint) (uint32, error) {
	if v < 0 {
		return 0, ErrInvalidValue
	}
	return uint32(fixed.Mask(v, bits)), nil
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func sampleField(f func(*control.PIDParams) *fixed.Sample) param {
	return pidParam(
		func(p *control.PIDParams) int64 { return int64(*f(p)) },
		func(p *control.PIDParams, v int64) (err error) {
			*f(p), err = sampleValue(v)
			return err
		})
}

func gainField(f func(*control.PIDParams) *uint32, bits uint) param {
	return pidParam(
		func(p *control.PIDParams) int64 { return int64(*f(p)) },
		func(p *control.PIDParams, v int64) (err error) {
			*f(p), err = registerValue(v, bits)
			return err
		})
}

func flagField(f func(*control.PIDParams) *bool) param {
	return pidParam(
		func(p *control.PIDParams) int64 { return b2i(*f(p)) },
		func(p *control.PIDParams, v int64) (err error) {
			*f(p), err = boolValue(v)
			return err
		})
}

var params = map[string]param{
	"setpoint": sampleField(func(p *control.PIDParams) *fixed.Sample { return &p.Setpoint }),
	"kp":       gainField(func(p *control.PIDParams) *uint32 { return &p.Kp }, fixed.KpBits),
	"ki":       gainField(func(p *control.PIDParams) *uint32 { return &p.Ki }, fixed.KiBits),
	"kd":       gainField(func(p *control.PIDParams) *uint32 { return &p.Kd }, fixed.KdBits),

	"inverted":        flagField(func(p *control.PIDParams) *bool { return &p.Inverted }),
	"integratorReset": flagField(func(p *control.PIDParams) *bool { return &p.IntegratorReset }),
	"resetWhenRailed": flagField(func(p *control.PIDParams) *bool { return &p.ResetWhenRailed }),
	"hold":            flagField(func(p *control.PIDParams) *bool { return &p.Hold }),

	"integrator.resetPolicy": pidParam(
		func(p *control.PIDParams) int64 { return int64(p.ResetPolicy) },
		func(p *control.PIDParams, v int64) error {
			if v != int64(control.ResetZero) && v != int64(control.ResetCenter) {
				return ErrInvalidValue
			}
			p.ResetPolicy = control.ResetPolicy(v)
			return nil
		}),
	"integrator.center": sampleField(func(p *control.PIDParams) *fixed.Sample { return &p.ResetCenter }),

	"relock.enabled": relockParam(
		func(p *control.RelockParams) int64 { return b2i(p.Enabled) },
		func(p *control.RelockParams, v int64) (err error) {
			p.Enabled, err = boolValue(v)
			return err
		}),
	"relock.stepsize": relockParam(
		func(p *control.RelockParams) int64 { return int64(p.Stepsize) },
		func(p *control.RelockParams, v int64) (err error) {
			p.Stepsize, err = registerValue(v, fixed.StepsizeBits)
			return err
		}),
	"relock.min": relockParam(
		func(p *control.RelockParams) int64 { return int64(p.Min) },
		func(p *control.RelockParams, v int64) (err error) {
			p.Min, err = sampleValue(v)
			return err
		}),
	"relock.max": relockParam(
		func(p *control.RelockParams) int64 { return int64(p.Max) },
		func(p *control.RelockParams, v int64) (err error) {
			p.Max, err = sampleValue(v)
			return err
		}),
	"relock.sourceChannel": relockParam(
		func(p *control.RelockParams) int64 { return int64(p.Source) },
		func(p *control.RelockParams, v int64) error {
			if v < 0 || v >= control.NumSources {
				return ErrInvalidValue
			}
			p.Source = int(v)
			return nil
		}),

	"limiter.min": limitParam(
		func(p *control.LimitParams) int64 { return int64(p.Min) },
		func(p *control.LimitParams, v int64) (err error) {
			p.Min, err = sampleValue(v)
			return err
		}),
	"limiter.max": limitParam(
		func(p *control.LimitParams) int64 { return int64(p.Max) },
		func(p *control.LimitParams, v int64) (err error) {
			p.Max, err = sampleValue(v)
			return err
		}),
}

// Names lists every parameter name in sorted order.
func Names() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Channels reports how many channels a parameter has, or 0 if unknown.
func Channels(name string) int {
	p, ok := params[name]
	if !ok {
		return 0
	}
	return p.scope.channels()
}
