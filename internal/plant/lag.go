package plant

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/lockbox/internal/config"
	"github.com/san-kum/lockbox/internal/control"
	"github.com/san-kum/lockbox/internal/engine"
	"github.com/san-kum/lockbox/internal/fixed"
)

// Lag is a first-order lag on each input, driven by a coupled mix of both
// outputs. Input j settles to Offset[j] + sum_i Coupling[j][i]*out[i].
type Lag struct {
	Alpha    float64
	Coupling [control.NumInputs][control.NumOutputs]float64
	Offset   [control.NumInputs]float64
	Noise    float64

	seed int64
	rng  *rand.Rand
	y    [control.NumInputs]float64
}

func NewLag(cfg config.PlantConfig, seed int64) (*Lag, error) {
	l := &Lag{
		Alpha:    cfg.Alpha,
		Coupling: [2][2]float64{{1, 0}, {0, 1}},
		Noise:    cfg.Noise,
		seed:     seed,
	}
	if l.Alpha <= 0 || l.Alpha > 1 {
		return nil, fmt.Errorf("%w: alpha %g not in (0, 1]", ErrBadParam, l.Alpha)
	}
	if cfg.Coupling != nil {
		if len(cfg.Coupling) != control.NumInputs {
			return nil, fmt.Errorf("%w: coupling needs %d rows", ErrBadParam, control.NumInputs)
		}
		for j, row := range cfg.Coupling {
			if len(row) != control.NumOutputs {
				return nil, fmt.Errorf("%w: coupling row %d needs %d columns", ErrBadParam, j, control.NumOutputs)
			}
			copy(l.Coupling[j][:], row)
		}
	}
	if len(cfg.Offset) > control.NumInputs {
		return nil, fmt.Errorf("%w: %d offsets", ErrBadParam, len(cfg.Offset))
	}
	copy(l.Offset[:], cfg.Offset)
	if l.Noise < 0 {
		return nil, fmt.Errorf("%w: negative noise", ErrBadParam)
	}
	l.Reset()
	return l, nil
}

func (l *Lag) Name() string { return "lag" }

func (l *Lag) Reset() {
	l.rng = rand.New(rand.NewSource(l.seed))
	l.y = l.Offset
}

func (l *Lag) Inputs() engine.Inputs {
	a := [control.NumInputs]fixed.Sample{toSample(l.y[0]), toSample(l.y[1])}
	return engine.Inputs{
		Analog: a,
		Relock: [control.NumSources]fixed.Sample{a[0], a[1], a[0], a[1]},
	}
}

func (l *Lag) Apply(out [control.NumOutputs]fixed.Sample) {
	for j := range l.y {
		drive := l.Offset[j]
		for i, u := range out {
			drive += l.Coupling[j][i] * float64(u)
		}
		l.y[j] += l.Alpha * (drive - l.y[j])
		if l.Noise > 0 {
			l.y[j] += l.Noise * l.rng.NormFloat64()
		}
	}
}
