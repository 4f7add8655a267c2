package plant

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/san-kum/lockbox/internal/config"
	"github.com/san-kum/lockbox/internal/control"
	"github.com/san-kum/lockbox/internal/engine"
	"github.com/san-kum/lockbox/internal/fixed"
)

// Cavity is an optical resonator tuned by output 1. Input 1 carries a
// dispersive error signal, zero on resonance with positive slope; input 2
// and relock source 0 carry the Lorentzian transmission.
type Cavity struct {
	Offset    float64
	Linewidth float64
	Amplitude float64
	Gain      float64
	Noise     float64
	Jumps     []config.JumpConfig

	seed   int64
	rng    *rand.Rand
	offset float64
	drive  float64
	jitter float64
	tick   int
	next   int
}

func NewCavity(cfg config.PlantConfig, seed int64) (*Cavity, error) {
	c := &Cavity{
		Linewidth: cfg.Linewidth,
		Amplitude: cfg.Amplitude,
		Gain:      cfg.Gain,
		Noise:     cfg.Noise,
		seed:      seed,
	}
	if len(cfg.Offset) > 0 {
		c.Offset = cfg.Offset[0]
	}
	if c.Linewidth <= 0 {
		return nil, fmt.Errorf("%w: linewidth must be positive", ErrBadParam)
	}
	if c.Amplitude <= 0 || c.Amplitude > fixed.SampleMax {
		return nil, fmt.Errorf("%w: amplitude %g out of range", ErrBadParam, c.Amplitude)
	}
	if c.Gain == 0 {
		c.Gain = 1
	}
	if c.Noise < 0 {
		return nil, fmt.Errorf("%w: negative noise", ErrBadParam)
	}
	c.Jumps = append([]config.JumpConfig(nil), cfg.Jumps...)
	sort.Slice(c.Jumps, func(i, j int) bool { return c.Jumps[i].Tick < c.Jumps[j].Tick })
	c.Reset()
	return c, nil
}

func (c *Cavity) Name() string { return "cavity" }

func (c *Cavity) Reset() {
	c.rng = rand.New(rand.NewSource(c.seed))
	c.offset = c.Offset
	c.drive = 0
	c.jitter = 0
	c.tick = 0
	c.next = 0
}

// Detuning is the distance from resonance in output counts.
func (c *Cavity) Detuning() float64 {
	return c.offset + c.Gain*c.drive + c.jitter
}

func (c *Cavity) Inputs() engine.Inputs {
	d := c.Detuning()
	w := c.Linewidth
	den := d*d + w*w
	trans := toSample(c.Amplitude * w * w / den)
	errSig := toSample(c.Amplitude * 2 * d * w / den)
	return engine.Inputs{
		Analog: [control.NumInputs]fixed.Sample{errSig, trans},
		Relock: [control.NumSources]fixed.Sample{trans, errSig, trans, errSig},
	}
}

func (c *Cavity) Apply(out [control.NumOutputs]fixed.Sample) {
	c.drive = float64(out[0])
	c.tick++
	for c.next < len(c.Jumps) && c.Jumps[c.next].Tick <= c.tick {
		c.offset = c.Jumps[c.next].Offset
		c.next++
	}
	if c.Noise > 0 {
		c.jitter = c.Noise * c.rng.NormFloat64()
	}
}
