package metrics

import (
	"github.com/san-kum/lockbox/internal/engine"
)

// ControlEffort is the mean absolute clamped output, summed over outputs.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(in engine.Inputs, out engine.Outputs) {
	for _, val := range out.Out {
		if val < 0 {
			val = -val
		}
		c.sum += float64(val)
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
