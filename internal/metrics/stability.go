package metrics

import (
	"fmt"

	"github.com/san-kum/lockbox/internal/engine"
	"github.com/san-kum/lockbox/internal/fixed"
)

// OutOfBand is the fraction of ticks an input spent further than threshold
// from its target.
type OutOfBand struct {
	name       string
	input      int
	target     fixed.Sample
	threshold  int
	violations int
	samples    int
}

func NewOutOfBand(input int, target fixed.Sample, threshold int) *OutOfBand {
	return &OutOfBand{
		name:      fmt.Sprintf("out_of_band_in%d", input+1),
		input:     input,
		target:    target,
		threshold: threshold,
	}
}

func (s *OutOfBand) Name() string {
	return s.name
}

func (s *OutOfBand) Observe(in engine.Inputs, out engine.Outputs) {
	s.samples++
	d := int(in.Analog[s.input]) - int(s.target)
	if d > s.threshold || d < -s.threshold {
		s.violations++
	}
}

func (s *OutOfBand) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.violations) / float64(s.samples)
}

func (s *OutOfBand) Reset() {
	s.violations = 0
	s.samples = 0
}
