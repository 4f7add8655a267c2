package control

import "github.com/san-kum/lockbox/internal/fixed"

// Clamp limits one output. The upper limit is checked first, so an inverted
// range pins to Max.
func Clamp(signal fixed.Sample, lim LimitParams) (fixed.Sample, RailStatus) {
	switch {
	case signal >= lim.Max:
		return lim.Max, RailStatus{Upper: true}
	case signal <= lim.Min:
		return lim.Min, RailStatus{Lower: true}
	default:
		return signal, RailStatus{}
	}
}

// Limiter clamps both outputs with a one-tick pipeline delay: Step returns the
// clamp of the raw values latched on the previous call.
type Limiter struct {
	latched [NumOutputs]fixed.Sample
}

func (l *Limiter) Step(raw [NumOutputs]fixed.Sample, limits [NumOutputs]LimitParams) ([NumOutputs]fixed.Sample, [NumOutputs]RailStatus) {
	var out [NumOutputs]fixed.Sample
	var rail [NumOutputs]RailStatus
	for i := range out {
		out[i], rail[i] = Clamp(l.latched[i], limits[i])
	}
	l.latched = raw
	return out, rail
}

func (l *Limiter) Reset() { l.latched = [NumOutputs]fixed.Sample{} }
