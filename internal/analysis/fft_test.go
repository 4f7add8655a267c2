package analysis

import (
	"math"
	"testing"
)

func TestFFTImpulse(t *testing.T) {
	out := FFT([]float64{1, 0, 0, 0, 0, 0, 0, 0})
	for k, v := range out {
		if math.Abs(real(v)-1) > 1e-12 || math.Abs(imag(v)) > 1e-12 {
			t.Errorf("bin %d = %v, want 1", k, v)
		}
	}
}

func TestDominantFrequency(t *testing.T) {
	data := make([]float64, 1000)
	for i := range data {
		data[i] = 7000 + 40*math.Sin(2*math.Pi*float64(i)/16)
	}
	f, mag := DominantFrequency(data)
	if f != 1.0/16 {
		t.Errorf("frequency = %g, want %g", f, 1.0/16)
	}
	if math.Abs(mag-40) > 0.5 {
		t.Errorf("magnitude = %g, want 40", mag)
	}
}

func TestDominantFrequencyFlat(t *testing.T) {
	data := make([]float64, 64)
	for i := range data {
		data[i] = 123
	}
	_, mag := DominantFrequency(data)
	if mag > 1e-9 {
		t.Errorf("flat series magnitude = %g", mag)
	}
	if f, mag := DominantFrequency([]float64{1, 2}); f != 0 || mag != 0 {
		t.Errorf("short series = %g %g", f, mag)
	}
}
