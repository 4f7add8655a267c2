package plant

import (
	"errors"
	"testing"

	"github.com/san-kum/lockbox/internal/config"
	"github.com/san-kum/lockbox/internal/control"
	"github.com/san-kum/lockbox/internal/fixed"
)

func TestNew(t *testing.T) {
	for _, name := range Names() {
		cfg := config.PlantConfig{Alpha: 0.5, Linewidth: 10, Amplitude: 1000}
		p, err := New(name, cfg, 1)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Name() = %q, want %q", p.Name(), name)
		}
	}
	if _, err := New("pendulum", config.PlantConfig{}, 0); !errors.Is(err, ErrUnknownPlant) {
		t.Errorf("expected ErrUnknownPlant, got %v", err)
	}
}

func TestBadParams(t *testing.T) {
	tests := []struct {
		name  string
		plant string
		cfg   config.PlantConfig
	}{
		{"zero alpha", "lag", config.PlantConfig{}},
		{"alpha above one", "lag", config.PlantConfig{Alpha: 2}},
		{"short coupling", "lag", config.PlantConfig{Alpha: 0.1, Coupling: [][]float64{{1, 0}}}},
		{"ragged coupling", "lag", config.PlantConfig{Alpha: 0.1, Coupling: [][]float64{{1}, {0, 1}}}},
		{"three offsets", "lag", config.PlantConfig{Alpha: 0.1, Offset: []float64{1, 2, 3}}},
		{"no linewidth", "cavity", config.PlantConfig{Amplitude: 100}},
		{"huge amplitude", "cavity", config.PlantConfig{Linewidth: 1, Amplitude: 9000}},
		{"negative noise", "cavity", config.PlantConfig{Linewidth: 1, Amplitude: 100, Noise: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.plant, tt.cfg, 0); !errors.Is(err, ErrBadParam) {
				t.Errorf("expected ErrBadParam, got %v", err)
			}
		})
	}
}

func TestLagSettles(t *testing.T) {
	l, err := NewLag(config.PlantConfig{Alpha: 0.2, Offset: []float64{100, -100}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if in := l.Inputs(); in.Analog[0] != 100 || in.Analog[1] != -100 {
		t.Fatalf("initial inputs = %v, want offsets", in.Analog)
	}
	for i := 0; i < 200; i++ {
		l.Apply([control.NumOutputs]fixed.Sample{1000, 2000})
	}
	in := l.Inputs()
	if in.Analog[0] != 1100 || in.Analog[1] != 1900 {
		t.Errorf("settled inputs = %v, want [1100 1900]", in.Analog)
	}
	if in.Relock[2] != in.Analog[0] || in.Relock[3] != in.Analog[1] {
		t.Errorf("relock sources = %v", in.Relock)
	}
}

func TestLagCoupling(t *testing.T) {
	l, err := NewLag(config.PlantConfig{Alpha: 1, Coupling: [][]float64{{1, 0.5}, {-0.5, 1}}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	l.Apply([control.NumOutputs]fixed.Sample{1000, 2000})
	in := l.Inputs()
	if in.Analog[0] != 2000 || in.Analog[1] != 1500 {
		t.Errorf("inputs = %v, want [2000 1500]", in.Analog)
	}
}

func TestLagSaturatesInputs(t *testing.T) {
	l, _ := NewLag(config.PlantConfig{Alpha: 1, Coupling: [][]float64{{4, 0}, {0, 4}}}, 0)
	l.Apply([control.NumOutputs]fixed.Sample{8000, -8000})
	in := l.Inputs()
	if in.Analog[0] != fixed.SampleMax || in.Analog[1] != fixed.SampleMin {
		t.Errorf("inputs = %v, want rails", in.Analog)
	}
}

func TestLagNoiseDeterministic(t *testing.T) {
	cfg := config.PlantConfig{Alpha: 0.1, Noise: 5}
	run := func() []fixed.Sample {
		l, _ := NewLag(cfg, 42)
		var trace []fixed.Sample
		for i := 0; i < 50; i++ {
			l.Apply([control.NumOutputs]fixed.Sample{})
			trace = append(trace, l.Inputs().Analog[0])
		}
		return trace
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tick %d: %d != %d", i, a[i], b[i])
		}
	}
}

func TestCavityLineshape(t *testing.T) {
	c, err := NewCavity(config.PlantConfig{Linewidth: 50, Amplitude: 4000}, 0)
	if err != nil {
		t.Fatal(err)
	}

	in := c.Inputs()
	if in.Relock[0] != 4000 || in.Analog[0] != 0 {
		t.Errorf("on resonance: trans %d err %d", in.Relock[0], in.Analog[0])
	}

	c.Apply([control.NumOutputs]fixed.Sample{50})
	in = c.Inputs()
	if in.Relock[0] != 2000 {
		t.Errorf("one linewidth out: trans %d, want 2000", in.Relock[0])
	}
	if in.Analog[0] != 4000 {
		t.Errorf("one linewidth out: err %d, want 4000", in.Analog[0])
	}

	c.Apply([control.NumOutputs]fixed.Sample{-50})
	if err := c.Inputs().Analog[0]; err != -4000 {
		t.Errorf("error signal below resonance = %d, want -4000", err)
	}
}

func TestCavityJumps(t *testing.T) {
	c, _ := NewCavity(config.PlantConfig{
		Offset: []float64{0}, Linewidth: 10, Amplitude: 1000,
		Jumps: []config.JumpConfig{{Tick: 5, Offset: 300}, {Tick: 2, Offset: 100}},
	}, 0)

	want := map[int]float64{1: 0, 2: 100, 4: 100, 5: 300, 9: 300}
	for tick := 1; tick <= 9; tick++ {
		c.Apply([control.NumOutputs]fixed.Sample{})
		if w, ok := want[tick]; ok && c.Detuning() != w {
			t.Errorf("tick %d: detuning %g, want %g", tick, c.Detuning(), w)
		}
	}

	c.Reset()
	if c.Detuning() != 0 {
		t.Errorf("detuning after reset = %g", c.Detuning())
	}
}
