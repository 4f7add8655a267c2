package control

import (
	"testing"

	"github.com/san-kum/lockbox/internal/fixed"
)

func TestPIDProportional(t *testing.T) {
	tests := []struct {
		name     string
		par      PIDParams
		input    fixed.Sample
		expected fixed.Sample
	}{
		{"kp 2000 error 4096", PIDParams{Kp: 2000}, 4096, 2000},
		{"inverted", PIDParams{Kp: 2000, Inverted: true}, 4096, -2000},
		{"setpoint offset", PIDParams{Kp: 4096, Setpoint: 100}, 300, 200},
		{"floor on negative", PIDParams{Kp: 1}, -1, -1},
		{"positive saturation", PIDParams{Kp: 0xFFFFFF}, 100, fixed.SampleMax},
		{"negative saturation", PIDParams{Kp: 0xFFFFFF}, -100, fixed.SampleMin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PID
			got := p.Step(tt.par, PIDInput{Sample: tt.input})
			if got != tt.expected {
				t.Errorf("Step() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestPIDProportionalTerm(t *testing.T) {
	var p PID
	p.Step(PIDParams{Kp: 2000}, PIDInput{Sample: 4096})
	if got := p.Terms().P; got != 2000 {
		t.Errorf("P = %d, want 2000", got)
	}
}

func TestPIDOutputAlwaysInRange(t *testing.T) {
	par := PIDParams{Kp: 0xFFFFFF, Ki: 0xFFFFFF, Kd: 0x3FFF, Setpoint: fixed.SampleMin}
	var p PID
	inputs := []fixed.Sample{fixed.SampleMax, fixed.SampleMin, 0, fixed.SampleMax, -1, 4000}
	for i := 0; i < 2000; i++ {
		out := p.Step(par, PIDInput{Sample: inputs[i%len(inputs)]})
		if !out.Valid() {
			t.Fatalf("tick %d: output %d out of range", i, out)
		}
	}
}

func TestPIDIntegratorAccumulates(t *testing.T) {
	var p PID
	par := PIDParams{Ki: 1 << 20}
	for i := 0; i < 3; i++ {
		p.Step(par, PIDInput{Sample: 100})
	}
	if got, want := p.State().Integrator, int64(3*100)<<20; got != want {
		t.Errorf("integrator = %d, want %d", got, want)
	}
	if got := p.Terms().I; got != (int64(300)<<20)>>fixed.ISR {
		t.Errorf("I = %d", got)
	}
}

func TestPIDIntegratorSaturates(t *testing.T) {
	var p PID
	par := PIDParams{Ki: 0xFFFFFF, Setpoint: fixed.SampleMin}
	for i := 0; i < 100; i++ {
		out := p.Step(par, PIDInput{Sample: fixed.SampleMax})
		if !out.Valid() {
			t.Fatalf("output %d out of range", out)
		}
	}
	if got, want := p.State().Integrator, int64(1)<<(fixed.IntegratorBits-1)-1; got != want {
		t.Errorf("integrator = %d, want %d", got, want)
	}

	par = PIDParams{Ki: 0xFFFFFF, Setpoint: fixed.SampleMax}
	for i := 0; i < 300; i++ {
		p.Step(par, PIDInput{Sample: fixed.SampleMin})
	}
	if got, want := p.State().Integrator, -(int64(1) << (fixed.IntegratorBits - 1)); got != want {
		t.Errorf("integrator = %d, want %d", got, want)
	}
}

func TestPIDAntiWindup(t *testing.T) {
	tests := []struct {
		name   string
		input  fixed.Sample
		rail   RailStatus
		frozen bool
	}{
		{"upper rail positive product", 10, RailStatus{Upper: true}, true},
		{"upper rail negative product", -10, RailStatus{Upper: true}, false},
		{"lower rail negative product", -10, RailStatus{Lower: true}, true},
		{"lower rail positive product", 10, RailStatus{Lower: true}, false},
		{"no rail", 10, RailStatus{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PID
			par := PIDParams{Ki: 1000}
			p.Step(par, PIDInput{Sample: 5})
			before := p.State().Integrator

			p.Step(par, PIDInput{Sample: tt.input, Rail: tt.rail})
			after := p.State().Integrator

			if tt.frozen && after != before {
				t.Errorf("integrator moved %d -> %d while railed", before, after)
			}
			if !tt.frozen && after == before {
				t.Errorf("integrator stuck at %d", after)
			}
		})
	}
}

func TestPIDIntegratorReset(t *testing.T) {
	tests := []struct {
		name string
		par  PIDParams
		in   PIDInput
		want int64
	}{
		{"explicit", PIDParams{Ki: 1000, IntegratorReset: true}, PIDInput{Sample: 50}, 0},
		{"clear input", PIDParams{Ki: 1000}, PIDInput{Sample: 50, ClearIntegrator: true}, 0},
		{"railed", PIDParams{Ki: 1000, ResetWhenRailed: true}, PIDInput{Sample: 50, Rail: RailStatus{Lower: true}}, 0},
		{"railed but disabled", PIDParams{Ki: 1000}, PIDInput{Sample: 50, Rail: RailStatus{Lower: true}}, 2 * 50 * 1000},
		{"reset beats hold", PIDParams{Ki: 1000, Hold: true, IntegratorReset: true}, PIDInput{Sample: 50}, 0},
		{"center policy", PIDParams{Ki: 1000, IntegratorReset: true, ResetPolicy: ResetCenter, ResetCenter: -300}, PIDInput{Sample: 50}, -300 << fixed.ISR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PID
			p.Step(PIDParams{Ki: 1000}, PIDInput{Sample: 50})
			p.Step(tt.par, tt.in)
			if got := p.State().Integrator; got != tt.want {
				t.Errorf("integrator = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPIDCenterResetOutput(t *testing.T) {
	var p PID
	par := PIDParams{IntegratorReset: true, ResetPolicy: ResetCenter, ResetCenter: 1234}
	if got := p.Step(par, PIDInput{}); got != 1234 {
		t.Errorf("output = %d, want 1234", got)
	}
}

func TestPIDDerivative(t *testing.T) {
	var p PID
	par := PIDParams{Kd: 1024}
	steps := []struct {
		input fixed.Sample
		d     int64
	}{
		{100, 100},
		{150, 50},
		{150, 0},
		{120, -30},
	}
	for i, s := range steps {
		out := p.Step(par, PIDInput{Sample: s.input})
		if got := p.Terms().D; got != s.d {
			t.Errorf("tick %d: D = %d, want %d", i, got, s.d)
		}
		if int64(out) != s.d {
			t.Errorf("tick %d: output = %d, want %d", i, out, s.d)
		}
	}
}

func TestPIDHoldFreezesPD(t *testing.T) {
	var p PID
	par := PIDParams{Kp: 4096, Kd: 2048, Ki: 1 << 16}
	p.Step(par, PIDInput{Sample: 100})
	p.Step(par, PIDInput{Sample: 300})
	frozen := p.Terms()
	integ := p.State().Integrator

	par.Hold = true
	for _, in := range []fixed.Sample{-500, 4000, 7, 7} {
		p.Step(par, PIDInput{Sample: in})
		got := p.Terms()
		if got.P != frozen.P || got.D != frozen.D {
			t.Fatalf("held terms changed: %+v -> %+v", frozen, got)
		}
		if p.State().Integrator != integ {
			t.Fatalf("integrator moved while held")
		}
	}

	par.IntegratorReset = true
	p.Step(par, PIDInput{Sample: 50})
	if p.State().Integrator != 0 {
		t.Errorf("reset ignored while held")
	}
	if got := p.Terms(); got.P != frozen.P || got.D != frozen.D {
		t.Errorf("reset disturbed held terms: %+v", got)
	}
}

func TestPIDHoldOverride(t *testing.T) {
	var p PID
	par := PIDParams{Kp: 4096}
	p.Step(par, PIDInput{Sample: 10})
	if got := p.Step(par, PIDInput{Sample: 900, Hold: true}); got != 10 {
		t.Errorf("held output = %d, want 10", got)
	}
}

func TestPIDDerivativeTracksDuringHold(t *testing.T) {
	var p PID
	par := PIDParams{Kd: 1024}
	p.Step(par, PIDInput{Sample: 100})
	p.Step(PIDParams{Kd: 1024, Hold: true}, PIDInput{Sample: 400})
	p.Step(par, PIDInput{Sample: 410})
	if got := p.Terms().D; got != 10 {
		t.Errorf("D after hold = %d, want 10", got)
	}
}

func TestPIDReset(t *testing.T) {
	var p PID
	p.Step(PIDParams{Ki: 1000, Kd: 100}, PIDInput{Sample: 999})
	p.Reset()
	if p.State() != (PIDState{}) {
		t.Errorf("state after reset = %+v", p.State())
	}
}
