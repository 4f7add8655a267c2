package config

import "sort"

func gain(v float64) *float64 { return &v }

func bound(v int64) *int64 { return &v }

var Presets = map[string]*Config{
	// lock settles a single lag loop onto a setpoint.
	"lock": {
		Plant: "lag", Ticks: 8000,
		Channels: map[string]ChannelConfig{
			"pid11": {Setpoint: 7000, Kp: 2000, Ki: 1000000, Inverted: true},
		},
		PlantParams: PlantConfig{Alpha: 0.1},
	},
	// relock finds a cavity resonance, loses it on a detuning jump and finds it again.
	"relock": {
		Plant: "cavity", Ticks: 20000,
		Channels: map[string]ChannelConfig{
			"pid11": {
				Kp: 1000, Ki: 200000, Inverted: true,
				Relock: RelockConfig{Enabled: true, Min: 2000, Max: 8191, Rate: gain(1)},
			},
		},
		PlantParams: PlantConfig{
			Offset: []float64{1000}, Linewidth: 50, Amplitude: 4000, Gain: 1,
			Jumps: []JumpConfig{{Tick: 10000, Offset: -1500}},
		},
	},
	// mimo runs both diagonal loops on a cross-coupled plant.
	"mimo": {
		Plant: "lag", Ticks: 10000,
		Channels: map[string]ChannelConfig{
			"pid11": {Setpoint: 3000, Kp: 2000, Ki: 800000, Inverted: true},
			"pid22": {Setpoint: -2000, Kp: 2000, Ki: 800000, Inverted: true},
		},
		PlantParams: PlantConfig{
			Alpha:    0.1,
			Coupling: [][]float64{{1, 0.3}, {0.3, 1}},
		},
	},
	// reset drives a loop into a narrow limiter so the integrator resets on
	// every rail.
	"reset": {
		Plant: "lag", Ticks: 4000,
		Channels: map[string]ChannelConfig{
			"pid11": {Setpoint: 7000, Kp: 2000, Ki: 1000000, Inverted: true, ResetWhenRailed: true},
		},
		Limits: map[string]LimitConfig{
			"out1": {Min: bound(-4000), Max: bound(4000)},
		},
		PlantParams: PlantConfig{Alpha: 0.1},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
