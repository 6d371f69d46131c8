package config

import (
	"slices"
	"strings"
)

var Presets = map[string]*Config{
	"decay": {
		Name: "decay", Solver: "rk4", Dt: 0.01, Horizon: 10.0,
		Model: ModelConfig{
			Kind: KindTransferFunction,
			Num:  []float64{1}, Den: []float64{1, 1},
			InitialState: []float64{1},
		},
	},
	"fourth_order": {
		Name: "fourth_order", Solver: "rk4", Dt: 0.01, Horizon: 10.0,
		Model: ModelConfig{
			Kind: KindTransferFunction,
			Num:  []float64{3, 1, 1, 5, 4}, Den: []float64{2, 2, 3, 4, 5},
			Input: []float64{1},
		},
	},
	"second_order": {
		Name: "second_order", Solver: "rk4", Dt: 0.01, Horizon: 30.0,
		Model: ModelConfig{
			Kind: KindTransferFunction,
			Num:  []float64{1}, Den: []float64{1, 0.4, 1},
			Input: []float64{1},
		},
	},
	"rlc": {
		Name: "rlc", Solver: "rk4", Dt: 1e-4, Horizon: 0.2,
		Model: ModelConfig{
			Kind: KindRLC,
			R:    10, L: 0.1, CFarad: 1e-4,
			Input: []float64{1},
		},
	},
	// Gain places the closed-loop poles at -20 +/- 10j.
	"rlc_feedback": {
		Name: "rlc_feedback", Solver: "rk4", Dt: 1e-3, Horizon: 0.5,
		Model: ModelConfig{
			Kind: KindRLC,
			R:    10, L: 0.1, CFarad: 1e-4,
			InitialState: []float64{0, 1e-4},
			FeedbackGain: []float64{-6, -9950},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PresetInfo holds a one-line description per preset.
var PresetInfo = map[string]string{
	"decay":        "first order lag, free response from x0 = 1",
	"fourth_order": "4th order transfer function, step input",
	"second_order": "underdamped second order, step input",
	"rlc":          "series RLC circuit, step voltage",
	"rlc_feedback": "series RLC with state feedback, poles at -20+/-10j",
}
