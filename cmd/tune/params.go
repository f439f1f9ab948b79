package main

import (
	"github.com/pthm-cable/arena/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters: the
// hive-mind scoring weights and the difficulty step.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Hunt
			{Name: "hunt_advantage", Path: "hivemind.weights.hunt_advantage", Min: 0, Max: 1, Default: 0.3},
			{Name: "hunt_deficit", Path: "hivemind.weights.hunt_deficit", Min: 0, Max: 1, Default: 0.3},
			{Name: "hunt_open_penalty", Path: "hivemind.weights.hunt_open_penalty", Min: 0, Max: 1, Default: 0.2},
			// Surround
			{Name: "surround_base", Path: "hivemind.weights.surround_base", Min: 0, Max: 1, Default: 0.2},
			{Name: "surround_advantage", Path: "hivemind.weights.surround_advantage", Min: 0, Max: 1, Default: 0.2},
			{Name: "surround_open", Path: "hivemind.weights.surround_open", Min: 0, Max: 1, Default: 0.3},
			{Name: "surround_deficit", Path: "hivemind.weights.surround_deficit", Min: 0, Max: 1, Default: 0.2},
			// Ambush
			{Name: "ambush_base", Path: "hivemind.weights.ambush_base", Min: 0, Max: 1, Default: 0.1},
			{Name: "ambush_rusher", Path: "hivemind.weights.ambush_rusher", Min: 0, Max: 1, Default: 0.4},
			{Name: "ambush_cover", Path: "hivemind.weights.ambush_cover", Min: 0, Max: 1, Default: 0.3},
			// Retreat
			{Name: "retreat_attrition", Path: "hivemind.weights.retreat_attrition", Min: 0, Max: 1, Default: 0.5},
			{Name: "retreat_accuracy", Path: "hivemind.weights.retreat_accuracy", Min: 0, Max: 1, Default: 0.4},
			// Bait
			{Name: "bait_rusher", Path: "hivemind.weights.bait_rusher", Min: 0, Max: 1, Default: 0.4},
			{Name: "bait_advantage", Path: "hivemind.weights.bait_advantage", Min: 0, Max: 1, Default: 0.1},
			// Difficulty
			{Name: "difficulty_step", Path: "difficulty.step", Min: 0.01, Max: 0.2, Default: 0.05},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	w := &cfg.Hivemind.Weights

	w.HuntAdvantage, w.HuntDeficit, w.HuntOpenPenalty = c[0], c[1], c[2]
	w.SurroundBase, w.SurroundAdvantage, w.SurroundOpen, w.SurroundDeficit = c[3], c[4], c[5], c[6]
	w.AmbushBase, w.AmbushRusher, w.AmbushCover = c[7], c[8], c[9]
	w.RetreatAttrition, w.RetreatAccuracy = c[10], c[11]
	w.BaitRusher, w.BaitAdvantage = c[12], c[13]
	cfg.Difficulty.Step = c[14]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	w := cfg.Hivemind.Weights
	return []float64{
		w.HuntAdvantage, w.HuntDeficit, w.HuntOpenPenalty,
		w.SurroundBase, w.SurroundAdvantage, w.SurroundOpen, w.SurroundDeficit,
		w.AmbushBase, w.AmbushRusher, w.AmbushCover,
		w.RetreatAttrition, w.RetreatAccuracy,
		w.BaitRusher, w.BaitAdvantage,
		cfg.Difficulty.Step,
	}
}
