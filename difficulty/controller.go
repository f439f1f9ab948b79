// Package difficulty implements the closed-loop difficulty controller and
// the longer-term difficulty model persisted with the player profile.
package difficulty

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
)

// PerformanceSample is one level's outcome, each ratio in [0,1].
type PerformanceSample struct {
	SurvivalRatio   float64 `json:"survival_ratio"`
	HealthRetention float64 `json:"health_retention"`
	KillEfficiency  float64 `json:"kill_efficiency"`
}

// Score is the weighted combination of the three ratios.
func (s PerformanceSample) Score(cfg *config.DifficultyConfig) float64 {
	ws, wh, wk := cfg.SurvivalWeight, cfg.HealthWeight, cfg.KillWeight
	total := ws + wh + wk
	if !(total > 0) {
		ws, wh, wk, total = 1, 1, 1, 3
	}
	v := ws*sanitize(s.SurvivalRatio) + wh*sanitize(s.HealthRetention) + wk*sanitize(s.KillEfficiency)
	return v / total
}

// LogValue implements slog.LogValuer.
func (s PerformanceSample) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("survival", s.SurvivalRatio),
		slog.Float64("health", s.HealthRetention),
		slog.Float64("kills", s.KillEfficiency),
	)
}

// Controller nudges a difficulty scalar toward keeping the player's rolling
// performance at the target.
type Controller struct {
	cfg    *config.DifficultyConfig
	value  float64
	window []float64
}

// ControllerState is the persisted form of a Controller.
type ControllerState struct {
	Value  float64   `json:"value"`
	Window []float64 `json:"window"`
}

// NewController starts at the configured initial difficulty.
func NewController(cfg *config.DifficultyConfig) *Controller {
	c := &Controller{cfg: cfg}
	c.value = c.clamp(cfg.Initial)
	return c
}

// Value returns the current difficulty in [Min, Max].
func (c *Controller) Value() float64 { return c.value }

// RollingMean returns the mean score over the window, or 0 when empty.
func (c *Controller) RollingMean() float64 {
	if len(c.window) == 0 {
		return 0
	}
	return stat.Mean(c.window, nil)
}

// Update records a sample and moves the difficulty one step.
func (c *Controller) Update(sample PerformanceSample) float64 {
	score := sample.Score(c.cfg)
	c.window = append(c.window, score)
	if len(c.window) > c.cfg.Window {
		c.window = append(c.window[:0], c.window[len(c.window)-c.cfg.Window:]...)
	}

	mean := c.RollingMean()
	prev := c.value
	if mean > c.cfg.Target {
		c.value = c.clamp(c.value + c.cfg.Step)
	} else {
		c.value = c.clamp(c.value - c.cfg.Step)
	}

	slog.Debug("difficulty update",
		"sample", sample,
		"score", score,
		"rolling", mean,
		"from", prev,
		"to", c.value,
	)
	return c.value
}

// Multiplier maps the difficulty linearly onto [MultiplierMin, MultiplierMax].
func (c *Controller) Multiplier() float64 {
	span := c.cfg.Max - c.cfg.Min
	t := 0.5
	if span > 0 {
		t = (c.value - c.cfg.Min) / span
	}
	return c.cfg.MultiplierMin + t*(c.cfg.MultiplierMax-c.cfg.MultiplierMin)
}

// Apply scales an agent's stats by the multiplier exactly once. Returns
// false when the agent was already adjusted.
func (c *Controller) Apply(a *components.Agent) bool {
	if a.DifficultyAdjusted {
		return false
	}
	hf := a.HealthFraction()
	a.Stats = a.Stats.Scale(float32(c.Multiplier()))
	a.MaxHealth = a.Stats.MaxHealth
	a.Health = hf * a.MaxHealth
	a.DifficultyAdjusted = true
	return true
}

// Snapshot returns the controller state for persistence.
func (c *Controller) Snapshot() ControllerState {
	return ControllerState{Value: c.value, Window: append([]float64(nil), c.window...)}
}

// Restore loads a persisted state; out-of-range values are clamped.
func (c *Controller) Restore(s ControllerState) {
	c.value = c.clamp(s.Value)
	c.window = c.window[:0]
	for _, v := range s.Window {
		c.window = append(c.window, sanitize(v))
	}
	if len(c.window) > c.cfg.Window {
		c.window = c.window[len(c.window)-c.cfg.Window:]
	}
}

func (c *Controller) clamp(v float64) float64 {
	if math.IsNaN(v) {
		v = c.cfg.Initial
	}
	return math.Max(c.cfg.Min, math.Min(c.cfg.Max, v))
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
