// Package telemetry provides level statistics, bookmarking, frame timing,
// Prometheus metrics and the compressed event journal.
package telemetry

import (
	"log/slog"
	"sort"
)

// Level outcomes.
const (
	OutcomeComplete = "complete" // every agent dead
	OutcomeFailed   = "failed"   // player died
	OutcomeTimeout  = "timeout"  // tick budget exhausted
)

// LevelStats holds aggregated statistics for one played level.
type LevelStats struct {
	Level    int    `csv:"level"`
	Seed     int64  `csv:"seed"`
	Map      string `csv:"map"`
	Fallback bool   `csv:"fallback"`
	Outcome  string `csv:"outcome"`

	Ticks     int64   `csv:"ticks"`
	DurationS float64 `csv:"duration_s"`

	// Combat
	Agents      int     `csv:"agents"`
	Kills       int     `csv:"kills"`
	ShotsFired  int     `csv:"shots_fired"`
	ShotsHit    int     `csv:"shots_hit"`
	Accuracy    float64 `csv:"accuracy"`
	DamageTaken float64 `csv:"damage_taken"`
	MinHealth   float64 `csv:"min_health"` // lowest player health fraction
	EndHealth   float64 `csv:"end_health"`

	// Surviving agent health fractions at level end
	AgentHealthMean float64 `csv:"agent_health_mean"`
	AgentHealthP10  float64 `csv:"agent_health_p10"`
	AgentHealthP50  float64 `csv:"agent_health_p50"`
	AgentHealthP90  float64 `csv:"agent_health_p90"`

	// Coordination
	StrategySwitches int     `csv:"strategy_switches"`
	FinalStrategy    string  `csv:"final_strategy"`
	MessagesSent     uint64  `csv:"messages_sent"`
	PathHits         uint64  `csv:"path_hits"`
	PathMisses       uint64  `csv:"path_misses"`
	MeanAIInterval   float64 `csv:"mean_ai_interval"`

	// Player model at level end
	Skill       float64 `csv:"skill"`
	Style       string  `csv:"style"`
	Frustration float64 `csv:"frustration"`
	Engagement  float64 `csv:"engagement"`

	// Difficulty the level was played at, and the value after the update
	Difficulty     float64 `csv:"difficulty"`
	DifficultyNext float64 `csv:"difficulty_next"`
}

// Completed reports whether the player cleared the level.
func (s LevelStats) Completed() bool { return s.Outcome == OutcomeComplete }

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeHealthStats calculates mean and percentiles from health fractions.
func ComputeHealthStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s LevelStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("level", s.Level),
		slog.Int64("seed", s.Seed),
		slog.String("map", s.Map),
		slog.Bool("fallback", s.Fallback),
		slog.String("outcome", s.Outcome),
		slog.Int64("ticks", s.Ticks),
		slog.Float64("duration_s", s.DurationS),
		slog.Int("agents", s.Agents),
		slog.Int("kills", s.Kills),
		slog.Float64("accuracy", s.Accuracy),
		slog.Float64("damage_taken", s.DamageTaken),
		slog.Float64("min_health", s.MinHealth),
		slog.Int("strategy_switches", s.StrategySwitches),
		slog.String("final_strategy", s.FinalStrategy),
		slog.Uint64("messages_sent", s.MessagesSent),
		slog.Float64("skill", s.Skill),
		slog.String("style", s.Style),
		slog.Float64("frustration", s.Frustration),
		slog.Float64("engagement", s.Engagement),
		slog.Float64("difficulty", s.Difficulty),
		slog.Float64("difficulty_next", s.DifficultyNext),
	)
}

// LogStats logs the level stats using slog.
func (s LevelStats) LogStats() {
	slog.Info("level", "stats", s)
}
