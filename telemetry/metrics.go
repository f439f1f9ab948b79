package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Advisory outcomes. Label values stay within this set.
const (
	AdvisoryOK       = "ok"
	AdvisoryFallback = "fallback"
	AdvisoryTimeout  = "timeout"
	AdvisoryCooldown = "cooldown"
	AdvisoryDropped  = "dropped"
)

// Metrics holds the Prometheus collectors for a session. A nil *Metrics
// records nothing.
type Metrics struct {
	tickDuration     prometheus.Histogram
	aiInterval       prometheus.Gauge
	liveAgents       prometheus.Gauge
	difficulty       prometheus.Gauge
	strategySwitches *prometheus.CounterVec // label: strategy (bounded)
	advisories       *prometheus.CounterVec // label: outcome (bounded)
	levels           *prometheus.CounterVec // label: outcome (bounded)
	pathHits         prometheus.Counter
	pathMisses       prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "arena_tick_duration_seconds",
			Help:    "Time spent in one simulation step",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
		}),
		aiInterval: f.NewGauge(prometheus.GaugeOpts{
			Name: "arena_ai_interval_ticks",
			Help: "Ticks between AI updates",
		}),
		liveAgents: f.NewGauge(prometheus.GaugeOpts{
			Name: "arena_live_agents",
			Help: "Agents alive in the current level",
		}),
		difficulty: f.NewGauge(prometheus.GaugeOpts{
			Name: "arena_difficulty",
			Help: "Current difficulty value",
		}),
		strategySwitches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_strategy_switches_total",
			Help: "Hive-mind strategy changes by new strategy",
		}, []string{"strategy"}),
		advisories: f.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_advisories_total",
			Help: "Advisory requests by outcome",
		}, []string{"outcome"}),
		levels: f.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_levels_total",
			Help: "Finished levels by outcome",
		}, []string{"outcome"}),
		pathHits: f.NewCounter(prometheus.CounterOpts{
			Name: "arena_path_cache_hits_total",
			Help: "Path requests served from the cache",
		}),
		pathMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "arena_path_cache_misses_total",
			Help: "Path requests that ran a search",
		}),
	}
}

// ObserveTick records one step's duration.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}

// SetAIInterval records the current AI update interval.
func (m *Metrics) SetAIInterval(n int) {
	if m == nil {
		return
	}
	m.aiInterval.Set(float64(n))
}

// SetLiveAgents records the live agent count.
func (m *Metrics) SetLiveAgents(n int) {
	if m == nil {
		return
	}
	m.liveAgents.Set(float64(n))
}

// SetDifficulty records the current difficulty value.
func (m *Metrics) SetDifficulty(v float64) {
	if m == nil {
		return
	}
	m.difficulty.Set(v)
}

// StrategySwitch counts a change to strategy.
func (m *Metrics) StrategySwitch(strategy string) {
	if m == nil {
		return
	}
	m.strategySwitches.WithLabelValues(strategy).Inc()
}

// Advisory counts an advisory outcome.
func (m *Metrics) Advisory(outcome string) {
	if m == nil {
		return
	}
	m.advisories.WithLabelValues(outcome).Inc()
}

// LevelFinished counts a finished level.
func (m *Metrics) LevelFinished(outcome string) {
	if m == nil {
		return
	}
	m.levels.WithLabelValues(outcome).Inc()
}

// PathCache adds cache hit and miss deltas.
func (m *Metrics) PathCache(hits, misses uint64) {
	if m == nil {
		return
	}
	m.pathHits.Add(float64(hits))
	m.pathMisses.Add(float64(misses))
}
