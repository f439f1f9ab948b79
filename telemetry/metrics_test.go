package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SetDifficulty(0.65)
	m.SetAIInterval(4)
	m.SetLiveAgents(7)
	m.StrategySwitch("hunt")
	m.StrategySwitch("hunt")
	m.StrategySwitch("surround")
	m.Advisory(AdvisoryTimeout)
	m.LevelFinished(OutcomeComplete)
	m.PathCache(10, 3)
	m.PathCache(5, 0)
	m.ObserveTick(2 * time.Millisecond)

	if got := testutil.ToFloat64(m.difficulty); got != 0.65 {
		t.Errorf("difficulty = %v, want 0.65", got)
	}
	if got := testutil.ToFloat64(m.aiInterval); got != 4 {
		t.Errorf("ai interval = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.liveAgents); got != 7 {
		t.Errorf("live agents = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.strategySwitches.WithLabelValues("hunt")); got != 2 {
		t.Errorf("hunt switches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.advisories.WithLabelValues(AdvisoryTimeout)); got != 1 {
		t.Errorf("timeouts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.pathHits); got != 15 {
		t.Errorf("path hits = %v, want 15", got)
	}
	if got := testutil.ToFloat64(m.pathMisses); got != 3 {
		t.Errorf("path misses = %v, want 3", got)
	}
	if n := testutil.CollectAndCount(m.tickDuration); n != 1 {
		t.Errorf("tick histogram series = %d, want 1", n)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.SetDifficulty(1)
	m.StrategySwitch("hunt")
	m.Advisory(AdvisoryOK)
	m.PathCache(1, 1)
	m.ObserveTick(time.Millisecond)
}

func TestMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	defer func() {
		if recover() == nil {
			t.Error("registering twice on one registry should panic")
		}
	}()
	NewMetrics(reg)
}
