package telemetry

import (
	"math"
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClocked(window int) (*PerfCollector, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	pc := NewPerfCollector(window)
	pc.SetClock(clk.now)
	return pc, clk
}

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc, clk := newClocked(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseAI)
		clk.advance(100 * time.Microsecond)
		pc.StartPhase(PhaseHivemind)
		clk.advance(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration != 300*time.Microsecond {
		t.Errorf("avg tick = %v, want 300µs", stats.AvgTickDuration)
	}
	if got := stats.PhaseAvg[PhaseAI]; got != 100*time.Microsecond {
		t.Errorf("ai avg = %v, want 100µs", got)
	}
	if got := stats.PhaseAvg[PhaseHivemind]; got != 200*time.Microsecond {
		t.Errorf("hivemind avg = %v, want 200µs", got)
	}
	if pc.Samples() != 5 {
		t.Errorf("samples = %d, want 5", pc.Samples())
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc, clk := newClocked(5)

	// Five slow ticks followed by five fast ones; only the fast remain.
	for i := 0; i < 10; i++ {
		d := time.Millisecond
		if i >= 5 {
			d = 100 * time.Microsecond
		}
		pc.StartTick()
		pc.StartPhase(PhaseMovement)
		clk.advance(d)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration != 100*time.Microsecond {
		t.Errorf("avg tick = %v, want 100µs", stats.AvgTickDuration)
	}
	if stats.MaxTickDuration != 100*time.Microsecond {
		t.Errorf("max tick = %v, want 100µs", stats.MaxTickDuration)
	}
	if math.Abs(stats.TicksPerSecond-10000) > 1e-6 {
		t.Errorf("ticks/sec = %v, want 10000", stats.TicksPerSecond)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc, clk := newClocked(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseComms)
		clk.advance(25 * time.Microsecond)
		pc.StartPhase(PhaseAI)
		clk.advance(75 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if math.Abs(stats.PhasePct[PhaseComms]-25) > 1e-9 {
		t.Errorf("comms pct = %v, want 25", stats.PhasePct[PhaseComms])
	}
	if math.Abs(stats.PhasePct[PhaseAI]-75) > 1e-9 {
		t.Errorf("ai pct = %v, want 75", stats.PhasePct[PhaseAI])
	}

	row := stats.ToCSV(2, 600, 3)
	if row.Level != 2 || row.WindowEnd != 600 || row.AIInterval != 3 {
		t.Errorf("csv header fields = %+v", row)
	}
	if math.Abs(row.AIPct-75) > 1e-9 {
		t.Errorf("csv ai pct = %v, want 75", row.AIPct)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc, clk := newClocked(10)

	pc.RecordFrame()
	if pc.FPS() != 0 {
		t.Errorf("fps before second frame = %v, want 0", pc.FPS())
	}
	clk.advance(20 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration != 20*time.Millisecond {
		t.Errorf("frame duration = %v, want 20ms", stats.FrameDuration)
	}
	if math.Abs(stats.FPS-50) > 1e-9 {
		t.Errorf("fps = %v, want 50", stats.FPS)
	}
}
