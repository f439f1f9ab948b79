package telemetry

import (
	"math"
	"testing"
)

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(0.5)
	c.Begin(LevelInfo{Level: 3, Seed: 9, Map: "maze", Agents: 4, Difficulty: 0.6}, 100)

	c.RecordShots(10, 4)
	c.RecordShots(0, 0)
	c.RecordKill()
	c.RecordKill()
	c.RecordDamage(30, 0.7)
	c.RecordDamage(20, 0.5)
	c.RecordSwitch()
	c.RecordAIInterval(2)
	c.RecordAIInterval(4)

	s := c.Flush(LevelEnd{
		Tick:           140,
		Outcome:        OutcomeComplete,
		EndHealth:      0.5,
		AgentHealth:    []float64{0.5, 1},
		FinalStrategy:  "hunt",
		DifficultyNext: 0.65,
	})

	if s.Level != 3 || s.Seed != 9 || s.Map != "maze" || s.Agents != 4 {
		t.Errorf("identity = %+v", s)
	}
	if s.Ticks != 40 || s.DurationS != 20 {
		t.Errorf("ticks = %d duration = %v, want 40 and 20", s.Ticks, s.DurationS)
	}
	if math.Abs(s.Accuracy-0.4) > 1e-9 {
		t.Errorf("accuracy = %v, want 0.4", s.Accuracy)
	}
	if s.Kills != 2 || s.DamageTaken != 50 || s.MinHealth != 0.5 {
		t.Errorf("combat = kills %d damage %v min %v", s.Kills, s.DamageTaken, s.MinHealth)
	}
	if s.MeanAIInterval != 3 {
		t.Errorf("mean ai interval = %v, want 3", s.MeanAIInterval)
	}
	if s.AgentHealthMean != 0.75 {
		t.Errorf("agent health mean = %v, want 0.75", s.AgentHealthMean)
	}
	if !s.Completed() {
		t.Error("expected completed level")
	}
}

func TestCollectorBeginResets(t *testing.T) {
	c := NewCollector(1)
	c.Begin(LevelInfo{Level: 1}, 0)
	c.RecordKill()
	c.RecordDamage(90, 0.1)
	c.RecordSwitch()

	c.Begin(LevelInfo{Level: 2}, 500)
	s := c.Flush(LevelEnd{Tick: 510, Outcome: OutcomeFailed, EndHealth: 1})
	if s.Kills != 0 || s.DamageTaken != 0 || s.StrategySwitches != 0 {
		t.Errorf("counters leaked across levels: %+v", s)
	}
	if s.MinHealth != 1 {
		t.Errorf("min health = %v, want 1", s.MinHealth)
	}
	if s.Accuracy != 0 {
		t.Errorf("accuracy with no shots = %v, want 0", s.Accuracy)
	}
}
