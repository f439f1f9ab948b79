package game

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/arena/advisor"
	"github.com/pthm-cable/arena/config"
	"github.com/pthm-cable/arena/store"
)

// stepClock advances a fixed step on every reading.
func stepClock(step time.Duration) func() time.Time {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Sim.MaxTicksPerLevel = 900
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config, opts Options) *Game {
	t.Helper()
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Clock == nil {
		opts.Clock = stepClock(time.Millisecond)
	}
	g, err := NewGame(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

func TestHeadlessSessionFinishesLevels(t *testing.T) {
	st := store.NewMemoryStore()
	g := newTestGame(t, testConfig(), Options{Seed: 1, MaxLevels: 2, Store: st})

	ticks, err := g.RunHeadless(context.Background(), NewAutopilot(1), 10000)
	if err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	if !g.Done() {
		t.Fatalf("session not done after %d ticks", ticks)
	}
	if g.LevelsDone() != 2 {
		t.Errorf("LevelsDone = %d, want 2", g.LevelsDone())
	}
	if got := g.Session().Levels; got != 2 {
		t.Errorf("session levels = %d, want 2", got)
	}

	cfg := testConfig()
	outcomes := g.Outcomes()
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Difficulty < cfg.Difficulty.Min || o.Difficulty > cfg.Difficulty.Max {
			t.Errorf("outcome %d difficulty %v outside [%v, %v]", i, o.Difficulty, cfg.Difficulty.Min, cfg.Difficulty.Max)
		}
		if o.SurvivalRatio < 0 || o.SurvivalRatio > 1 || o.KillRatio < 0 || o.KillRatio > 1 {
			t.Errorf("outcome %d ratios out of range: %+v", i, o)
		}
	}

	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	rec, err := st.Load(context.Background(), DefaultPlayerID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rec.LearningData) == 0 {
		t.Error("learning data not persisted")
	}
	if rec.Preferences[prefWeapon] == "" || rec.Preferences[prefMap] == "" {
		t.Errorf("preferences = %v, want weapon and last_map", rec.Preferences)
	}
}

func TestHeadlessSessionDeterministic(t *testing.T) {
	run := func() (int64, int, []float64) {
		g := newTestGame(t, testConfig(), Options{Seed: 42, MaxLevels: 2})
		defer g.Close()
		ticks, err := g.RunHeadless(context.Background(), NewAutopilot(42), 10000)
		if err != nil {
			t.Fatalf("RunHeadless: %v", err)
		}
		var diffs []float64
		for _, o := range g.Outcomes() {
			diffs = append(diffs, o.Difficulty, o.SurvivalRatio, o.KillRatio)
		}
		return ticks, g.LevelNum(), diffs
	}

	t1, l1, d1 := run()
	t2, l2, d2 := run()
	if t1 != t2 || l1 != l2 {
		t.Fatalf("runs diverged: ticks %d vs %d, level %d vs %d", t1, t2, l1, l2)
	}
	if len(d1) != len(d2) {
		t.Fatalf("outcome count %d vs %d", len(d1), len(d2))
	}
	for i := range d1 {
		if d1[i] != d2[i] {
			t.Errorf("outcome value %d: %v vs %v", i, d1[i], d2[i])
		}
	}
}

func TestRunHeadlessTickLimit(t *testing.T) {
	g := newTestGame(t, testConfig(), Options{Seed: 3})
	defer g.Close()

	ticks, err := g.RunHeadless(context.Background(), InputFunc(func(*Game) InputSignals { return NoInput }), 50)
	if err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	if ticks != 50 || g.Tick() != 50 {
		t.Errorf("ticks = %d tick = %d, want 50", ticks, g.Tick())
	}
}

func TestRunHeadlessCancelled(t *testing.T) {
	g := newTestGame(t, testConfig(), Options{Seed: 3})
	defer g.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.RunHeadless(ctx, InputFunc(func(*Game) InputSignals { return NoInput }), 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestProfilePersistsAcrossSessions(t *testing.T) {
	st := store.NewMemoryStore()
	g1 := newTestGame(t, testConfig(), Options{Seed: 5, MaxLevels: 1, Store: st})
	if _, err := g1.RunHeadless(context.Background(), NewAutopilot(5), 5000); err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	want := g1.Difficulty()
	if err := g1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	g2 := newTestGame(t, testConfig(), Options{Seed: 6, Store: st})
	defer g2.Close()
	if got := g2.Difficulty(); math.Abs(got-want) > 1e-12 {
		t.Errorf("restored difficulty = %v, want %v", got, want)
	}
	if n := len(g2.Outcomes()); n != 1 {
		t.Errorf("restored outcomes = %d, want 1", n)
	}
	if got, want := g2.LevelNum(), g2.Record().BestLevel+1; got != want {
		t.Errorf("start level = %d, want %d", got, want)
	}
}

func TestSpawnAppliesDifficultyOnce(t *testing.T) {
	g := newTestGame(t, testConfig(), Options{Seed: 9})
	defer g.Close()

	mult := float32(g.difficulty.Multiplier())
	spawns := g.Level().Agents
	if len(g.agents) != len(spawns) {
		t.Fatalf("agents = %d, spawns = %d", len(g.agents), len(spawns))
	}
	for _, a := range g.agents {
		sp := spawns[a.ID-1]
		if !a.DifficultyAdjusted {
			t.Errorf("agent %d not adjusted", a.ID)
		}
		if want := sp.Stats.MaxHealth * mult; math.Abs(float64(a.MaxHealth-want)) > 1e-3 {
			t.Errorf("agent %d max health = %v, want %v", a.ID, a.MaxHealth, want)
		}
		if g.difficulty.Apply(a) {
			t.Errorf("agent %d scaled twice", a.ID)
		}
	}
}

func TestCleanupDeadRemovesEntities(t *testing.T) {
	g := newTestGame(t, testConfig(), Options{Seed: 11})
	defer g.Close()

	before := g.LiveAgents()
	if before == 0 {
		t.Fatal("level has no agents")
	}
	victim := g.agents[0]
	id := victim.ID
	victim.Kill()
	g.cleanupDead()

	if got := g.LiveAgents(); got != before-1 {
		t.Errorf("live agents = %d, want %d", got, before-1)
	}
	if len(g.agents) != before-1 {
		t.Errorf("agent view = %d, want %d", len(g.agents), before-1)
	}
	if _, _, ok := g.agentState(id); ok {
		t.Errorf("agent %d still has state", id)
	}
}

func TestAIIntervalAdapts(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cfg := testConfig()
	g := newTestGame(t, cfg, Options{Seed: 2, Clock: clock})
	defer g.Close()

	frames := func(n int, d time.Duration) {
		for i := 0; i < n; i++ {
			now = now.Add(d)
			g.RecordFrame()
			g.adjustAIInterval()
		}
	}

	start := g.AIInterval()
	// The first frame only primes the frame timer.
	frames(cfg.Sim.FPSWindow+1, 100*time.Millisecond)
	if got := g.AIInterval(); got != start+1 {
		t.Fatalf("slow window: interval = %d, want %d", got, start+1)
	}

	frames(cfg.Sim.FPSWindow, 10*time.Millisecond)
	if got := g.AIInterval(); got != start {
		t.Fatalf("fast window: interval = %d, want %d", got, start)
	}

	// Within the water marks nothing changes.
	frames(cfg.Sim.FPSWindow, time.Second/50)
	if got := g.AIInterval(); got != start {
		t.Fatalf("steady window: interval = %d, want %d", got, start)
	}

	frames(cfg.Sim.FPSWindow*(cfg.Sim.AIIntervalMax+2), 100*time.Millisecond)
	if got := g.AIInterval(); got != cfg.Sim.AIIntervalMax {
		t.Errorf("interval = %d, want max %d", got, cfg.Sim.AIIntervalMax)
	}
}

func TestQuitSoonAfterDeathIsRageQuit(t *testing.T) {
	tests := []struct {
		name      string
		lastDeath func(g *Game) int64
		want      bool
	}{
		{"no death", func(*Game) int64 { return -1 }, false},
		{"just died", func(g *Game) int64 { return g.Tick() }, true},
		{"long ago", func(g *Game) int64 { return g.Tick() - rageQuitTicks - 1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, testConfig(), Options{Seed: 4})
			defer g.Close()
			if _, err := g.RunHeadless(context.Background(), InputFunc(func(*Game) InputSignals { return NoInput }), rageQuitTicks+10); err != nil {
				t.Fatalf("RunHeadless: %v", err)
			}
			g.lastDeath = tt.lastDeath(g)

			g.Step(InputSignals{Quit: true, Weapon: KeepWeapon})
			if !g.Done() {
				t.Fatal("quit did not end the session")
			}
			if got := g.Session().RageQuit; got != tt.want {
				t.Errorf("rage quit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeaponSwitchAndFire(t *testing.T) {
	g := newTestGame(t, testConfig(), Options{Seed: 8})
	defer g.Close()

	ammo := g.Player().Ammo
	g.Step(InputSignals{Weapon: 2, Fire: true})
	p := g.Player()
	if p.Weapon != 2 {
		t.Errorf("weapon = %d, want 2", p.Weapon)
	}
	if p.Ammo != ammo-1 {
		t.Errorf("ammo = %d, want %d", p.Ammo, ammo-1)
	}

	// Cooldown blocks the next shot.
	g.Step(InputSignals{Weapon: KeepWeapon, Fire: true})
	if got := g.Player().Ammo; got != ammo-1 {
		t.Errorf("ammo after cooldown shot = %d, want %d", got, ammo-1)
	}
}

// blockingService answers only after release is closed.
type blockingService struct {
	release chan struct{}
}

func (s blockingService) Advise(ctx context.Context, _ advisor.Situation) (string, error) {
	select {
	case <-s.release:
		return "Hold the line.", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestAdvisoryDoesNotBlockFrames(t *testing.T) {
	cfg := testConfig()
	cfg.Advisor.Enabled = true
	cfg.Advisor.CooldownS = 0
	cfg.Advisor.TimeoutS = 30
	svc := blockingService{release: make(chan struct{})}
	g := newTestGame(t, cfg, Options{Seed: 7, Advisor: svc})

	for i := 0; i < 30; i++ {
		g.Step(NoInput)
	}
	for _, m := range g.Messages() {
		if m.Source == "advisor" {
			t.Fatalf("advisory delivered before the service answered: %+v", m)
		}
	}

	close(svc.release)
	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	var found bool
	for _, m := range g.Messages() {
		if m.Source == "advisor" {
			found = true
			if m.Fallback || m.Text != "Hold the line." {
				t.Errorf("advisory message = %+v", m)
			}
		}
	}
	if !found {
		t.Error("level start advisory never delivered")
	}
}
