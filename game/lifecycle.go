package game

import (
	"log/slog"

	"github.com/pthm-cable/arena/advisor"
	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/difficulty"
	"github.com/pthm-cable/arena/procgen"
	"github.com/pthm-cable/arena/systems"
	"github.com/pthm-cable/arena/telemetry"
)

// rageQuitTicks is how soon after a death quitting counts as a rage quit.
const rageQuitTicks = 600

// startLevel generates level n and replaces every per-level subsystem.
func (g *Game) startLevel(n int) {
	if n < 1 {
		n = 1
	}
	seed := g.rng.Int63()
	lvl := g.generator.Generate(n, g.profile, g.history, g.model, seed)

	g.level = lvl
	g.levelNum = n
	g.levelTick = 0
	g.lastAITick = 0
	g.lastSample = 0
	g.spawned = 0
	g.mods = neutralModifiers()
	g.advisedLow, g.advisedMany, g.advisedWin = false, false, false

	cs := lvl.CellSize()
	worldW := float32(lvl.Width()) * cs
	worldH := float32(lvl.Height()) * cs
	g.grid = systems.NewNavGridFromTiles(lvl, cs)
	g.pathfinder = systems.NewPathfinder(g.grid, g.cfg.Pathfinding.CacheSize, g.cfg.Pathfinding.MaxIterations)
	g.pathHits, g.pathMisses = 0, 0
	g.spatial = systems.NewSpatialGrid(worldW, worldH, cs*2)
	g.executor = systems.NewExecutor(&g.cfg.Behavior, g.pathfinder, worldW, worldH, seed)
	g.coordinator = systems.NewCoordinator(&g.cfg.Hivemind, g.grid)
	g.bus = systems.NewBus(&g.cfg.Comms)

	g.resetWorld()
	for _, sp := range lvl.Agents {
		g.spawnAgent(sp)
	}
	g.gatherAgents()
	g.initial = len(g.agents)

	g.events = g.events[:0]
	for _, ev := range lvl.Events {
		g.events = append(g.events, activeEvent{TimedEvent: ev})
	}
	g.items = g.items[:0]
	for _, it := range lvl.Items {
		g.items = append(g.items, pickup{Item: it})
	}

	g.respawn(lvl.SpawnPos())
	g.sample = components.PlayerState{}

	g.collector.Begin(telemetry.LevelInfo{
		Level:      n,
		Seed:       seed,
		Map:        lvl.Map.String(),
		Fallback:   lvl.Fallback,
		Agents:     g.initial,
		Difficulty: g.difficulty.Value(),
	}, g.tick)

	g.metrics.SetLiveAgents(g.initial)
	g.metrics.SetDifficulty(g.difficulty.Value())
	g.effects.TriggerEffect(EffectLevelTransition, EffectParams{Pos: g.player.Pos, Value: float64(n), Text: lvl.Narrative.Title})
	g.pushMessage(Message{Tick: g.tick, Source: "level", Text: lvl.Narrative.Briefing})
	g.logLevelStart()

	if err := g.journal.Record(telemetry.JournalLevelStart, n, g.tick, map[string]any{
		"seed":       seed,
		"map":        lvl.Map.String(),
		"agents":     g.initial,
		"difficulty": g.difficulty.Value(),
		"target":     lvl.Spec.TargetDifficulty,
	}); err != nil {
		logJournalError(err)
	}
	for _, ferr := range lvl.Failures {
		if err := g.journal.Record(telemetry.JournalGeneration, n, g.tick, map[string]any{"error": ferr.Error()}); err != nil {
			logJournalError(err)
		}
	}

	g.askAdvice(advisor.CategoryLevelStart)
}

// checkLevelEnd finishes the level on player death, a cleared roster or
// the tick limit.
func (g *Game) checkLevelEnd() {
	switch {
	case !g.player.Alive():
		g.finishLevel(telemetry.OutcomeFailed)
	case g.LiveAgents() == 0:
		g.finishLevel(telemetry.OutcomeComplete)
	case g.cfg.Sim.MaxTicksPerLevel > 0 && g.levelTick >= int64(g.cfg.Sim.MaxTicksPerLevel):
		g.finishLevel(telemetry.OutcomeTimeout)
	}
}

// finishLevel closes out the level: difficulty and model updates, profile
// persistence, telemetry, then the next level.
func (g *Game) finishLevel(outcome string) {
	died := outcome == telemetry.OutcomeFailed
	completed := outcome == telemetry.OutcomeComplete

	// Flush the pending profile sample so the death and last shots count.
	if g.sample.DT > 0 || g.sample.ShotsFired > 0 || died {
		g.sample.Died = died
		g.observeProfile()
	}

	kills := g.collector.Kills()
	accuracy := 0.0
	if g.profile.ShotsFired > 0 {
		accuracy = float64(g.profile.Accuracy)
	}
	sample := difficulty.PerformanceSample{
		SurvivalRatio:   g.survivalRatio(died),
		HealthRetention: float64(g.player.HealthFraction()),
		KillEfficiency:  ratio(kills, g.spawned),
	}
	before := g.difficulty.Value()
	next := g.difficulty.Update(sample)

	skill := procgen.EstimateSkill(accuracy, sample.SurvivalRatio, sample.KillEfficiency, g.cfg.Procgen.Skill)
	g.model.Record(g.levelNum, skill, next)
	if !g.extended && g.cfg.Profile.EngagementSession > 0 &&
		float64(g.profile.SessionSeconds) >= 2*g.cfg.Profile.EngagementSession {
		g.extended = true
		g.model.ExtendedSession()
	}

	g.history = boundOutcomes(append(g.history, procgen.Outcome{
		Level:           g.levelNum,
		Accuracy:        accuracy,
		SurvivalRatio:   sample.SurvivalRatio,
		KillRatio:       sample.KillEfficiency,
		HealthRetention: sample.HealthRetention,
		Died:            died,
		Difficulty:      next,
	}))

	g.session.Levels++
	if died {
		g.session.Deaths++
		g.lastDeath = g.tick
	}
	g.saveProfile(completed, kills)

	g.recordLevel(outcome, skill, next)

	slog.Info("level finished",
		"level", g.levelNum,
		"outcome", outcome,
		"ticks", g.levelTick,
		"kills", kills,
		"sample", sample,
		"difficulty_before", before,
		"difficulty", next,
		"skill", skill,
	)

	g.levelsDone++
	if g.opts.MaxLevels > 0 && g.levelsDone >= g.opts.MaxLevels {
		g.done = true
		return
	}
	nextLevel := g.levelNum
	if completed {
		nextLevel++
	}
	g.startLevel(nextLevel)
}

// survivalRatio is 1 for a survived level, otherwise the share of the
// level's time limit the player lasted.
func (g *Game) survivalRatio(died bool) float64 {
	if !died {
		return 1
	}
	limit := g.cfg.Sim.MaxTicksPerLevel
	if limit <= 0 {
		return 0
	}
	r := float64(g.levelTick) / float64(limit)
	if r > 1 {
		r = 1
	}
	return r
}

// quit ends the session early. Quitting shortly after a death is a rage
// quit and makes the difficulty model ease off sooner.
func (g *Game) quit() {
	if g.done {
		return
	}
	if g.lastDeath >= 0 && g.tick-g.lastDeath <= rageQuitTicks {
		g.session.RageQuit = true
		g.model.RageQuit()
		g.saveProfile(false, 0)
		slog.Info("rage quit", "level", g.levelNum, "ticks_since_death", g.tick-g.lastDeath)
	}
	g.done = true
}

func ratio(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}
