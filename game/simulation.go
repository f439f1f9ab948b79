package game

import (
	"math"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/player"
	"github.com/pthm-cable/arena/systems"
	"github.com/pthm-cable/arena/telemetry"
)

// spotBroadcastMs limits target-spotted broadcasts per agent.
const spotBroadcastMs = 1000

// Step advances the simulation one fixed tick:
//  1. input, movement and combat
//  2. every Nth tick: behavior trees, hive-mind, message delivery, profile
//  3. timed level events and advisory completions
//  4. frame timing and AI interval adjustment
func (g *Game) Step(in InputSignals) {
	if g.done {
		return
	}
	start := g.now()
	g.perf.StartTick()

	// 1. Input, movement, combat
	g.perf.StartPhase(telemetry.PhaseInput)
	if in.Quit {
		g.quit()
		g.perf.EndTick()
		return
	}
	g.applyInput(in)

	g.perf.StartPhase(telemetry.PhaseMovement)
	g.movePlayer(in)
	g.moveAgents()
	g.spatial.Rebuild(g.agents)
	g.separateAgents()
	g.pickupItems()
	g.agentAttacks()
	g.accumulateSample()

	// 2. AI on its own schedule
	if g.levelTick == 0 || g.levelTick-g.lastAITick >= int64(g.aiInterval) {
		g.updateAI()
	}

	// 3. Events and advisory completions
	g.perf.StartPhase(telemetry.PhaseEvents)
	g.updateEvents()
	g.perf.StartPhase(telemetry.PhaseEffects)
	g.drainAdvice()
	g.requestAdvice()

	g.perf.EndTick()

	// 4. Frame timing
	g.adjustAIInterval()
	g.metrics.ObserveTick(g.now().Sub(start))

	g.cleanupDead()
	g.tick++
	g.levelTick++
	g.checkLevelEnd()
}

// moveAgents advances every moving agent along its path.
func (g *Game) moveAgents() {
	dt := g.cfg.Derived.DT32
	cs := g.cfg.Derived.CellSize32

	query := g.agentFilter.Query()
	for query.Next() {
		a, dir, path := query.Get()
		if !a.Alive() || dir.Intent == components.IntentHold || dir.Intent == components.IntentAttack {
			a.Vel = components.Velocity{}
			continue
		}
		target, ok := nextWaypoint(a.Pos, path, cs)
		if !ok {
			a.Vel = components.Velocity{}
			continue
		}
		d := a.Pos.Dist(target)
		if d < 1e-3 {
			continue
		}
		step := a.Stats.Speed * dt
		if dir.State == components.StateFeign {
			step *= float32(g.cfg.Behavior.BaitSpeed)
		}
		if step > d {
			step = d
		}
		dx, dy := target.Sub(a.Pos)
		old := a.Pos
		a.Pos = g.slide(a.Pos, dx/d*step, dy/d*step, a.Stats.Radius)
		a.Vel = components.Velocity{X: (a.Pos.X - old.X) / dt, Y: (a.Pos.Y - old.Y) / dt}
	}
}

// nextWaypoint skips reached waypoints. With the path exhausted, a goal in
// the same or an adjacent cell is approached directly; otherwise the agent
// holds.
func nextWaypoint(pos components.Position, path *components.Pathing, cs float32) (components.Position, bool) {
	arrive := cs * 0.2
	for path.Index < len(path.Waypoints) && pos.DistSq(path.Waypoints[path.Index]) < arrive*arrive {
		path.Index++
	}
	if path.Index < len(path.Waypoints) {
		return path.Waypoints[path.Index], true
	}
	if pos.DistSq(path.Goal) < (cs*1.5)*(cs*1.5) {
		return path.Goal, true
	}
	return pos, false
}

// separateAgents pushes overlapping agents apart.
func (g *Game) separateAgents() {
	var buf [systems.MaxQueryResults]systems.Neighbor
	for _, a := range g.agents {
		if !a.Alive() {
			continue
		}
		near := g.spatial.QueryRadiusInto(buf[:0], a.Pos, a.Stats.Radius*3, a.ID)
		var px, py float32
		for _, n := range near {
			minD := a.Stats.Radius + n.Agent.Stats.Radius
			if n.DistSq >= minD*minD || n.DistSq < 1e-6 {
				continue
			}
			d := float32(math.Sqrt(float64(n.DistSq)))
			push := (minD - d) * 0.5
			px -= n.DX / d * push
			py -= n.DY / d * push
		}
		if px != 0 || py != 0 {
			a.Pos = g.slide(a.Pos, px, py, a.Stats.Radius)
		}
	}
}

// accumulateSample folds this tick into the pending profile sample.
func (g *Game) accumulateSample() {
	s := &g.sample
	s.Pos = g.player.Pos
	s.Health = g.player.Health
	s.MaxHealth = g.player.MaxHealth
	s.Ammo = g.player.Ammo
	s.MaxAmmo = g.player.MaxAmmo
	s.Weapon = g.player.Weapon
	s.NearbyHostiles = g.spatial.CountWithin(g.player.Pos, float32(g.cfg.Profile.HostileRadius))
	s.DT += g.cfg.Derived.DT32
	if !g.player.Alive() {
		s.Died = true
	}
}

// updateAI runs the behavior trees, the hive-mind, message delivery and
// the player model, in that order.
func (g *Game) updateAI() {
	elapsed := float32(g.levelTick-g.lastAITick) * g.cfg.Derived.DT32
	if g.levelTick == 0 {
		elapsed = 0
	}
	g.lastAITick = g.levelTick
	g.collector.RecordAIInterval(g.aiInterval)
	now := g.nowMs()

	g.perf.StartPhase(telemetry.PhaseAI)
	adapt := g.learner.DeriveAdaptations()
	g.executor.SetAdaptations(adapt)
	for _, a := range g.agents {
		if !a.Alive() {
			continue
		}
		dir, path, ok := g.agentState(a.ID)
		if !ok {
			continue
		}
		a.Stats.SightRange = g.baseSight[a.ID] * g.mods.sight

		d, p := g.executor.Update(a, g.player.Pos, now, elapsed)
		*dir = d
		if p.Visible {
			if last, seen := g.spotted[a.ID]; !seen || now-last >= spotBroadcastMs {
				g.spotted[a.ID] = now
				g.bus.Broadcast(a, components.MsgTargetSpotted, components.Payload{Pos: g.player.Pos}, now)
			}
		}
		g.planPath(a, dir, path)
	}

	g.perf.StartPhase(telemetry.PhaseHivemind)
	g.updateHivemind(adapt, now)

	g.perf.StartPhase(telemetry.PhaseComms)
	g.bus.Deliver(g.agents, now)

	g.perf.StartPhase(telemetry.PhaseProfile)
	if g.levelTick-g.lastSample >= int64(g.cfg.Profile.SampleTicks) {
		g.observeProfile()
	}
}

// planPath refreshes an agent's path when its goal moved or the path went
// stale. Attack and hold directives clear the path.
func (g *Game) planPath(a *components.Agent, dir *components.Directive, path *components.Pathing) {
	if dir.Intent == components.IntentHold || dir.Intent == components.IntentAttack {
		path.Waypoints = nil
		path.Index = 0
		path.Goal = a.Pos
		return
	}
	cs := g.cfg.Derived.CellSize32
	stale := path.ValidTick < 0 || g.levelTick-int64(path.ValidTick) >= int64(g.cfg.Pathfinding.RepathTicks)
	moved := dir.Target.DistSq(path.Goal) > cs*cs
	if !stale && !moved && path.Index < len(path.Waypoints) {
		return
	}
	path.Waypoints = g.pathfinder.FindPath(a.Pos, dir.Target)
	path.Index = 0
	path.Goal = dir.Target
	path.ValidTick = int32(g.levelTick)
}

// updateHivemind summarizes the battlefield and lets the coordinator
// re-evaluate its strategy.
func (g *Game) updateHivemind(adapt player.Adaptations, now int64) {
	gx, gy := g.grid.WorldToGrid(g.player.Pos.X, g.player.Pos.Y)
	aware := 0
	for _, a := range g.agents {
		if a.Alive() && a.HasLastKnown && now-a.LastKnownAt < g.cfg.Behavior.StalenessMs {
			aware++
		}
	}
	sit := systems.Situation{
		PlayerPos:        g.player.Pos,
		PlayerHealthFrac: g.player.HealthFraction(),
		PlayerAccuracy:   g.profile.Accuracy,
		PlayerStyle:      g.profile.Style,
		Openness:         g.grid.OpenFraction(gx, gy, situationRadius),
		Cover:            g.grid.CoverFraction(gx, gy, situationRadius),
		Initial:          g.initial,
		Aware:            aware,
		Adapt:            adapt,
	}
	if !g.coordinator.Update(g.levelTick, g.agents, sit) {
		return
	}
	sw := g.coordinator.LastSwitch()
	g.collector.RecordSwitch()
	g.metrics.StrategySwitch(sw.To.String())
	data := map[string]any{"from": sw.From.String(), "to": sw.To.String(), "scores": sw.Scores}
	if err := g.journal.Record(telemetry.JournalStrategySwitch, g.levelNum, g.tick, data); err != nil {
		logJournalError(err)
	}
}

// situationRadius is the cell radius sampled for openness and cover.
const situationRadius = 3

// observeProfile folds the pending sample into the profile and learner.
func (g *Game) observeProfile() {
	g.profile = player.Observe(g.profile, g.sample, &g.cfg.Profile)
	g.learner.RecordOutcome(player.CombatEvent{Kind: player.EventMove, Pos: g.sample.Pos, At: g.nowMs()})
	g.sample = components.PlayerState{}
	g.lastSample = g.levelTick
}
