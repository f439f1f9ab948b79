package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
	"github.com/pthm-cable/arena/player"
)

// Perception is what an agent knows about the player this decision cycle.
type Perception struct {
	TargetPos components.Position
	Distance  float32
	InSight   bool // within sight range
	Visible   bool // within sight range and line of sight is clear
	Now       int64
}

// Executor evaluates per-archetype behavior trees.
// It writes the agent's State and returns a directive; it never moves the agent.
type Executor struct {
	cfg    *config.BehaviorConfig
	pf     *Pathfinder
	rng    *rand.Rand
	worldW float32
	worldH float32

	adapt player.Adaptations
}

// NewExecutor creates an executor over a level's pathfinder.
func NewExecutor(cfg *config.BehaviorConfig, pf *Pathfinder, worldW, worldH float32, seed int64) *Executor {
	return &Executor{
		cfg:    cfg,
		pf:     pf,
		rng:    rand.New(rand.NewSource(seed)),
		worldW: worldW,
		worldH: worldH,
		adapt:  player.Neutral(),
	}
}

// SetAdaptations installs the learner's current multipliers.
func (e *Executor) SetAdaptations(a player.Adaptations) {
	e.adapt = a
}

// Perceive computes the agent's view of the player.
func (e *Executor) Perceive(a *components.Agent, playerPos components.Position, now int64) Perception {
	p := Perception{TargetPos: playerPos, Now: now}
	p.Distance = a.Pos.Dist(playerPos)
	p.InSight = p.Distance <= a.Stats.SightRange
	if p.InSight {
		p.Visible, _ = e.pf.LineOfSight(a.Pos, playerPos)
	}
	return p
}

// Update perceives, records sightings and decides. dt decays perceived threat.
func (e *Executor) Update(a *components.Agent, playerPos components.Position, now int64, dt float32) (components.Directive, Perception) {
	a.PerceivedThreat = clamp01(a.PerceivedThreat - float32(e.cfg.ThreatDecay)*dt)
	p := e.Perceive(a, playerPos, now)
	if p.Visible {
		a.Remember(playerPos, now)
	}
	return e.Decide(a, p), p
}

// Decide runs the agent's priority chain; the first matching branch wins.
func (e *Executor) Decide(a *components.Agent, p Perception) components.Directive {
	var d components.Directive
	switch {
	case a.HealthFraction() < float32(e.cfg.PanicHealth):
		d = e.flee(a, p)
	case e.tacticalRetreat(a):
		d = e.retreatToCover(a, p)
	case a.Role == components.RoleBait && p.Distance > float32(e.cfg.BaitCommit):
		d = e.feign(a, p)
	case p.Distance <= e.attackRange(a) && !e.breakingOff(a, p.Now):
		d = components.Directive{Target: p.TargetPos, Intent: components.IntentAttack, State: components.StateAttack}
	case p.Visible:
		d = e.advance(a, p)
	case a.HasLastKnown && p.Now-a.LastKnownAt < e.cfg.StalenessMs:
		goal := a.LastKnownTarget
		if a.HasStrategicTarget {
			goal = a.StrategicTarget
		}
		d = components.Directive{Target: goal, Intent: components.IntentMove, State: components.StateInvestigate}
	default:
		d = e.patrol(a)
	}
	a.State = d.State
	return d
}

// tacticalRetreat is the adaptive-only branch above attack.
func (e *Executor) tacticalRetreat(a *components.Agent) bool {
	switch a.Kind.(type) {
	case components.AdaptiveKind:
		return a.PerceivedThreat > float32(e.cfg.TacticalRetreatThreat)
	default:
		return false
	}
}

// breakingOff reports whether a fast agent is in the run phase of hit-and-run.
func (e *Executor) breakingOff(a *components.Agent, now int64) bool {
	if fk, ok := a.Kind.(*components.FastKind); ok {
		return fk.RetreatUntil > now
	}
	return false
}

func (e *Executor) attackRange(a *components.Agent) float32 {
	r := a.Stats.AttackRange
	if e.adapt.CloseRangeBonus > 0 {
		r /= e.adapt.CloseRangeBonus
	}
	if floor := a.Stats.Radius * 2; r < floor {
		r = floor
	}
	return r
}

func (e *Executor) threatPos(a *components.Agent, p Perception) components.Position {
	if p.InSight || !a.HasLastKnown {
		return p.TargetPos
	}
	return a.LastKnownTarget
}

// flee runs away from the threat with a random perturbation. A retreat role
// from the coordinator supplies the destination instead.
func (e *Executor) flee(a *components.Agent, p Perception) components.Directive {
	if a.Role == components.RoleRetreat && a.HasStrategicTarget {
		return components.Directive{Target: a.StrategicTarget, Intent: components.IntentFlee, State: components.StateFlee}
	}
	away := e.threatPos(a, p).AngleTo(a.Pos)
	jitter := float32(e.cfg.FleePerturbation)
	away += (e.rng.Float32()*2 - 1) * jitter
	return components.Directive{
		Target: e.inWorld(a.Pos.Polar(away, float32(e.cfg.FleeDistance))),
		Intent: components.IntentFlee,
		State:  components.StateFlee,
	}
}

// feign plays wounded: the bait limps back toward its post on the trap line
// and holds fire until the player closes in.
func (e *Executor) feign(a *components.Agent, p Perception) components.Directive {
	target := a.StrategicTarget
	if !a.HasStrategicTarget {
		threat := e.threatPos(a, p)
		target = e.inWorld(a.Pos.Polar(threat.AngleTo(a.Pos), float32(e.cfg.CoverOffset)))
	}
	return components.Directive{Target: target, Intent: components.IntentMove, State: components.StateFeign}
}

// retreatToCover backs away from the threat toward the nearest cover cell.
func (e *Executor) retreatToCover(a *components.Agent, p Perception) components.Directive {
	threat := e.threatPos(a, p)
	fallback := a.Pos.Polar(threat.AngleTo(a.Pos), float32(e.cfg.CoverOffset)*2)
	target := e.coverNear(fallback, threat)
	return components.Directive{Target: target, Intent: components.IntentMove, State: components.StateTacticalRetreat}
}

func (e *Executor) advance(a *components.Agent, p Perception) components.Directive {
	d := components.Directive{Intent: components.IntentMove, State: components.StateAdvance}
	if a.HasStrategicTarget {
		d.Target = a.StrategicTarget
		return d
	}

	switch k := a.Kind.(type) {
	case components.HeavyKind:
		// Approach to just inside attack range, stopping at cover.
		stop := p.TargetPos.Toward(a.Pos, a.Stats.AttackRange*0.8)
		d.Target = e.coverNear(stop, p.TargetPos)
	case *components.FastKind:
		if k.RetreatUntil > p.Now {
			d.Target = e.inWorld(a.Pos.Polar(p.TargetPos.AngleTo(a.Pos), float32(e.cfg.FleeDistance)))
		} else {
			d.Target = p.TargetPos
		}
	case components.AdaptiveKind:
		side := k.FlankSide
		if side == 0 {
			side = 1
		}
		offset := float32(e.cfg.FlankOffset) * e.adapt.FlankBias * e.adapt.SpreadOutFactor
		angle := p.TargetPos.AngleTo(a.Pos) + side*math.Pi/2
		d.Target = e.inWorld(p.TargetPos.Polar(angle, offset))
	default:
		d.Target = p.TargetPos
	}
	return d
}

// patrol wanders between locally chosen goals.
func (e *Executor) patrol(a *components.Agent) components.Directive {
	arrive := float32(e.cfg.WanderArrive)
	if !a.HasWander || a.Pos.DistSq(a.WanderGoal) < arrive*arrive {
		a.WanderGoal = e.wanderGoal(a.Pos)
		a.HasWander = true
	}
	return components.Directive{Target: a.WanderGoal, Intent: components.IntentMove, State: components.StatePatrol}
}

func (e *Executor) wanderGoal(from components.Position) components.Position {
	grid := e.pf.Grid()
	for i := 0; i < 8; i++ {
		angle := e.rng.Float32() * 2 * math.Pi
		dist := float32(e.cfg.WanderRadius) * (0.3 + 0.7*e.rng.Float32())
		goal := e.inWorld(from.Polar(angle, dist))
		if !grid.IsBlockedWorld(goal.X, goal.Y) {
			return goal
		}
	}
	return from
}

// coverNear returns the open cell nearest to p that has a blocking neighbor
// between it and the threat. Falls back to p itself.
func (e *Executor) coverNear(p, threat components.Position) components.Position {
	grid := e.pf.Grid()
	p = e.inWorld(p)
	cx, cy := grid.WorldToGrid(p.X, p.Y)
	radius := int(float32(e.cfg.CoverOffset)/grid.CellSize()) + 1

	best := p
	bestD := float32(math.MaxFloat32)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			x, y := cx+dx, cy+dy
			if grid.IsBlocked(x, y) {
				continue
			}
			c := grid.CellCenter(x, y)
			// Step one cell toward the threat; blocked means covered.
			toward := c.Toward(threat, grid.CellSize())
			tx, ty := grid.WorldToGrid(toward.X, toward.Y)
			if (tx == x && ty == y) || !grid.IsBlocked(tx, ty) {
				continue
			}
			if d := c.DistSq(p); d < bestD {
				best, bestD = c, d
			}
		}
	}
	return best
}

func (e *Executor) inWorld(p components.Position) components.Position {
	margin := e.pf.Grid().CellSize() * 0.5
	p.X, p.Y = clampToWorld(p.X, p.Y, e.worldW, e.worldH, margin)
	return p
}
