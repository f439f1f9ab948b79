package game

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/procgen"
)

// KeepWeapon leaves the current weapon selected.
const KeepWeapon = -1

// InputSignals is one tick of abstract input.
type InputSignals struct {
	Up, Down, Left, Right bool
	AimDelta              float32 // radians added to the aim direction
	Fire                  bool
	Weapon                int // slot to select, or KeepWeapon
	Quit                  bool
}

// NoInput is an idle tick.
var NoInput = InputSignals{Weapon: KeepWeapon}

// InputSource produces input for the next tick from the game's state.
type InputSource interface {
	Next(g *Game) InputSignals
}

// InputFunc adapts a function to InputSource.
type InputFunc func(g *Game) InputSignals

// Next implements InputSource.
func (f InputFunc) Next(g *Game) InputSignals { return f(g) }

// Autopilot plays the game for headless sessions. It hunts the nearest
// agent, picks up health and ammo when low and misses roughly as often as
// the configured hit chance says.
type Autopilot struct {
	rng *rand.Rand

	path    []components.Position
	pathIdx int
	goal    components.Position
	repath  int64
	strafe  float32
}

// NewAutopilot creates a seeded autopilot.
func NewAutopilot(seed int64) *Autopilot {
	return &Autopilot{rng: rand.New(rand.NewSource(seed)), strafe: 1}
}

// autopilotRepathTicks is how long a planned route is followed.
const autopilotRepathTicks = 30

// Next implements InputSource.
func (ap *Autopilot) Next(g *Game) InputSignals {
	in := NoInput
	p := g.Player()
	if !p.Alive() {
		return in
	}

	target, dist, ok := nearestAgent(g, p.Pos)
	visible := ok && g.Visible(p.Pos, target.Pos)

	// Weapon choice follows engagement distance.
	if ok {
		want := 0
		switch {
		case dist < 90:
			want = 1
		case dist > 240:
			want = 2
		}
		if want != p.Weapon {
			in.Weapon = want
		}
	}

	// Goal: supplies when short, otherwise the nearest agent.
	goal, haveGoal := components.Position{}, false
	if p.HealthFraction() < 0.35 {
		goal, haveGoal = nearestItem(g, p.Pos, procgen.ItemHealth)
	}
	if !haveGoal && p.Ammo == 0 {
		goal, haveGoal = nearestItem(g, p.Pos, procgen.ItemAmmo)
	}
	if !haveGoal && ok {
		goal, haveGoal = target.Pos, true
	}

	engaged := visible && dist <= g.WeaponRange()*0.7
	switch {
	case engaged && p.Ammo > 0:
		// Hold the range and strafe across the line of fire.
		if g.Tick()%120 == 0 {
			ap.strafe = -ap.strafe
		}
		angle := p.Pos.AngleTo(target.Pos) + ap.strafe*math.Pi/2
		ap.steer(&in, p.Pos, p.Pos.Polar(angle, 32))
	case haveGoal:
		ap.steer(&in, p.Pos, ap.waypoint(g, p.Pos, goal))
	}

	if visible && dist <= g.WeaponRange() && p.Ammo > 0 {
		tol := g.AimTolerance(dist, target.Stats.Radius)
		hit := float32(g.cfg.Player.HitChance)
		if hit <= 0 {
			hit = 0.5
		}
		// Uniform error over [-tol/hit, tol/hit] lands inside the tolerance
		// with probability hit.
		spread := tol / hit
		want := p.Pos.AngleTo(target.Pos) + (ap.rng.Float32()*2-1)*spread
		in.AimDelta = wrapAngle(want - p.Aim)
		in.Fire = true
	}
	return in
}

// waypoint returns the next point on a route to goal, replanning when the
// goal moves or the route goes stale.
func (ap *Autopilot) waypoint(g *Game, from, goal components.Position) components.Position {
	cs := g.cfg.Derived.CellSize32
	if ap.path == nil || goal.DistSq(ap.goal) > cs*cs || g.Tick() >= ap.repath {
		ap.path = g.PathTo(from, goal)
		ap.pathIdx = 0
		ap.goal = goal
		ap.repath = g.Tick() + autopilotRepathTicks
	}
	for ap.pathIdx < len(ap.path) && from.DistSq(ap.path[ap.pathIdx]) < (cs*0.25)*(cs*0.25) {
		ap.pathIdx++
	}
	if ap.pathIdx < len(ap.path) {
		return ap.path[ap.pathIdx]
	}
	return goal
}

func (ap *Autopilot) steer(in *InputSignals, from, to components.Position) {
	const deadzone = 2
	dx, dy := to.Sub(from)
	in.Left = dx < -deadzone
	in.Right = dx > deadzone
	in.Up = dy < -deadzone
	in.Down = dy > deadzone
}

func nearestAgent(g *Game, from components.Position) (components.Agent, float32, bool) {
	var best components.Agent
	bestD := float32(math.MaxFloat32)
	found := false
	for _, a := range g.agents {
		if !a.Alive() {
			continue
		}
		if d := from.Dist(a.Pos); d < bestD {
			best, bestD, found = *a, d, true
		}
	}
	return best, bestD, found
}

func nearestItem(g *Game, from components.Position, kind procgen.ItemKind) (components.Position, bool) {
	var best components.Position
	bestD := float32(math.MaxFloat32)
	found := false
	for _, it := range g.items {
		if it.taken || it.Kind != kind {
			continue
		}
		if d := from.DistSq(it.Pos); d < bestD {
			best, bestD, found = it.Pos, d, true
		}
	}
	return best, found
}

// applyInput handles weapon selection and aim, then fires.
func (g *Game) applyInput(in InputSignals) {
	if in.Weapon != KeepWeapon && in.Weapon >= 0 && in.Weapon < len(Weapons) && in.Weapon != g.player.Weapon {
		g.player.Weapon = in.Weapon
		g.effects.TriggerEffect(EffectWeaponSwitch, EffectParams{Pos: g.player.Pos, Text: Weapons[in.Weapon].Name})
	}
	g.player.Aim = wrapAngle(g.player.Aim + in.AimDelta)

	g.player.cooldown -= g.cfg.Derived.DT32
	if g.player.cooldown < 0 {
		g.player.cooldown = 0
	}
	if in.Fire {
		g.fire()
	}
}
