package game

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/arena/components"
)

// Weapon scales the configured player base values.
type Weapon struct {
	Name     string
	Damage   float32 // multiplier on Player.Damage
	Interval float32 // multiplier on Player.FireInterval
	Range    float32 // multiplier on Player.Range
	Spread   float32 // extra aim tolerance in radians
}

// Weapons is the player's loadout, indexed by weapon slot.
var Weapons = [...]Weapon{
	{Name: "pistol", Damage: 1, Interval: 1, Range: 1, Spread: 0.04},
	{Name: "shotgun", Damage: 2.2, Interval: 2.4, Range: 0.45, Spread: 0.22},
	{Name: "rifle", Damage: 1.4, Interval: 1.6, Range: 1.6, Spread: 0.01},
}

// upgradeStep is the damage gained per weapon upgrade pickup.
const upgradeStep = 0.25

// Player is the avatar state.
type Player struct {
	Pos       components.Position
	Aim       float32 // radians
	Health    float32
	MaxHealth float32
	Ammo      int
	MaxAmmo   int
	Weapon    int
	Upgrades  int

	cooldown float32 // seconds until the next shot
}

// Alive reports whether the player has health left.
func (p *Player) Alive() bool { return p.Health > 0 }

// HealthFraction returns Health/MaxHealth in [0,1].
func (p *Player) HealthFraction() float32 {
	if p.MaxHealth <= 0 {
		return 0
	}
	return clampf(p.Health/p.MaxHealth, 0, 1)
}

// LogValue implements slog.LogValuer.
func (p Player) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("x", float64(p.Pos.X)),
		slog.Float64("y", float64(p.Pos.Y)),
		slog.Float64("health", float64(p.Health)),
		slog.Int("ammo", p.Ammo),
		slog.String("weapon", Weapons[p.Weapon].Name),
	)
}

// respawn resets the player at pos with full health and ammo. The weapon
// carries over; upgrades do not.
func (g *Game) respawn(pos components.Position) {
	pc := &g.cfg.Player
	g.player = Player{
		Pos:       pos,
		Health:    float32(pc.MaxHealth),
		MaxHealth: float32(pc.MaxHealth),
		Ammo:      pc.MaxAmmo,
		MaxAmmo:   pc.MaxAmmo,
		Weapon:    g.player.Weapon,
	}
}

// weaponDamage is the current per-hit damage including upgrades and boosts.
func (g *Game) weaponDamage() float32 {
	w := Weapons[g.player.Weapon]
	up := 1 + upgradeStep*float32(g.player.Upgrades)
	return float32(g.cfg.Player.Damage) * w.Damage * up * g.mods.damage
}

// weaponInterval is the current seconds between shots.
func (g *Game) weaponInterval() float32 {
	w := Weapons[g.player.Weapon]
	return float32(g.cfg.Player.FireInterval) * w.Interval * g.mods.fireInterval
}

// WeaponRange returns the current weapon's range.
func (g *Game) WeaponRange() float32 {
	return float32(g.cfg.Player.Range) * Weapons[g.player.Weapon].Range
}

// AimTolerance is the angular half-width within which a shot at a target
// of the given radius and distance connects.
func (g *Game) AimTolerance(dist, radius float32) float32 {
	if dist < 1 {
		dist = 1
	}
	return float32(math.Atan2(float64(radius), float64(dist))) + Weapons[g.player.Weapon].Spread
}

// movePlayer applies the movement flags with axis-separated collision.
func (g *Game) movePlayer(in InputSignals) {
	var dx, dy float32
	if in.Up {
		dy--
	}
	if in.Down {
		dy++
	}
	if in.Left {
		dx--
	}
	if in.Right {
		dx++
	}
	if dx == 0 && dy == 0 {
		return
	}
	l := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	step := float32(g.cfg.Player.Speed) * g.mods.speed * g.cfg.Derived.DT32 / l
	g.player.Pos = g.slide(g.player.Pos, dx*step, dy*step, float32(g.cfg.Player.Radius))
}

// slide moves pos by (dx, dy), dropping whichever axis would enter a
// non-walkable cell.
func (g *Game) slide(pos components.Position, dx, dy, radius float32) components.Position {
	if next := pos.Add(dx, dy); g.walkable(next, radius) {
		return next
	}
	if next := pos.Add(dx, 0); dx != 0 && g.walkable(next, radius) {
		return next
	}
	if next := pos.Add(0, dy); dy != 0 && g.walkable(next, radius) {
		return next
	}
	return pos
}

// walkable checks the body's center and its four extreme points.
func (g *Game) walkable(p components.Position, radius float32) bool {
	r := radius * 0.9
	for _, q := range [...]components.Position{p, p.Add(r, 0), p.Add(-r, 0), p.Add(0, r), p.Add(0, -r)} {
		if g.grid.IsBlockedWorld(q.X, q.Y) {
			return false
		}
	}
	return true
}
