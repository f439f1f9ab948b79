package game

import (
	"log/slog"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/procgen"
	"github.com/pthm-cable/arena/systems"
)

// activeEvent tracks a timed level event through its lifetime.
type activeEvent struct {
	procgen.TimedEvent
	started bool
	ended   bool
}

// running reports whether the event is between start and end.
func (e *activeEvent) running() bool { return e.started && !e.ended }

// modifiers are the multipliers currently applied by running events.
type modifiers struct {
	damage       float32 // player damage
	speed        float32 // player movement
	fireInterval float32 // player seconds between shots
	sight        float32 // agent sight range
}

func neutralModifiers() modifiers {
	return modifiers{damage: 1, speed: 1, fireInterval: 1, sight: 1}
}

// pickup is an item still on the map or already taken.
type pickup struct {
	procgen.Item
	taken bool
}

// updateEvents starts and ends timed events against level time and
// recomputes the running modifiers.
func (g *Game) updateEvents() {
	t := float64(g.levelTick) * g.cfg.Sim.DT
	mods := neutralModifiers()

	for i := range g.events {
		ev := &g.events[i]
		if !ev.started && t >= ev.DelayS {
			ev.started = true
			g.startEvent(ev)
		}
		if ev.running() && t >= ev.DelayS+ev.DurationS {
			ev.ended = true
			slog.Debug("level event ended", "level", g.levelNum, "kind", ev.Kind.String(), "tick", g.levelTick)
		}
		if !ev.running() {
			continue
		}

		m := float32(ev.Magnitude)
		switch ev.Kind {
		case procgen.EventWeaponBoost:
			mods.damage *= m
		case procgen.EventSpeedBoost:
			mods.speed *= m
			if m > 0 {
				mods.fireInterval /= m
			}
		case procgen.EventStealthPenalty:
			mods.sight *= m
		case procgen.EventWeaponMalfunction:
			mods.fireInterval *= m
		case procgen.EventDamageZone:
			if g.player.Pos.DistSq(ev.Pos) <= ev.Radius*ev.Radius {
				g.damagePlayer(m*g.cfg.Derived.DT32, ev.Pos)
			}
		}
	}
	g.mods = mods
}

func (g *Game) startEvent(ev *activeEvent) {
	slog.Debug("level event started",
		"level", g.levelNum,
		"kind", ev.Kind.String(),
		"tick", g.levelTick,
		"duration_s", ev.DurationS,
		"magnitude", ev.Magnitude,
	)
	if ev.Kind == procgen.EventReinforcementWave {
		g.spawnWave(ev.Wave)
	}
}

// spawnWave adds reinforcements mid-level. Under a strategy where every
// agent plays the same role, the squad leader tells newcomers to join it.
func (g *Game) spawnWave(wave []procgen.Spawn) {
	if len(wave) == 0 {
		return
	}
	for _, sp := range wave {
		g.spawnAgent(sp)
	}
	g.gatherAgents()
	g.metrics.SetLiveAgents(g.LiveAgents())

	role, ok := uniformRole(g.coordinator.Strategy())
	if !ok {
		return
	}
	var leader *components.Agent
	for _, a := range g.agents {
		if a.Alive() && a.Role == role && (leader == nil || a.ID < leader.ID) {
			leader = a
		}
	}
	if leader != nil {
		g.bus.Broadcast(leader, components.MsgFormationCommand, components.Payload{Pos: leader.Pos, Role: role}, g.nowMs())
	}
}

// uniformRole returns the role shared by every agent under s, if any.
func uniformRole(s systems.Strategy) (components.Role, bool) {
	switch s {
	case systems.StrategyHunt:
		return components.RoleHunter, true
	case systems.StrategyRetreat:
		return components.RoleRetreat, true
	}
	return components.RoleNone, false
}

// pickupItems applies every item the player is touching.
func (g *Game) pickupItems() {
	if !g.player.Alive() {
		return
	}
	reach := float32(g.cfg.Player.Radius) + g.cfg.Derived.CellSize32*0.5
	p := &g.player
	for i := range g.items {
		it := &g.items[i]
		if it.taken || p.Pos.DistSq(it.Pos) > reach*reach {
			continue
		}
		switch it.Kind {
		case procgen.ItemHealth:
			if p.Health >= p.MaxHealth {
				continue
			}
			p.Health = clampf(p.Health+it.Amount, 0, p.MaxHealth)
		case procgen.ItemAmmo:
			if p.Ammo >= p.MaxAmmo {
				continue
			}
			p.Ammo += int(it.Amount)
			if p.Ammo > p.MaxAmmo {
				p.Ammo = p.MaxAmmo
			}
		case procgen.ItemWeaponUpgrade:
			p.Upgrades++
		}
		it.taken = true
		slog.Debug("item picked up", "level", g.levelNum, "kind", it.Kind.String(), "amount", it.Amount)
	}
}
