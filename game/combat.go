package game

import (
	"math"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/player"
)

// agentHitChance is the probability an agent's attack connects.
const agentHitChance = 0.6

// helpHealth is the health fraction below which an agent calls for help.
const helpHealth = 0.5

// fire resolves one player shot along the aim direction. The nearest agent
// inside the aim tolerance, within range and in clear line of sight is hit.
func (g *Game) fire() {
	p := &g.player
	if p.cooldown > 0 || p.Ammo <= 0 || !p.Alive() {
		return
	}
	p.Ammo--
	p.cooldown = g.weaponInterval()
	g.sample.ShotsFired++
	g.learner.RecordOutcome(player.CombatEvent{Kind: player.EventWeapon, Weapon: p.Weapon, Count: 1, At: g.nowMs()})
	g.effects.TriggerEffect(EffectMuzzleFlash, EffectParams{Pos: p.Pos, Value: float64(p.Aim), Text: Weapons[p.Weapon].Name})

	rng := g.WeaponRange()
	var hit *components.Agent
	bestD := float32(math.MaxFloat32)
	for _, a := range g.agents {
		if !a.Alive() {
			continue
		}
		d := p.Pos.Dist(a.Pos)
		if d > rng+a.Stats.Radius || d >= bestD {
			continue
		}
		off := absf(wrapAngle(p.Pos.AngleTo(a.Pos) - p.Aim))
		if off > g.AimTolerance(d, a.Stats.Radius) {
			continue
		}
		if !g.Visible(p.Pos, a.Pos) {
			continue
		}
		hit, bestD = a, d
	}
	if hit == nil {
		g.collector.RecordShots(1, 0)
		return
	}

	g.sample.ShotsHit++
	g.collector.RecordShots(1, 1)
	now := g.nowMs()
	killed := hit.Damage(g.weaponDamage())
	g.bus.Broadcast(hit, components.MsgUnderAttack, components.Payload{Pos: p.Pos}, now)
	hit.Remember(p.Pos, now)

	if killed {
		g.sample.Kills++
		g.collector.RecordKill()
		g.learner.RecordOutcome(player.CombatEvent{Kind: player.EventKill, At: now, Distance: bestD})
		g.effects.TriggerEffect(EffectAgentDeath, EffectParams{Pos: hit.Pos, Text: hit.Archetype.String()})
		return
	}
	if hit.HealthFraction() < helpHealth && !g.calledHelp[hit.ID] {
		g.calledHelp[hit.ID] = true
		g.bus.Broadcast(hit, components.MsgNeedAssistance, components.Payload{Pos: hit.Pos}, now)
	}
}

// agentAttacks resolves attacks for every agent whose directive is attack.
func (g *Game) agentAttacks() {
	now := g.nowMs()
	for _, a := range g.agents {
		if !a.Alive() || !g.player.Alive() {
			continue
		}
		dir, _, ok := g.agentState(a.ID)
		if !ok || dir.Intent != components.IntentAttack {
			continue
		}
		interval := int64(a.Stats.FireInterval * 1000)
		if a.LastAttackAt > 0 && now-a.LastAttackAt < interval {
			continue
		}
		reach := a.Stats.AttackRange + float32(g.cfg.Player.Radius)
		if a.Pos.DistSq(g.player.Pos) > reach*reach || !g.Visible(a.Pos, g.player.Pos) {
			continue
		}

		a.LastAttackAt = now
		if fk, ok := a.Kind.(*components.FastKind); ok {
			fk.RetreatUntil = now + g.cfg.Behavior.FastRetreatMs
		}
		if g.rng.Float64() < agentHitChance {
			g.damagePlayer(a.Stats.Damage, a.Pos)
		}
	}
}

// damagePlayer applies damage from a source position.
func (g *Game) damagePlayer(amount float32, from components.Position) {
	p := &g.player
	if !p.Alive() || amount <= 0 {
		return
	}
	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
	g.sample.DamageTaken += amount
	g.collector.RecordDamage(float64(amount), float64(p.HealthFraction()))
	g.effects.TriggerEffect(EffectPlayerDamage, EffectParams{Pos: from, Value: float64(amount)})
}
