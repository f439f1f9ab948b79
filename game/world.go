package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/procgen"
)

// resetWorld replaces the ECS world for a new level.
func (g *Game) resetWorld() {
	world := ecs.NewWorld()
	g.world = world
	g.agentMapper = ecs.NewMap3[components.Agent, components.Directive, components.Pathing](world)
	g.agentFilter = ecs.NewFilter3[components.Agent, components.Directive, components.Pathing](world)
	g.entities = make(map[uint32]ecs.Entity)
	g.agents = g.agents[:0]
	g.baseSight = make(map[uint32]float32)
	g.spotted = make(map[uint32]int64)
	g.calledHelp = make(map[uint32]bool)
}

// spawnAgent creates an agent entity from a generated spawn and applies
// difficulty scaling exactly once.
func (g *Game) spawnAgent(sp procgen.Spawn) ecs.Entity {
	g.nextID++
	id := g.nextID

	stats := sp.Stats
	agent := components.NewAgent(id, sp.Archetype, sp.Pos, stats)
	switch k := agent.Kind.(type) {
	case components.HeavyKind:
		k.Boss = sp.Boss
		agent.Kind = k
	case components.AdaptiveKind:
		if g.rng.Intn(2) == 0 {
			k.FlankSide = -1
		}
		agent.Kind = k
	}
	g.difficulty.Apply(&agent)

	dir := components.Directive{Target: sp.Pos, Intent: components.IntentHold, State: components.StateIdle}
	path := components.Pathing{Goal: sp.Pos, ValidTick: -1}

	entity := g.agentMapper.NewEntity(&agent, &dir, &path)
	g.entities[id] = entity
	g.baseSight[id] = stats.SightRange
	g.spawned++
	return entity
}

// gatherAgents rebuilds the live pointer view. Pointers stay valid until
// the next structural change to the world.
func (g *Game) gatherAgents() {
	g.agents = g.agents[:0]
	query := g.agentFilter.Query()
	for query.Next() {
		a, _, _ := query.Get()
		g.agents = append(g.agents, a)
	}
}

// cleanupDead removes dead agents and regathers the live view.
func (g *Game) cleanupDead() {
	// First pass: collect dead entities (must complete before modifying)
	var toRemove []ecs.Entity
	var ids []uint32

	query := g.agentFilter.Query()
	for query.Next() {
		a, _, _ := query.Get()
		if !a.Alive() {
			toRemove = append(toRemove, query.Entity())
			ids = append(ids, a.ID)
		}
	}
	if len(toRemove) == 0 {
		return
	}

	// Second pass: remove entities (query iteration complete)
	for i, e := range toRemove {
		g.world.RemoveEntity(e)
		delete(g.entities, ids[i])
		delete(g.baseSight, ids[i])
		delete(g.spotted, ids[i])
		delete(g.calledHelp, ids[i])
	}
	g.gatherAgents()
}

// agentState returns the directive and path components of an agent.
func (g *Game) agentState(id uint32) (*components.Directive, *components.Pathing, bool) {
	e, ok := g.entities[id]
	if !ok {
		return nil, nil, false
	}
	_, dir, path := g.agentMapper.Get(e)
	return dir, path, true
}
