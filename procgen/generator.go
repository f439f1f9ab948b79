// Package procgen generates levels: map layout, agent roster, items, timed
// events and flavor, all parameterized by a LevelSpec derived from the
// player model. Generation is deterministic for a given seed.
package procgen

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
)

var (
	// ErrGenerationFailure marks a placement or layout that could not be
	// produced; generation substitutes a fallback and carries on.
	ErrGenerationFailure = errors.New("procgen: generation failure")
	// ErrInvalidArchetype marks an unknown map or agent archetype name.
	ErrInvalidArchetype = errors.New("procgen: invalid archetype")
)

const minSpawnSteps = 8

// GeneratedLevel is a finished level. It is never modified after
// generation; the next level replaces it wholesale.
type GeneratedLevel struct {
	Seed      int64
	Spec      LevelSpec
	Map       MapArchetype
	Fallback  bool // the chosen layout failed validation; open arena used
	Grid      *Grid
	Spawn     Cell
	Agents    []Spawn
	Items     []Item
	Events    []TimedEvent
	Narrative Narrative
	Ambient   Ambient
	Failures  []error // non-fatal problems hit during generation

	cellSize float32
}

func (l *GeneratedLevel) Width() int                 { return l.Grid.Width() }
func (l *GeneratedLevel) Height() int                { return l.Grid.Height() }
func (l *GeneratedLevel) IsWalkable(cx, cy int) bool { return l.Grid.IsWalkable(cx, cy) }
func (l *GeneratedLevel) BlocksSight(cx, cy int) bool {
	return l.Grid.BlocksSight(cx, cy)
}

// CellSize returns world units per cell.
func (l *GeneratedLevel) CellSize() float32 { return l.cellSize }

// CellCenter returns the world position of a cell's center.
func (l *GeneratedLevel) CellCenter(c Cell) components.Position {
	return components.Position{
		X: (float32(c.X) + 0.5) * l.cellSize,
		Y: (float32(c.Y) + 0.5) * l.cellSize,
	}
}

// SpawnPos is the player's starting position.
func (l *GeneratedLevel) SpawnPos() components.Position { return l.CellCenter(l.Spawn) }

var agentGlyphs = [...]byte{
	components.ArchetypeBaseline: 'b',
	components.ArchetypeHeavy:    'h',
	components.ArchetypeFast:     'f',
	components.ArchetypeAdaptive: 'a',
}

// ASCII renders the level with spawn, agents and items overlaid.
func (l *GeneratedLevel) ASCII() string {
	rows := l.Grid.rows()
	put := func(c Cell, b byte) {
		if l.Grid.InBounds(c.X, c.Y) {
			rows[c.Y][c.X] = b
		}
	}
	for _, it := range l.Items {
		put(it.Cell, it.Kind.glyph())
	}
	for _, a := range l.Agents {
		g := byte('?')
		if int(a.Archetype) < len(agentGlyphs) {
			g = agentGlyphs[a.Archetype]
		}
		if a.Boss {
			g = 'B'
		}
		put(a.Cell, g)
	}
	put(l.Spawn, '@')
	return joinRows(rows)
}

// Generator produces levels from a configuration.
type Generator struct {
	cfg *config.Config
}

// NewGenerator creates a generator.
func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg}
}

// Generate builds the level spec from the player model and generates the level.
func (g *Generator) Generate(level int, profile components.Profile, history []Outcome, pred Predictor, seed int64) *GeneratedLevel {
	return g.GenerateLevel(BuildLevelSpec(level, profile, history, pred, &g.cfg.Procgen), seed)
}

// GenerateLevel runs every generation step for spec. It always returns a
// playable level: failed steps fall back and are recorded in Failures.
func (g *Generator) GenerateLevel(spec LevelSpec, seed int64) *GeneratedLevel {
	ch := NewChooser(seed)
	lvl := &GeneratedLevel{
		Seed:     seed,
		Spec:     spec,
		cellSize: float32(g.cfg.World.CellSize),
	}

	// 1. Layout
	reach := g.layout(lvl, ch)
	p := newPlacer(ch, reach, g.cfg.Procgen.MaxPlacementAttempts)

	// 2. Agents
	g.placeAgents(lvl, ch, p)

	// 3. Items
	g.placeItems(lvl, ch, p)

	// 4. Timed events
	g.scheduleEvents(lvl, ch, p)

	// 5. Flavor
	lvl.Narrative = buildNarrative(ch, lvl.Map, spec)
	lvl.Ambient = buildAmbient(ch, lvl.Map, spec)

	for _, err := range lvl.Failures {
		slog.Warn("level generation", "level", spec.Level, "seed", seed, "err", err)
	}
	slog.Debug("level generated",
		"level", spec.Level,
		"seed", seed,
		"map", lvl.Map.String(),
		"fallback", lvl.Fallback,
		"agents", len(lvl.Agents),
		"items", len(lvl.Items),
		"events", len(lvl.Events),
		"difficulty", spec.TargetDifficulty,
		"skill", spec.Skill,
	)
	return lvl
}

func (g *Generator) fail(lvl *GeneratedLevel, format string, args ...any) {
	lvl.Failures = append(lvl.Failures, fmt.Errorf(format, args...))
}

// mapWeights applies preference tags to the configured map weights.
func (g *Generator) mapWeights(lvl *GeneratedLevel) map[string]float64 {
	w := make(map[string]float64, len(g.cfg.Procgen.MapWeights))
	for k, v := range g.cfg.Procgen.MapWeights {
		if _, err := ParseMapArchetype(k); err != nil {
			g.fail(lvl, "map weights: %w", err)
			continue
		}
		w[k] = v
	}
	mul := func(m MapArchetype, f float64) {
		if v, ok := w[m.String()]; ok {
			w[m.String()] = v * f
		}
	}
	s := lvl.Spec
	if s.Has(TagCloseQuarters) {
		mul(MapCorridor, 1.5)
		mul(MapMaze, 1.5)
		mul(MapArena, 0.7)
	}
	if s.Has(TagLongSightlines) {
		mul(MapArena, 1.5)
		mul(MapRuins, 1.3)
		mul(MapMaze, 0.6)
	}
	if s.Has(TagFlanking) {
		mul(MapCompound, 1.4)
		mul(MapRuins, 1.3)
	}
	if s.Has(TagFragile) {
		mul(MapArena, 1.3)
		mul(MapMaze, 0.7)
	}
	return w
}

// layout picks and builds the map, falling back to an open arena when the
// chosen archetype cannot be produced validly.
func (g *Generator) layout(lvl *GeneratedLevel, ch *Chooser) *Reach {
	w, h := g.cfg.World.Width, g.cfg.World.Height

	kind := MapArena
	key, ok := ch.PickKey(g.mapWeights(lvl))
	if ok {
		kind, _ = ParseMapArchetype(key)
	} else {
		g.fail(lvl, "%w: no positive map weight", ErrInvalidArchetype)
	}
	sub := NewChooser(ch.Seed())

	grid := NewGrid(w, h, TileWall)
	spawn := mapBuilders[kind](grid, sub)
	reach, err := validateLayout(grid, spawn, g.cfg.Procgen.MinFloorRatio)
	if err != nil {
		g.fail(lvl, "%s map: %w", kind, err)
		grid = NewGrid(w, h, TileWall)
		spawn = buildOpenArena(grid, sub)
		reach = FloodFill(grid, spawn)
		lvl.Fallback = true
		kind = MapArena
	}

	lvl.Map = kind
	lvl.Grid = grid
	lvl.Spawn = spawn
	return reach
}

// validateLayout checks the spawn, connectivity and floor ratio. Small
// disconnected pockets are walled off; large ones fail validation.
func validateLayout(g *Grid, spawn Cell, minFloor float64) (*Reach, error) {
	if !g.IsWalkable(spawn.X, spawn.Y) {
		return nil, fmt.Errorf("%w: spawn %v not walkable", ErrGenerationFailure, spawn)
	}
	reach := FloodFill(g, spawn)
	floor := g.count(TileFloor)
	if lost := floor - reach.Len(); lost > floor/10 {
		return nil, fmt.Errorf("%w: %d of %d floor cells unreachable", ErrGenerationFailure, lost, floor)
	} else if lost > 0 {
		sealPockets(g, spawn)
	}
	if r := g.FloorRatio(); r < minFloor {
		return nil, fmt.Errorf("%w: floor ratio %.2f below %.2f", ErrGenerationFailure, r, minFloor)
	}
	return reach, nil
}

// spawnSteps keeps agents away from the player on small maps too.
func spawnSteps(reach *Reach) int {
	far := reach.Steps(reach.Farthest())
	if far < 2*minSpawnSteps {
		return far / 2
	}
	return minSpawnSteps
}

func (g *Generator) placeAgents(lvl *GeneratedLevel, ch *Chooser, p *placer) {
	r := newRoller(g.cfg, lvl.Spec)
	minSteps := spawnSteps(p.reach)

	n := RosterSize(lvl.Spec, &g.cfg.Procgen.Roster)
	lvl.Agents = make([]Spawn, 0, n)
	for i := 0; i < n; i++ {
		sp, err := r.roll(ch)
		if err != nil {
			g.fail(lvl, "agent %d: %w: %s", i, err, sp.Archetype)
			continue
		}
		cell, ok := p.place(minSteps)
		if !ok {
			g.fail(lvl, "%w: agent %d placed at fallback %v", ErrGenerationFailure, i, cell)
		}
		sp.Cell = cell
		sp.Pos = lvl.CellCenter(cell)
		lvl.Agents = append(lvl.Agents, sp)
	}
}

func (g *Generator) placeItems(lvl *GeneratedLevel, ch *Chooser, p *placer) {
	cfg := &g.cfg.Procgen.Items

	add := func(kind ItemKind, amount float32) {
		cell, ok := p.place(2)
		if !ok {
			g.fail(lvl, "%w: %s item placed at fallback %v", ErrGenerationFailure, kind, cell)
		}
		lvl.Items = append(lvl.Items, Item{Kind: kind, Cell: cell, Pos: lvl.CellCenter(cell), Amount: amount})
	}

	for i := itemCounts(cfg.HealthBase, lvl.Spec.Skill); i > 0; i-- {
		add(ItemHealth, float32(cfg.HealthAmount))
	}
	for i := itemCounts(cfg.AmmoBase, lvl.Spec.Skill); i > 0; i-- {
		add(ItemAmmo, float32(cfg.AmmoAmount))
	}
	if lvl.Spec.Skill >= cfg.UpgradeSkill && ch.Chance(cfg.UpgradeChance) {
		add(ItemWeaponUpgrade, 1)
	}
}

func (g *Generator) scheduleEvents(lvl *GeneratedLevel, ch *Chooser, p *placer) {
	cfg := &g.cfg.Procgen.Events
	weights := eventWeights(cfg.Weights, lvl.Spec)
	r := newRoller(g.cfg, lvl.Spec)
	minSteps := spawnSteps(p.reach)

	for i := 0; i < cfg.Count; i++ {
		key, ok := ch.PickKey(weights)
		if !ok {
			return
		}
		kind, _ := ParseEventKind(key)
		ev := TimedEvent{
			Kind:      kind,
			DelayS:    ch.Range(cfg.MinDelayS, cfg.MaxDelayS),
			DurationS: ch.Range(cfg.MinDurS, cfg.MaxDurS),
			Magnitude: eventMagnitude(kind),
		}
		switch kind {
		case EventReinforcementWave:
			for j := 0; j < cfg.WaveSize; j++ {
				sp, err := r.roll(ch)
				if err != nil {
					g.fail(lvl, "wave agent: %w: %s", err, sp.Archetype)
					continue
				}
				cell, ok := p.place(minSteps)
				if !ok {
					g.fail(lvl, "%w: wave agent placed at fallback %v", ErrGenerationFailure, cell)
				}
				sp.Cell = cell
				sp.Pos = lvl.CellCenter(cell)
				ev.Wave = append(ev.Wave, sp)
			}
		case EventDamageZone:
			cell, ok := p.place(minSteps / 2)
			if !ok {
				g.fail(lvl, "%w: damage zone placed at fallback %v", ErrGenerationFailure, cell)
			}
			ev.Pos = lvl.CellCenter(cell)
			ev.Radius = float32(cfg.ZoneRadius)
			ev.Magnitude = cfg.ZoneDamage
		}
		lvl.Events = append(lvl.Events, ev)
	}
	sortEvents(lvl.Events)
}
