package systems

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
	"github.com/pthm-cable/arena/player"
)

// Strategy is a global plan shared by every agent.
type Strategy uint8

const (
	StrategyPatrol Strategy = iota
	StrategyHunt
	StrategySurround
	StrategyAmbush
	StrategyRetreat
	StrategyBaitTrap
	NumStrategies
)

var strategyNames = [NumStrategies]string{"patrol", "hunt", "surround", "ambush", "retreat", "bait_trap"}

func (s Strategy) String() string {
	if s < NumStrategies {
		return strategyNames[s]
	}
	return "unknown"
}

// candidateOrder is the tie-break priority; earlier wins equal scores.
var candidateOrder = [...]Strategy{StrategyHunt, StrategySurround, StrategyAmbush, StrategyRetreat, StrategyBaitTrap}

// Situation summarizes the battlefield for strategy scoring.
type Situation struct {
	PlayerPos        components.Position
	PlayerHealthFrac float32
	PlayerAccuracy   float32
	PlayerStyle      components.PlayStyle
	Openness         float32 // open-cell share around the player
	Cover            float32 // cover-cell share around the player
	Live             int     // live agents; Update fills this in
	Initial          int     // agents at level start
	Aware            int     // live agents that know where the player is
	Adapt            player.Adaptations
}

// Scores holds one score in [0,1] per strategy; patrol is never scored.
type Scores [NumStrategies]float64

// Switch records a strategy change.
type Switch struct {
	Tick   int64
	From   Strategy
	To     Strategy
	Scores Scores
}

// LogValue implements slog.LogValuer.
func (s Switch) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", s.Tick),
		slog.String("from", s.From.String()),
		slog.String("to", s.To.String()),
		slog.String("scores", fmt.Sprintf("hunt=%.2f surround=%.2f ambush=%.2f retreat=%.2f bait=%.2f",
			s.Scores[StrategyHunt], s.Scores[StrategySurround], s.Scores[StrategyAmbush],
			s.Scores[StrategyRetreat], s.Scores[StrategyBaitTrap])),
	)
}

// Coordinator is the hive-mind: a strategy state machine over all agents.
// It holds agent pointers only for the duration of an Update.
type Coordinator struct {
	cfg  *config.HivemindConfig
	grid *NavGrid

	strategy  Strategy
	lastEval  int64
	evaluated bool
	switches  int

	// slot per agent for indexed roles, assigned on switch
	slots     map[uint32]int
	slotCount int
	bait      uint32

	last Switch
}

// NewCoordinator creates a coordinator in the patrol state.
func NewCoordinator(cfg *config.HivemindConfig, grid *NavGrid) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		grid:     grid,
		strategy: StrategyPatrol,
		slots:    make(map[uint32]int),
	}
}

// Strategy returns the active strategy.
func (c *Coordinator) Strategy() Strategy { return c.strategy }

// Switches returns how many times the strategy changed.
func (c *Coordinator) Switches() int { return c.switches }

// LastSwitch returns the most recent strategy change.
func (c *Coordinator) LastSwitch() Switch { return c.last }

// Scores computes every candidate score for a situation.
func (c *Coordinator) Scores(s Situation) Scores {
	w := c.cfg.Weights
	var sc Scores

	norm := c.cfg.AdvantageNorm
	if norm <= 0 {
		norm = 1
	}
	advantage := clamp01f(float64(s.Live) / norm)
	deficit := clamp01f(1 - float64(s.PlayerHealthFrac))
	open := clamp01f(float64(s.Openness))
	cover := clamp01f(float64(s.Cover))
	rusher := s.PlayerStyle == components.StyleRusher

	sc[StrategyHunt] = w.HuntAdvantage*advantage + w.HuntDeficit*deficit - w.HuntOpenPenalty*open

	if s.Live >= 3 {
		sc[StrategySurround] = w.SurroundBase + w.SurroundAdvantage*advantage + w.SurroundOpen*open + w.SurroundDeficit*deficit
	}

	ambush := w.AmbushBase + w.AmbushCover*cover
	if rusher {
		ambush += w.AmbushRusher
	}
	if s.Adapt.AmbushAdvantage > 0 {
		ambush *= float64(s.Adapt.AmbushAdvantage)
	}
	sc[StrategyAmbush] = ambush

	var attrition float64
	if s.Initial > 0 {
		attrition = clamp01f(1 - float64(s.Live)/float64(s.Initial))
	}
	sc[StrategyRetreat] = w.RetreatAttrition*attrition + w.RetreatAccuracy*clamp01f(float64(s.PlayerAccuracy))

	if s.Live >= 2 {
		bait := w.BaitAdvantage * advantage
		if rusher {
			bait += w.BaitRusher
		}
		sc[StrategyBaitTrap] = bait
	}

	for i := range sc {
		sc[i] = clamp01f(sc[i])
	}
	return sc
}

// Select returns the strictly highest scoring candidate; ties resolve in
// priority order.
func Select(sc Scores) Strategy {
	best := candidateOrder[0]
	for _, s := range candidateOrder[1:] {
		if sc[s] > sc[best] {
			best = s
		}
	}
	return best
}

// Update re-evaluates the strategy once per cooldown window and refreshes
// every live agent's strategic target from its role. Returns true when the
// strategy changed.
func (c *Coordinator) Update(tick int64, agents []*components.Agent, s Situation) bool {
	live := liveSorted(agents)
	s.Live = len(live)

	switched := false
	if !c.evaluated || tick-c.lastEval >= int64(c.cfg.CooldownTicks) {
		c.lastEval = tick
		c.evaluated = true

		next := StrategyPatrol
		var sc Scores
		if s.Live > 0 && s.Aware > 0 {
			sc = c.Scores(s)
			next = Select(sc)
		}
		if next != c.strategy {
			c.last = Switch{Tick: tick, From: c.strategy, To: next, Scores: sc}
			c.strategy = next
			c.switches++
			c.assignRoles(live)
			switched = true
			slog.Debug("hivemind switch", "switch", c.last)
		}
	}

	c.refreshTargets(live, s)
	return switched
}

func liveSorted(agents []*components.Agent) []*components.Agent {
	live := make([]*components.Agent, 0, len(agents))
	for _, a := range agents {
		if a.Alive() {
			live = append(live, a)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].ID < live[j].ID })
	return live
}

// assignRoles gives every live agent a role for the new strategy.
func (c *Coordinator) assignRoles(live []*components.Agent) {
	clear(c.slots)
	c.slotCount = len(live)
	c.bait = 0

	for i, a := range live {
		c.slots[a.ID] = i
		switch c.strategy {
		case StrategyPatrol:
			a.Role = components.RolePatrol
		case StrategyHunt:
			a.Role = components.RoleHunter
		case StrategySurround:
			a.Role = components.Role(fmt.Sprintf("%s%d", components.RoleSurroundPrefix, i))
		case StrategyAmbush:
			if i < ambushBaitCount(len(live)) {
				a.Role = components.RoleAmbushBait
			} else {
				a.Role = components.RoleAmbushHidden
			}
		case StrategyRetreat:
			a.Role = components.RoleRetreat
		case StrategyBaitTrap:
			a.Role = components.RoleTrap
		}
	}

	if c.strategy == StrategyBaitTrap && len(live) > 0 {
		// The weakest agent plays wounded.
		bait := live[0]
		for _, a := range live[1:] {
			if a.HealthFraction() < bait.HealthFraction() {
				bait = a
			}
		}
		bait.Role = components.RoleBait
		c.bait = bait.ID
	}
}

func ambushBaitCount(n int) int {
	b := n / 3
	if b < 1 {
		b = 1
	}
	return b
}

// refreshTargets recomputes strategic targets from roles and current positions.
func (c *Coordinator) refreshTargets(live []*components.Agent, s Situation) {
	spread := s.Adapt.SpreadOutFactor
	if spread <= 0 {
		spread = 1
	}
	target := s.PlayerPos

	// Reference direction for ambush and trap placement: from the squad toward the player.
	var cx, cy float32
	for _, a := range live {
		cx += a.Pos.X
		cy += a.Pos.Y
	}
	heading := float32(0)
	if len(live) > 0 {
		centroid := components.Position{X: cx / float32(len(live)), Y: cy / float32(len(live))}
		heading = centroid.AngleTo(target)
	}

	var baitPos components.Position
	haveBait := false
	for _, a := range live {
		if a.ID == c.bait && a.Role == components.RoleBait {
			baitPos = target.Toward(a.Pos, float32(c.cfg.BaitDistance))
			haveBait = true
		}
	}

	for _, a := range live {
		slot, ok := c.slots[a.ID]
		if !ok {
			slot = len(c.slots)
		}
		n := c.slotCount
		if n < 1 {
			n = 1
		}

		switch {
		case a.Role == components.RolePatrol || a.Role == components.RoleNone:
			a.ClearStrategicTarget()
		case a.Role == components.RoleSupport:
			// Set by a need-assistance call; left in place.
		case a.Role == components.RoleHunter:
			a.SetStrategicTarget(c.snap(target))
		case strings.HasPrefix(string(a.Role), components.RoleSurroundPrefix):
			angle := 2 * math.Pi * float32(slot) / float32(n)
			a.SetStrategicTarget(c.snap(target.Polar(angle, float32(c.cfg.SurroundRadius)*spread)))
		case a.Role == components.RoleAmbushBait:
			a.SetStrategicTarget(c.snap(target))
		case a.Role == components.RoleAmbushHidden:
			// Fan out beyond the player, across the bait's approach line.
			side := float32(slot%2*2 - 1)
			angle := heading + side*math.Pi/4*(1+float32(slot/2)*0.25)
			a.SetStrategicTarget(c.snap(target.Polar(angle, float32(c.cfg.AmbushOffset)*spread)))
		case a.Role == components.RoleRetreat:
			a.SetStrategicTarget(c.snap(a.Pos.Polar(target.AngleTo(a.Pos), float32(c.cfg.RetreatDistance))))
		case a.Role == components.RoleBait:
			a.SetStrategicTarget(c.snap(baitPos))
		case a.Role == components.RoleTrap:
			if !haveBait {
				a.SetStrategicTarget(c.snap(target))
				break
			}
			// Trappers wait behind the bait, away from the player.
			back := target.AngleTo(baitPos)
			angle := back + (float32(slot)/float32(n)-0.5)*math.Pi/2
			a.SetStrategicTarget(c.snap(baitPos.Polar(angle, float32(c.cfg.BaitDistance)*spread)))
		default:
			// Roles handed out by formation commands track the player.
			a.SetStrategicTarget(c.snap(target))
		}
	}
}

// snap moves a target inside the grid and onto the nearest open cell.
func (c *Coordinator) snap(p components.Position) components.Position {
	if c.grid == nil {
		return p
	}
	cs := c.grid.CellSize()
	w := float32(c.grid.Width()) * cs
	h := float32(c.grid.Height()) * cs
	p.X, p.Y = clampToWorld(p.X, p.Y, w, h, cs*0.5)
	gx, gy := c.grid.WorldToGrid(p.X, p.Y)
	if !c.grid.IsBlocked(gx, gy) {
		return p
	}
	ox, oy := c.grid.NearestOpen(gx, gy, 6)
	if ox < 0 {
		return p
	}
	return c.grid.CellCenter(ox, oy)
}
