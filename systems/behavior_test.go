package systems

import (
	"testing"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
	"github.com/pthm-cable/arena/player"
)

func testStats() components.Stats {
	return components.Stats{MaxHealth: 100, Speed: 90, Damage: 8, FireInterval: 1, AttackRange: 160, SightRange: 320, Radius: 10}
}

func newTestExecutor(grid *NavGrid) (*Executor, *config.Config) {
	cfg := config.Default()
	pf := NewPathfinder(grid, cfg.Pathfinding.CacheSize, 0)
	w := float32(grid.Width()) * grid.CellSize()
	h := float32(grid.Height()) * grid.CellSize()
	return NewExecutor(&cfg.Behavior, pf, w, h, 7), cfg
}

var allArchetypes = []components.Archetype{
	components.ArchetypeBaseline,
	components.ArchetypeHeavy,
	components.ArchetypeFast,
	components.ArchetypeAdaptive,
}

// TestPanicOnNextDecision verifies every archetype flees on the first
// decision after dropping below the panic threshold.
func TestPanicOnNextDecision(t *testing.T) {
	grid := NewNavGrid(40, 30, 32)
	for _, arch := range allArchetypes {
		t.Run(arch.String(), func(t *testing.T) {
			exec, _ := newTestExecutor(grid)
			a := components.NewAgent(1, arch, grid.CellCenter(10, 10), testStats())
			playerPos := grid.CellCenter(12, 10)

			d, _ := exec.Update(&a, playerPos, 1000, 0.05)
			if d.State == components.StateFlee {
				t.Fatalf("healthy agent fled")
			}

			a.Damage(a.MaxHealth * 0.75) // 25% left
			d, _ = exec.Update(&a, playerPos, 1050, 0.05)
			if d.State != components.StateFlee || d.Intent != components.IntentFlee {
				t.Fatalf("state = %v intent = %v, want flee", d.State, d.Intent)
			}
			if a.State != components.StateFlee {
				t.Errorf("agent state tag = %v, want flee", a.State)
			}
			if d.Target.Dist(playerPos) <= a.Pos.Dist(playerPos) {
				t.Errorf("flee target %v is not farther from the player than %v", d.Target, a.Pos)
			}
		})
	}
}

func TestPanicPreemptsTacticalRetreat(t *testing.T) {
	grid := NewNavGrid(40, 30, 32)
	exec, _ := newTestExecutor(grid)
	a := components.NewAgent(1, components.ArchetypeAdaptive, grid.CellCenter(10, 10), testStats())
	a.PerceivedThreat = 1
	a.Health = 10

	d := exec.Decide(&a, exec.Perceive(&a, grid.CellCenter(12, 10), 0))
	if d.State != components.StateFlee {
		t.Errorf("state = %v, want flee", d.State)
	}
}

func TestTacticalRetreatAdaptiveOnly(t *testing.T) {
	grid := NewNavGrid(40, 30, 32)
	exec, _ := newTestExecutor(grid)
	playerPos := grid.CellCenter(12, 10)

	for _, arch := range allArchetypes {
		a := components.NewAgent(1, arch, grid.CellCenter(10, 10), testStats())
		a.PerceivedThreat = 0.9
		d := exec.Decide(&a, exec.Perceive(&a, playerPos, 0))

		want := components.StateAttack
		if arch == components.ArchetypeAdaptive {
			want = components.StateTacticalRetreat
		}
		if d.State != want {
			t.Errorf("%v: state = %v, want %v", arch, d.State, want)
		}
	}
}

func TestAttackAdvanceInvestigatePatrol(t *testing.T) {
	grid := NewNavGrid(40, 30, 32)
	for y := 0; y < 30; y++ {
		grid.SetBlocked(20, y, true, true)
	}
	exec, cfg := newTestExecutor(grid)
	stats := testStats()

	t.Run("attack", func(t *testing.T) {
		a := components.NewAgent(1, components.ArchetypeBaseline, grid.CellCenter(5, 5), stats)
		p := grid.CellCenter(8, 5) // 96 units away
		d := exec.Decide(&a, exec.Perceive(&a, p, 0))
		if d.Intent != components.IntentAttack || d.Target != p {
			t.Errorf("directive = %+v, want attack on player", d)
		}
	})

	t.Run("advance straight", func(t *testing.T) {
		a := components.NewAgent(1, components.ArchetypeBaseline, grid.CellCenter(5, 5), stats)
		p := grid.CellCenter(14, 5) // 288 units: visible, beyond attack range
		d := exec.Decide(&a, exec.Perceive(&a, p, 0))
		if d.State != components.StateAdvance || d.Target != p {
			t.Errorf("directive = %+v, want advance to player", d)
		}
	})

	t.Run("strategic target overrides advance", func(t *testing.T) {
		a := components.NewAgent(1, components.ArchetypeBaseline, grid.CellCenter(5, 5), stats)
		goal := grid.CellCenter(5, 15)
		a.SetStrategicTarget(goal)
		d := exec.Decide(&a, exec.Perceive(&a, grid.CellCenter(14, 5), 0))
		if d.State != components.StateAdvance || d.Target != goal {
			t.Errorf("directive = %+v, want advance to %v", d, goal)
		}
	})

	t.Run("investigate", func(t *testing.T) {
		a := components.NewAgent(1, components.ArchetypeBaseline, grid.CellCenter(15, 5), stats)
		last := grid.CellCenter(22, 8)
		a.Remember(last, 1000)
		p := exec.Perceive(&a, grid.CellCenter(25, 5), 2000) // behind the wall
		if p.Visible {
			t.Fatal("player should be hidden by the wall")
		}
		d := exec.Decide(&a, p)
		if d.State != components.StateInvestigate || d.Target != last {
			t.Errorf("directive = %+v, want investigate %v", d, last)
		}
	})

	t.Run("stale memory patrols", func(t *testing.T) {
		a := components.NewAgent(1, components.ArchetypeBaseline, grid.CellCenter(15, 5), stats)
		a.Remember(grid.CellCenter(22, 8), 0)
		d := exec.Decide(&a, exec.Perceive(&a, grid.CellCenter(25, 5), cfg.Behavior.StalenessMs+1))
		if d.State != components.StatePatrol {
			t.Errorf("state = %v, want patrol", d.State)
		}
		if !a.HasWander || grid.IsBlockedWorld(d.Target.X, d.Target.Y) {
			t.Errorf("wander goal %v not set or blocked", d.Target)
		}
	})
}

// TestAttackInRangeBehindWall verifies the attack branch keys on distance
// alone; a wall between agent and player does not send it to patrol.
func TestAttackInRangeBehindWall(t *testing.T) {
	grid := NewNavGrid(40, 30, 32)
	for y := 0; y < 30; y++ {
		grid.SetBlocked(11, y, true, true)
	}
	for _, arch := range allArchetypes {
		t.Run(arch.String(), func(t *testing.T) {
			exec, _ := newTestExecutor(grid)
			a := components.NewAgent(1, arch, grid.CellCenter(10, 10), testStats())
			playerPos := grid.CellCenter(12, 10)

			p := exec.Perceive(&a, playerPos, 1000)
			if p.Visible {
				t.Fatal("player should be hidden by the wall")
			}
			d := exec.Decide(&a, p)
			if d.Intent != components.IntentAttack || d.State != components.StateAttack {
				t.Errorf("directive = %+v, want attack", d)
			}
		})
	}
}

func TestFastHitAndRun(t *testing.T) {
	grid := NewNavGrid(40, 30, 32)
	exec, _ := newTestExecutor(grid)
	stats := testStats()
	stats.AttackRange = 60

	a := components.NewAgent(1, components.ArchetypeFast, grid.CellCenter(10, 10), stats)
	playerPos := grid.CellCenter(11, 10)

	d := exec.Decide(&a, exec.Perceive(&a, playerPos, 1000))
	if d.Intent != components.IntentAttack {
		t.Fatalf("intent = %v, want attack", d.Intent)
	}

	a.Kind.(*components.FastKind).RetreatUntil = 2000
	d = exec.Decide(&a, exec.Perceive(&a, playerPos, 1500))
	if d.State != components.StateAdvance || d.Target.Dist(playerPos) <= a.Pos.Dist(playerPos) {
		t.Errorf("breaking off: directive = %+v, want move away from player", d)
	}
}

func TestCloseRangeBonusShrinksAttackRange(t *testing.T) {
	grid := NewNavGrid(40, 30, 32)
	exec, _ := newTestExecutor(grid)
	a := components.NewAgent(1, components.ArchetypeBaseline, grid.CellCenter(5, 5), testStats())
	p := grid.CellCenter(9, 5) // 128 units

	if d := exec.Decide(&a, exec.Perceive(&a, p, 0)); d.Intent != components.IntentAttack {
		t.Fatalf("intent = %v, want attack at neutral adaptations", d.Intent)
	}
	ad := player.Neutral()
	ad.CloseRangeBonus = 1.5
	exec.SetAdaptations(ad)
	if d := exec.Decide(&a, exec.Perceive(&a, p, 0)); d.State != components.StateAdvance {
		t.Errorf("state = %v, want advance with close range bonus", d.State)
	}
}
