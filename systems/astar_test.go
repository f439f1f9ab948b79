package systems

import (
	"reflect"
	"testing"

	"github.com/pthm-cable/arena/components"
)

func openGrid(w, h int) *NavGrid {
	return NewNavGrid(w, h, 1)
}

func cell(x, y int) components.Position {
	return components.Position{X: float32(x) + 0.5, Y: float32(y) + 0.5}
}

// TestAStarDiagonal verifies the open 5x5 diagonal scenario.
func TestAStarDiagonal(t *testing.T) {
	planner := NewAStarPlanner(openGrid(5, 5), 0)

	path := planner.FindPath(cell(0, 0), cell(4, 4))

	want := []components.Position{cell(1, 1), cell(2, 2), cell(3, 3), cell(4, 4)}
	if !reflect.DeepEqual(path, want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
}

// TestAStarAroundObstacle verifies A* navigates around a wall.
func TestAStarAroundObstacle(t *testing.T) {
	grid := openGrid(10, 10)
	for y := 0; y < 8; y++ {
		grid.SetBlocked(5, y, true, true)
	}
	planner := NewAStarPlanner(grid, 0)

	path := planner.FindPath(cell(1, 1), cell(8, 1))
	if len(path) == 0 {
		t.Fatal("expected path around obstacle, got none")
	}
	for i, wp := range path {
		if grid.IsBlockedWorld(wp.X, wp.Y) {
			t.Errorf("waypoint %d at %v is inside the wall", i, wp)
		}
	}
	if last := path[len(path)-1]; last != cell(8, 1) {
		t.Errorf("last waypoint = %v, want goal %v", last, cell(8, 1))
	}
}

// TestAStarNoPath verifies a sealed goal yields an empty path.
func TestAStarNoPath(t *testing.T) {
	grid := openGrid(10, 10)
	for y := 0; y < 10; y++ {
		grid.SetBlocked(5, y, true, true)
	}
	planner := NewAStarPlanner(grid, 0)

	if path := planner.FindPath(cell(1, 1), cell(8, 1)); len(path) != 0 {
		t.Errorf("expected no path through complete wall, got %d waypoints", len(path))
	}
}

// TestAStarNoCornerCutting verifies diagonals never squeeze between blocked corners.
func TestAStarNoCornerCutting(t *testing.T) {
	grid := openGrid(3, 3)
	grid.SetBlocked(1, 0, true, true)
	grid.SetBlocked(0, 1, true, true)
	planner := NewAStarPlanner(grid, 0)

	if path := planner.FindPath(cell(0, 0), cell(1, 1)); len(path) != 0 {
		t.Errorf("expected start to be sealed by corners, got %v", path)
	}
}

// TestAStarDeterministic verifies repeated searches agree exactly.
func TestAStarDeterministic(t *testing.T) {
	grid := openGrid(20, 20)
	for y := 3; y < 17; y++ {
		grid.SetBlocked(10, y, true, false)
	}
	planner := NewAStarPlanner(grid, 0)

	first := planner.FindPath(cell(2, 10), cell(18, 9))
	if len(first) == 0 {
		t.Fatal("expected a path")
	}
	for i := 0; i < 20; i++ {
		other := NewAStarPlanner(grid, 0).FindPath(cell(2, 10), cell(18, 9))
		if !reflect.DeepEqual(first, other) {
			t.Fatalf("run %d differs:\n%v\n%v", i, first, other)
		}
		again := planner.FindPath(cell(2, 10), cell(18, 9))
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("reused planner run %d differs", i)
		}
	}
}

func TestAStarSameCell(t *testing.T) {
	planner := NewAStarPlanner(openGrid(5, 5), 0)
	if path := planner.FindPath(cell(2, 2), components.Position{X: 2.9, Y: 2.1}); len(path) != 0 {
		t.Errorf("same-cell path = %v, want empty", path)
	}
}

func TestSimplifyPathOpenLine(t *testing.T) {
	grid := openGrid(10, 3)
	planner := NewAStarPlanner(grid, 0)
	path := planner.FindPath(cell(0, 1), cell(9, 1))
	if len(path) != 9 {
		t.Fatalf("raw path len = %d, want 9", len(path))
	}
	simple := SimplifyPath(grid, cell(0, 1), path)
	if len(simple) != 1 || simple[0] != cell(9, 1) {
		t.Errorf("simplified = %v, want just the goal", simple)
	}
}

// TestNextWaypoint verifies waypoint following.
func TestNextWaypoint(t *testing.T) {
	p := &components.Pathing{
		Waypoints: []components.Position{{X: 20, Y: 20}, {X: 50, Y: 50}, {X: 80, Y: 80}},
	}

	wp, more := NextWaypoint(p, components.Position{}, 10)
	if wp.X != 20 || !more || p.Index != 0 {
		t.Errorf("first = %v more=%v index=%d", wp, more, p.Index)
	}

	wp, more = NextWaypoint(p, components.Position{X: 18, Y: 18}, 10)
	if wp.X != 50 || !more || p.Index != 1 {
		t.Errorf("after advance = %v more=%v index=%d", wp, more, p.Index)
	}

	p.Index = 2
	if _, more = NextWaypoint(p, components.Position{X: 79, Y: 79}, 10); more {
		t.Error("expected no more waypoints after the last")
	}
}

func TestIsPathValid(t *testing.T) {
	grid := NewNavGrid(10, 10, 16)
	p := &components.Pathing{
		Waypoints: []components.Position{{X: 24, Y: 24}, {X: 40, Y: 40}},
		Goal:      components.Position{X: 40, Y: 40},
		ValidTick: 100,
	}
	goal := components.Position{X: 40, Y: 40}

	if !IsPathValid(grid, p, goal, 120, 60) {
		t.Error("expected fresh path to be valid")
	}
	if IsPathValid(grid, p, components.Position{X: 120, Y: 40}, 120, 60) {
		t.Error("expected path invalid after goal moved")
	}
	if IsPathValid(grid, p, goal, 200, 60) {
		t.Error("expected stale path invalid")
	}
	grid.SetBlocked(2, 2, true, false)
	if IsPathValid(grid, p, goal, 120, 60) {
		t.Error("expected path through new obstacle invalid")
	}
	if IsPathValid(grid, nil, goal, 120, 60) {
		t.Error("expected nil path invalid")
	}
}
