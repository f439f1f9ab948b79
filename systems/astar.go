package systems

import (
	"container/heap"

	"github.com/pthm-cable/arena/components"
)

// Move costs in tenths of a cell so scores stay exact integers.
const (
	costCardinal = 10
	costDiagonal = 14
)

// AStarPlanner provides A* pathfinding over a NavGrid.
// A planner is not safe for concurrent use; it reuses its buffers.
type AStarPlanner struct {
	grid          *NavGrid
	maxIterations int

	// Reusable data structures (cleared between searches)
	openHeap  *nodeHeap
	openNodes map[int]*astarNode
	closedSet map[int]struct{}
	cameFrom  map[int]int
	gScore    map[int]int
}

// astarNode is a node in the A* search.
type astarNode struct {
	id    int // gy*width + gx
	g     int // cumulative cost
	f     int // g + h (priority)
	index int // Heap index
}

// nodeHeap implements heap.Interface for A* open set.
// Ordering: lowest f, then lowest g, then lowest cell id.
type nodeHeap []*astarNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].g != h[j].g {
		return h[i].g < h[j].g
	}
	return h[i].id < h[j].id
}
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*astarNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[0 : n-1]
	return node
}

// neighborOffsets lists cardinals first, then diagonals.
var neighborOffsets = [8][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1}, // W E N S
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1}, // NW NE SW SE
}

// NewAStarPlanner creates an A* planner for a grid.
// maxIterations <= 0 bounds the search by the grid area.
func NewAStarPlanner(grid *NavGrid, maxIterations int) *AStarPlanner {
	if maxIterations <= 0 {
		maxIterations = grid.width * grid.height
	}
	return &AStarPlanner{
		grid:          grid,
		maxIterations: maxIterations,
		openHeap:      &nodeHeap{},
		openNodes:     make(map[int]*astarNode, 256),
		closedSet:     make(map[int]struct{}, 256),
		cameFrom:      make(map[int]int, 256),
		gScore:        make(map[int]int, 256),
	}
}

// Grid returns the planner's grid.
func (a *AStarPlanner) Grid() *NavGrid { return a.grid }

// FindPath computes a path between two world positions.
// It returns the cell-center waypoints after the start cell up to and
// including the goal cell. An empty result means no path; callers hold
// position.
func (a *AStarPlanner) FindPath(start, goal components.Position) []components.Position {
	sgx, sgy := a.grid.WorldToGrid(start.X, start.Y)
	ggx, ggy := a.grid.WorldToGrid(goal.X, goal.Y)
	return a.FindPathCells(sgx, sgy, ggx, ggy)
}

// FindPathCells is FindPath on grid coordinates.
func (a *AStarPlanner) FindPathCells(startGX, startGY, goalGX, goalGY int) []components.Position {
	grid := a.grid

	// Agents standing on cover or a goal inside a wall snap to the nearest open cell.
	if grid.IsBlocked(startGX, startGY) {
		startGX, startGY = grid.NearestOpen(startGX, startGY, 10)
		if startGX < 0 {
			return nil
		}
	}
	if grid.IsBlocked(goalGX, goalGY) {
		goalGX, goalGY = grid.NearestOpen(goalGX, goalGY, 10)
		if goalGX < 0 {
			return nil
		}
	}

	// Same cell - no path needed
	if startGX == goalGX && startGY == goalGY {
		return nil
	}

	a.reset()

	startID := startGY*grid.width + startGX
	goalID := goalGY*grid.width + goalGX

	a.gScore[startID] = 0
	startNode := &astarNode{id: startID, g: 0, f: heuristic(startGX, startGY, goalGX, goalGY)}
	heap.Push(a.openHeap, startNode)
	a.openNodes[startID] = startNode

	iterations := 0
	for a.openHeap.Len() > 0 && iterations < a.maxIterations {
		iterations++

		current := heap.Pop(a.openHeap).(*astarNode)
		delete(a.openNodes, current.id)
		if current.id == goalID {
			return a.reconstructPath(startID, goalID)
		}
		a.closedSet[current.id] = struct{}{}

		cgx := current.id % grid.width
		cgy := current.id / grid.width

		for i, off := range neighborOffsets {
			ngx, ngy := cgx+off[0], cgy+off[1]
			if grid.IsBlocked(ngx, ngy) {
				continue
			}

			moveCost := costCardinal
			if i >= 4 {
				// No corner cutting: both adjacent cardinals must be open.
				if grid.IsBlocked(cgx+off[0], cgy) || grid.IsBlocked(cgx, cgy+off[1]) {
					continue
				}
				moveCost = costDiagonal
			}

			neighborID := ngy*grid.width + ngx
			if _, ok := a.closedSet[neighborID]; ok {
				continue
			}

			tentativeG := current.g + moveCost
			existingG, exists := a.gScore[neighborID]
			if exists && tentativeG >= existingG {
				continue
			}

			a.cameFrom[neighborID] = current.id
			a.gScore[neighborID] = tentativeG
			f := tentativeG + heuristic(ngx, ngy, goalGX, goalGY)

			if node, open := a.openNodes[neighborID]; open {
				node.g = tentativeG
				node.f = f
				heap.Fix(a.openHeap, node.index)
				continue
			}
			node := &astarNode{id: neighborID, g: tentativeG, f: f}
			heap.Push(a.openHeap, node)
			a.openNodes[neighborID] = node
		}
	}

	// No path found
	return nil
}

// heuristic is the Manhattan distance in move-cost units. It overestimates
// under diagonal movement, so results are not guaranteed shortest.
func heuristic(gx1, gy1, gx2, gy2 int) int {
	return (abs(gx2-gx1) + abs(gy2-gy1)) * costCardinal
}

func (a *AStarPlanner) reset() {
	*a.openHeap = (*a.openHeap)[:0]
	clear(a.openNodes)
	clear(a.closedSet)
	clear(a.cameFrom)
	clear(a.gScore)
}

// reconstructPath builds the path from cameFrom map, excluding the start cell.
func (a *AStarPlanner) reconstructPath(startID, goalID int) []components.Position {
	var pathIDs []int
	current := goalID
	for current != startID {
		pathIDs = append(pathIDs, current)
		prev, ok := a.cameFrom[current]
		if !ok {
			return nil
		}
		current = prev
	}

	path := make([]components.Position, len(pathIDs))
	for i := range pathIDs {
		id := pathIDs[len(pathIDs)-1-i]
		path[i] = a.grid.CellCenter(id%a.grid.width, id/a.grid.width)
	}
	return path
}

// SimplifyPath removes waypoints that are reachable in a straight walkable
// line from the previous kept waypoint. The goal is always kept.
func SimplifyPath(grid *NavGrid, from components.Position, path []components.Position) []components.Position {
	if len(path) <= 1 {
		return path
	}

	simplified := make([]components.Position, 0, len(path))
	prev := from
	for i := 0; i < len(path)-1; i++ {
		next := path[i+1]
		// Check if we can skip path[i] by going directly from prev to next
		if !walkableLine(grid, prev, next) {
			simplified = append(simplified, path[i])
			prev = path[i]
		}
	}
	simplified = append(simplified, path[len(path)-1])
	return simplified
}

// walkableLine checks movement clearance between two points with the same
// half-cell ray march used for sight.
func walkableLine(grid *NavGrid, a, b components.Position) bool {
	open := true
	marchRay(grid, a, b, func(gx, gy int) bool {
		if grid.IsBlocked(gx, gy) {
			open = false
			return false
		}
		return true
	})
	return open
}

// IsPathValid checks if a followed path is still usable.
// A path is invalid if the goal moved more than a cell, any remaining
// waypoint is now blocked, or the path is older than maxAge ticks.
func IsPathValid(grid *NavGrid, p *components.Pathing, goal components.Position, currentTick, maxAge int32) bool {
	if p == nil || p.Index >= len(p.Waypoints) {
		return false
	}
	if currentTick-p.ValidTick > maxAge {
		return false
	}
	if p.Goal.DistSq(goal) > grid.cellSize*grid.cellSize {
		return false
	}
	for i := p.Index; i < len(p.Waypoints); i++ {
		wp := p.Waypoints[i]
		if grid.IsBlockedWorld(wp.X, wp.Y) {
			return false
		}
	}
	return true
}

// NextWaypoint returns the next waypoint to move toward.
// Advances the path index if pos is within arrivalDist of the current waypoint.
func NextWaypoint(p *components.Pathing, pos components.Position, arrivalDist float32) (components.Position, bool) {
	if p == nil || p.Index >= len(p.Waypoints) {
		return pos, false
	}
	wp := p.Waypoints[p.Index]
	if wp.DistSq(pos) < arrivalDist*arrivalDist {
		p.Index++
		if p.Index >= len(p.Waypoints) {
			return wp, false
		}
		wp = p.Waypoints[p.Index]
	}
	return wp, true
}
