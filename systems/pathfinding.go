package systems

import (
	"github.com/pthm-cable/arena/components"
)

// Pathfinder combines the planner, cache and sight queries over one level grid.
type Pathfinder struct {
	grid    *NavGrid
	planner *AStarPlanner
	cache   *PathCache

	hits   uint64
	misses uint64
}

// NewPathfinder creates a pathfinder for a grid.
func NewPathfinder(grid *NavGrid, cacheSize, maxIterations int) *Pathfinder {
	return &Pathfinder{
		grid:    grid,
		planner: NewAStarPlanner(grid, maxIterations),
		cache:   NewPathCache(cacheSize),
	}
}

// Grid returns the navigation grid.
func (p *Pathfinder) Grid() *NavGrid { return p.grid }

// Key quantizes two world positions into a cache key.
func (p *Pathfinder) Key(start, end components.Position) PathKey {
	sx, sy := p.grid.WorldToGrid(start.X, start.Y)
	ex, ey := p.grid.WorldToGrid(end.X, end.Y)
	return PathKey{SX: sx, SY: sy, EX: ex, EY: ey}
}

// FindPath returns waypoints from start to end, consulting the cache first.
// A hit bypasses search entirely. Empty results are cached too.
func (p *Pathfinder) FindPath(start, end components.Position) []components.Position {
	k := p.Key(start, end)
	if path, ok := p.cache.Get(k); ok {
		p.hits++
		return path
	}
	p.misses++
	path := p.planner.FindPathCells(k.SX, k.SY, k.EX, k.EY)
	p.cache.Put(k, path)
	return path
}

// LineOfSight reports visibility between two points on this grid.
func (p *Pathfinder) LineOfSight(a, b components.Position) (bool, components.Position) {
	return LineOfSight(p.grid, a, b)
}

// Stats returns cache hit and miss counts.
func (p *Pathfinder) Stats() (hits, misses uint64) {
	return p.hits, p.misses
}

// CacheLen returns the number of cached paths.
func (p *Pathfinder) CacheLen() int { return p.cache.Len() }
