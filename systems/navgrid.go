package systems

import "github.com/pthm-cable/arena/components"

// TileGrid is the walkability source a NavGrid is built from.
// The procedural generator is the sole producer.
type TileGrid interface {
	Width() int
	Height() int
	IsWalkable(cx, cy int) bool
	BlocksSight(cx, cy int) bool
}

// NavGrid stores a navigation grid for A* pathfinding and sight queries.
// Cells are marked as blocked (true) or open (false).
type NavGrid struct {
	cells    []bool  // true = blocks movement
	opaque   []bool  // true = blocks sight
	cellSize float32 // world units per cell
	width    int     // grid width in cells
	height   int     // grid height in cells
}

// NewNavGrid creates an all-open grid.
func NewNavGrid(width, height int, cellSize float32) *NavGrid {
	return &NavGrid{
		cells:    make([]bool, width*height),
		opaque:   make([]bool, width*height),
		cellSize: cellSize,
		width:    width,
		height:   height,
	}
}

// NewNavGridFromTiles copies walkability and opacity from a tile grid.
func NewNavGridFromTiles(tiles TileGrid, cellSize float32) *NavGrid {
	g := NewNavGrid(tiles.Width(), tiles.Height(), cellSize)
	for gy := 0; gy < g.height; gy++ {
		for gx := 0; gx < g.width; gx++ {
			i := gy*g.width + gx
			g.cells[i] = !tiles.IsWalkable(gx, gy)
			g.opaque[i] = tiles.BlocksSight(gx, gy)
		}
	}
	return g
}

// SetBlocked marks a cell. Walls block both movement and sight; low cover
// blocks movement only.
func (g *NavGrid) SetBlocked(gx, gy int, blocksMove, blocksSight bool) {
	if gx < 0 || gx >= g.width || gy < 0 || gy >= g.height {
		return
	}
	g.cells[gy*g.width+gx] = blocksMove
	g.opaque[gy*g.width+gx] = blocksSight
}

// Width returns the grid width in cells.
func (g *NavGrid) Width() int { return g.width }

// Height returns the grid height in cells.
func (g *NavGrid) Height() int { return g.height }

// CellSize returns the world size of a cell.
func (g *NavGrid) CellSize() float32 { return g.cellSize }

// IsBlocked returns true if the given nav grid cell is blocked.
func (g *NavGrid) IsBlocked(gx, gy int) bool {
	if gx < 0 || gx >= g.width || gy < 0 || gy >= g.height {
		return true // Out of bounds is blocked
	}
	return g.cells[gy*g.width+gx]
}

// IsWalkable is the collision predicate consumed by movement.
func (g *NavGrid) IsWalkable(gx, gy int) bool {
	return !g.IsBlocked(gx, gy)
}

// BlocksSight returns true if the cell stops a sight ray.
func (g *NavGrid) BlocksSight(gx, gy int) bool {
	if gx < 0 || gx >= g.width || gy < 0 || gy >= g.height {
		return true
	}
	return g.opaque[gy*g.width+gx]
}

// IsBlockedWorld returns true if the world position is in a blocked cell.
func (g *NavGrid) IsBlockedWorld(x, y float32) bool {
	gx, gy := g.WorldToGrid(x, y)
	return g.IsBlocked(gx, gy)
}

// WorldToGrid converts world coordinates to nav grid coordinates.
func (g *NavGrid) WorldToGrid(x, y float32) (gx, gy int) {
	gx = floorDiv(x, g.cellSize)
	gy = floorDiv(y, g.cellSize)
	return
}

// GridToWorld converts nav grid coordinates to world coordinates (cell center).
func (g *NavGrid) GridToWorld(gx, gy int) (x, y float32) {
	x = (float32(gx) + 0.5) * g.cellSize
	y = (float32(gy) + 0.5) * g.cellSize
	return
}

// CellCenter returns the world position of a cell center.
func (g *NavGrid) CellCenter(gx, gy int) components.Position {
	x, y := g.GridToWorld(gx, gy)
	return components.Position{X: x, Y: y}
}

// OpenFraction returns the share of open cells within radius cells of (gx, gy).
// Used as the open-area measure by the coordinator.
func (g *NavGrid) OpenFraction(gx, gy, radius int) float32 {
	open, total := 0, 0
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			total++
			if !g.IsBlocked(gx+dx, gy+dy) {
				open++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float32(open) / float32(total)
}

// CoverFraction returns the share of cells within radius that block movement
// but not sight, i.e. low cover an agent can hide behind.
func (g *NavGrid) CoverFraction(gx, gy, radius int) float32 {
	cover, total := 0, 0
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			x, y := gx+dx, gy+dy
			if x < 0 || x >= g.width || y < 0 || y >= g.height {
				continue
			}
			total++
			if g.IsBlocked(x, y) {
				cover++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float32(cover) / float32(total)
}

// NearestOpen finds the nearest unblocked cell to (gx, gy) by spiral search.
// Returns (-1, -1) if no open cell is found within maxRadius.
func (g *NavGrid) NearestOpen(gx, gy, maxRadius int) (int, int) {
	if !g.IsBlocked(gx, gy) {
		return gx, gy
	}
	for radius := 1; radius <= maxRadius; radius++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				// Only check cells at the current radius
				if abs(dx) != radius && abs(dy) != radius {
					continue
				}
				if !g.IsBlocked(gx+dx, gy+dy) {
					return gx + dx, gy + dy
				}
			}
		}
	}
	return -1, -1
}

func floorDiv(v, size float32) int {
	q := v / size
	i := int(q)
	if q < 0 && float32(i) != q {
		i--
	}
	return i
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
