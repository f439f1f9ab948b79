package procgen

import "strings"

// Tile is the content of one map cell.
type Tile uint8

const (
	TileFloor Tile = iota
	TileWall       // blocks movement and sight
	TileCover      // low cover: blocks movement, not sight
)

// Cell is a grid coordinate.
type Cell struct {
	X, Y int
}

// Grid is a row-major tile map.
type Grid struct {
	w, h  int
	tiles []Tile
}

// NewGrid creates a grid filled with t.
func NewGrid(w, h int, t Tile) *Grid {
	g := &Grid{w: w, h: h, tiles: make([]Tile, w*h)}
	g.Fill(t)
	return g
}

func (g *Grid) Width() int  { return g.w }
func (g *Grid) Height() int { return g.h }

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.w && y >= 0 && y < g.h
}

// At returns the tile at (x,y); out-of-bounds reads as wall.
func (g *Grid) At(x, y int) Tile {
	if !g.InBounds(x, y) {
		return TileWall
	}
	return g.tiles[y*g.w+x]
}

func (g *Grid) Set(x, y int, t Tile) {
	if g.InBounds(x, y) {
		g.tiles[y*g.w+x] = t
	}
}

func (g *Grid) Fill(t Tile) {
	for i := range g.tiles {
		g.tiles[i] = t
	}
}

// Rect sets every tile in the inclusive rectangle.
func (g *Grid) Rect(x0, y0, x1, y1 int, t Tile) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			g.Set(x, y, t)
		}
	}
}

// Border walls off the outermost ring.
func (g *Grid) Border() {
	for x := 0; x < g.w; x++ {
		g.Set(x, 0, TileWall)
		g.Set(x, g.h-1, TileWall)
	}
	for y := 0; y < g.h; y++ {
		g.Set(0, y, TileWall)
		g.Set(g.w-1, y, TileWall)
	}
}

func (g *Grid) IsWalkable(x, y int) bool { return g.At(x, y) == TileFloor }

func (g *Grid) BlocksSight(x, y int) bool { return g.At(x, y) == TileWall }

// FloorRatio is the share of cells that are floor.
func (g *Grid) FloorRatio() float64 {
	if len(g.tiles) == 0 {
		return 0
	}
	return float64(g.count(TileFloor)) / float64(len(g.tiles))
}

func (g *Grid) count(t Tile) int {
	n := 0
	for _, v := range g.tiles {
		if v == t {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{w: g.w, h: g.h, tiles: make([]Tile, len(g.tiles))}
	copy(c.tiles, g.tiles)
	return c
}

var tileGlyphs = [...]byte{TileFloor: '.', TileWall: '#', TileCover: 'o'}

// rows renders the tiles as mutable byte rows for overlaying markers.
func (g *Grid) rows() [][]byte {
	rows := make([][]byte, g.h)
	for y := range rows {
		row := make([]byte, g.w)
		for x := range row {
			row[x] = tileGlyphs[g.At(x, y)]
		}
		rows[y] = row
	}
	return rows
}

// String renders the bare tile map.
func (g *Grid) String() string {
	return joinRows(g.rows())
}

func joinRows(rows [][]byte) string {
	var sb strings.Builder
	for _, r := range rows {
		sb.Write(r)
		sb.WriteByte('\n')
	}
	return sb.String()
}
