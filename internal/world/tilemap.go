// Package world provides the game-side collaborators of the particle core:
// the collision tile map, server tuning, network snapshots, demo playback
// and a scripted match that produces them.
//
// All structures use preallocated slices with integer indices so the
// per-frame paths do not allocate.
package world

import (
	"math"

	"fxcore/internal/particles"
)

// Tile is one collision cell.
type Tile uint8

const (
	TileAir Tile = iota
	TileSolid
)

// TileMap is a fixed collision grid. Cells are stored in row-major order
// (cells[row*cols+col]). Lookups outside the map clamp to the nearest edge
// tile, so a solid border behaves like an infinite wall.
type TileMap struct {
	tileSize    float64
	invTileSize float64 // 1/tileSize for faster division
	cols, rows  int
	cells       []Tile
}

// NewTileMap creates an empty map of cols x rows tiles.
func NewTileMap(cols, rows int, tileSize float64) *TileMap {
	// Ensure at least 1x1 grid
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	if tileSize <= 0 {
		tileSize = 32
	}
	return &TileMap{
		tileSize:    tileSize,
		invTileSize: 1.0 / tileSize,
		cols:        cols,
		rows:        rows,
		cells:       make([]Tile, cols*rows),
	}
}

// NewArena creates a closed arena: a solid border, a floor two tiles thick
// and a few floating platforms.
func NewArena(cols, rows int, tileSize float64) *TileMap {
	m := NewTileMap(cols, rows, tileSize)
	for c := 0; c < m.cols; c++ {
		m.Set(c, 0, TileSolid)
		m.Set(c, m.rows-1, TileSolid)
		m.Set(c, m.rows-2, TileSolid)
	}
	for r := 0; r < m.rows; r++ {
		m.Set(0, r, TileSolid)
		m.Set(m.cols-1, r, TileSolid)
	}

	// Platforms at a third and two thirds of the width
	platformRow := m.rows * 2 / 3
	for _, center := range []int{m.cols / 3, m.cols * 2 / 3} {
		for c := center - 3; c <= center+3; c++ {
			m.Set(c, platformRow, TileSolid)
		}
	}
	return m
}

// Set assigns tile (col, row). Out-of-range writes are ignored.
func (m *TileMap) Set(col, row int, t Tile) {
	if col < 0 || col >= m.cols || row < 0 || row >= m.rows {
		return
	}
	m.cells[row*m.cols+col] = t
}

// At returns tile (col, row), clamped to the map.
func (m *TileMap) At(col, row int) Tile {
	if col < 0 {
		col = 0
	}
	if col >= m.cols {
		col = m.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= m.rows {
		row = m.rows - 1
	}
	return m.cells[row*m.cols+col]
}

// tileAt converts world coordinates to a tile, rounding to the nearest unit
// first the way the network client does.
func (m *TileMap) tileAt(x, y float64) Tile {
	col := int(math.Round(x) * m.invTileSize)
	row := int(math.Round(y) * m.invTileSize)
	return m.At(col, row)
}

// CheckPoint reports whether the world point (x, y) is inside a solid tile.
func (m *TileMap) CheckPoint(x, y float64) bool {
	return m.tileAt(x, y) == TileSolid
}

// MovePoint implements particles.Mover. If the target pos+disp is solid the
// point stays where it is and the displacement is reflected: the x axis is
// flipped and scaled by elasticity when moving along x alone hits, likewise
// y, and both when neither alone hits (a corner). Otherwise the point moves.
func (m *TileMap) MovePoint(pos, disp particles.Vec2, elasticity float64) (particles.Vec2, particles.Vec2) {
	if !m.CheckPoint(pos.X+disp.X, pos.Y+disp.Y) {
		return pos.Add(disp), disp
	}

	affected := 0
	out := disp
	if m.CheckPoint(pos.X+disp.X, pos.Y) {
		out.X *= -elasticity
		affected++
	}
	if m.CheckPoint(pos.X, pos.Y+disp.Y) {
		out.Y *= -elasticity
		affected++
	}
	if affected == 0 {
		out.X *= -elasticity
		out.Y *= -elasticity
	}
	return pos, out
}

// Cols returns the width in tiles.
func (m *TileMap) Cols() int { return m.cols }

// Rows returns the height in tiles.
func (m *TileMap) Rows() int { return m.rows }

// TileSize returns the world units per tile.
func (m *TileMap) TileSize() float64 { return m.tileSize }

// Width returns the map width in world units.
func (m *TileMap) Width() float64 { return float64(m.cols) * m.tileSize }

// Height returns the map height in world units.
func (m *TileMap) Height() float64 { return float64(m.rows) * m.tileSize }

// FloorY returns the world y of the top of the first solid tile at or below
// world y in column col, or the map height if there is none.
func (m *TileMap) FloorY(col int, y float64) float64 {
	start := int(y * m.invTileSize)
	if start < 0 {
		start = 0
	}
	for r := start; r < m.rows; r++ {
		if m.At(col, r) == TileSolid {
			return float64(r) * m.tileSize
		}
	}
	return m.Height()
}
