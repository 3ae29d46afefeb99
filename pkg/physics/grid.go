// pkg/physics/grid.go
package physics

import "math"

const (
	// CellSizeFactor couples grid cell size to the body size
	CellSizeFactor = 2.5

	// GridOffsetFactor scales the boundary radius into the coordinate shift
	// that keeps cell keys of in-bounds bodies non-negative
	GridOffsetFactor = 1.1
)

// CellKey identifies a grid cell by integer coordinates
type CellKey struct {
	X int
	Y int
}

// SpatialGrid is a uniform grid for broad-phase collision detection.
// Bodies are inserted by index, one cell each, and candidates are found
// through the 3x3 neighbourhood of a cell.
//
// The grid is scratch space: Reset empties every bucket but keeps their
// memory, so a single grid can be rebuilt each tick without allocating.
type SpatialGrid struct {
	cellSize float64
	offset   float64
	cells    map[CellKey][]int
	used     []CellKey
	keys     []CellKey // cell of each inserted index
}

// NewSpatialGrid creates an empty grid with the given cell size and offset
func NewSpatialGrid(cellSize, offset float64) *SpatialGrid {
	return &SpatialGrid{
		cellSize: cellSize,
		offset:   offset,
		cells:    make(map[CellKey][]int),
	}
}

// Reset empties the grid and sets new cell dimensions
func (g *SpatialGrid) Reset(cellSize, offset float64) {
	for _, key := range g.used {
		g.cells[key] = g.cells[key][:0]
	}
	g.used = g.used[:0]
	g.keys = g.keys[:0]
	g.cellSize = cellSize
	g.offset = offset
}

// Build resets the grid and inserts every body
func (g *SpatialGrid) Build(bodies []*Body, cellSize, offset float64) {
	g.Reset(cellSize, offset)
	for i, b := range bodies {
		g.Insert(i, b.Position)
	}
}

// CellSize returns the edge length of a cell
func (g *SpatialGrid) CellSize() float64 {
	return g.cellSize
}

// CellOf returns the key of the cell containing pos
func (g *SpatialGrid) CellOf(pos Vector2D) CellKey {
	return CellKey{
		X: int(math.Floor((pos.X + g.offset) / g.cellSize)),
		Y: int(math.Floor((pos.Y + g.offset) / g.cellSize)),
	}
}

// Insert adds the item index at pos and returns its cell
func (g *SpatialGrid) Insert(index int, pos Vector2D) CellKey {
	key := g.CellOf(pos)
	bucket := g.cells[key]
	if len(bucket) == 0 {
		g.used = append(g.used, key)
	}
	g.cells[key] = append(bucket, index)
	for len(g.keys) <= index {
		g.keys = append(g.keys, CellKey{})
	}
	g.keys[index] = key
	return key
}

// KeyOf returns the cell an index was inserted into
func (g *SpatialGrid) KeyOf(index int) CellKey {
	return g.keys[index]
}

// Bucket returns the item indices stored in a single cell
func (g *SpatialGrid) Bucket(key CellKey) []int {
	return g.cells[key]
}

// OccupiedCells returns the number of non-empty cells
func (g *SpatialGrid) OccupiedCells() int {
	return len(g.used)
}

// QueryNeighborhood calls fn for each item in the 3x3 block of cells
// centred on key.
func (g *SpatialGrid) QueryNeighborhood(key CellKey, fn func(index int)) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			for _, index := range g.cells[CellKey{X: key.X + dx, Y: key.Y + dy}] {
				fn(index)
			}
		}
	}
}
