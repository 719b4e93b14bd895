package grid

import "math"

// World partitioning constants. A map is a square of MaxGrids×MaxGrids grids,
// each grid a square of MaxCells×MaxCells cells.
const (
	MaxGrids     = 64
	CenterGridID = MaxGrids / 2
	MaxCells     = 16
	CenterCellID = MaxCells * MaxGrids / 2
	TotalCells   = MaxGrids * MaxCells
)

const (
	GridSize         float32 = 533.33333
	CenterGridOffset float32 = GridSize / 2
	CellSize         float32 = GridSize / MaxCells
	CenterCellOffset float32 = CellSize / 2
	MapSize          float32 = GridSize * MaxGrids
	MapHalfSize      float32 = MapSize / 2
)

// mapCoordLimit is the largest absolute x/y a valid position may have.
const mapCoordLimit = float64(MapHalfSize) - 0.5

// GridPair addresses one grid of a map. Components are always < MaxGrids
// for a valid pair.
type GridPair struct {
	X, Y uint32
}

// CellPair addresses one cell of a map in map-wide cell units
// (grid*MaxCells + cell). Components are always < TotalCells for a valid pair.
type CellPair struct {
	X, Y uint32
}

func (p GridPair) IsValid() bool { return p.X < MaxGrids && p.Y < MaxGrids }
func (p CellPair) IsValid() bool { return p.X < TotalCells && p.Y < TotalCells }

// ShiftLeft moves x down by n, stopping at 0.
func (p GridPair) ShiftLeft(n uint32) GridPair {
	p.X = shiftDown(p.X, n)
	return p
}

// ShiftRight moves x up by n, stopping at MaxGrids-1.
func (p GridPair) ShiftRight(n uint32) GridPair {
	p.X = shiftUp(p.X, n, MaxGrids)
	return p
}

// ShiftDown moves y down by n, stopping at 0.
func (p GridPair) ShiftDown(n uint32) GridPair {
	p.Y = shiftDown(p.Y, n)
	return p
}

// ShiftUp moves y up by n, stopping at MaxGrids-1.
func (p GridPair) ShiftUp(n uint32) GridPair {
	p.Y = shiftUp(p.Y, n, MaxGrids)
	return p
}

// Normalize clamps both components into [0, MaxGrids-1].
func (p GridPair) Normalize() GridPair {
	p.X = min(p.X, MaxGrids-1)
	p.Y = min(p.Y, MaxGrids-1)
	return p
}

func (p CellPair) ShiftLeft(n uint32) CellPair {
	p.X = shiftDown(p.X, n)
	return p
}

func (p CellPair) ShiftRight(n uint32) CellPair {
	p.X = shiftUp(p.X, n, TotalCells)
	return p
}

func (p CellPair) ShiftDown(n uint32) CellPair {
	p.Y = shiftDown(p.Y, n)
	return p
}

func (p CellPair) ShiftUp(n uint32) CellPair {
	p.Y = shiftUp(p.Y, n, TotalCells)
	return p
}

// Normalize clamps both components into [0, TotalCells-1].
func (p CellPair) Normalize() CellPair {
	p.X = min(p.X, TotalCells-1)
	p.Y = min(p.Y, TotalCells-1)
	return p
}

// ID is the map-wide linear cell index used by the marked-cells bitset and
// the spawn index.
func (p CellPair) ID() uint32 { return p.Y*TotalCells + p.X }

// GridPair returns the grid containing this cell.
func (p CellPair) GridPair() GridPair { return GridPair{X: p.X / MaxCells, Y: p.Y / MaxCells} }

func shiftDown(v, n uint32) uint32 {
	if v > n {
		return v - n
	}
	return 0
}

func shiftUp(v, n, limit uint32) uint32 {
	if v+n < limit {
		return v + n
	}
	return limit - 1
}

// compute maps a world coordinate onto a grid or cell index. Intermediates
// are double precision so results match spawn data that was bucketed by the
// database with the same formula; the +0.5 bias rounds ties toward the
// higher index.
func compute(c, centerOffset, size float32, centerVal int) int {
	offset := (float64(c) - float64(centerOffset)) / float64(size)
	return int(offset + float64(centerVal) + 0.5)
}

// ComputeGridPair returns the grid containing world position (x, y).
// Positions outside the map yield an invalid pair.
func ComputeGridPair(x, y float32) GridPair {
	return GridPair{
		X: uint32(compute(x, CenterGridOffset, GridSize, CenterGridID)),
		Y: uint32(compute(y, CenterGridOffset, GridSize, CenterGridID)),
	}
}

// ComputeCellPair returns the cell containing world position (x, y).
// Positions outside the map yield an invalid pair.
func ComputeCellPair(x, y float32) CellPair {
	return CellPair{
		X: uint32(compute(x, CenterCellOffset, CellSize, CenterCellID)),
		Y: uint32(compute(y, CenterCellOffset, CellSize, CenterCellID)),
	}
}

// computeCellClamped is ComputeCellPair with each axis clamped into the map
// instead of wrapping, for area queries that reach past the map edge.
func computeCellClamped(x, y float32) CellPair {
	return CellPair{
		X: clampIndex(compute(x, CenterCellOffset, CellSize, CenterCellID), TotalCells),
		Y: clampIndex(compute(y, CenterCellOffset, CellSize, CenterCellID), TotalCells),
	}
}

func clampIndex(v, limit int) uint32 {
	switch {
	case v < 0:
		return 0
	case v >= limit:
		return uint32(limit - 1)
	}
	return uint32(v)
}

func finite(c float32) bool {
	f := float64(c)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsValidMapCoord reports whether a single x or y component is finite and
// inside the map.
func IsValidMapCoord(c float32) bool {
	return finite(c) && math.Abs(float64(c)) <= mapCoordLimit
}

func IsValidMapCoordXY(x, y float32) bool {
	return IsValidMapCoord(x) && IsValidMapCoord(y)
}

func IsValidMapCoordXYZ(x, y, z float32) bool {
	return IsValidMapCoordXY(x, y) && finite(z)
}

func IsValidMapCoordXYZO(x, y, z, o float32) bool {
	return IsValidMapCoordXYZ(x, y, z) && finite(o)
}

// NormalizeMapCoord clamps a coordinate component into the map.
func NormalizeMapCoord(c float32) float32 {
	switch {
	case float64(c) > mapCoordLimit:
		return float32(mapCoordLimit)
	case float64(c) < -mapCoordLimit:
		return float32(-mapCoordLimit)
	}
	return c
}
