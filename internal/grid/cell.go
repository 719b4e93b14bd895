package grid

// Cell is a packed cell address: grid x/y and in-grid cell x/y in 6 bits each,
// plus the no-create flag. A no-create cell is a read-only probe; visiting it
// never loads the grid it points into.
type Cell uint32

const (
	fieldMask   = 1<<6 - 1
	gridXShift  = 0
	gridYShift  = 6
	cellXShift  = 12
	cellYShift  = 18
	noCreateBit = 1 << 24
)

// MaxVisibilityDistance caps radius queries.
const MaxVisibilityDistance = GridSize

func NewCell(p CellPair) Cell {
	return Cell((p.X/MaxCells)&fieldMask<<gridXShift |
		(p.Y/MaxCells)&fieldMask<<gridYShift |
		(p.X%MaxCells)&fieldMask<<cellXShift |
		(p.Y%MaxCells)&fieldMask<<cellYShift)
}

// CellAt is NewCell(ComputeCellPair(x, y)).
func CellAt(x, y float32) Cell {
	return NewCell(ComputeCellPair(x, y))
}

func (c Cell) GridX() uint32 { return uint32(c>>gridXShift) & fieldMask }
func (c Cell) GridY() uint32 { return uint32(c>>gridYShift) & fieldMask }
func (c Cell) CellX() uint32 { return uint32(c>>cellXShift) & fieldMask }
func (c Cell) CellY() uint32 { return uint32(c>>cellYShift) & fieldMask }

func (c Cell) NoCreate() bool { return c&noCreateBit != 0 }

// WithNoCreate returns a copy of c with the no-create flag set.
func (c Cell) WithNoCreate() Cell { return c | noCreateBit }

// CellPair reassembles the map-wide cell address.
func (c Cell) CellPair() CellPair {
	return CellPair{
		X: c.GridX()*MaxCells + c.CellX(),
		Y: c.GridY()*MaxCells + c.CellY(),
	}
}

func (c Cell) GridPair() GridPair { return GridPair{X: c.GridX(), Y: c.GridY()} }

// DiffCell reports whether o is a different cell inside the same grid or
// elsewhere. The no-create flag is ignored.
func (c Cell) DiffCell(o Cell) bool {
	return c.CellX() != o.CellX() || c.CellY() != o.CellY() || c.DiffGrid(o)
}

func (c Cell) DiffGrid(o Cell) bool {
	return c.GridX() != o.GridX() || c.GridY() != o.GridY()
}

// CellArea is an inclusive rectangle of cells. An empty area means the query
// fits inside the standing cell.
type CellArea struct {
	Low, High CellPair
}

func (a CellArea) Empty() bool { return a.Low == a.High }

func (a CellArea) Contains(p CellPair) bool {
	return p.X >= a.Low.X && p.X <= a.High.X && p.Y >= a.Low.Y && p.Y <= a.High.Y
}

// Each calls fn for every cell of the area, x-major.
func (a CellArea) Each(fn func(CellPair)) {
	for x := a.Low.X; x <= a.High.X; x++ {
		for y := a.Low.Y; y <= a.High.Y; y++ {
			fn(CellPair{X: x, Y: y})
		}
	}
}

// CalculateCellArea returns the cells covering the square of half-width
// radius around (x, y), clamped to the map. For a non-positive radius the
// area is just the standing cell.
func CalculateCellArea(x, y, radius float32) CellArea {
	if radius <= 0 {
		p := computeCellClamped(x, y)
		return CellArea{Low: p, High: p}
	}
	radius = min(radius, MaxVisibilityDistance)
	return CellArea{
		Low:  computeCellClamped(x-radius, y-radius),
		High: computeCellClamped(x+radius, y+radius),
	}
}
