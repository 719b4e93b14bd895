package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCellPairBoundaries(t *testing.T) {
	// A coordinate exactly on a boundary belongs to the higher index.
	tests := []struct {
		k    float32
		want uint32
	}{
		{-8, CenterCellID - 8},
		{-2, CenterCellID - 2},
		{-1, CenterCellID - 1},
		{0, CenterCellID},
		{1, CenterCellID + 1},
		{4, CenterCellID + 4},
		{8, CenterCellID + 8},
	}
	for _, tt := range tests {
		x := tt.k * CellSize
		p := ComputeCellPair(x, x)
		assert.Equal(t, CellPair{X: tt.want, Y: tt.want}, p, "x=%v", x)

		if tt.k != 0 {
			below := math.Nextafter32(x, float32(math.Inf(-1)))
			assert.Equal(t, tt.want-1, ComputeCellPair(below, 0).X, "just below x=%v", x)
		}
	}
}

func TestComputeGridPairBoundaries(t *testing.T) {
	tests := []struct {
		k    float32
		want uint32
	}{
		{-4, CenterGridID - 4},
		{-1, CenterGridID - 1},
		{0, CenterGridID},
		{1, CenterGridID + 1},
		{2, CenterGridID + 2},
	}
	for _, tt := range tests {
		x := tt.k * GridSize
		assert.Equal(t, GridPair{X: tt.want, Y: tt.want}, ComputeGridPair(x, x), "x=%v", x)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	for _, x := range []float32{-17000, -533.33333, -0.01, 0, 12.5, 1834.2, 16999.9} {
		y := -x / 3
		assert.Equal(t, ComputeGridPair(x, y), ComputeGridPair(x, y))
		assert.Equal(t, ComputeCellPair(x, y), ComputeCellPair(x, y))
		assert.Equal(t, ComputeGridPair(x, y), ComputeCellPair(x, y).GridPair(),
			"cell and grid math agree at (%v, %v)", x, y)
	}
}

func TestMapEdgesStayInRange(t *testing.T) {
	edge := MapHalfSize - 1
	hi := ComputeCellPair(edge, edge)
	lo := ComputeCellPair(-edge, -edge)
	assert.True(t, hi.IsValid())
	assert.True(t, lo.IsValid())
	assert.Equal(t, CellPair{X: TotalCells - 1, Y: TotalCells - 1}, hi)
	assert.Equal(t, CellPair{}, lo)
	assert.Equal(t, GridPair{X: MaxGrids - 1, Y: MaxGrids - 1}, ComputeGridPair(edge, edge))

	assert.False(t, ComputeCellPair(MapHalfSize+100, 0).IsValid())
}

func TestIsValidMapCoord(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	assert.True(t, IsValidMapCoord(0))
	assert.True(t, IsValidMapCoord(MapHalfSize-1))
	assert.True(t, IsValidMapCoord(-(MapHalfSize - 1)))
	assert.False(t, IsValidMapCoord(MapHalfSize))
	assert.False(t, IsValidMapCoord(nan))
	assert.False(t, IsValidMapCoord(inf))

	assert.True(t, IsValidMapCoordXY(10, -10))
	assert.False(t, IsValidMapCoordXY(10, nan))
	assert.True(t, IsValidMapCoordXYZ(10, 10, 1e9), "z is only checked for finiteness")
	assert.False(t, IsValidMapCoordXYZ(10, 10, inf))
	assert.False(t, IsValidMapCoordXYZO(10, 10, 0, nan))
	assert.True(t, IsValidMapCoordXYZO(10, 10, 0, math.Pi))
}

func TestNormalizeMapCoord(t *testing.T) {
	assert.Equal(t, float32(42), NormalizeMapCoord(42))

	hi := NormalizeMapCoord(1e7)
	assert.Greater(t, hi, MapHalfSize-1)
	assert.LessOrEqual(t, hi, MapHalfSize)
	assert.Equal(t, -hi, NormalizeMapCoord(-1e7))
}

func TestPairShiftsClamp(t *testing.T) {
	g := GridPair{X: 2, Y: 62}
	assert.Equal(t, GridPair{X: 0, Y: 62}, g.ShiftLeft(5))
	assert.Equal(t, GridPair{X: 5, Y: 62}, g.ShiftRight(3))
	assert.Equal(t, GridPair{X: 2, Y: MaxGrids - 1}, g.ShiftUp(4))
	assert.Equal(t, GridPair{X: 2, Y: 60}, g.ShiftDown(2))
	assert.Equal(t, GridPair{X: MaxGrids - 1, Y: 3}, GridPair{X: 900, Y: 3}.Normalize())

	c := CellPair{X: 1020, Y: 1}
	assert.Equal(t, CellPair{X: TotalCells - 1, Y: 1}, c.ShiftRight(10))
	assert.Equal(t, CellPair{X: 1020, Y: 0}, c.ShiftDown(1))
	assert.Equal(t, CellPair{X: 1010, Y: 11}, c.ShiftLeft(10).ShiftUp(10))
}
