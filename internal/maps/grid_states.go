package maps

import (
	"go.uber.org/zap"

	"github.com/l1jgo/mapcore/internal/grid"
)

// gridState is one state of the grid lifecycle. The timer in GridInfo is
// shared by all states; each state decides when to reset it and which
// state comes next.
type gridState interface {
	Update(m *Map, g *grid.NGrid, info *grid.GridInfo, x, y uint32, diff int64)
}

type invalidState struct{}

func (invalidState) Update(*Map, *grid.NGrid, *grid.GridInfo, uint32, uint32, int64) {}

// activeState checks every expiry/10 whether anything still watches the
// grid and stops it when nothing does.
type activeState struct{}

func (activeState) Update(m *Map, g *grid.NGrid, info *grid.GridInfo, x, y uint32, diff int64) {
	info.UpdateTimeTracker(diff)
	if !info.TimeTracker().Passed() {
		return
	}
	if g.ActiveObjectsInGrid() == 0 && !m.ActiveObjectsNearGrid(x, y) {
		m.stopN(g)
		g.SetState(grid.StateIdle)
		m.log.Debug("grid idle", zap.Uint32("grid_x", x), zap.Uint32("grid_y", y))
		return
	}
	m.ResetGridExpiry(g, 0.1)
}

// idleState is a one-tick relay into removal with a full expiry.
type idleState struct{}

func (idleState) Update(m *Map, g *grid.NGrid, _ *grid.GridInfo, _, _ uint32, _ int64) {
	m.ResetGridExpiry(g, 1)
	g.SetState(grid.StateRemoval)
}

// removalState counts down unless the grid is pinned and then tries to
// unload; a refused unload waits another full expiry.
type removalState struct{}

func (removalState) Update(m *Map, g *grid.NGrid, info *grid.GridInfo, x, y uint32, diff int64) {
	if info.UnloadLocked() {
		return
	}
	info.UpdateTimeTracker(diff)
	if !info.TimeTracker().Passed() {
		return
	}
	if !m.UnloadGrid(x, y, false) {
		m.log.Debug("grid unload refused", zap.Uint32("grid_x", x), zap.Uint32("grid_y", y))
		m.ResetGridExpiry(g, 1)
	}
}

var gridStates = [grid.StateCount]gridState{
	grid.StateInvalid: invalidState{},
	grid.StateActive:  activeState{},
	grid.StateIdle:    idleState{},
	grid.StateRemoval: removalState{},
}

// updateGridStates ticks every loaded grid in row-major order.
func (m *Map) updateGridStates(diff int64) {
	for x := uint32(0); x < grid.MaxGrids; x++ {
		for y := uint32(0); y < grid.MaxGrids; y++ {
			g := m.grids[x][y]
			if g == nil {
				continue
			}
			s := g.State()
			if s >= grid.StateCount {
				m.log.DPanic("grid in unknown state", zap.Uint32("grid_x", x), zap.Uint32("grid_y", y), zap.Stringer("state", s))
				continue
			}
			gridStates[s].Update(m, g, g.Info(), x, y, diff)
		}
	}
}
