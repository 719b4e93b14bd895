package maps

import (
	"math"

	"go.uber.org/zap"

	"github.com/l1jgo/mapcore/internal/core/event"
	"github.com/l1jgo/mapcore/internal/grid"
	"github.com/l1jgo/mapcore/internal/object"
	"github.com/l1jgo/mapcore/internal/scripting"
)

// Grid returns the grid at (x, y), nil if it does not exist.
func (m *Map) Grid(x, y uint32) *grid.NGrid {
	if x >= grid.MaxGrids || y >= grid.MaxGrids {
		return nil
	}
	return m.grids[x][y]
}

// LoadedGridCount is the number of grids currently in memory.
func (m *Map) LoadedGridCount() int {
	n := 0
	for x := range m.grids {
		for y := range m.grids[x] {
			if m.grids[x][y] != nil {
				n++
			}
		}
	}
	return n
}

// IsLoaded reports whether the grid exists and its spawns were loaded.
func (m *Map) IsLoaded(p grid.GridPair) bool {
	g := m.Grid(p.X, p.Y)
	return g != nil && g.ObjectDataLoaded()
}

// EnsureGridCreated returns the grid at p, creating it in the idle state on
// first reference. It is the only place a grid comes into existence.
func (m *Map) EnsureGridCreated(p grid.GridPair) *grid.NGrid {
	if !p.IsValid() {
		m.log.DPanic("grid pair out of range", zap.Uint32("grid_x", p.X), zap.Uint32("grid_y", p.Y))
		return nil
	}
	g := m.grids[p.X][p.Y]
	if g == nil {
		g = grid.NewNGrid(p.X*grid.MaxGrids+p.Y, p.X, p.Y, m.cfg.GridExpiry, m.cfg.GridUnload)
		g.SetState(grid.StateIdle)
		m.grids[p.X][p.Y] = g
		m.log.Debug("grid created", zap.Uint32("grid_x", p.X), zap.Uint32("grid_y", p.Y))
	}
	return g
}

// EnsureGridLoaded creates the grid of cell c if needed and loads its
// spawns once. It reports whether this call did the load.
func (m *Map) EnsureGridLoaded(c grid.Cell) bool {
	g := m.EnsureGridCreated(c.GridPair())
	if g == nil || g.ObjectDataLoaded() {
		return false
	}
	// Set before loading: an active object spawned by the load may enter
	// this grid again.
	g.SetObjectDataLoaded(true)
	m.loadGrid(g)
	return true
}

// EnsureGridLoadedAtEnter loads the grid of cell c for an entering player
// or active object and wakes it if it is not active yet. A non-nil player
// is linked into the cell.
func (m *Map) EnsureGridLoadedAtEnter(c grid.Cell, player *object.Player) {
	if m.EnsureGridLoaded(c) {
		if player != nil {
			m.log.Debug("player triggers grid load",
				zap.String("player", player.Name()), zap.Uint32("grid_x", c.GridX()), zap.Uint32("grid_y", c.GridY()))
		} else {
			m.log.Debug("active object triggers grid load",
				zap.Uint32("grid_x", c.GridX()), zap.Uint32("grid_y", c.GridY()))
		}
	}
	g := m.grids[c.GridX()][c.GridY()]
	if g.State() != grid.StateActive {
		m.ResetGridExpiry(g, 0.1)
		g.SetState(grid.StateActive)
	}
	if player != nil {
		m.addToGrid(player, g, c)
	}
}

// ForceLoadGrid loads the grid under (x, y) if it is not loaded yet and
// pins it with the explicit unload lock. It reports whether it loaded.
func (m *Map) ForceLoadGrid(x, y float32) bool {
	if !grid.IsValidMapCoordXY(x, y) {
		return false
	}
	c := grid.CellAt(x, y)
	if m.IsLoaded(c.GridPair()) {
		return false
	}
	m.EnsureGridLoadedAtEnter(c, nil)
	m.grids[c.GridX()][c.GridY()].Info().SetUnloadExplicitLock(true)
	return true
}

// SetUnloadLock sets the explicit unload lock of an existing grid.
func (m *Map) SetUnloadLock(p grid.GridPair, on bool) bool {
	g := m.Grid(p.X, p.Y)
	if g == nil {
		return false
	}
	g.Info().SetUnloadExplicitLock(on)
	return true
}

// ResetGridExpiry restarts the grid timer at factor × the grid expiry.
func (m *Map) ResetGridExpiry(g *grid.NGrid, factor float64) {
	g.Info().ResetTimeTracker(int64(float64(m.cfg.GridExpiry) * factor))
}

// ActiveObjectsNearGrid reports whether a player or active object stands
// in the grid or close enough to see into it: the grid's cells widened by
// the visibility distance plus one cell on every side.
func (m *Map) ActiveObjectsNearGrid(x, y uint32) bool {
	if x >= grid.MaxGrids || y >= grid.MaxGrids {
		m.log.DPanic("grid out of range", zap.Uint32("grid_x", x), zap.Uint32("grid_y", y))
		return true
	}
	cellRange := uint32(math.Ceil(float64(m.cfg.VisibilityDistance)/float64(grid.CellSize))) + 1
	low := grid.CellPair{X: x * grid.MaxCells, Y: y * grid.MaxCells}
	high := grid.CellPair{X: low.X + grid.MaxCells, Y: low.Y + grid.MaxCells}
	area := grid.CellArea{
		Low:  low.ShiftLeft(cellRange).ShiftDown(cellRange),
		High: high.ShiftRight(cellRange).ShiftUp(cellRange),
	}

	for _, p := range m.players {
		if area.Contains(grid.ComputeCellPair(p.X(), p.Y())) {
			return true
		}
	}
	for _, o := range m.activeNonPlayers {
		b := o.Base()
		if area.Contains(grid.ComputeCellPair(b.X(), b.Y())) {
			return true
		}
	}
	return false
}

// UnloadGrid tears the grid at (x, y) down. Without force it refuses, and
// leaves the grid untouched, while a player or active object is near.
func (m *Map) UnloadGrid(x, y uint32, force bool) bool {
	g := m.Grid(x, y)
	if g == nil {
		m.log.DPanic("unload of missing grid", zap.Uint32("grid_x", x), zap.Uint32("grid_y", y))
		return false
	}
	if !force && m.ActiveObjectsNearGrid(x, y) {
		return false
	}
	m.log.Debug("unloading grid", zap.Uint32("grid_x", x), zap.Uint32("grid_y", y))

	m.RemoveAllObjectsInRemoveList()
	m.moveToRespawnN(g)
	m.RemoveAllObjectsInRemoveList()
	m.unloadN(g)

	m.grids[x][y] = nil
	record(m, event.GridUnloaded{MapID: m.id, InstanceID: m.instanceID, GridX: x, GridY: y})
	return true
}

// UnloadAll removes every player and force-unloads every grid. The map is
// unusable afterwards except for Close.
func (m *Map) UnloadAll(force bool) {
	for len(m.players) > 0 {
		m.RemovePlayer(m.players[len(m.players)-1])
	}
	for x := uint32(0); x < grid.MaxGrids; x++ {
		for y := uint32(0); y < grid.MaxGrids; y++ {
			if m.grids[x][y] != nil {
				m.UnloadGrid(x, y, force)
			}
		}
	}
	m.CallScriptHook(scripting.HookMapUnloaded)
}
