package grid

import "github.com/l1jgo/mapcore/internal/core/timer"

// State is the lifecycle state of a loaded grid.
type State uint8

const (
	StateInvalid State = iota
	StateActive
	StateIdle
	StateRemoval
	StateCount
)

var stateNames = [StateCount]string{"invalid", "active", "idle", "removal"}

func (s State) String() string {
	if s < StateCount {
		return stateNames[s]
	}
	return "unknown"
}

// GridInfo is the mutable bookkeeping the state machine works on.
type GridInfo struct {
	timer              timer.TimeTracker
	unloadActiveLocks  uint16
	unloadExplicitLock bool
}

// NewGridInfo starts the timer at expiry. A grid created with unload false
// is pinned by the explicit lock for its whole life.
func NewGridInfo(expiry int64, unload bool) GridInfo {
	return GridInfo{
		timer:              timer.NewTimeTracker(expiry),
		unloadExplicitLock: !unload,
	}
}

func (i *GridInfo) TimeTracker() *timer.TimeTracker { return &i.timer }

func (i *GridInfo) UpdateTimeTracker(diff int64)  { i.timer.Update(diff) }
func (i *GridInfo) ResetTimeTracker(expiry int64) { i.timer.Reset(expiry) }

// UnloadLocked reports whether anything pins the grid in memory.
func (i *GridInfo) UnloadLocked() bool {
	return i.unloadActiveLocks > 0 || i.unloadExplicitLock
}

func (i *GridInfo) SetUnloadExplicitLock(on bool) { i.unloadExplicitLock = on }
func (i *GridInfo) UnloadExplicitLock() bool      { return i.unloadExplicitLock }
func (i *GridInfo) UnloadActiveLocks() uint16     { return i.unloadActiveLocks }

func (i *GridInfo) IncUnloadActiveLock() { i.unloadActiveLocks++ }

func (i *GridInfo) DecUnloadActiveLock() {
	if i.unloadActiveLocks > 0 {
		i.unloadActiveLocks--
	}
}

// NGrid is one loaded grid: 16×16 cells plus lifecycle state. It holds
// references only; the map's object store owns the entities.
type NGrid struct {
	id     uint32
	x, y   uint32
	cells  [MaxCells][MaxCells]GridCell
	info   GridInfo
	state  State
	loaded bool

	// players plus active non-players currently linked into any cell
	activeObjects int
}

func NewNGrid(id, x, y uint32, expiry int64, unload bool) *NGrid {
	return &NGrid{
		id:    id,
		x:     x,
		y:     y,
		info:  NewGridInfo(expiry, unload),
		state: StateInvalid,
	}
}

func (g *NGrid) ID() uint32         { return g.id }
func (g *NGrid) X() uint32          { return g.x }
func (g *NGrid) Y() uint32          { return g.y }
func (g *NGrid) GridPair() GridPair { return GridPair{X: g.x, Y: g.y} }
func (g *NGrid) State() State       { return g.state }
func (g *NGrid) SetState(s State)   { g.state = s }
func (g *NGrid) Info() *GridInfo    { return &g.info }

// ObjectDataLoaded reports whether spawn data has been requested for this
// grid. The flag is set before loading begins so a reentrant load is a no-op.
func (g *NGrid) ObjectDataLoaded() bool      { return g.loaded }
func (g *NGrid) SetObjectDataLoaded(on bool) { g.loaded = on }

// ActiveObjectsInGrid is the number of players and active objects linked
// into the grid.
func (g *NGrid) ActiveObjectsInGrid() int { return g.activeObjects }

// Cell returns the cell at in-grid coordinates (cx, cy), both < MaxCells.
func (g *NGrid) Cell(cx, cy uint32) *GridCell { return &g.cells[cx][cy] }

// AddObject links e into cell (cx, cy). It fails if e is already linked.
func (g *NGrid) AddObject(cx, cy uint32, cat Category, e Entity) bool {
	ref := e.GridRef()
	if ref.Linked() {
		return false
	}
	g.cells[cx][cy].Container(cat).insert(e)
	ref.grid = g
	if e.IsActiveObject() {
		ref.active = true
		g.activeObjects++
	}
	return true
}

// RemoveObject unlinks e. It fails if e is not linked into this grid.
func (g *NGrid) RemoveObject(e Entity) bool {
	ref := e.GridRef()
	if ref.grid != g || !ref.container.remove(e) {
		return false
	}
	if ref.active {
		ref.active = false
		g.activeObjects--
	}
	ref.grid = nil
	return true
}

// VisitCell dispatches v over one container of cell (cx, cy).
func (g *NGrid) VisitCell(cx, cy uint32, cat Category, v Visitor) {
	g.cells[cx][cy].Container(cat).Visit(v)
}

// VisitAll dispatches v over every cell in a fixed x-major order.
func (g *NGrid) VisitAll(cat Category, v Visitor) {
	for x := uint32(0); x < MaxCells; x++ {
		for y := uint32(0); y < MaxCells; y++ {
			g.cells[x][y].Container(cat).Visit(v)
		}
	}
}

// Count returns the number of linked entities in one category.
func (g *NGrid) Count(cat Category) int {
	n := 0
	for x := range g.cells {
		for y := range g.cells[x] {
			n += g.cells[x][y].Container(cat).Len()
		}
	}
	return n
}
