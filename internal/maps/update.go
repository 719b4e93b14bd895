package maps

import (
	"github.com/l1jgo/mapcore/internal/grid"
	"github.com/l1jgo/mapcore/internal/object"
)

// Visit dispatches v over one container of cell c. A no-create cell in a
// grid that is not loaded is skipped; otherwise the grid is loaded first.
func (m *Map) Visit(c grid.Cell, cat grid.Category, v grid.Visitor) {
	gx, gy := c.GridX(), c.GridY()
	if c.NoCreate() && !m.IsLoaded(grid.GridPair{X: gx, Y: gy}) {
		return
	}
	m.EnsureGridLoaded(c)
	m.grids[gx][gy].VisitCell(c.CellX(), c.CellY(), cat, v)
}

// VisitRadius visits every cell of the square of half-width radius around
// (x, y), starting with the cell (x, y) stands in. The visitor does the
// exact distance test.
func (m *Map) VisitRadius(x, y, radius float32, cat grid.Category, noCreate bool, v grid.Visitor) {
	if !grid.IsValidMapCoordXY(x, y) {
		return
	}
	standing := grid.ComputeCellPair(x, y)
	visit := func(p grid.CellPair) {
		c := grid.NewCell(p)
		if noCreate {
			c = c.WithNoCreate()
		}
		m.Visit(c, cat, v)
	}
	visit(standing)
	area := grid.CalculateCellArea(x, y, radius)
	if area.Empty() {
		return
	}
	area.Each(func(p grid.CellPair) {
		if p != standing {
			visit(p)
		}
	})
}

func (m *Map) resetMarkedCells() { clear(m.markedCells[:]) }

func (m *Map) isCellMarked(id uint32) bool { return m.markedCells[id/64]&(1<<(id%64)) != 0 }

func (m *Map) markCell(id uint32) { m.markedCells[id/64] |= 1 << (id % 64) }

// objectUpdater ticks the simulated objects of visited cells. Players,
// corpses and cameras have nothing to tick.
type objectUpdater struct {
	m    *Map
	diff int64
}

func (u objectUpdater) Kinds() grid.KindSet {
	return grid.KindsOf(grid.KindCreature, grid.KindGameObject, grid.KindDynamicObject)
}

func (u objectUpdater) Visit(e grid.Entity) {
	m := u.m
	switch o := e.(type) {
	case *object.Creature:
		if !o.MarkUpdated(m.tick) {
			return
		}
		o.Update(u.diff)
		if o.RespawnDue() {
			m.respawnCreature(o)
		}
	case *object.GameObject:
		if !o.MarkUpdated(m.tick) {
			return
		}
		o.Update(u.diff)
		if o.RespawnDue() {
			o.Respawn()
			if o.SpawnID() != 0 {
				m.state.SaveGameObjectRespawnTime(o.SpawnID(), 0)
			}
			m.AddUpdateObject(o)
		}
	case *object.DynamicObject:
		if !o.MarkUpdated(m.tick) {
			return
		}
		o.Update(u.diff)
		if o.Expired() {
			m.AddObjectToRemoveList(o)
		}
	}
}

func (m *Map) respawnCreature(c *object.Creature) {
	c.Respawn()
	if c.HasStaticSpawn() {
		m.state.SaveCreatureRespawnTime(c.SpawnID(), 0)
	}
	home := c.Home()
	if c.Position() != home {
		m.creatureRespawnRelocation(c)
		return
	}
	m.AddUpdateObject(c)
}

// updateCellsAround ticks every not yet visited cell in sight of (x, y).
func (m *Map) updateCellsAround(x, y float32, u objectUpdater) {
	area := grid.CalculateCellArea(x, y, m.cfg.VisibilityDistance)
	area.Each(func(p grid.CellPair) {
		id := p.ID()
		if m.isCellMarked(id) {
			return
		}
		m.markCell(id)
		c := grid.NewCell(p).WithNoCreate()
		m.Visit(c, grid.GridObjects, u)
		m.Visit(c, grid.WorldObjects, u)
	})
}

// Update advances the map by diff ms: due scripts, objects in sight of
// players and active objects, batched object updates, grid lifecycle, then
// deferred removals. Never call it concurrently for the same map.
func (m *Map) Update(diff int64) {
	m.tick++
	m.scriptClock += diff
	m.ScriptsProcess()

	m.resetMarkedCells()
	u := objectUpdater{m: m, diff: diff}
	// Backwards with a bounds check: an update may remove players or
	// active objects.
	for i := len(m.players) - 1; i >= 0; i-- {
		if i >= len(m.players) {
			continue
		}
		p := m.players[i]
		if !p.IsInWorld() || !p.Position().IsValid() {
			continue
		}
		m.updateCellsAround(p.X(), p.Y(), u)
	}
	for i := len(m.activeNonPlayers) - 1; i >= 0; i-- {
		if i >= len(m.activeNonPlayers) {
			continue
		}
		b := m.activeNonPlayers[i].Base()
		if !b.IsInWorld() || !b.Position().IsValid() {
			continue
		}
		m.updateCellsAround(b.X(), b.Y(), u)
	}

	m.SendObjectUpdates()

	if !m.skipGridStates {
		m.updateGridStates(diff)
	}
	m.RemoveAllObjectsInRemoveList()
}
