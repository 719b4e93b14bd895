package maps

import (
	"go.uber.org/zap"

	"github.com/l1jgo/mapcore/internal/grid"
	"github.com/l1jgo/mapcore/internal/object"
)

// PlayerRelocation moves p to pos, relinking it when it crosses a cell or
// grid boundary. Entering a new grid always loads it.
func (m *Map) PlayerRelocation(p *object.Player, pos object.Position) error {
	if !pos.IsValid() {
		return ErrInvalidCoordinates
	}
	oldCell := p.CurrentCell()
	newCell := grid.CellAt(pos.X, pos.Y)
	sameCell := !oldCell.DiffCell(newCell)

	p.Relocate(pos)

	if !sameCell {
		m.log.Debug("player changed cell", zap.String("player", p.Name()),
			zap.Uint32("grid_x", newCell.GridX()), zap.Uint32("grid_y", newCell.GridY()),
			zap.Uint32("cell_x", newCell.CellX()), zap.Uint32("cell_y", newCell.CellY()))
		oldGrid := p.GridRef().Grid()
		m.removeFromGrid(p)
		if !oldCell.DiffGrid(newCell) && oldGrid != nil {
			m.addToGrid(p, oldGrid, newCell)
		} else {
			m.EnsureGridLoadedAtEnter(newCell, p)
		}
	}

	m.AddUpdateObject(p)
	m.UpdateObjectVisibility(p)
	return nil
}

// CreatureRelocation moves c to pos. A creature that may not enter the
// target grid is sent back to its spawn point instead.
func (m *Map) CreatureRelocation(c *object.Creature, pos object.Position) error {
	if !pos.IsValid() {
		return ErrInvalidCoordinates
	}
	m.CheckGridIntegrity(c, false)

	newCell := grid.CellAt(pos.X, pos.Y)
	if m.creatureCellRelocation(c, newCell) {
		c.Relocate(pos)
		m.AddUpdateObject(c)
		m.UpdateObjectVisibility(c)
	} else {
		m.creatureRespawnRelocation(c)
	}

	m.CheckGridIntegrity(c, true)
	return nil
}

// creatureCellRelocation relinks c into newCell. It refuses a move into a
// grid that is not loaded unless c is active, in which case the grid is
// loaded for it.
func (m *Map) creatureCellRelocation(c *object.Creature, newCell grid.Cell) bool {
	oldCell := c.CurrentCell()
	if oldCell.DiffGrid(newCell) {
		if !c.IsActiveObject() && !m.IsLoaded(newCell.GridPair()) {
			m.log.Debug("creature move into unloaded grid refused", zap.Stringer("guid", c.GUID()),
				zap.Uint32("entry", c.Entry()),
				zap.Uint32("grid_x", newCell.GridX()), zap.Uint32("grid_y", newCell.GridY()))
			return false
		}
		m.EnsureGridLoadedAtEnter(newCell, nil)
	}
	if oldCell.DiffCell(newCell) {
		m.removeFromGrid(c)
		m.addToGrid(c, m.grids[newCell.GridX()][newCell.GridY()], newCell)
	}
	return true
}

// creatureRespawnRelocation stops c and puts it back at its spawn point.
func (m *Map) creatureRespawnRelocation(c *object.Creature) bool {
	home := c.Home()
	homeCell := grid.CellAt(home.X, home.Y)
	c.MoveToRespawn()
	m.log.Debug("creature moved to respawn point", zap.Stringer("guid", c.GUID()), zap.Uint32("entry", c.Entry()))
	if !m.creatureCellRelocation(c, homeCell) {
		return false
	}
	c.Relocate(home)
	m.AddUpdateObject(c)
	m.UpdateObjectVisibility(c)
	return true
}

// CheckGridIntegrity logs a creature whose recorded cell disagrees with its
// position. It never fails the caller.
func (m *Map) CheckGridIntegrity(c *object.Creature, moved bool) bool {
	cur := c.CurrentCell()
	at := grid.CellAt(c.X(), c.Y())
	if cur.DiffCell(at) {
		m.log.Error("creature grid integrity mismatch", zap.Stringer("guid", c.GUID()),
			zap.Bool("moved", moved), zap.Float32("x", c.X()), zap.Float32("y", c.Y()),
			zap.Uint32("cell_grid_x", cur.GridX()), zap.Uint32("cell_grid_y", cur.GridY()),
			zap.Uint32("pos_grid_x", at.GridX()), zap.Uint32("pos_grid_y", at.GridY()))
	}
	return true
}
