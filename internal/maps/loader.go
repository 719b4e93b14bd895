package maps

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/mapcore/internal/core/event"
	"github.com/l1jgo/mapcore/internal/data"
	"github.com/l1jgo/mapcore/internal/grid"
	"github.com/l1jgo/mapcore/internal/object"
)

// loadGrid populates a freshly created grid from its spawn rows. Bad rows
// are logged and skipped; the rest of the grid still loads.
func (m *Map) loadGrid(g *grid.NGrid) {
	if m.deps.Spawns == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SpawnQueryTimeout)
	defer cancel()
	rows, err := m.deps.Spawns.GridSpawns(ctx, m.id, g.GridPair())
	if err != nil {
		m.log.Error("grid spawn query failed",
			zap.Uint32("grid_x", g.X()), zap.Uint32("grid_y", g.Y()), zap.Error(err))
		return
	}

	now := m.now()
	spawned := 0
	for i := range rows {
		row := &rows[i]
		obj, ok := m.spawnFromRow(g, row, now)
		if !ok {
			continue
		}
		c := grid.CellAt(row.X, row.Y)
		base := obj.Base()
		if !g.AddObject(c.CellX(), c.CellY(), grid.GridObjects, obj) {
			m.log.DPanic("fresh spawn already linked", zap.Stringer("guid", base.GUID()))
			continue
		}
		base.SetCurrentCell(c)
		base.SetMap(m.id, m.instanceID)
		base.AddToWorld()
		m.objects.Insert(obj)
		if obj.IsActiveObject() {
			m.AddToActive(obj)
		}
		spawned++
	}

	m.log.Debug("grid loaded",
		zap.Uint32("grid_x", g.X()), zap.Uint32("grid_y", g.Y()),
		zap.Int("rows", len(rows)), zap.Int("spawned", spawned))
	record(m, event.GridLoaded{MapID: m.id, InstanceID: m.instanceID, GridX: g.X(), GridY: g.Y(), Spawned: spawned})
}

// spawnFromRow validates one row and builds its object.
func (m *Map) spawnFromRow(g *grid.NGrid, row *data.SpawnEntry, now time.Time) (object.Object, bool) {
	skip := func(reason string) (object.Object, bool) {
		m.log.Warn("skipping spawn row", zap.Uint32("spawn", row.ID), zap.String("kind", row.Kind),
			zap.Uint32("entry", row.Entry), zap.String("reason", reason))
		return nil, false
	}
	if !grid.IsValidMapCoordXYZO(row.X, row.Y, row.Z, row.O) {
		return skip("invalid coordinates")
	}
	if row.MapID != m.id {
		return skip("wrong map")
	}
	if grid.ComputeGridPair(row.X, row.Y) != g.GridPair() {
		return skip("position outside grid")
	}
	kind, ok := row.GridKind()
	if !ok {
		return skip("unknown kind")
	}
	pos := object.Position{X: row.X, Y: row.Y, Z: row.Z, O: row.O}

	switch kind {
	case grid.KindCreature:
		tpl, ok := m.deps.Templates.Creature(row.Entry)
		if !ok {
			return skip("unknown creature entry")
		}
		guid, err := m.GenerateGUID(object.HighUnit)
		if err != nil {
			return skip(err.Error())
		}
		c := object.NewCreature(guid, row.ID, row.Entry, pos, data.RespawnDuration(respawnDelay(row.RespawnDelay, tpl.RespawnDelay)))
		c.SetActive(row.Active || tpl.Active)
		if at := m.state.CreatureRespawnTime(row.ID); at > now.Unix() {
			c.LoadDead(at, now)
		} else if at != 0 {
			m.state.SaveCreatureRespawnTime(row.ID, 0)
		}
		return c, true

	case grid.KindGameObject:
		tpl, ok := m.deps.Templates.GameObject(row.Entry)
		if !ok {
			return skip("unknown gameobject entry")
		}
		guid, err := m.GenerateGUID(object.HighGameObject)
		if err != nil {
			return skip(err.Error())
		}
		o := object.NewGameObject(guid, row.ID, row.Entry, pos, data.RespawnDuration(respawnDelay(row.RespawnDelay, tpl.RespawnDelay)))
		o.SetActive(row.Active)
		if at := m.state.GameObjectRespawnTime(row.ID); at > now.Unix() {
			o.LoadDespawned(at, now)
		} else if at != 0 {
			m.state.SaveGameObjectRespawnTime(row.ID, 0)
		}
		return o, true

	case grid.KindCorpse:
		guid, err := m.GenerateGUID(object.HighCorpse)
		if err != nil {
			return skip(err.Error())
		}
		return object.NewCorpse(guid, 0, pos, true), true
	}
	return skip("kind not spawnable")
}

func respawnDelay(row, template int64) int64 {
	if row > 0 {
		return row
	}
	return template
}

// stopN halts every creature of the grid without removing it.
func (m *Map) stopN(g *grid.NGrid) {
	stop := grid.VisitKinds(grid.KindsOf(grid.KindCreature), func(e grid.Entity) {
		e.(*object.Creature).Stop()
	})
	g.VisitAll(grid.GridObjects, stop)
	g.VisitAll(grid.WorldObjects, stop)
}

// moveToRespawnN sends creatures whose spawn point lies in another grid
// home, so they respawn where players expect them. A creature that cannot
// move is unloaded with the rest of the grid.
func (m *Map) moveToRespawnN(g *grid.NGrid) {
	g.VisitAll(grid.GridObjects, grid.VisitKinds(grid.KindsOf(grid.KindCreature), func(e grid.Entity) {
		c := e.(*object.Creature)
		home := c.Home()
		if c.CurrentCell().DiffGrid(grid.CellAt(home.X, home.Y)) {
			m.creatureRespawnRelocation(c)
		}
	}))
}

// unloadN deletes every object left in the grid.
func (m *Map) unloadN(g *grid.NGrid) {
	g.VisitAll(grid.GridObjects, grid.VisitorFunc(func(e grid.Entity) {
		m.Remove(e.(object.Object), true)
	}))
	g.VisitAll(grid.WorldObjects, grid.VisitorFunc(func(e grid.Entity) {
		if p, ok := e.(*object.Player); ok {
			m.log.DPanic("player in unloading grid", zap.String("player", p.Name()))
			m.RemovePlayer(p)
			return
		}
		m.Remove(e.(object.Object), true)
	}))
}
