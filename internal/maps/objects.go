package maps

import (
	"slices"

	"go.uber.org/zap"

	"github.com/l1jgo/mapcore/internal/grid"
	"github.com/l1jgo/mapcore/internal/object"
)

// gridCategory picks the cell container an object lives in.
func gridCategory(obj object.Object) grid.Category {
	switch o := obj.(type) {
	case *object.Player, *object.Camera:
		return grid.WorldObjects
	case *object.Corpse:
		if !o.IsBones() {
			return grid.WorldObjects
		}
	case *object.Creature:
		if o.IsPet() {
			return grid.WorldObjects
		}
	}
	return grid.GridObjects
}

func (m *Map) addToGrid(obj object.Object, g *grid.NGrid, c grid.Cell) {
	if !g.AddObject(c.CellX(), c.CellY(), gridCategory(obj), obj) {
		m.log.DPanic("object already linked into a grid", zap.Stringer("guid", obj.Base().GUID()))
		return
	}
	obj.Base().SetCurrentCell(c)
}

func (m *Map) removeFromGrid(obj object.Object) {
	g := obj.GridRef().Grid()
	if g == nil || !g.RemoveObject(obj) {
		m.log.DPanic("object not linked into a grid", zap.Stringer("guid", obj.Base().GUID()))
	}
}

// Add puts a non-player object into the world at its position. Active
// objects load and wake their grid; others only need it to exist.
func (m *Map) Add(obj object.Object) error {
	if p, ok := obj.(*object.Player); ok {
		return m.AddPlayer(p)
	}
	base := obj.Base()
	if !base.Position().IsValid() {
		m.log.Error("object has invalid coordinates",
			zap.Stringer("guid", base.GUID()), zap.Float32("x", base.X()), zap.Float32("y", base.Y()))
		return ErrInvalidCoordinates
	}
	if m.objects.Has(base.GUID()) {
		m.log.DPanic("object added twice", zap.Stringer("guid", base.GUID()))
		return nil
	}
	c := grid.CellAt(base.X(), base.Y())
	if obj.IsActiveObject() {
		m.EnsureGridLoadedAtEnter(c, nil)
	} else {
		m.EnsureGridCreated(c.GridPair())
	}
	m.addToGrid(obj, m.grids[c.GridX()][c.GridY()], c)
	base.SetMap(m.id, m.instanceID)
	base.AddToWorld()
	m.objects.Insert(obj)
	if obj.IsActiveObject() {
		m.AddToActive(obj)
	}
	m.UpdateObjectVisibility(obj)
	return nil
}

// CanEnter checks whether p may be added to the map.
func (m *Map) CanEnter(p *object.Player) error {
	if m.objects.Has(p.GUID()) {
		return ErrAlreadyInMap
	}
	if !p.Position().IsValid() {
		return ErrInvalidCoordinates
	}
	return nil
}

// AddPlayer puts p into the world. The player's grid is always loaded and
// woken before the player is linked into it.
func (m *Map) AddPlayer(p *object.Player) error {
	if err := m.CanEnter(p); err != nil {
		return err
	}
	m.addPlayer(p)
	return nil
}

func (m *Map) addPlayer(p *object.Player) {
	c := grid.CellAt(p.X(), p.Y())
	p.SetMap(m.id, m.instanceID)
	m.players = append(m.players, p)
	m.objects.Insert(p)
	m.EnsureGridLoadedAtEnter(c, p)
	p.AddToWorld()
	m.log.Debug("player entered map", zap.String("player", p.Name()),
		zap.Uint32("grid_x", c.GridX()), zap.Uint32("grid_y", c.GridY()))
	m.UpdateObjectVisibility(p)
}

// RemovePlayer takes p out of the map. The player object itself belongs to
// its session and survives.
func (m *Map) RemovePlayer(p *object.Player) {
	i := slices.Index(m.players, p)
	if i < 0 {
		m.log.Error("remove of player not in map", zap.String("player", p.Name()))
		return
	}
	last := len(m.players) - 1
	m.players[i] = m.players[last]
	m.players[last] = nil
	m.players = m.players[:last]

	p.RemoveFromWorld()
	if g := p.GridRef().Grid(); g != nil {
		g.RemoveObject(p)
	} else {
		c := p.CurrentCell()
		m.log.Error("player grid missing on remove", zap.String("player", p.Name()),
			zap.Uint32("grid_x", c.GridX()), zap.Uint32("grid_y", c.GridY()))
	}
	m.UpdateObjectVisibility(p)
	p.ClearKnown()
	m.objects.Remove(p.GUID())
	p.ResetMap()
	m.log.Debug("player left map", zap.String("player", p.Name()))
}

// Remove takes a non-player object out of the map. With remove set the
// object is gone for good and its respawn time is kept.
func (m *Map) Remove(obj object.Object, remove bool) {
	if p, ok := obj.(*object.Player); ok {
		m.RemovePlayer(p)
		return
	}
	base := obj.Base()
	if !obj.GridRef().Linked() {
		m.log.Debug("remove of object outside any grid", zap.Stringer("guid", base.GUID()))
		return
	}
	if obj.IsActiveObject() {
		m.RemoveFromActive(obj)
	}
	base.RemoveFromWorld()
	m.UpdateObjectVisibility(obj)
	m.removeFromGrid(obj)
	if c, ok := obj.(*object.Creature); ok {
		for _, g := range c.TakeDynObjects() {
			if d, ok := m.objects.Get(g); ok {
				m.AddObjectToRemoveList(d)
			}
		}
	}
	m.objects.Remove(base.GUID())
	base.ResetMap()
	if remove && !m.cfg.SaveRespawnTimeImmediately {
		m.SaveRespawnTime(obj)
	}
}

// AddToActive registers an always-simulated non-player. A static creature
// also pins its spawn grid so the grid cannot unload and spawn a clone.
func (m *Map) AddToActive(obj object.Object) {
	if _, ok := obj.(*object.Player); ok {
		return
	}
	g := obj.Base().GUID()
	if _, ok := m.activeIndex[g]; ok {
		return
	}
	m.activeIndex[g] = len(m.activeNonPlayers)
	m.activeNonPlayers = append(m.activeNonPlayers, obj)

	if hg, ok := m.spawnGridOf(obj, true); ok {
		hg.Info().IncUnloadActiveLock()
	}
}

// RemoveFromActive undoes AddToActive.
func (m *Map) RemoveFromActive(obj object.Object) {
	g := obj.Base().GUID()
	i, ok := m.activeIndex[g]
	if !ok {
		return
	}
	last := len(m.activeNonPlayers) - 1
	moved := m.activeNonPlayers[last]
	m.activeNonPlayers[i] = moved
	m.activeIndex[moved.Base().GUID()] = i
	m.activeNonPlayers[last] = nil
	m.activeNonPlayers = m.activeNonPlayers[:last]
	delete(m.activeIndex, g)

	// the lock went away with the grid if it already unloaded
	if hg, ok := m.spawnGridOf(obj, false); ok {
		hg.Info().DecUnloadActiveLock()
	}
}

// spawnGridOf returns the spawn grid of a static, non-pet creature.
func (m *Map) spawnGridOf(obj object.Object, logMissing bool) (*grid.NGrid, bool) {
	c, ok := obj.(*object.Creature)
	if !ok || c.IsPet() || !c.HasStaticSpawn() {
		return nil, false
	}
	home := c.Home()
	p := grid.ComputeGridPair(home.X, home.Y)
	hg := m.Grid(p.X, p.Y)
	if hg == nil {
		if !logMissing {
			return nil, false
		}
		cur := grid.ComputeGridPair(c.X(), c.Y())
		m.log.Error("active creature spawn grid not loaded", zap.Stringer("guid", c.GUID()),
			zap.Uint32("entry", c.Entry()), zap.Uint32("grid_x", cur.X), zap.Uint32("grid_y", cur.Y),
			zap.Uint32("spawn_grid_x", p.X), zap.Uint32("spawn_grid_y", p.Y))
		return nil, false
	}
	return hg, true
}

// ActiveObjectCount is the number of active non-players.
func (m *Map) ActiveObjectCount() int { return len(m.activeNonPlayers) }

// SetActiveObject flips the active flag of an object, keeping the active
// set and the grid counters in step.
func (m *Map) SetActiveObject(obj object.Object, on bool) {
	base := obj.Base()
	if _, ok := obj.(*object.Player); ok || base.IsActiveObject() == on {
		return
	}
	g := obj.GridRef().Grid()
	if g == nil || !m.objects.Has(base.GUID()) {
		base.SetActive(on)
		return
	}
	c := base.CurrentCell()
	if !on {
		m.RemoveFromActive(obj)
	}
	g.RemoveObject(obj)
	base.SetActive(on)
	if on {
		m.EnsureGridLoadedAtEnter(c, nil)
	}
	m.addToGrid(obj, g, c)
	if on {
		m.AddToActive(obj)
	}
}

// AddObjectToRemoveList defers removal of obj to the end of the update.
func (m *Map) AddObjectToRemoveList(obj object.Object) {
	g := obj.Base().GUID()
	if _, ok := m.removeSet[g]; ok {
		return
	}
	m.removeSet[g] = struct{}{}
	m.removeList = append(m.removeList, obj)
}

// RemoveAllObjectsInRemoveList removes every deferred object, including
// ones queued while the list drains.
func (m *Map) RemoveAllObjectsInRemoveList() {
	for i := 0; i < len(m.removeList); i++ {
		obj := m.removeList[i]
		g := obj.Base().GUID()
		delete(m.removeSet, g)
		if !m.objects.Has(g) {
			continue
		}
		if p, ok := obj.(*object.Player); ok {
			m.log.Error("player in remove list ignored", zap.String("player", p.Name()))
			continue
		}
		m.Remove(obj, true)
	}
	clear(m.removeList)
	m.removeList = m.removeList[:0]
}

// SaveRespawnTime stores the pending respawn of a dead static creature or
// despawned static game object.
func (m *Map) SaveRespawnTime(obj object.Object) {
	now := m.now().Unix()
	switch o := obj.(type) {
	case *object.Creature:
		if o.IsPet() || !o.HasStaticSpawn() || o.RespawnAt() <= now {
			return
		}
		m.state.SaveCreatureRespawnTime(o.SpawnID(), o.RespawnAt())
	case *object.GameObject:
		if o.SpawnID() == 0 || o.RespawnAt() <= now {
			return
		}
		m.state.SaveGameObjectRespawnTime(o.SpawnID(), o.RespawnAt())
	}
}

// SetCreatureDead kills c and starts its respawn countdown.
func (m *Map) SetCreatureDead(c *object.Creature) {
	c.SetDead(m.now())
	if m.cfg.SaveRespawnTimeImmediately {
		m.SaveRespawnTime(c)
	}
	m.AddUpdateObject(c)
}

// DespawnGameObject hides o until its respawn delay has passed.
func (m *Map) DespawnGameObject(o *object.GameObject) {
	o.Despawn(m.now())
	if m.cfg.SaveRespawnTimeImmediately {
		m.SaveRespawnTime(o)
	}
	m.AddUpdateObject(o)
}
