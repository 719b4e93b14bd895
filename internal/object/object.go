// Package object holds the entity model the map core works on: a shared
// WorldObject base plus players, creatures, game objects, dynamic objects,
// corpses and cameras. Gameplay rules live elsewhere.
package object

import (
	"math"

	"github.com/l1jgo/mapcore/internal/grid"
)

// Position is a world position with orientation.
type Position struct {
	X, Y, Z, O float32
}

func (p Position) IsValid() bool {
	return grid.IsValidMapCoordXYZO(p.X, p.Y, p.Z, p.O)
}

// Dist2D is the horizontal distance between two positions.
func (p Position) Dist2D(o Position) float32 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	return float32(math.Sqrt(dx*dx + dy*dy))
}

// Object is anything a map can hold.
type Object interface {
	grid.Entity
	Base() *WorldObject
}

// WorldObject carries the state every entity shares. Only the owning map's
// update goroutine may touch it while the object is in a map.
type WorldObject struct {
	guid       GUID
	kind       grid.Kind
	pos        Position
	mapID      uint32
	instanceID uint32
	inWorld    bool
	active     bool
	cell       grid.Cell
	ref        grid.Ref
	lastUpdate uint64
}

func newWorldObject(guid GUID, kind grid.Kind, pos Position) WorldObject {
	return WorldObject{guid: guid, kind: kind, pos: pos}
}

func (o *WorldObject) Base() *WorldObject { return o }
func (o *WorldObject) GUID() GUID         { return o.guid }
func (o *WorldObject) Kind() grid.Kind    { return o.kind }
func (o *WorldObject) GridRef() *grid.Ref { return &o.ref }
func (o *WorldObject) Position() Position { return o.pos }
func (o *WorldObject) X() float32         { return o.pos.X }
func (o *WorldObject) Y() float32         { return o.pos.Y }

// Relocate sets the position without touching grid membership. Map
// relocation calls it after moving the object between cells.
func (o *WorldObject) Relocate(p Position) { o.pos = p }

func (o *WorldObject) MapID() uint32      { return o.mapID }
func (o *WorldObject) InstanceID() uint32 { return o.instanceID }

func (o *WorldObject) SetMap(mapID, instanceID uint32) {
	o.mapID = mapID
	o.instanceID = instanceID
}

func (o *WorldObject) ResetMap() {
	o.mapID = 0
	o.instanceID = 0
}

func (o *WorldObject) IsInWorld() bool  { return o.inWorld }
func (o *WorldObject) AddToWorld()      { o.inWorld = true }
func (o *WorldObject) RemoveFromWorld() { o.inWorld = false }

// IsActiveObject reports whether the object keeps its surroundings loaded
// and simulated without a player nearby.
func (o *WorldObject) IsActiveObject() bool { return o.active }

// SetActive flips the flag only. Objects already in a map must change state
// through the map so its active set stays in sync.
func (o *WorldObject) SetActive(on bool) { o.active = on }

func (o *WorldObject) CurrentCell() grid.Cell    { return o.cell }
func (o *WorldObject) SetCurrentCell(c grid.Cell) { o.cell = c }

// MarkUpdated records that the object was updated in tick and reports
// false if that already happened.
func (o *WorldObject) MarkUpdated(tick uint64) bool {
	if o.lastUpdate == tick {
		return false
	}
	o.lastUpdate = tick
	return true
}

// WithinDist2D reports whether other is within dist on the horizontal plane.
func (o *WorldObject) WithinDist2D(other *WorldObject, dist float32) bool {
	return o.pos.Dist2D(other.pos) <= dist
}
