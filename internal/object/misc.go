package object

import "github.com/l1jgo/mapcore/internal/grid"

// DynamicObject is a short-lived area effect owned by a caster.
type DynamicObject struct {
	WorldObject
	caster   GUID
	radius   float32
	duration int64 // ms left
}

func NewDynamicObject(guid, caster GUID, pos Position, radius float32, duration int64) *DynamicObject {
	return &DynamicObject{
		WorldObject: newWorldObject(guid, grid.KindDynamicObject, pos),
		caster:      caster,
		radius:      radius,
		duration:    duration,
	}
}

func (d *DynamicObject) Caster() GUID      { return d.caster }
func (d *DynamicObject) Radius() float32   { return d.radius }
func (d *DynamicObject) Update(diff int64) { d.duration -= diff }
func (d *DynamicObject) Expired() bool     { return d.duration <= 0 }

// Corpse is either resurrectable (kept with world objects so it is always
// sent to players) or bones (plain grid content).
type Corpse struct {
	WorldObject
	owner GUID
	bones bool
}

func NewCorpse(guid, owner GUID, pos Position, bones bool) *Corpse {
	return &Corpse{
		WorldObject: newWorldObject(guid, grid.KindCorpse, pos),
		owner:       owner,
		bones:       bones,
	}
}

func (c *Corpse) Owner() GUID   { return c.owner }
func (c *Corpse) IsBones() bool { return c.bones }

// Camera is a detached viewpoint, e.g. a far sight target.
type Camera struct {
	WorldObject
	owner GUID
}

func NewCamera(guid, owner GUID, pos Position) *Camera {
	return &Camera{WorldObject: newWorldObject(guid, grid.KindCamera, pos), owner: owner}
}

func (c *Camera) Owner() GUID { return c.owner }
