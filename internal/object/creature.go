package object

import (
	"time"

	"github.com/l1jgo/mapcore/internal/grid"
)

// AI is the behaviour hook set the map core drives. Implementations live
// with the gameplay code; a creature without AI just stands still.
type AI interface {
	Update(c *Creature, diff int64)
	// Stop halts movement and thinking when the grid goes idle.
	Stop(c *Creature)
	// MoveToRespawn resets movement before the creature is put back at its
	// spawn point.
	MoveToRespawn(c *Creature)
}

type Creature struct {
	WorldObject
	spawnID      uint32
	entry        uint32
	home         Position
	respawnDelay int64 // ms
	pet          bool

	dead         bool
	respawnTimer int64 // ms left until respawn
	respawnAt    int64 // unix seconds, 0 while alive
	inCombat     bool

	ai         AI
	dynObjects []GUID
}

// NewCreature builds a creature whose home is its spawn position. A zero
// spawnID marks a temporary summon that has no stored spawn row.
func NewCreature(guid GUID, spawnID, entry uint32, pos Position, respawnDelay time.Duration) *Creature {
	return &Creature{
		WorldObject:  newWorldObject(guid, grid.KindCreature, pos),
		spawnID:      spawnID,
		entry:        entry,
		home:         pos,
		respawnDelay: respawnDelay.Milliseconds(),
	}
}

// NewPet builds a player-owned creature. Pets live in the world container
// and never pin a spawn grid.
func NewPet(guid GUID, entry uint32, pos Position) *Creature {
	c := NewCreature(guid, 0, entry, pos, 0)
	c.pet = true
	return c
}

func (c *Creature) SpawnID() uint32 { return c.spawnID }
func (c *Creature) Entry() uint32   { return c.entry }
func (c *Creature) IsPet() bool     { return c.pet }
func (c *Creature) Home() Position  { return c.home }

// HasStaticSpawn reports whether the creature was loaded from a spawn row.
func (c *Creature) HasStaticSpawn() bool { return c.spawnID != 0 }

func (c *Creature) SetAI(ai AI) { c.ai = ai }
func (c *Creature) AI() AI      { return c.ai }

func (c *Creature) IsDead() bool       { return c.dead }
func (c *Creature) IsInCombat() bool   { return c.inCombat }
func (c *Creature) SetInCombat(b bool) { c.inCombat = b }
func (c *Creature) CombatStop()        { c.inCombat = false }

// RespawnAt is the unix time the creature comes back, 0 while alive.
func (c *Creature) RespawnAt() int64 { return c.respawnAt }

// SetDead starts the respawn countdown.
func (c *Creature) SetDead(now time.Time) {
	c.dead = true
	c.inCombat = false
	c.respawnTimer = c.respawnDelay
	c.respawnAt = now.Add(time.Duration(c.respawnDelay) * time.Millisecond).Unix()
}

// LoadDead restores a stored respawn time. A time in the past leaves the
// creature alive.
func (c *Creature) LoadDead(respawnAt int64, now time.Time) {
	left := time.Unix(respawnAt, 0).Sub(now)
	if left <= 0 {
		return
	}
	c.dead = true
	c.respawnTimer = left.Milliseconds()
	c.respawnAt = respawnAt
}

// RespawnDue reports whether a dead creature's timer has run out.
func (c *Creature) RespawnDue() bool { return c.dead && c.respawnTimer <= 0 }

func (c *Creature) Respawn() {
	c.dead = false
	c.respawnTimer = 0
	c.respawnAt = 0
}

func (c *Creature) Update(diff int64) {
	if c.dead {
		c.respawnTimer -= diff
		return
	}
	if c.ai != nil {
		c.ai.Update(c, diff)
	}
}

// Stop ends combat and halts the AI without removing the creature.
func (c *Creature) Stop() {
	c.CombatStop()
	if c.ai != nil {
		c.ai.Stop(c)
	}
}

func (c *Creature) MoveToRespawn() {
	c.CombatStop()
	if c.ai != nil {
		c.ai.MoveToRespawn(c)
	}
}

// AddDynObject records a dynamic object this creature owns.
func (c *Creature) AddDynObject(g GUID) { c.dynObjects = append(c.dynObjects, g) }

// TakeDynObjects returns and forgets the owned dynamic objects.
func (c *Creature) TakeDynObjects() []GUID {
	owned := c.dynObjects
	c.dynObjects = nil
	return owned
}
