package object

import (
	"time"

	"github.com/l1jgo/mapcore/internal/grid"
)

type GameObject struct {
	WorldObject
	spawnID      uint32
	entry        uint32
	respawnDelay int64 // ms

	despawned    bool
	respawnTimer int64
	respawnAt    int64 // unix seconds
}

func NewGameObject(guid GUID, spawnID, entry uint32, pos Position, respawnDelay time.Duration) *GameObject {
	return &GameObject{
		WorldObject:  newWorldObject(guid, grid.KindGameObject, pos),
		spawnID:      spawnID,
		entry:        entry,
		respawnDelay: respawnDelay.Milliseconds(),
	}
}

func (o *GameObject) SpawnID() uint32  { return o.spawnID }
func (o *GameObject) Entry() uint32    { return o.entry }
func (o *GameObject) IsSpawned() bool  { return !o.despawned }
func (o *GameObject) RespawnAt() int64 { return o.respawnAt }

// Despawn hides the object until its respawn delay has passed.
func (o *GameObject) Despawn(now time.Time) {
	o.despawned = true
	o.respawnTimer = o.respawnDelay
	o.respawnAt = now.Add(time.Duration(o.respawnDelay) * time.Millisecond).Unix()
}

func (o *GameObject) LoadDespawned(respawnAt int64, now time.Time) {
	left := time.Unix(respawnAt, 0).Sub(now)
	if left <= 0 {
		return
	}
	o.despawned = true
	o.respawnTimer = left.Milliseconds()
	o.respawnAt = respawnAt
}

func (o *GameObject) Update(diff int64) {
	if o.despawned {
		o.respawnTimer -= diff
	}
}

func (o *GameObject) RespawnDue() bool { return o.despawned && o.respawnTimer <= 0 }

func (o *GameObject) Respawn() {
	o.despawned = false
	o.respawnTimer = 0
	o.respawnAt = 0
}
