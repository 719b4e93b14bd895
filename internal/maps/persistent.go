package maps

import "github.com/l1jgo/mapcore/internal/grid"

// RespawnRecord is one pending respawn write. RespawnAt 0 deletes the
// stored time.
type RespawnRecord struct {
	MapID      uint32
	InstanceID uint32
	Kind       grid.Kind // KindCreature or KindGameObject
	SpawnID    uint32
	RespawnAt  int64 // unix seconds
}

// PersistentState is the saved part of a map instance: respawn times of its
// static spawns and, for dungeons, the reset schedule. Writes are queued
// and drained by the map manager on the main goroutine.
type PersistentState struct {
	mapID      uint32
	instanceID uint32
	writes     bool

	creatureRespawn   map[uint32]int64
	gameObjectRespawn map[uint32]int64
	pending           []RespawnRecord

	resetTime int64
	canReset  bool
}

func newPersistentState(mapID, instanceID uint32, writes bool) *PersistentState {
	return &PersistentState{
		mapID:             mapID,
		instanceID:        instanceID,
		writes:            writes,
		creatureRespawn:   make(map[uint32]int64),
		gameObjectRespawn: make(map[uint32]int64),
		canReset:          true,
	}
}

func (s *PersistentState) CreatureRespawnTime(spawnID uint32) int64 {
	return s.creatureRespawn[spawnID]
}

func (s *PersistentState) GameObjectRespawnTime(spawnID uint32) int64 {
	return s.gameObjectRespawn[spawnID]
}

// SaveCreatureRespawnTime sets or, with 0, clears a creature respawn time.
func (s *PersistentState) SaveCreatureRespawnTime(spawnID uint32, at int64) {
	s.save(s.creatureRespawn, grid.KindCreature, spawnID, at)
}

func (s *PersistentState) SaveGameObjectRespawnTime(spawnID uint32, at int64) {
	s.save(s.gameObjectRespawn, grid.KindGameObject, spawnID, at)
}

func (s *PersistentState) save(times map[uint32]int64, kind grid.Kind, spawnID uint32, at int64) {
	old, had := times[spawnID]
	if at == 0 {
		if !had {
			return
		}
		delete(times, spawnID)
	} else {
		if had && old == at {
			return
		}
		times[spawnID] = at
	}
	if s.writes {
		s.pending = append(s.pending, RespawnRecord{
			MapID: s.mapID, InstanceID: s.instanceID, Kind: kind, SpawnID: spawnID, RespawnAt: at,
		})
	}
}

// LoadRespawnTimes seeds stored times without queueing writes.
func (s *PersistentState) LoadRespawnTimes(records []RespawnRecord) {
	for _, r := range records {
		switch r.Kind {
		case grid.KindCreature:
			s.creatureRespawn[r.SpawnID] = r.RespawnAt
		case grid.KindGameObject:
			s.gameObjectRespawn[r.SpawnID] = r.RespawnAt
		}
	}
}

// ClearRespawnTimes forgets every respawn time, queueing deletes.
func (s *PersistentState) ClearRespawnTimes() {
	for id := range s.creatureRespawn {
		s.SaveCreatureRespawnTime(id, 0)
	}
	for id := range s.gameObjectRespawn {
		s.SaveGameObjectRespawnTime(id, 0)
	}
}

// DrainPending returns and clears the queued writes.
func (s *PersistentState) DrainPending() []RespawnRecord {
	out := s.pending
	s.pending = nil
	return out
}

func (s *PersistentState) PendingCount() int { return len(s.pending) }

func (s *PersistentState) ResetTime() int64     { return s.resetTime }
func (s *PersistentState) SetResetTime(t int64) { s.resetTime = t }
func (s *PersistentState) CanReset() bool       { return s.canReset }
func (s *PersistentState) SetCanReset(on bool)  { s.canReset = on }
func (s *PersistentState) WritesRespawns() bool { return s.writes }
