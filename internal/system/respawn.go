package system

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/mapcore/internal/core/system"
	"github.com/l1jgo/mapcore/internal/grid"
	"github.com/l1jgo/mapcore/internal/mapmgr"
	"github.com/l1jgo/mapcore/internal/maps"
	"github.com/l1jgo/mapcore/internal/persist"
)

const respawnSaveTimeout = 10 * time.Second

// RespawnRepo is the storage side of respawn times.
type RespawnRepo interface {
	Load(ctx context.Context, mapID, instanceID uint32) ([]persist.RespawnRow, error)
	Save(ctx context.Context, changes []persist.RespawnRow) error
}

// RespawnStore serves stored respawn times to new map instances.
type RespawnStore struct {
	repo RespawnRepo
}

var _ mapmgr.RespawnLoader = (*RespawnStore)(nil)

func NewRespawnStore(repo RespawnRepo) *RespawnStore {
	return &RespawnStore{repo: repo}
}

func (s *RespawnStore) RespawnTimes(ctx context.Context, mapID, instanceID uint32) ([]maps.RespawnRecord, error) {
	rows, err := s.repo.Load(ctx, mapID, instanceID)
	if err != nil {
		return nil, err
	}
	recs := make([]maps.RespawnRecord, len(rows))
	for i, r := range rows {
		kind := grid.KindCreature
		if r.GameObject {
			kind = grid.KindGameObject
		}
		recs[i] = maps.RespawnRecord{
			MapID: r.MapID, InstanceID: r.InstanceID, Kind: kind, SpawnID: r.SpawnID, RespawnAt: r.RespawnAt,
		}
	}
	return recs, nil
}

func toRespawnRows(recs []maps.RespawnRecord) []persist.RespawnRow {
	rows := make([]persist.RespawnRow, len(recs))
	for i, r := range recs {
		rows[i] = persist.RespawnRow{
			MapID:      r.MapID,
			InstanceID: r.InstanceID,
			GameObject: r.Kind == grid.KindGameObject,
			SpawnID:    r.SpawnID,
			RespawnAt:  r.RespawnAt,
		}
	}
	return rows
}

// RespawnPersistSystem collects the respawn writes of every map round and
// saves them every N ticks in one batch. A failed batch is kept and
// retried with the next one. Phase 2 (Persist).
type RespawnPersistSystem struct {
	maps      *mapmgr.Manager
	repo      RespawnRepo
	log       *zap.Logger
	pending   []maps.RespawnRecord
	tickCount int
	interval  int
}

func NewRespawnPersistSystem(mgr *mapmgr.Manager, repo RespawnRepo, log *zap.Logger, intervalTicks int) *RespawnPersistSystem {
	return &RespawnPersistSystem{
		maps:     mgr,
		repo:     repo,
		log:      log,
		interval: max(intervalTicks, 1),
	}
}

func (s *RespawnPersistSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *RespawnPersistSystem) Update(_ time.Duration) {
	s.pending = append(s.pending, s.maps.DrainRespawnWrites()...)
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush saves everything collected so far. Called directly on shutdown.
func (s *RespawnPersistSystem) Flush() {
	s.pending = append(s.pending, s.maps.DrainRespawnWrites()...)
	if len(s.pending) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), respawnSaveTimeout)
	defer cancel()
	if err := s.repo.Save(ctx, toRespawnRows(s.pending)); err != nil {
		s.log.Error("respawn times not saved", zap.Int("pending", len(s.pending)), zap.Error(err))
		return
	}
	s.log.Debug("respawn times saved", zap.Int("count", len(s.pending)))
	s.pending = s.pending[:0]
}

// Pending is the number of collected writes not saved yet.
func (s *RespawnPersistSystem) Pending() int { return len(s.pending) }

// MemoryRespawnRepo keeps respawn times in process memory. It stands in
// for the database when none is configured.
type MemoryRespawnRepo struct {
	mu   sync.Mutex
	rows map[respawnKey]persist.RespawnRow
}

type respawnKey struct {
	instanceID uint32
	gameObject bool
	spawnID    uint32
}

func NewMemoryRespawnRepo() *MemoryRespawnRepo {
	return &MemoryRespawnRepo{rows: make(map[respawnKey]persist.RespawnRow)}
}

func (r *MemoryRespawnRepo) Load(_ context.Context, mapID, instanceID uint32) ([]persist.RespawnRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []persist.RespawnRow
	for _, row := range r.rows {
		if row.MapID == mapID && row.InstanceID == instanceID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *MemoryRespawnRepo) Save(_ context.Context, changes []persist.RespawnRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range changes {
		k := respawnKey{instanceID: c.InstanceID, gameObject: c.GameObject, spawnID: c.SpawnID}
		if c.RespawnAt == 0 {
			delete(r.rows, k)
			continue
		}
		r.rows[k] = c
	}
	return nil
}

func (r *MemoryRespawnRepo) DeleteInstance(_ context.Context, mapID, instanceID uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, row := range r.rows {
		if row.MapID == mapID && row.InstanceID == instanceID {
			delete(r.rows, k)
		}
	}
	return nil
}

func (r *MemoryRespawnRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}
