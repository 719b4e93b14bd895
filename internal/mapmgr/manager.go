// Package mapmgr keeps the registry of live map instances and drives their
// update rounds, in parallel through the Updater when it is active.
package mapmgr

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/mapcore/internal/core/event"
	"github.com/l1jgo/mapcore/internal/core/timer"
	"github.com/l1jgo/mapcore/internal/data"
	"github.com/l1jgo/mapcore/internal/maps"
	"github.com/l1jgo/mapcore/internal/object"
)

var (
	ErrUnknownMap       = errors.New("unknown map")
	ErrNeedPlayer       = errors.New("instanceable map needs a player")
	ErrNotBattleGround  = errors.New("map is not a battleground")
	ErrNoBattleGround   = errors.New("player has no battleground assigned")
	ErrInstanceNotFound = errors.New("instance not found")
)

const queryTimeout = 10 * time.Second

// MapID addresses one map instance. Continents use instance 0.
type MapID struct {
	Map      uint32
	Instance uint32
}

// SpawnQuerier lists the spawns whose grids are force-loaded when a map is
// created.
type SpawnQuerier interface {
	ActiveSpawns(ctx context.Context, mapID uint32) ([]data.SpawnEntry, error)
	MapSpawns(ctx context.Context, mapID uint32) ([]data.SpawnEntry, error)
}

// RespawnLoader returns the stored respawn times of one instance.
type RespawnLoader interface {
	RespawnTimes(ctx context.Context, mapID, instanceID uint32) ([]maps.RespawnRecord, error)
}

// InstanceIDSource returns the highest instance id ever handed out.
type InstanceIDSource interface {
	MaxInstanceID(ctx context.Context) (uint32, error)
}

// Config is the [world] and [scheduler] part the manager needs.
type Config struct {
	UpdateInterval int64 // ms
	Threads        int   // 0 updates maps on the calling goroutine
	QueueSize      int
	Continents     []uint32
	ForceLoadMaps  []uint32

	Map                     maps.Config
	VisibilityContinents    float32
	VisibilityInstances     float32
	VisibilityBattleGrounds float32
}

type Deps struct {
	Maps     *data.MapTable
	Map      maps.Deps
	Spawns   SpawnQuerier  // nil disables force loading
	Respawns RespawnLoader // nil starts every instance without respawn times
	Bus      *event.Bus
}

// Manager owns every map instance. Its methods run on the main goroutine;
// the mutex only guards the registry against readers elsewhere.
type Manager struct {
	cfg     Config
	deps    Deps
	log     *zap.Logger
	updater *Updater
	timer   timer.IntervalTimer

	mu            sync.Mutex
	maps          map[MapID]maps.Instance
	maxInstanceID uint32

	respawnWrites []maps.RespawnRecord
}

func NewManager(cfg Config, deps Deps, log *zap.Logger) *Manager {
	m := &Manager{
		cfg:     cfg,
		deps:    deps,
		log:     log,
		updater: NewUpdater(log),
		maps:    make(map[MapID]maps.Instance),
	}
	m.timer.SetInterval(cfg.UpdateInterval)
	return m
}

// Start activates the parallel updater when threads are configured.
func (m *Manager) Start() error {
	if m.cfg.Threads <= 0 {
		return nil
	}
	if err := m.updater.Activate(m.cfg.Threads, m.cfg.QueueSize); err != nil {
		return fmt.Errorf("start map updater: %w", err)
	}
	return nil
}

func (m *Manager) Updater() *Updater { return m.updater }

// InitMaxInstanceID seeds the instance id generator from storage.
func (m *Manager) InitMaxInstanceID(ctx context.Context, src InstanceIDSource) error {
	id, err := src.MaxInstanceID(ctx)
	if err != nil {
		return fmt.Errorf("max instance id: %w", err)
	}
	m.mu.Lock()
	m.maxInstanceID = id
	m.mu.Unlock()
	return nil
}

// generateInstanceID must be called with mu held.
func (m *Manager) generateInstanceID() uint32 {
	m.maxInstanceID++
	return m.maxInstanceID
}

func (m *Manager) mapConfig(entry *data.MapEntry) maps.Config {
	cfg := m.cfg.Map
	switch {
	case entry.IsBattleGround():
		cfg.VisibilityDistance = m.cfg.VisibilityBattleGrounds
	case entry.Instanceable():
		cfg.VisibilityDistance = m.cfg.VisibilityInstances
	default:
		cfg.VisibilityDistance = m.cfg.VisibilityContinents
	}
	return cfg
}

// CreateMap returns the map p should enter. Continents exist once and are
// created on first use. For instanceable maps p is required: a dungeon
// resolves to the instance p is bound to or a new one, a battleground to
// the instance p was assigned.
func (m *Manager) CreateMap(id uint32, p *object.Player) (maps.Instance, error) {
	entry := m.deps.Maps.Get(id)
	if entry == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMap, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !entry.Instanceable() {
		key := MapID{Map: id}
		if inst, ok := m.maps[key]; ok {
			return inst, nil
		}
		wm := maps.NewMap(entry, 0, m.mapConfig(entry), m.deps.Map, m.log)
		m.maps[key] = wm
		m.loadRespawnTimes(wm)
		m.LoadActiveEntities(wm)
		return wm, nil
	}

	if p == nil {
		return nil, fmt.Errorf("%w: %d", ErrNeedPlayer, id)
	}
	if entry.IsBattleGround() {
		bgID := p.BattleGroundID()
		if bgID == 0 {
			return nil, ErrNoBattleGround
		}
		inst, ok := m.maps[MapID{Map: id, Instance: bgID}]
		if !ok {
			return nil, fmt.Errorf("%w: battleground %d/%d", ErrInstanceNotFound, id, bgID)
		}
		return inst, nil
	}

	instanceID, bound := p.BoundInstance(id)
	if bound {
		if inst, ok := m.maps[MapID{Map: id, Instance: instanceID}]; ok {
			return inst, nil
		}
	} else {
		instanceID = m.generateInstanceID()
	}
	d := maps.NewDungeonMap(entry, instanceID, m.mapConfig(entry), m.deps.Map, m.log)
	m.maps[MapID{Map: id, Instance: instanceID}] = d
	if bound {
		m.loadRespawnTimes(d.Map)
	}
	m.LoadActiveEntities(d.Map)
	m.log.Debug("dungeon instance created", zap.Uint32("map", id), zap.Uint32("instance", instanceID),
		zap.Bool("bound", bound))
	return d, nil
}

// CreateBattleGroundMap creates a new battleground instance. Battlegrounds
// are only created here, never by a player entering.
func (m *Manager) CreateBattleGroundMap(id uint32) (*maps.BattleGroundMap, error) {
	entry := m.deps.Maps.Get(id)
	if entry == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMap, id)
	}
	if !entry.IsBattleGround() {
		return nil, fmt.Errorf("%w: %d", ErrNotBattleGround, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	instanceID := m.generateInstanceID()
	bg := maps.NewBattleGroundMap(entry, instanceID, m.mapConfig(entry), m.deps.Map, m.log)
	m.maps[MapID{Map: id, Instance: instanceID}] = bg
	return bg, nil
}

// FindMap returns a live instance or nil.
func (m *Manager) FindMap(id, instanceID uint32) maps.Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maps[MapID{Map: id, Instance: instanceID}]
}

// DeleteInstance unloads and drops an instanceable map. Continents are
// never deleted.
func (m *Manager) DeleteInstance(id, instanceID uint32) {
	key := MapID{Map: id, Instance: instanceID}
	m.mu.Lock()
	inst, ok := m.maps[key]
	if !ok || !inst.Base().Entry().Instanceable() {
		m.mu.Unlock()
		return
	}
	delete(m.maps, key)
	m.mu.Unlock()

	m.retire(inst)
	emit(m, event.InstanceDeleted{MapID: id, InstanceID: instanceID})
}

// retire unloads a map that already left the registry.
func (m *Manager) retire(inst maps.Instance) {
	base := inst.Base()
	inst.UnloadAll(true)
	m.collect(base)
	base.Close()
	emit(m, event.MapUnloaded{MapID: base.ID(), InstanceID: base.InstanceID()})
	m.log.Debug("map unloaded", zap.Uint32("map", base.ID()), zap.Uint32("instance", base.InstanceID()))
}

func emit[T any](m *Manager, ev T) {
	if m.deps.Bus != nil {
		event.Emit(m.deps.Bus, ev)
	}
}

// collect moves a map's buffered events into the bus and its pending
// respawn writes into the manager.
func (m *Manager) collect(base *maps.Map) {
	if m.deps.Bus != nil {
		base.FlushEvents(m.deps.Bus)
	}
	m.respawnWrites = append(m.respawnWrites, base.State().DrainPending()...)
}

// Update runs one round once the update interval has passed: every map is
// updated with the time since the last round, then finished instances are
// unloaded.
func (m *Manager) Update(diff int64) {
	m.timer.Update(diff)
	if !m.timer.Passed() {
		return
	}
	elapsed := m.timer.Current()
	instances := m.snapshot()

	if m.updater.Activated() {
		for _, inst := range instances {
			if err := m.updater.ScheduleUpdate(inst, elapsed); err != nil {
				base := inst.Base()
				m.log.Error("map update not scheduled", zap.Uint32("map", base.ID()),
					zap.Uint32("instance", base.InstanceID()), zap.Error(err))
			}
		}
		m.updater.Wait()
	} else {
		for _, inst := range instances {
			inst.Update(elapsed)
		}
	}

	for _, inst := range instances {
		m.collect(inst.Base())
	}

	var finished []maps.Instance
	m.mu.Lock()
	for key, inst := range m.maps {
		if inst.CanUnload(elapsed) {
			delete(m.maps, key)
			finished = append(finished, inst)
		}
	}
	m.mu.Unlock()
	for _, inst := range finished {
		m.retire(inst)
	}

	m.timer.SetCurrent(0)
}

// snapshot returns the live instances ordered by map and instance id.
func (m *Manager) snapshot() []maps.Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]MapID, 0, len(m.maps))
	for k := range m.maps {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b MapID) int {
		if c := cmp.Compare(a.Map, b.Map); c != 0 {
			return c
		}
		return cmp.Compare(a.Instance, b.Instance)
	})
	out := make([]maps.Instance, len(keys))
	for i, k := range keys {
		out[i] = m.maps[k]
	}
	return out
}

// DrainRespawnWrites returns and clears the respawn writes collected from
// the maps.
func (m *Manager) DrainRespawnWrites() []maps.RespawnRecord {
	out := m.respawnWrites
	m.respawnWrites = nil
	return out
}

// UnloadAll unloads every map and stops the updater.
func (m *Manager) UnloadAll() {
	instances := m.snapshot()
	m.mu.Lock()
	clear(m.maps)
	m.mu.Unlock()
	for _, inst := range instances {
		m.retire(inst)
	}
	m.updater.Deactivate()
}

// Count is the number of live map instances.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.maps)
}

// NumInstances counts live dungeon instances.
func (m *Manager) NumInstances() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, inst := range m.maps {
		if inst.Base().IsDungeon() {
			n++
		}
	}
	return n
}

// NumPlayersInInstances counts players inside dungeon instances.
func (m *Manager) NumPlayersInInstances() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, inst := range m.maps {
		if base := inst.Base(); base.IsDungeon() {
			n += base.PlayerCount()
		}
	}
	return n
}

// LoadContinents creates every configured continent up front.
func (m *Manager) LoadContinents() {
	for _, id := range m.cfg.Continents {
		if _, err := m.CreateMap(id, nil); err != nil {
			m.log.Error("continent not created", zap.Uint32("map", id), zap.Error(err))
		}
	}
}

// LoadActiveEntities force-loads the grids of a new map's active spawns, or
// of every spawn on maps configured to load completely.
func (m *Manager) LoadActiveEntities(base *maps.Map) {
	if m.deps.Spawns == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var rows []data.SpawnEntry
	var err error
	if slices.Contains(m.cfg.ForceLoadMaps, base.ID()) {
		rows, err = m.deps.Spawns.MapSpawns(ctx, base.ID())
	} else {
		rows, err = m.deps.Spawns.ActiveSpawns(ctx, base.ID())
	}
	if err != nil {
		m.log.Error("active spawn query failed", zap.Uint32("map", base.ID()), zap.Error(err))
		return
	}
	loaded := 0
	for i := range rows {
		if base.ForceLoadGrid(rows[i].X, rows[i].Y) {
			loaded++
		}
	}
	if loaded > 0 {
		m.log.Info("grids force-loaded", zap.Uint32("map", base.ID()),
			zap.Uint32("instance", base.InstanceID()), zap.Int("grids", loaded))
	}
}

func (m *Manager) loadRespawnTimes(base *maps.Map) {
	if m.deps.Respawns == nil || !base.State().WritesRespawns() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	recs, err := m.deps.Respawns.RespawnTimes(ctx, base.ID(), base.InstanceID())
	if err != nil {
		m.log.Error("respawn time query failed", zap.Uint32("map", base.ID()),
			zap.Uint32("instance", base.InstanceID()), zap.Error(err))
		return
	}
	base.State().LoadRespawnTimes(recs)
}
