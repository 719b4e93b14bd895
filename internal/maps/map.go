// Package maps owns simulated world instances: the 64×64 grid array of a
// map, grid lifecycle, object add/remove/relocation, visibility and the
// per-map update tick. A Map is only touched by the goroutine running its
// Update; other maps are reached through the map manager between rounds.
package maps

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/mapcore/internal/core/event"
	"github.com/l1jgo/mapcore/internal/data"
	"github.com/l1jgo/mapcore/internal/grid"
	"github.com/l1jgo/mapcore/internal/object"
	"github.com/l1jgo/mapcore/internal/scripting"
)

var (
	ErrMapFull            = errors.New("map is full")
	ErrInvalidCoordinates = errors.New("invalid map coordinates")
	ErrAlreadyInMap       = errors.New("player already in map")
	ErrWrongBattleGround  = errors.New("player not assigned to this battleground")
)

const defaultSpawnQueryTimeout = 5 * time.Second

// SpawnSource returns the static spawn rows of one grid. Called on the
// map's own goroutine while a grid loads.
type SpawnSource interface {
	GridSpawns(ctx context.Context, mapID uint32, g grid.GridPair) ([]data.SpawnEntry, error)
}

// Config holds the per-map tunables taken from the [world] section.
type Config struct {
	GridExpiry                 int64 // ms a grid stays loaded after it went idle
	GridUnload                 bool
	VisibilityDistance         float32
	SaveRespawnTimeImmediately bool
	InstanceUnloadDelay        int64 // ms
	SpawnQueryTimeout          time.Duration
}

// Deps are the collaborators a map reaches out to.
type Deps struct {
	Spawns    SpawnSource
	Templates *data.Templates
	Scripts   *scripting.Library
	Now       func() time.Time
}

type Map struct {
	id         uint32
	instanceID uint32
	entry      *data.MapEntry
	cfg        Config
	deps       Deps
	log        *zap.Logger

	grids   [grid.MaxGrids][grid.MaxGrids]*grid.NGrid
	objects *object.Store
	guids   map[object.HighGuid]*object.GuidGenerator

	players          []*object.Player
	activeNonPlayers []object.Object
	activeIndex      map[object.GUID]int

	markedCells [grid.TotalCells * grid.TotalCells / 64]uint64
	tick        uint64

	updateObjects []object.Object
	updateSet     map[object.GUID]struct{}
	removeList    []object.Object
	removeSet     map[object.GUID]struct{}

	scripts     scriptQueue
	scriptSeq   uint64
	scriptClock int64
	vm          *scripting.VM

	state  *PersistentState
	events []func(*event.Bus)

	unloadTimer    int64
	skipGridStates bool
}

// NewMap builds a world map. Dungeons and battlegrounds wrap it.
func NewMap(entry *data.MapEntry, instanceID uint32, cfg Config, deps Deps, log *zap.Logger) *Map {
	return newMap(entry, instanceID, cfg, deps, log, true)
}

func newMap(entry *data.MapEntry, instanceID uint32, cfg Config, deps Deps, log *zap.Logger, writesRespawns bool) *Map {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.SpawnQueryTimeout <= 0 {
		cfg.SpawnQueryTimeout = defaultSpawnQueryTimeout
	}
	m := &Map{
		id:          entry.MapID,
		instanceID:  instanceID,
		entry:       entry,
		cfg:         cfg,
		deps:        deps,
		log:         log.With(zap.Uint32("map", entry.MapID), zap.Uint32("instance", instanceID)),
		objects:     object.NewStore(),
		guids:       make(map[object.HighGuid]*object.GuidGenerator),
		activeIndex: make(map[object.GUID]int),
		updateSet:   make(map[object.GUID]struct{}),
		removeSet:   make(map[object.GUID]struct{}),
		state:       newPersistentState(entry.MapID, instanceID, writesRespawns),
	}
	for _, h := range []object.HighGuid{
		object.HighUnit, object.HighPet, object.HighGameObject,
		object.HighDynamicObject, object.HighCorpse, object.HighCamera,
	} {
		m.guids[h] = object.NewGuidGenerator(h)
	}
	if deps.Scripts != nil && deps.Scripts.Len() > 0 {
		vm, err := scripting.NewVM(deps.Scripts, scriptAPI{m: m}, m.log)
		if err != nil {
			m.log.Error("map scripts disabled", zap.Error(err))
		} else {
			m.vm = vm
		}
	}
	record(m, event.MapCreated{MapID: m.id, InstanceID: m.instanceID})
	m.log.Debug("map created", zap.String("name", entry.Name))
	return m
}

func (m *Map) Base() *Map                  { return m }
func (m *Map) ID() uint32                  { return m.id }
func (m *Map) InstanceID() uint32          { return m.instanceID }
func (m *Map) Entry() *data.MapEntry       { return m.entry }
func (m *Map) State() *PersistentState     { return m.state }
func (m *Map) VisibilityDistance() float32 { return m.cfg.VisibilityDistance }
func (m *Map) GridExpiry() int64           { return m.cfg.GridExpiry }
func (m *Map) IsDungeon() bool             { return m.entry.IsDungeon() }
func (m *Map) IsBattleGround() bool        { return m.entry.IsBattleGround() }
func (m *Map) Logger() *zap.Logger         { return m.log }

func (m *Map) PlayerCount() int  { return len(m.players) }
func (m *Map) HavePlayers() bool { return len(m.players) > 0 }

// Players returns a snapshot of the players in the map.
func (m *Map) Players() []*object.Player {
	return append([]*object.Player(nil), m.players...)
}

// ObjectCount is the number of objects in the map's store, players included.
func (m *Map) ObjectCount() int { return m.objects.Len() }

func (m *Map) FindObject(g object.GUID) (object.Object, bool) {
	return m.objects.Get(g)
}

// GenerateGUID hands out a map-local id for a non-player object.
func (m *Map) GenerateGUID(high object.HighGuid) (object.GUID, error) {
	gen, ok := m.guids[high]
	if !ok {
		return 0, errors.New("no guid generator for " + high.String())
	}
	return gen.Generate()
}

func (m *Map) now() time.Time { return m.deps.Now() }

// record buffers an event; the map manager replays the buffer into the
// event bus after the update round.
func record[T any](m *Map, ev T) {
	m.events = append(m.events, func(b *event.Bus) { event.Emit(b, ev) })
}

// FlushEvents emits every buffered event into b. Must not run concurrently
// with Update.
func (m *Map) FlushEvents(b *event.Bus) {
	for _, emit := range m.events {
		emit(b)
	}
	clear(m.events)
	m.events = m.events[:0]
}

// PendingEvents is the number of buffered events.
func (m *Map) PendingEvents() int { return len(m.events) }
