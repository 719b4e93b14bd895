package data

import (
	"context"
	"fmt"

	"github.com/l1jgo/mapcore/internal/grid"
)

// Spawn kinds as written in spawn lists and the world_spawn table.
const (
	SpawnCreature   = "creature"
	SpawnGameObject = "gameobject"
	SpawnBones      = "bones"
)

// SpawnEntry is one static spawn point.
type SpawnEntry struct {
	ID           uint32  `yaml:"id"`
	Kind         string  `yaml:"kind"`
	Entry        uint32  `yaml:"entry"`
	MapID        uint32  `yaml:"map_id"`
	X            float32 `yaml:"x"`
	Y            float32 `yaml:"y"`
	Z            float32 `yaml:"z"`
	O            float32 `yaml:"o"`
	RespawnDelay int64   `yaml:"respawn_delay"` // seconds, 0 = template default
	Active       bool    `yaml:"active"`
}

// GridKind maps the spawn kind onto a container kind. Unknown kinds report
// false.
func (s *SpawnEntry) GridKind() (grid.Kind, bool) {
	switch s.Kind {
	case SpawnCreature:
		return grid.KindCreature, true
	case SpawnGameObject:
		return grid.KindGameObject, true
	case SpawnBones:
		return grid.KindCorpse, true
	}
	return 0, false
}

// GridPair is the grid the spawn position falls into.
func (s *SpawnEntry) GridPair() grid.GridPair {
	return grid.ComputeGridPair(s.X, s.Y)
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

type gridKey struct {
	mapID uint32
	grid  grid.GridPair
}

// SpawnTable indexes spawn rows by map and grid. Rows whose position is
// off the map are kept under the map only so the loader can report them.
type SpawnTable struct {
	all    []SpawnEntry
	byGrid map[gridKey][]SpawnEntry
	byMap  map[uint32][]SpawnEntry
}

// LoadSpawnTable loads spawn rows from YAML.
func LoadSpawnTable(path string) (*SpawnTable, error) {
	var file spawnListFile
	if err := readYAML(path, &file); err != nil {
		return nil, fmt.Errorf("spawn list: %w", err)
	}
	return NewSpawnTable(file.Spawns), nil
}

func NewSpawnTable(rows []SpawnEntry) *SpawnTable {
	t := &SpawnTable{
		all:    rows,
		byGrid: make(map[gridKey][]SpawnEntry),
		byMap:  make(map[uint32][]SpawnEntry),
	}
	for _, s := range rows {
		t.byMap[s.MapID] = append(t.byMap[s.MapID], s)
		g := s.GridPair()
		if !g.IsValid() {
			continue
		}
		k := gridKey{mapID: s.MapID, grid: g}
		t.byGrid[k] = append(t.byGrid[k], s)
	}
	return t
}

// GridSpawns returns the rows of one grid.
func (t *SpawnTable) GridSpawns(ctx context.Context, mapID uint32, g grid.GridPair) ([]SpawnEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.byGrid[gridKey{mapID: mapID, grid: g}], nil
}

// ActiveSpawns returns the rows of mapID flagged active.
func (t *SpawnTable) ActiveSpawns(ctx context.Context, mapID uint32) ([]SpawnEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []SpawnEntry
	for _, s := range t.byMap[mapID] {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

// MapSpawns returns every row of mapID.
func (t *SpawnTable) MapSpawns(ctx context.Context, mapID uint32) ([]SpawnEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.byMap[mapID], nil
}

func (t *SpawnTable) All() []SpawnEntry { return t.all }
func (t *SpawnTable) Count() int        { return len(t.all) }
