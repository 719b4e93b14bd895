package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// MapType classifies a map entry.
type MapType string

const (
	MapContinent    MapType = "continent"
	MapDungeon      MapType = "dungeon"
	MapRaid         MapType = "raid"
	MapBattleGround MapType = "battleground"
)

// MapEntry is one row of map_list.yaml.
type MapEntry struct {
	MapID      uint32  `yaml:"map_id"`
	Name       string  `yaml:"name"`
	Type       MapType `yaml:"type"`
	MaxPlayers int     `yaml:"max_players"` // 0 = unlimited
	ResetDelay int64   `yaml:"reset_delay"` // seconds, dungeons only

	// unload the instance as soon as the last player leaves
	UnloadWhenEmpty bool `yaml:"unload_when_empty"`

	// where a ghost is sent when it releases inside an instance
	GhostEntranceMap uint32  `yaml:"ghost_entrance_map"`
	GhostEntranceX   float32 `yaml:"ghost_entrance_x"`
	GhostEntranceY   float32 `yaml:"ghost_entrance_y"`
}

func (e *MapEntry) Instanceable() bool   { return e.Type != MapContinent && e.Type != "" }
func (e *MapEntry) IsDungeon() bool      { return e.Type == MapDungeon || e.Type == MapRaid }
func (e *MapEntry) IsRaid() bool         { return e.Type == MapRaid }
func (e *MapEntry) IsBattleGround() bool { return e.Type == MapBattleGround }

type mapListFile struct {
	Maps []MapEntry `yaml:"maps"`
}

// MapTable holds map entries indexed by id.
type MapTable struct {
	maps map[uint32]*MapEntry
}

// LoadMapTable loads map entries from YAML.
func LoadMapTable(path string) (*MapTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", path, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}
	for _, e := range file.Maps {
		switch e.Type {
		case MapContinent, MapDungeon, MapRaid, MapBattleGround:
		default:
			return nil, fmt.Errorf("map %d: unknown type %q", e.MapID, e.Type)
		}
	}
	return NewMapTable(file.Maps...), nil
}

func NewMapTable(entries ...MapEntry) *MapTable {
	t := &MapTable{maps: make(map[uint32]*MapEntry, len(entries))}
	for i := range entries {
		e := entries[i]
		t.maps[e.MapID] = &e
	}
	return t
}

// Get returns the entry for mapID, or nil if not found.
func (t *MapTable) Get(mapID uint32) *MapEntry {
	return t.maps[mapID]
}

func (t *MapTable) Count() int {
	return len(t.maps)
}

// IDs returns every map id in ascending order.
func (t *MapTable) IDs() []uint32 {
	ids := make([]uint32, 0, len(t.maps))
	for id := range t.maps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
