package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CreatureTemplate holds static data for a creature entry.
type CreatureTemplate struct {
	Entry        uint32 `yaml:"entry"`
	Name         string `yaml:"name"`
	RespawnDelay int64  `yaml:"respawn_delay"` // seconds, used when a spawn row has none

	// always simulated, keeps its surroundings loaded (escorts, world bosses)
	Active bool `yaml:"active"`
}

// GameObjectTemplate holds static data for a game object entry.
type GameObjectTemplate struct {
	Entry        uint32 `yaml:"entry"`
	Name         string `yaml:"name"`
	RespawnDelay int64  `yaml:"respawn_delay"` // seconds
}

type creatureListFile struct {
	Creatures []CreatureTemplate `yaml:"creatures"`
}

type gameObjectListFile struct {
	GameObjects []GameObjectTemplate `yaml:"gameobjects"`
}

// Templates indexes creature and game object templates by entry.
type Templates struct {
	creatures   map[uint32]*CreatureTemplate
	gameObjects map[uint32]*GameObjectTemplate
}

func NewTemplates(creatures []CreatureTemplate, gameObjects []GameObjectTemplate) *Templates {
	t := &Templates{
		creatures:   make(map[uint32]*CreatureTemplate, len(creatures)),
		gameObjects: make(map[uint32]*GameObjectTemplate, len(gameObjects)),
	}
	for i := range creatures {
		t.creatures[creatures[i].Entry] = &creatures[i]
	}
	for i := range gameObjects {
		t.gameObjects[gameObjects[i].Entry] = &gameObjects[i]
	}
	return t
}

// LoadTemplates loads both template lists from YAML.
func LoadTemplates(creaturePath, gameObjectPath string) (*Templates, error) {
	var cf creatureListFile
	if err := readYAML(creaturePath, &cf); err != nil {
		return nil, fmt.Errorf("creature list: %w", err)
	}
	var gf gameObjectListFile
	if err := readYAML(gameObjectPath, &gf); err != nil {
		return nil, fmt.Errorf("gameobject list: %w", err)
	}
	return NewTemplates(cf.Creatures, gf.GameObjects), nil
}

// Creature looks up a creature template. A nil table knows no entries.
func (t *Templates) Creature(entry uint32) (*CreatureTemplate, bool) {
	if t == nil {
		return nil, false
	}
	c, ok := t.creatures[entry]
	return c, ok
}

func (t *Templates) GameObject(entry uint32) (*GameObjectTemplate, bool) {
	if t == nil {
		return nil, false
	}
	g, ok := t.gameObjects[entry]
	return g, ok
}

func (t *Templates) CreatureCount() int   { return len(t.creatures) }
func (t *Templates) GameObjectCount() int { return len(t.gameObjects) }

// RespawnDuration converts a seconds field to a duration.
func RespawnDuration(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}

func readYAML(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
