package maps

import (
	"go.uber.org/zap"

	"github.com/l1jgo/mapcore/internal/data"
	"github.com/l1jgo/mapcore/internal/grid"
	"github.com/l1jgo/mapcore/internal/object"
)

// DungeonMap is one instance of a dungeon or raid.
type DungeonMap struct {
	*Map
}

func NewDungeonMap(entry *data.MapEntry, instanceID uint32, cfg Config, deps Deps, log *zap.Logger) *DungeonMap {
	d := &DungeonMap{Map: newMap(entry, instanceID, cfg, deps, log, true)}
	d.scheduleReset()
	return d
}

func (d *DungeonMap) scheduleReset() {
	if d.entry.ResetDelay > 0 {
		d.state.SetResetTime(d.now().Unix() + d.entry.ResetDelay)
	}
}

// CanEnter adds the player cap to the base checks.
func (d *DungeonMap) CanEnter(p *object.Player) error {
	if err := d.Map.CanEnter(p); err != nil {
		return err
	}
	if limit := d.entry.MaxPlayers; limit > 0 && d.PlayerCount() >= limit {
		return ErrMapFull
	}
	return nil
}

// AddPlayer binds p to this instance and cancels a pending unload.
func (d *DungeonMap) AddPlayer(p *object.Player) error {
	if err := d.CanEnter(p); err != nil {
		return err
	}
	if bound, ok := p.BoundInstance(d.id); !ok || bound != d.instanceID {
		p.BindToInstance(d.id, d.instanceID)
	}
	d.unloadTimer = 0
	d.addPlayer(p)
	return nil
}

// RemovePlayer starts the unload countdown when the last player leaves.
func (d *DungeonMap) RemovePlayer(p *object.Player) {
	d.Map.RemovePlayer(p)
	if d.unloadTimer != 0 || d.HavePlayers() {
		return
	}
	if d.entry.UnloadWhenEmpty {
		d.unloadTimer = minUnloadDelay
	} else {
		d.unloadTimer = max(d.cfg.InstanceUnloadDelay, minUnloadDelay)
	}
	d.log.Debug("dungeon empty, unload scheduled", zap.Int64("delay_ms", d.unloadTimer))
}

// Reset unloads every grid and forgets respawn times so the next visitor
// finds a fresh instance. It refuses while players are inside.
func (d *DungeonMap) Reset() bool {
	if d.HavePlayers() || !d.state.CanReset() {
		return false
	}
	for x := uint32(0); x < grid.MaxGrids; x++ {
		for y := uint32(0); y < grid.MaxGrids; y++ {
			if d.grids[x][y] != nil {
				d.UnloadGrid(x, y, true)
			}
		}
	}
	d.state.ClearRespawnTimes()
	d.scheduleReset()
	d.log.Info("dungeon reset")
	return true
}
