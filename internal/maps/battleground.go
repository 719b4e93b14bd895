package maps

import (
	"go.uber.org/zap"

	"github.com/l1jgo/mapcore/internal/data"
	"github.com/l1jgo/mapcore/internal/object"
)

// BattleGroundMap is one battleground instance. Its content is spawned by
// the battleground itself, so grids never unload and no respawn time is
// ever written.
type BattleGroundMap struct {
	*Map
}

func NewBattleGroundMap(entry *data.MapEntry, instanceID uint32, cfg Config, deps Deps, log *zap.Logger) *BattleGroundMap {
	b := &BattleGroundMap{Map: newMap(entry, instanceID, cfg, deps, log, false)}
	b.skipGridStates = true
	return b
}

// CanEnter only admits players assigned to this battleground.
func (b *BattleGroundMap) CanEnter(p *object.Player) error {
	if err := b.Map.CanEnter(p); err != nil {
		return err
	}
	if p.BattleGroundID() != b.instanceID {
		return ErrWrongBattleGround
	}
	return nil
}

func (b *BattleGroundMap) AddPlayer(p *object.Player) error {
	if err := b.CanEnter(p); err != nil {
		return err
	}
	b.addPlayer(p)
	return nil
}

// SetUnload marks the battleground as finished; the manager unloads it on
// its next round.
func (b *BattleGroundMap) SetUnload() {
	b.unloadTimer = minUnloadDelay
}
