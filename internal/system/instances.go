package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/mapcore/internal/core/event"
	"github.com/l1jgo/mapcore/internal/mapmgr"
)

const instanceWriteTimeout = 5 * time.Second

// InstanceRepo stores the dungeon instances handed out.
type InstanceRepo interface {
	Insert(ctx context.Context, id, mapID uint32, resetAt int64) error
	Delete(ctx context.Context, id uint32) error
}

// RespawnCleaner drops the respawn times of a deleted instance.
type RespawnCleaner interface {
	DeleteInstance(ctx context.Context, mapID, instanceID uint32) error
}

// SubscribeInstanceRecorder keeps the instance table in step with the map
// manager: new dungeon instances are recorded, deleted ones are dropped
// together with their respawn times.
func SubscribeInstanceRecorder(bus *event.Bus, mgr *mapmgr.Manager, instances InstanceRepo, respawns RespawnCleaner, log *zap.Logger) {
	event.Subscribe(bus, func(e event.MapCreated) {
		inst := mgr.FindMap(e.MapID, e.InstanceID)
		if inst == nil || !inst.Base().IsDungeon() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), instanceWriteTimeout)
		defer cancel()
		if err := instances.Insert(ctx, e.InstanceID, e.MapID, inst.Base().State().ResetTime()); err != nil {
			log.Error("instance not recorded", zap.Uint32("map", e.MapID), zap.Uint32("instance", e.InstanceID), zap.Error(err))
		}
	})
	event.Subscribe(bus, func(e event.InstanceDeleted) {
		ctx, cancel := context.WithTimeout(context.Background(), instanceWriteTimeout)
		defer cancel()
		if err := instances.Delete(ctx, e.InstanceID); err != nil {
			log.Error("instance not deleted", zap.Uint32("instance", e.InstanceID), zap.Error(err))
		}
		if respawns == nil {
			return
		}
		if err := respawns.DeleteInstance(ctx, e.MapID, e.InstanceID); err != nil {
			log.Error("instance respawns not deleted", zap.Uint32("instance", e.InstanceID), zap.Error(err))
		}
	})
}
