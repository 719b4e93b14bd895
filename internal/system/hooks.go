package system

import (
	"github.com/l1jgo/mapcore/internal/core/event"
	"github.com/l1jgo/mapcore/internal/mapmgr"
	"github.com/l1jgo/mapcore/internal/scripting"
)

// SubscribeScriptHooks forwards grid and map lifecycle events to the Lua
// hooks of the map they happened on. Handlers run during PreUpdate, when
// no map is updating. Unload hooks of whole maps run inside UnloadAll.
func SubscribeScriptHooks(bus *event.Bus, mgr *mapmgr.Manager) {
	event.Subscribe(bus, func(e event.GridLoaded) {
		if inst := mgr.FindMap(e.MapID, e.InstanceID); inst != nil {
			inst.Base().CallScriptHook(scripting.HookGridLoaded, e.GridX, e.GridY, e.Spawned)
		}
	})
	event.Subscribe(bus, func(e event.GridUnloaded) {
		if inst := mgr.FindMap(e.MapID, e.InstanceID); inst != nil {
			inst.Base().CallScriptHook(scripting.HookGridUnloaded, e.GridX, e.GridY)
		}
	})
	event.Subscribe(bus, func(e event.MapCreated) {
		if inst := mgr.FindMap(e.MapID, e.InstanceID); inst != nil {
			inst.Base().CallScriptHook(scripting.HookMapCreated)
		}
	})
}
