package maps

import "github.com/l1jgo/mapcore/internal/object"

// minUnloadDelay is the smallest unload countdown, one tick.
const minUnloadDelay = 1

// Instance is what the map manager drives. World maps, dungeons and
// battlegrounds differ only in entry rules and unload policy.
type Instance interface {
	Base() *Map
	CanEnter(p *object.Player) error
	AddPlayer(p *object.Player) error
	RemovePlayer(p *object.Player)
	Update(diff int64)
	CanUnload(diff int64) bool
	UnloadAll(force bool)
}

var (
	_ Instance = (*Map)(nil)
	_ Instance = (*DungeonMap)(nil)
	_ Instance = (*BattleGroundMap)(nil)
)

// CanUnload counts the unload timer down and reports when it ran out. A
// zero timer means the map stays.
func (m *Map) CanUnload(diff int64) bool {
	if m.unloadTimer == 0 {
		return false
	}
	if diff >= m.unloadTimer {
		return true
	}
	m.unloadTimer -= diff
	return false
}

// UnloadTimer is the remaining unload countdown in ms, 0 when not set.
func (m *Map) UnloadTimer() int64 { return m.unloadTimer }
