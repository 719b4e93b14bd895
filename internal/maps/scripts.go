package maps

import (
	"container/heap"

	"go.uber.org/zap"

	"github.com/l1jgo/mapcore/internal/grid"
	"github.com/l1jgo/mapcore/internal/object"
)

type scheduledScript struct {
	at     int64  // map script clock, ms
	seq    uint64 // insertion order for equal times
	fn     string
	source object.GUID
	target object.GUID
}

// scriptQueue is a min-heap on (at, seq).
type scriptQueue []*scheduledScript

func (q scriptQueue) Len() int { return len(q) }

func (q scriptQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q scriptQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *scriptQueue) Push(x any) { *q = append(*q, x.(*scheduledScript)) }

func (q *scriptQueue) Pop() any {
	old := *q
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return s
}

// ScriptCommandStart schedules the script function fn to run delay ms
// from now with the given source and target objects.
func (m *Map) ScriptCommandStart(fn string, delay int64, source, target object.GUID) {
	m.scriptSeq++
	heap.Push(&m.scripts, &scheduledScript{
		at:     m.scriptClock + max(delay, 0),
		seq:    m.scriptSeq,
		fn:     fn,
		source: source,
		target: target,
	})
}

// ScheduledScripts is the number of script commands waiting to run.
func (m *Map) ScheduledScripts() int { return m.scripts.Len() }

// ScriptsProcess runs every due script command in time order.
func (m *Map) ScriptsProcess() {
	for m.scripts.Len() > 0 && m.scripts[0].at <= m.scriptClock {
		s := heap.Pop(&m.scripts).(*scheduledScript)
		if !s.source.IsEmpty() && !m.objects.Has(s.source) {
			m.log.Warn("script source gone", zap.String("fn", s.fn), zap.Stringer("source", s.source))
			continue
		}
		if !s.target.IsEmpty() && !m.objects.Has(s.target) {
			m.log.Warn("script target gone", zap.String("fn", s.fn), zap.Stringer("target", s.target))
			continue
		}
		if m.vm == nil {
			m.log.Warn("script command without scripts loaded", zap.String("fn", s.fn))
			continue
		}
		if err := m.vm.Call(s.fn, uint64(s.source), uint64(s.target)); err != nil {
			m.log.Error("script command failed", zap.String("fn", s.fn), zap.Error(err))
		}
	}
}

// CallScriptHook runs an optional script hook with args.
func (m *Map) CallScriptHook(name string, args ...any) {
	if m.vm == nil {
		return
	}
	if err := m.vm.CallHook(name, args...); err != nil {
		m.log.Error("script hook failed", zap.String("hook", name), zap.Error(err))
	}
}

// Close releases the map's script state.
func (m *Map) Close() {
	if m.vm != nil {
		m.vm.Close()
		m.vm = nil
	}
}

// scriptAPI is the map as seen from its scripts.
type scriptAPI struct {
	m *Map
}

func (a scriptAPI) MapID() uint32      { return a.m.id }
func (a scriptAPI) InstanceID() uint32 { return a.m.instanceID }
func (a scriptAPI) PlayerCount() int   { return a.m.PlayerCount() }

func (a scriptAPI) SetUnloadLock(gx, gy uint32, on bool) bool {
	return a.m.SetUnloadLock(grid.GridPair{X: gx, Y: gy}, on)
}

func (a scriptAPI) ForceLoad(x, y float32) bool { return a.m.ForceLoadGrid(x, y) }

func (a scriptAPI) RemoveObject(guid uint64) bool {
	obj, ok := a.m.objects.Get(object.GUID(guid))
	if !ok {
		return false
	}
	if _, isPlayer := obj.(*object.Player); isPlayer {
		return false
	}
	a.m.AddObjectToRemoveList(obj)
	return true
}

func (a scriptAPI) Say(text string) { a.m.SendText(text) }

func (a scriptAPI) Schedule(fn string, delay int64, source, target uint64) {
	a.m.ScriptCommandStart(fn, delay, object.GUID(source), object.GUID(target))
}
