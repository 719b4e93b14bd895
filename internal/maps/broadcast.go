package maps

import (
	"github.com/l1jgo/mapcore/internal/grid"
	"github.com/l1jgo/mapcore/internal/net/packet"
	"github.com/l1jgo/mapcore/internal/object"
)

func buildCreatePacket(obj object.Object) []byte {
	b := obj.Base()
	pos := b.Position()
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_OBJECT_CREATE)
	w.WriteQ(uint64(b.GUID()))
	w.WriteC(byte(b.Kind()))
	w.WriteF(pos.X)
	w.WriteF(pos.Y)
	w.WriteF(pos.Z)
	w.WriteF(pos.O)
	return w.Bytes()
}

func buildDestroyPacket(g object.GUID) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_OBJECT_DESTROY)
	w.WriteQ(uint64(g))
	return w.Bytes()
}

// canSee reports whether viewer should have obj spawned on its client.
func (m *Map) canSee(viewer *object.Player, obj object.Object) bool {
	b := obj.Base()
	if !viewer.IsInWorld() || !b.IsInWorld() || b.GUID() == viewer.GUID() {
		return false
	}
	return viewer.WithinDist2D(b, m.cfg.VisibilityDistance)
}

// updateVisibilityFor syncs one viewer's known set with obj, sending the
// create or destroy notice when it changes.
func (m *Map) updateVisibilityFor(viewer *object.Player, obj object.Object) {
	g := obj.Base().GUID()
	visible := m.canSee(viewer, obj)
	known := viewer.HaveAtClient(g)
	switch {
	case visible && !known:
		viewer.AddKnown(g)
		viewer.SendPacket(buildCreatePacket(obj))
	case !visible && known:
		viewer.RemoveKnown(g)
		viewer.SendPacket(buildDestroyPacket(g))
	}
}

// updatePlayerView rebuilds what p sees from the cells around it: new
// objects in range appear, known objects no longer in range disappear.
func (m *Map) updatePlayerView(p *object.Player) {
	current := make(map[object.GUID]struct{})
	if p.IsInWorld() {
		see := grid.VisitorFunc(func(e grid.Entity) {
			obj := e.(object.Object)
			if !m.canSee(p, obj) {
				return
			}
			g := obj.Base().GUID()
			current[g] = struct{}{}
			if !p.HaveAtClient(g) {
				p.AddKnown(g)
				p.SendPacket(buildCreatePacket(obj))
			}
		})
		m.VisitRadius(p.X(), p.Y(), m.cfg.VisibilityDistance, grid.GridObjects, true, see)
		m.VisitRadius(p.X(), p.Y(), m.cfg.VisibilityDistance, grid.WorldObjects, true, see)
	}
	p.EachKnown(func(g object.GUID) {
		if _, still := current[g]; !still {
			p.RemoveKnown(g)
			p.SendPacket(buildDestroyPacket(g))
		}
	})
}

// UpdateObjectVisibility refreshes every player's view of obj, and the
// view of obj itself when it is a player.
func (m *Map) UpdateObjectVisibility(obj object.Object) {
	if p, ok := obj.(*object.Player); ok {
		m.updatePlayerView(p)
	}
	for _, viewer := range m.players {
		m.updateVisibilityFor(viewer, obj)
	}
}

// AddUpdateObject queues obj for the batched object update at the end of
// the tick.
func (m *Map) AddUpdateObject(obj object.Object) {
	g := obj.Base().GUID()
	if _, ok := m.updateSet[g]; ok {
		return
	}
	m.updateSet[g] = struct{}{}
	m.updateObjects = append(m.updateObjects, obj)
}

// SendObjectUpdates sends each player one packet describing every queued
// object it has spawned, then clears the queue.
func (m *Map) SendObjectUpdates() {
	if len(m.updateObjects) == 0 {
		return
	}
	batches := make(map[*object.Player][]object.Object)
	var order []*object.Player
	for _, obj := range m.updateObjects {
		b := obj.Base()
		if !b.IsInWorld() || !m.objects.Has(b.GUID()) {
			continue
		}
		m.VisitRadius(b.X(), b.Y(), m.cfg.VisibilityDistance, grid.WorldObjects, true,
			grid.VisitKinds(grid.KindsOf(grid.KindPlayer), func(e grid.Entity) {
				p := e.(*object.Player)
				if !p.HaveAtClient(b.GUID()) {
					return
				}
				if _, seen := batches[p]; !seen {
					order = append(order, p)
				}
				batches[p] = append(batches[p], obj)
			}))
	}
	clear(m.updateSet)
	clear(m.updateObjects)
	m.updateObjects = m.updateObjects[:0]

	for _, p := range order {
		objs := batches[p]
		w := packet.NewWriterWithOpcode(packet.S_OPCODE_OBJECT_UPDATE)
		w.WriteH(uint16(len(objs)))
		for _, obj := range objs {
			pos := obj.Base().Position()
			w.WriteQ(uint64(obj.Base().GUID()))
			w.WriteF(pos.X)
			w.WriteF(pos.Y)
			w.WriteF(pos.Z)
			w.WriteF(pos.O)
		}
		p.SendPacket(w.Bytes())
	}
}

// MessageBroadcast sends data to every player in sight of obj that has it
// spawned, and to obj itself when toSelf is set.
func (m *Map) MessageBroadcast(obj object.Object, data []byte, toSelf bool) {
	m.MessageDistBroadcast(obj, data, m.cfg.VisibilityDistance, toSelf, false)
}

// MessageDistBroadcast is MessageBroadcast limited to dist. With
// ownTeamOnly set only players of the sender's team receive it.
func (m *Map) MessageDistBroadcast(obj object.Object, data []byte, dist float32, toSelf, ownTeamOnly bool) {
	b := obj.Base()
	sender, senderIsPlayer := obj.(*object.Player)
	if toSelf && senderIsPlayer {
		sender.SendPacket(data)
	}
	m.VisitRadius(b.X(), b.Y(), dist, grid.WorldObjects, true,
		grid.VisitKinds(grid.KindsOf(grid.KindPlayer), func(e grid.Entity) {
			p := e.(*object.Player)
			if p.GUID() == b.GUID() || !p.HaveAtClient(b.GUID()) || !p.WithinDist2D(b, dist) {
				return
			}
			if ownTeamOnly && senderIsPlayer && p.Team() != sender.Team() {
				return
			}
			p.SendPacket(data)
		}))
}

// SendText sends a system text line to every player in the map.
func (m *Map) SendText(text string) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_SYSTEM_TEXT)
	w.WriteS(text)
	data := w.Bytes()
	for _, p := range m.players {
		p.SendPacket(data)
	}
}
