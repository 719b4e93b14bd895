package maps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/mapcore/internal/grid"
	"github.com/l1jgo/mapcore/internal/net/packet"
	"github.com/l1jgo/mapcore/internal/object"
)

func TestPlayersSeeEachOtherInRange(t *testing.T) {
	env := newTestEnv(creatureRow(1, 15, 15))
	m := env.newMap()
	a, sa := newTestPlayer(1, 10, 10)
	b, sb := newTestPlayer(2, 20, 20)
	require.NoError(t, m.AddPlayer(a))
	require.NoError(t, m.AddPlayer(b))
	mob := findCreature(t, m, 1)

	assert.True(t, a.HaveAtClient(b.GUID()))
	assert.True(t, b.HaveAtClient(a.GUID()))
	assert.True(t, a.HaveAtClient(mob.GUID()))
	assert.True(t, b.HaveAtClient(mob.GUID()))
	assert.False(t, a.HaveAtClient(a.GUID()))
	assert.Equal(t, 2, sa.count(packet.S_OPCODE_OBJECT_CREATE))
	assert.Equal(t, 2, sb.count(packet.S_OPCODE_OBJECT_CREATE))

	r := packet.NewReader(sb.packets[0])
	assert.Equal(t, byte(packet.S_OPCODE_OBJECT_CREATE), r.Opcode())
	guid := object.GUID(r.ReadQ())
	assert.True(t, guid == a.GUID() || guid == mob.GUID())

	sa.reset()
	sb.reset()
	require.NoError(t, m.PlayerRelocation(b, object.Position{X: 400, Y: 400}))
	assert.False(t, a.HaveAtClient(b.GUID()))
	assert.False(t, b.HaveAtClient(a.GUID()))
	assert.False(t, b.HaveAtClient(mob.GUID()))
	assert.Equal(t, 1, sa.count(packet.S_OPCODE_OBJECT_DESTROY))
	assert.Equal(t, 2, sb.count(packet.S_OPCODE_OBJECT_DESTROY))
}

func TestRemovedPlayerDisappears(t *testing.T) {
	m := newTestEnv().newMap()
	a, sa := newTestPlayer(1, 10, 10)
	b, _ := newTestPlayer(2, 20, 20)
	require.NoError(t, m.AddPlayer(a))
	require.NoError(t, m.AddPlayer(b))
	sa.reset()

	m.RemovePlayer(b)
	assert.False(t, a.HaveAtClient(b.GUID()))
	assert.Equal(t, 1, sa.count(packet.S_OPCODE_OBJECT_DESTROY))
	assert.Zero(t, b.KnownCount())
}

func TestObjectUpdatesAreBatchedPerPlayer(t *testing.T) {
	env := newTestEnv(creatureRow(1, 15, 15), creatureRow(2, 25, 25))
	m := env.newMap()
	a, sa := newTestPlayer(1, 10, 10)
	far, sf := newTestPlayer(2, 3000, 3000)
	require.NoError(t, m.AddPlayer(a))
	require.NoError(t, m.AddPlayer(far))
	sa.reset()
	sf.reset()

	m.SetCreatureDead(findCreature(t, m, 1))
	m.SetCreatureDead(findCreature(t, m, 2))
	m.AddUpdateObject(findCreature(t, m, 1))
	m.Update(1)

	require.Equal(t, 1, sa.count(packet.S_OPCODE_OBJECT_UPDATE))
	assert.Zero(t, sf.count(packet.S_OPCODE_OBJECT_UPDATE), "out of sight")
	r := packet.NewReader(sa.packets[0])
	assert.Equal(t, uint16(2), r.ReadH())

	m.Update(1)
	assert.Equal(t, 1, sa.count(packet.S_OPCODE_OBJECT_UPDATE), "queue is cleared after sending")
}

func TestMessageDistBroadcast(t *testing.T) {
	m := newTestEnv().newMap()
	speaker, ss := newTestPlayer(1, 0, 0)
	near, sn := newTestPlayer(2, 10, 0)
	mid, sm := newTestPlayer(3, 50, 0)
	enemy, se := newTestPlayer(4, 5, 5)
	speaker.SetTeam(object.TeamAlliance)
	near.SetTeam(object.TeamAlliance)
	mid.SetTeam(object.TeamAlliance)
	enemy.SetTeam(object.TeamHorde)
	for _, p := range []*object.Player{speaker, near, mid, enemy} {
		require.NoError(t, m.AddPlayer(p))
	}
	for _, s := range []*recordingSession{ss, sn, sm, se} {
		s.reset()
	}

	msg := []byte{packet.S_OPCODE_MESSAGE, 'h', 'i'}
	m.MessageDistBroadcast(speaker, msg, 20, true, true)
	assert.Equal(t, 1, ss.count(packet.S_OPCODE_MESSAGE))
	assert.Equal(t, 1, sn.count(packet.S_OPCODE_MESSAGE))
	assert.Zero(t, sm.count(packet.S_OPCODE_MESSAGE), "beyond the distance")
	assert.Zero(t, se.count(packet.S_OPCODE_MESSAGE), "other team")

	m.MessageBroadcast(speaker, msg, false)
	assert.Equal(t, 1, ss.count(packet.S_OPCODE_MESSAGE))
	assert.Equal(t, 2, sn.count(packet.S_OPCODE_MESSAGE))
	assert.Equal(t, 1, sm.count(packet.S_OPCODE_MESSAGE))
	assert.Equal(t, 1, se.count(packet.S_OPCODE_MESSAGE))
}

func TestPlayerRelocationAcrossGrids(t *testing.T) {
	m := newTestEnv().newMap()
	p, _ := newTestPlayer(1, 500, 10)
	require.NoError(t, m.AddPlayer(p))

	require.NoError(t, m.PlayerRelocation(p, object.Position{X: 510, Y: 10}))
	assert.Equal(t, uint32(32), p.CurrentCell().GridX())
	assert.Nil(t, m.Grid(33, 32), "moving within a grid loads nothing")

	require.NoError(t, m.PlayerRelocation(p, object.Position{X: 600, Y: 10}))
	g := m.Grid(33, 32)
	require.NotNil(t, g)
	assert.True(t, g.ObjectDataLoaded())
	assert.Equal(t, grid.StateActive, g.State())
	assert.Same(t, g, p.GridRef().Grid())
	assert.Zero(t, m.Grid(32, 32).ActiveObjectsInGrid())

	assert.ErrorIs(t, m.PlayerRelocation(p, object.Position{X: 1e7}), ErrInvalidCoordinates)
	assert.Equal(t, float32(600), p.X())
}

func TestCreatureRelocationRespectsUnloadedGrids(t *testing.T) {
	env := newTestEnv(creatureRow(1, 500, 10))
	m := env.newMap()
	p, _ := newTestPlayer(1, 450, 10)
	require.NoError(t, m.AddPlayer(p))
	c := findCreature(t, m, 1)
	ai := &countingAI{}
	c.SetAI(ai)

	require.NoError(t, m.CreatureRelocation(c, object.Position{X: 510, Y: 10}))
	assert.Equal(t, float32(510), c.X())

	require.NoError(t, m.CreatureRelocation(c, object.Position{X: 600, Y: 10}))
	assert.Nil(t, m.Grid(33, 32), "a plain creature never loads a grid")
	assert.Equal(t, c.Home(), c.Position(), "sent home instead")
	assert.Equal(t, 1, ai.homes)

	m.SetActiveObject(c, true)
	require.NoError(t, m.CreatureRelocation(c, object.Position{X: 600, Y: 10}))
	assert.NotNil(t, m.Grid(33, 32))
	assert.Equal(t, uint32(33), c.CurrentCell().GridX())
	assert.Zero(t, env.logs.FilterMessage("creature grid integrity mismatch").Len())
}
