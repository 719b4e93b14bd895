package object

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/mapcore/internal/grid"
)

func TestGuidGenerator(t *testing.T) {
	gen := NewGuidGenerator(HighUnit)
	a, err := gen.Generate()
	require.NoError(t, err)
	b, err := gen.Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, HighUnit, a.High())
	assert.Equal(t, uint32(1), a.Low())
	assert.Equal(t, "creature:2", b.String())

	gen.Set(500)
	c, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, uint32(501), c.Low())

	gen.Set(10)
	d, _ := gen.Generate()
	assert.Equal(t, uint32(502), d.Low(), "Set never moves the counter back")

	gen.Set(math.MaxUint32)
	_, err = gen.Generate()
	assert.ErrorIs(t, err, ErrGuidExhausted)
}

func TestEntitiesReportKinds(t *testing.T) {
	pos := Position{X: 1, Y: 2}
	tests := []struct {
		obj      Object
		kind     grid.Kind
		isActive bool
	}{
		{NewPlayer(NewGUID(HighPlayer, 1), "Ayla", pos, nil), grid.KindPlayer, true},
		{NewCreature(NewGUID(HighUnit, 1), 10, 100, pos, time.Minute), grid.KindCreature, false},
		{NewGameObject(NewGUID(HighGameObject, 1), 11, 200, pos, time.Minute), grid.KindGameObject, false},
		{NewDynamicObject(NewGUID(HighDynamicObject, 1), 0, pos, 5, 1000), grid.KindDynamicObject, false},
		{NewCorpse(NewGUID(HighCorpse, 1), 0, pos, true), grid.KindCorpse, false},
		{NewCamera(NewGUID(HighCamera, 1), 0, pos), grid.KindCamera, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.obj.Kind())
		assert.Equal(t, tt.isActive, tt.obj.IsActiveObject(), tt.kind.String())
		assert.Same(t, tt.obj.Base().GridRef(), tt.obj.GridRef())
	}
}

type recordingAI struct {
	updates, stops, homes int
}

func (a *recordingAI) Update(*Creature, int64) { a.updates++ }
func (a *recordingAI) Stop(*Creature)          { a.stops++ }
func (a *recordingAI) MoveToRespawn(*Creature) { a.homes++ }

func TestCreatureDeathAndRespawn(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ai := &recordingAI{}
	c := NewCreature(NewGUID(HighUnit, 7), 42, 100, Position{X: 5, Y: 5}, 30*time.Second)
	c.SetAI(ai)

	c.Update(100)
	assert.Equal(t, 1, ai.updates)

	c.SetInCombat(true)
	c.SetDead(now)
	assert.True(t, c.IsDead())
	assert.False(t, c.IsInCombat())
	assert.Equal(t, now.Unix()+30, c.RespawnAt())

	c.Update(29_000)
	assert.False(t, c.RespawnDue())
	assert.Equal(t, 1, ai.updates, "dead creatures do not think")
	c.Update(1_000)
	assert.True(t, c.RespawnDue())

	c.Respawn()
	assert.False(t, c.IsDead())
	assert.Zero(t, c.RespawnAt())

	c.Stop()
	c.MoveToRespawn()
	assert.Equal(t, 1, ai.stops)
	assert.Equal(t, 1, ai.homes)
}

func TestCreatureLoadDead(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewCreature(NewGUID(HighUnit, 1), 1, 1, Position{}, time.Minute)

	c.LoadDead(now.Unix()-5, now)
	assert.False(t, c.IsDead(), "respawn time already passed")

	c.LoadDead(now.Unix()+10, now)
	require.True(t, c.IsDead())
	c.Update(9_999)
	assert.False(t, c.RespawnDue())
	c.Update(1)
	assert.True(t, c.RespawnDue())
}

func TestGameObjectDespawn(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	g := NewGameObject(NewGUID(HighGameObject, 1), 3, 9, Position{}, 2*time.Second)
	require.True(t, g.IsSpawned())

	g.Despawn(now)
	assert.False(t, g.IsSpawned())
	assert.Equal(t, now.Unix()+2, g.RespawnAt())
	g.Update(2_000)
	assert.True(t, g.RespawnDue())
	g.Respawn()
	assert.True(t, g.IsSpawned())
}

func TestPlayerKnownSetAndBinds(t *testing.T) {
	p := NewPlayer(NewGUID(HighPlayer, 1), "Bren", Position{}, nil)
	mob := NewGUID(HighUnit, 3)

	p.AddKnown(mob)
	assert.True(t, p.HaveAtClient(mob))
	p.EachKnown(func(g GUID) { p.RemoveKnown(g) })
	assert.Zero(t, p.KnownCount())

	_, ok := p.BoundInstance(33)
	assert.False(t, ok)
	p.BindToInstance(33, 7)
	id, ok := p.BoundInstance(33)
	assert.True(t, ok)
	assert.Equal(t, uint32(7), id)

	p.SendPacket([]byte{1}) // no session attached
}

func TestStoreFind(t *testing.T) {
	s := NewStore()
	c := NewCreature(NewGUID(HighUnit, 1), 1, 1, Position{}, 0)
	s.Insert(c)

	got, ok := Find[*Creature](s, c.GUID())
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = Find[*Player](s, c.GUID())
	assert.False(t, ok, "wrong concrete type")

	s.Remove(c.GUID())
	assert.Zero(t, s.Len())
}

func TestWorldObjectHelpers(t *testing.T) {
	a := NewCamera(NewGUID(HighCamera, 1), 0, Position{X: 0, Y: 0})
	b := NewCamera(NewGUID(HighCamera, 2), 0, Position{X: 3, Y: 4})
	assert.InDelta(t, 5, a.Position().Dist2D(b.Position()), 1e-6)
	assert.True(t, a.WithinDist2D(&b.WorldObject, 5))
	assert.False(t, a.WithinDist2D(&b.WorldObject, 4.9))

	assert.True(t, a.MarkUpdated(1))
	assert.False(t, a.MarkUpdated(1))
	assert.True(t, a.MarkUpdated(2))

	assert.False(t, Position{X: float32(math.NaN())}.IsValid())
}
