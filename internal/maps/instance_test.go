package maps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/mapcore/internal/data"
	"github.com/l1jgo/mapcore/internal/grid"
)

func newTestDungeon(env *testEnv, entry data.MapEntry) *DungeonMap {
	env.entry = &entry
	return NewDungeonMap(env.entry, 7, env.cfg, env.deps, env.log)
}

func TestDungeonPlayerCap(t *testing.T) {
	d := newTestDungeon(newTestEnv(), data.MapEntry{MapID: 33, Name: "Keep", Type: data.MapDungeon, MaxPlayers: 2})
	a, _ := newTestPlayer(1, 10, 10)
	b, _ := newTestPlayer(2, 12, 12)
	c, _ := newTestPlayer(3, 14, 14)

	require.NoError(t, d.AddPlayer(a))
	require.NoError(t, d.AddPlayer(b))
	assert.ErrorIs(t, d.CanEnter(c), ErrMapFull)
	assert.ErrorIs(t, d.AddPlayer(c), ErrMapFull)
	assert.Equal(t, 2, d.PlayerCount())

	id, ok := a.BoundInstance(33)
	require.True(t, ok)
	assert.Equal(t, uint32(7), id)
}

func TestDungeonUnloadTimer(t *testing.T) {
	tests := []struct {
		name            string
		unloadWhenEmpty bool
		delay           int64
		want            int64
	}{
		{"configured delay", false, 5000, 5000},
		{"unload when empty", true, 5000, 1},
		{"zero delay still unloads", false, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.cfg.InstanceUnloadDelay = tt.delay
			d := newTestDungeon(env, data.MapEntry{MapID: 33, Type: data.MapDungeon, UnloadWhenEmpty: tt.unloadWhenEmpty})
			p, _ := newTestPlayer(1, 10, 10)

			assert.False(t, d.CanUnload(100_000), "fresh instance has no timer")
			require.NoError(t, d.AddPlayer(p))
			d.RemovePlayer(p)
			assert.Equal(t, tt.want, d.UnloadTimer())

			require.NoError(t, d.AddPlayer(p))
			assert.Zero(t, d.UnloadTimer(), "re-entry cancels the unload")
		})
	}
}

func TestCanUnloadCountsDown(t *testing.T) {
	env := newTestEnv()
	d := newTestDungeon(env, data.MapEntry{MapID: 33, Type: data.MapDungeon})
	p, _ := newTestPlayer(1, 10, 10)
	require.NoError(t, d.AddPlayer(p))
	d.RemovePlayer(p)

	assert.False(t, d.CanUnload(2000))
	assert.Equal(t, int64(3000), d.UnloadTimer())
	assert.False(t, d.CanUnload(2999))
	assert.True(t, d.CanUnload(1))
}

func TestDungeonReset(t *testing.T) {
	env := newTestEnv(data.SpawnEntry{ID: 1, Kind: data.SpawnCreature, Entry: 100, MapID: 33, X: 50, Y: 50})
	d := newTestDungeon(env, data.MapEntry{MapID: 33, Type: data.MapDungeon, ResetDelay: 3600})
	assert.Equal(t, testNow.Unix()+3600, d.State().ResetTime())

	p, _ := newTestPlayer(1, 10, 10)
	require.NoError(t, d.AddPlayer(p))
	d.SetCreatureDead(findCreature(t, d.Map, 1))
	assert.False(t, d.Reset(), "players inside")

	d.RemovePlayer(p)
	require.True(t, d.Reset())
	assert.Zero(t, d.LoadedGridCount())
	assert.Zero(t, d.State().CreatureRespawnTime(1))

	d.State().SetCanReset(false)
	assert.False(t, d.Reset())
}

func TestBattleGroundEntryAndUnload(t *testing.T) {
	env := newTestEnv(data.SpawnEntry{ID: 1, Kind: data.SpawnCreature, Entry: 100, MapID: 30, X: 50, Y: 50})
	env.entry = &data.MapEntry{MapID: 30, Name: "Valley", Type: data.MapBattleGround}
	bg := NewBattleGroundMap(env.entry, 4, env.cfg, env.deps, env.log)

	p, _ := newTestPlayer(1, 10, 10)
	assert.ErrorIs(t, bg.AddPlayer(p), ErrWrongBattleGround)
	p.SetBattleGroundID(4)
	require.NoError(t, bg.AddPlayer(p))

	bg.SetCreatureDead(findCreature(t, bg.Map, 1))
	bg.RemovePlayer(p)
	for i := 0; i < 5; i++ {
		bg.Update(1000)
	}
	assert.NotNil(t, bg.Grid(32, 32), "battleground grids never unload on their own")
	assert.Equal(t, grid.StateActive, bg.Grid(32, 32).State())

	assert.False(t, bg.CanUnload(1))
	bg.SetUnload()
	assert.True(t, bg.CanUnload(1))

	bg.UnloadAll(true)
	assert.Zero(t, bg.State().PendingCount(), "battlegrounds never write respawn times")
}

func TestPersistentStateWrites(t *testing.T) {
	s := newPersistentState(1, 0, true)
	s.SaveCreatureRespawnTime(5, 100)
	s.SaveCreatureRespawnTime(5, 100)
	s.SaveGameObjectRespawnTime(6, 200)
	s.SaveGameObjectRespawnTime(9, 0)
	assert.Equal(t, 2, s.PendingCount(), "unchanged values and unknown deletes are dropped")

	s.ClearRespawnTimes()
	recs := s.DrainPending()
	require.Len(t, recs, 4)
	assert.Equal(t, RespawnRecord{MapID: 1, Kind: grid.KindCreature, SpawnID: 5}, recs[2])
	assert.Zero(t, s.CreatureRespawnTime(5))
	assert.Zero(t, s.PendingCount())

	quiet := newPersistentState(1, 2, false)
	quiet.SaveCreatureRespawnTime(5, 100)
	assert.Equal(t, int64(100), quiet.CreatureRespawnTime(5))
	assert.Zero(t, quiet.PendingCount())
	assert.False(t, quiet.WritesRespawns())
}
