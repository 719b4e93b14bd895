package persist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/mapcore/internal/data"
)

func TestSpawnCopyRows(t *testing.T) {
	spawns := []data.SpawnEntry{
		{ID: 1, Kind: data.SpawnCreature, Entry: 100, MapID: 0, X: 50, Y: 50, RespawnDelay: 30, Active: true},
		{ID: 2, Kind: "dragon", Entry: 100, MapID: 0, X: 50, Y: 50},
		{ID: 3, Kind: data.SpawnGameObject, Entry: 200, MapID: 1, X: 99999, Y: 0},
		{ID: 4, Kind: data.SpawnGameObject, Entry: 200, MapID: 1, X: -600, Y: 10},
		{ID: 5, Kind: data.SpawnBones, Entry: 1, MapID: 0, X: 0, Y: 0},
	}
	rows, mapIDs, skipped := spawnCopyRows(spawns)

	assert.Equal(t, 2, skipped, "unknown kind and off-map position")
	require.Len(t, rows, 3)
	assert.Equal(t, []int32{0, 1}, mapIDs)
	require.Len(t, rows[0], len(spawnColumns))

	g := spawns[0].GridPair()
	assert.Equal(t, []any{
		int32(1), data.SpawnCreature, int32(100), int32(0), int16(g.X), int16(g.Y),
		float32(50), float32(50), float32(0), float32(0), int32(30), true,
	}, rows[0])
	assert.Equal(t, int32(4), rows[1][0])
}

func TestRespawnBatch(t *testing.T) {
	batch := buildRespawnBatch([]RespawnRow{
		{MapID: 1, SpawnID: 5, RespawnAt: 1_700_000_060},
		{MapID: 33, InstanceID: 7, GameObject: true, SpawnID: 6, RespawnAt: 1_700_000_090},
		{MapID: 1, SpawnID: 9},
	})
	require.Equal(t, 3, batch.Len())

	upsert := batch.QueuedQueries[0]
	assert.True(t, strings.HasPrefix(upsert.SQL, "INSERT INTO creature_respawn"))
	assert.Equal(t, []any{int32(5), int32(1), int32(0), int64(1_700_000_060)}, upsert.Arguments)

	assert.True(t, strings.HasPrefix(batch.QueuedQueries[1].SQL, "INSERT INTO gameobject_respawn"))

	del := batch.QueuedQueries[2]
	assert.True(t, strings.HasPrefix(del.SQL, "DELETE FROM creature_respawn"))
	assert.Equal(t, []any{int32(9), int32(0)}, del.Arguments)
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := MigrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "00001_init.sql", names[0])

	sql, err := migrations.ReadFile("migrations/" + names[0])
	require.NoError(t, err)
	for _, table := range []string{"world_spawn", "creature_respawn", "gameobject_respawn", "instance"} {
		assert.Contains(t, string(sql), "CREATE TABLE "+table+" (")
	}
}
