package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/l1jgo/mapcore/internal/data"
	"github.com/l1jgo/mapcore/internal/grid"
)

var spawnColumns = []string{
	"id", "kind", "entry", "map_id", "grid_x", "grid_y", "x", "y", "z", "o", "respawn_delay", "active",
}

const spawnSelect = `SELECT id, kind, entry, map_id, x, y, z, o, respawn_delay, active FROM world_spawn`

// SpawnRepo reads static spawn points. It serves both the per-grid loads
// of a map and the force-load queries of the map manager.
type SpawnRepo struct {
	db *DB
}

func NewSpawnRepo(db *DB) *SpawnRepo {
	return &SpawnRepo{db: db}
}

// GridSpawns returns the spawns of one grid, in id order.
func (r *SpawnRepo) GridSpawns(ctx context.Context, mapID uint32, g grid.GridPair) ([]data.SpawnEntry, error) {
	return r.query(ctx, spawnSelect+` WHERE map_id = $1 AND grid_x = $2 AND grid_y = $3 ORDER BY id`,
		mapID, int16(g.X), int16(g.Y))
}

// ActiveSpawns returns the spawns of mapID flagged active.
func (r *SpawnRepo) ActiveSpawns(ctx context.Context, mapID uint32) ([]data.SpawnEntry, error) {
	return r.query(ctx, spawnSelect+` WHERE map_id = $1 AND active ORDER BY id`, mapID)
}

// MapSpawns returns every spawn of mapID.
func (r *SpawnRepo) MapSpawns(ctx context.Context, mapID uint32) ([]data.SpawnEntry, error) {
	return r.query(ctx, spawnSelect+` WHERE map_id = $1 ORDER BY id`, mapID)
}

func (r *SpawnRepo) query(ctx context.Context, sql string, args ...any) ([]data.SpawnEntry, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query spawns: %w", err)
	}
	defer rows.Close()

	var result []data.SpawnEntry
	for rows.Next() {
		var (
			s            data.SpawnEntry
			id, entry    int32
			mapID, delay int32
		)
		if err := rows.Scan(&id, &s.Kind, &entry, &mapID, &s.X, &s.Y, &s.Z, &s.O, &delay, &s.Active); err != nil {
			return nil, fmt.Errorf("scan spawn: %w", err)
		}
		s.ID, s.Entry, s.MapID, s.RespawnDelay = uint32(id), uint32(entry), uint32(mapID), int64(delay)
		result = append(result, s)
	}
	return result, rows.Err()
}

// Import replaces every spawn of the maps present in spawns. Rows off the
// map are skipped and counted.
func (r *SpawnRepo) Import(ctx context.Context, spawns []data.SpawnEntry) (imported int64, skipped int, err error) {
	rows, mapIDs, skipped := spawnCopyRows(spawns)

	err = r.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM world_spawn WHERE map_id = ANY($1)`, mapIDs); err != nil {
			return fmt.Errorf("clear spawns: %w", err)
		}
		imported, err = tx.CopyFrom(ctx, pgx.Identifier{"world_spawn"}, spawnColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy spawns: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, skipped, fmt.Errorf("import spawns: %w", err)
	}
	return imported, skipped, nil
}

// spawnCopyRows turns spawns into world_spawn rows with their grid
// precomputed, and lists the maps they touch.
func spawnCopyRows(spawns []data.SpawnEntry) (rows [][]any, mapIDs []int32, skipped int) {
	seen := make(map[uint32]bool)
	for i := range spawns {
		s := &spawns[i]
		if _, ok := s.GridKind(); !ok || !grid.IsValidMapCoordXY(s.X, s.Y) {
			skipped++
			continue
		}
		g := s.GridPair()
		rows = append(rows, []any{
			int32(s.ID), s.Kind, int32(s.Entry), int32(s.MapID), int16(g.X), int16(g.Y),
			s.X, s.Y, s.Z, s.O, int32(s.RespawnDelay), s.Active,
		})
		if !seen[s.MapID] {
			seen[s.MapID] = true
			mapIDs = append(mapIDs, int32(s.MapID))
		}
	}
	return rows, mapIDs, skipped
}
