package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// RespawnRow is one stored respawn time. RespawnAt 0 deletes the row.
type RespawnRow struct {
	MapID      uint32
	InstanceID uint32
	GameObject bool // false for creatures
	SpawnID    uint32
	RespawnAt  int64 // unix seconds
}

type RespawnRepo struct {
	db *DB
}

func NewRespawnRepo(db *DB) *RespawnRepo {
	return &RespawnRepo{db: db}
}

func respawnTable(gameObject bool) string {
	if gameObject {
		return "gameobject_respawn"
	}
	return "creature_respawn"
}

// Load returns the creature and game object respawn times of one instance.
func (r *RespawnRepo) Load(ctx context.Context, mapID, instanceID uint32) ([]RespawnRow, error) {
	var result []RespawnRow
	for _, gameObject := range []bool{false, true} {
		rows, err := r.db.Pool.Query(ctx,
			`SELECT spawn_id, respawn_at FROM `+respawnTable(gameObject)+`
			 WHERE map_id = $1 AND instance_id = $2`, int32(mapID), int32(instanceID),
		)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", respawnTable(gameObject), err)
		}
		for rows.Next() {
			var spawnID int32
			row := RespawnRow{MapID: mapID, InstanceID: instanceID, GameObject: gameObject}
			if err := rows.Scan(&spawnID, &row.RespawnAt); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan respawn: %w", err)
			}
			row.SpawnID = uint32(spawnID)
			result = append(result, row)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Save writes a batch of respawn changes in one transaction. Either every
// change lands or none does.
func (r *RespawnRepo) Save(ctx context.Context, changes []RespawnRow) error {
	if len(changes) == 0 {
		return nil
	}
	batch := buildRespawnBatch(changes)
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("respawn batch: %w", err)
		}
		return nil
	})
}

func buildRespawnBatch(changes []RespawnRow) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, c := range changes {
		table := respawnTable(c.GameObject)
		if c.RespawnAt == 0 {
			batch.Queue(`DELETE FROM `+table+` WHERE spawn_id = $1 AND instance_id = $2`,
				int32(c.SpawnID), int32(c.InstanceID))
			continue
		}
		batch.Queue(`INSERT INTO `+table+` (spawn_id, map_id, instance_id, respawn_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (spawn_id, instance_id) DO UPDATE SET respawn_at = EXCLUDED.respawn_at`,
			int32(c.SpawnID), int32(c.MapID), int32(c.InstanceID), c.RespawnAt)
	}
	return batch
}

// DeleteInstance drops every respawn time of a deleted instance.
func (r *RespawnRepo) DeleteInstance(ctx context.Context, mapID, instanceID uint32) error {
	batch := &pgx.Batch{}
	for _, gameObject := range []bool{false, true} {
		batch.Queue(`DELETE FROM `+respawnTable(gameObject)+` WHERE map_id = $1 AND instance_id = $2`,
			int32(mapID), int32(instanceID))
	}
	if err := r.db.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("delete instance respawns: %w", err)
	}
	return nil
}
