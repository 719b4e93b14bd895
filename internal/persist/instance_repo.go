package persist

import (
	"context"
	"fmt"
)

type InstanceRepo struct {
	db *DB
}

func NewInstanceRepo(db *DB) *InstanceRepo {
	return &InstanceRepo{db: db}
}

// MaxInstanceID returns the highest stored instance id, 0 when none.
func (r *InstanceRepo) MaxInstanceID(ctx context.Context) (uint32, error) {
	var id int32
	if err := r.db.Pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM instance`).Scan(&id); err != nil {
		return 0, fmt.Errorf("max instance id: %w", err)
	}
	return uint32(id), nil
}

func (r *InstanceRepo) Insert(ctx context.Context, id, mapID uint32, resetAt int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO instance (id, map_id, reset_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET reset_at = EXCLUDED.reset_at`,
		int32(id), int32(mapID), resetAt,
	)
	return err
}

func (r *InstanceRepo) Delete(ctx context.Context, id uint32) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM instance WHERE id = $1`, int32(id))
	return err
}
