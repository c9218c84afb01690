package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresTombstoneRepository records stored files whose deletion failed.
type PostgresTombstoneRepository struct {
	DB *sqlx.DB
}

// NewPostgresTombstoneRepository creates a repository over db.
func NewPostgresTombstoneRepository(db *sqlx.DB) *PostgresTombstoneRepository {
	return &PostgresTombstoneRepository{DB: db}
}

// Add records keys for a later retry. Keys already recorded are kept once.
func (r *PostgresTombstoneRepository) Add(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO file_tombstones (storage_key)
		SELECT unnest($1::text[])
		ON CONFLICT (storage_key) DO NOTHING
	`, pq.Array(keys))
	if err != nil {
		return fmt.Errorf("add tombstones: %w", err)
	}
	return nil
}
