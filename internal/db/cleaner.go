package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// tombstoneBatch bounds the number of files retried per sweep.
const tombstoneBatch = 100

// FileDeleter removes a stored file by key.
type FileDeleter interface {
	Delete(ctx context.Context, key string) error
}

// StartFileTombstoneCleaner retries deletion of stored files recorded in
// file_tombstones every interval until ctx is cancelled.
func StartFileTombstoneCleaner(
	ctx context.Context,
	db *sqlx.DB,
	files FileDeleter,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := SweepFileTombstones(ctx, db, files, log)
				if err != nil {
					log.Error("failed to sweep file tombstones", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("removed orphaned files", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// SweepFileTombstones deletes one batch of tombstoned files and drops the
// rows of those that were removed. Files that still fail stay recorded and
// move behind the ones not tried as recently, so a batch of permanently
// failing keys cannot starve newer tombstones.
func SweepFileTombstones(ctx context.Context, db *sqlx.DB, files FileDeleter, log *zap.Logger) (int, error) {
	var keys []string
	err := db.SelectContext(ctx, &keys, `
		SELECT storage_key FROM file_tombstones
		ORDER BY last_attempt_at NULLS FIRST, created_at
		LIMIT $1
	`, tombstoneBatch)
	if err != nil {
		return 0, fmt.Errorf("list tombstones: %w", err)
	}

	done := make([]string, 0, len(keys))
	var failed []string
	for _, key := range keys {
		if err := files.Delete(ctx, key); err != nil {
			log.Warn("file still not deletable", zap.String("key", key), zap.Error(err))
			failed = append(failed, key)
			continue
		}
		done = append(done, key)
	}

	if len(done) > 0 {
		if _, err := db.ExecContext(ctx, `
			DELETE FROM file_tombstones WHERE storage_key = ANY($1)
		`, pq.Array(done)); err != nil {
			return 0, fmt.Errorf("drop tombstones: %w", err)
		}
	}
	if len(failed) > 0 {
		if _, err := db.ExecContext(ctx, `
			UPDATE file_tombstones SET attempts = attempts + 1, last_attempt_at = now()
			WHERE storage_key = ANY($1)
		`, pq.Array(failed)); err != nil {
			return len(done), fmt.Errorf("mark tombstones: %w", err)
		}
	}
	return len(done), nil
}
