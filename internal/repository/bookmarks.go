package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/realtyhub/realtyhub/internal/models"
)

// PostgresBookmarkRepository stores bookmarks.
type PostgresBookmarkRepository struct {
	// DB is the database handle for executing queries.
	DB *sqlx.DB
}

// NewPostgresBookmarkRepository creates a repository over db.
func NewPostgresBookmarkRepository(db *sqlx.DB) *PostgresBookmarkRepository {
	return &PostgresBookmarkRepository{DB: db}
}

// Add inserts b. The (account, listing) unique constraint turns a second
// insert of the same pair into ErrConflict, even under concurrent requests.
func (r *PostgresBookmarkRepository) Add(ctx context.Context, b *models.Bookmark) error {
	err := r.DB.QueryRowxContext(ctx, `
		INSERT INTO bookmarks (id, account_id, listing_id) VALUES ($1, $2, $3)
		RETURNING created_at
	`, b.ID, b.AccountID, b.ListingID).Scan(&b.CreatedAt)
	return translate("add bookmark", err)
}

// Remove deletes the bookmark of accountID on listingID if any.
func (r *PostgresBookmarkRepository) Remove(ctx context.Context, accountID, listingID string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE account_id = $1 AND listing_id = $2`, accountID, listingID)
	if err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}

// ListByAccount returns the account's bookmarks, newest first.
func (r *PostgresBookmarkRepository) ListByAccount(ctx context.Context, accountID string) ([]models.Bookmark, error) {
	bookmarks := []models.Bookmark{}
	err := r.DB.SelectContext(ctx, &bookmarks, `
		SELECT id, account_id, listing_id, created_at FROM bookmarks
		WHERE account_id = $1
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, translate("list bookmarks", err)
	}
	return bookmarks, nil
}
