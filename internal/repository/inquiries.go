package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/realtyhub/realtyhub/internal/models"
)

// PostgresInquiryRepository stores inquiries.
type PostgresInquiryRepository struct {
	DB *sqlx.DB
}

// NewPostgresInquiryRepository creates a repository over db.
func NewPostgresInquiryRepository(db *sqlx.DB) *PostgresInquiryRepository {
	return &PostgresInquiryRepository{DB: db}
}

// Create inserts q.
func (r *PostgresInquiryRepository) Create(ctx context.Context, q *models.Inquiry) error {
	err := r.DB.QueryRowxContext(ctx, `
		INSERT INTO inquiries (id, account_id, listing_id, message) VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, q.ID, q.AccountID, q.ListingID, q.Message).Scan(&q.CreatedAt)
	return translate("create inquiry", err)
}

// ListByAccount returns the account's inquiries with listing titles, newest first.
func (r *PostgresInquiryRepository) ListByAccount(ctx context.Context, accountID string) ([]models.Inquiry, error) {
	inquiries := []models.Inquiry{}
	err := r.DB.SelectContext(ctx, &inquiries, `
		SELECT q.id, q.account_id, q.listing_id, q.message, q.created_at, l.title AS listing_title
		FROM inquiries q
		JOIN listings l ON l.id = q.listing_id
		WHERE q.account_id = $1
		ORDER BY q.created_at DESC
	`, accountID)
	if err != nil {
		return nil, translate("list inquiries", err)
	}
	return inquiries, nil
}
