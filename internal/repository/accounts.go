package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/realtyhub/realtyhub/internal/models"
)

const accountColumns = `id, email, password_hash, role, name, phone, location, created_at, updated_at`

// PostgresAccountRepository stores accounts.
type PostgresAccountRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sqlx.DB
}

// NewPostgresAccountRepository creates a repository over db.
func NewPostgresAccountRepository(db *sqlx.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{DB: db}
}

// Create inserts a and fills its timestamps. A taken email is ErrConflict.
func (r *PostgresAccountRepository) Create(ctx context.Context, a *models.Account) error {
	err := r.DB.QueryRowxContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, role, name, phone, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, a.ID, a.Email, a.PasswordHash, string(a.Role), a.Name, a.Phone, a.Location).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	return translate("create account", err)
}

// GetByEmail looks an account up by its normalized email.
func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := r.DB.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	if err != nil {
		return nil, translate("get account by email", err)
	}
	return &a, nil
}

// GetByID looks an account up by id.
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := r.DB.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if err != nil {
		return nil, translate("get account", err)
	}
	return &a, nil
}

// List returns every account, newest first.
func (r *PostgresAccountRepository) List(ctx context.Context) ([]models.Account, error) {
	accounts := []models.Account{}
	err := r.DB.SelectContext(ctx, &accounts, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, translate("list accounts", err)
	}
	return accounts, nil
}

// Update writes every mutable field of a.
func (r *PostgresAccountRepository) Update(ctx context.Context, a *models.Account) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE accounts
		   SET email = $2, role = $3, name = $4, phone = $5, location = $6, updated_at = now()
		 WHERE id = $1
	`, a.ID, a.Email, string(a.Role), a.Name, a.Phone, a.Location)
	return expectOne(res, err, "update account")
}

// Delete removes the account. Listings, images, bookmarks, inquiries and
// chats go with it through foreign key cascades; the storage keys of the
// removed images are returned so the files can be cleaned up after commit.
func (r *PostgresAccountRepository) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	keys := []string{}
	if err := tx.SelectContext(ctx, &keys, `
		SELECT i.storage_key FROM images i
		JOIN listings l ON l.id = i.listing_id
		WHERE l.owner_id = $1
	`, id); err != nil {
		return nil, translate("collect account images", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err := expectOne(res, err, "delete account"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return keys, nil
}
