package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/realtyhub/realtyhub/internal/models"
)

var listingFields = []string{
	"id", "owner_id", "title", "description", "price", "address", "area", "city",
	"district", "division", "type", "category", "contact_info", "status",
	"is_featured", "created_at", "updated_at",
}

// listingColumns returns the listing column list, qualified by alias when set.
func listingColumns(alias string) string {
	if alias == "" {
		return strings.Join(listingFields, ", ")
	}
	cols := make([]string, len(listingFields))
	for i, f := range listingFields {
		cols[i] = alias + "." + f
	}
	return strings.Join(cols, ", ")
}

const imageColumns = `id, listing_id, storage_key, url, created_at`

// DefaultPageSize and MaxPageSize bound catalogue queries.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// PostgresListingRepository stores listings and their images.
type PostgresListingRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sqlx.DB
}

// NewPostgresListingRepository creates a repository over db.
func NewPostgresListingRepository(db *sqlx.DB) *PostgresListingRepository {
	return &PostgresListingRepository{DB: db}
}

// Create inserts l and its images in one transaction.
func (r *PostgresListingRepository) Create(ctx context.Context, l *models.Listing) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO listings (id, owner_id, title, description, price, address, area, city,
		                      district, division, type, category, contact_info, status, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`, l.ID, l.OwnerID, l.Title, l.Description, l.Price, l.Address, l.Area, l.City,
		l.District, l.Division, l.Type, l.Category, l.ContactInfo, string(l.Status), l.Featured).
		Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return translate("insert listing", err)
	}

	if err := insertImages(ctx, tx, l.Images); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID returns the listing with its images regardless of status.
func (r *PostgresListingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	err := r.DB.GetContext(ctx, &l, `SELECT `+listingColumns("")+` FROM listings WHERE id = $1`, id)
	if err != nil {
		return nil, translate("get listing", err)
	}
	listings := []models.Listing{l}
	if err := loadImages(ctx, r.DB, listings); err != nil {
		return nil, err
	}
	return &listings[0], nil
}

// Search returns listings matching f, newest first, with images.
func (r *PostgresListingRepository) Search(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	query, args := buildSearch(f)
	listings := []models.Listing{}
	if err := r.DB.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, translate("search listings", err)
	}
	if err := loadImages(ctx, r.DB, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// buildSearch renders the catalogue query for f.
func buildSearch(f models.ListingFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.OwnerID != "" {
		add("owner_id = $%d", f.OwnerID)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		add("(address ILIKE $%[1]d OR area ILIKE $%[1]d OR city ILIKE $%[1]d OR district ILIKE $%[1]d OR division ILIKE $%[1]d)",
			containsPattern(loc))
	}
	if f.MinPrice != nil {
		add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= $%d", *f.MaxPrice)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Featured != nil {
		add("is_featured = $%d", *f.Featured)
	}

	var b strings.Builder
	b.WriteString("SELECT " + listingColumns("") + " FROM listings")
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	fmt.Fprintf(&b, " ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}

// SuggestFromBookmarks returns approved listings sharing a type or category
// with the account's bookmarks that the account has not bookmarked yet.
func (r *PostgresListingRepository) SuggestFromBookmarks(ctx context.Context, accountID string, limit int) ([]models.Listing, error) {
	listings := []models.Listing{}
	err := r.DB.SelectContext(ctx, &listings, `
		SELECT `+listingColumns("l")+` FROM listings l
		WHERE l.status = 'approved'
		  AND l.id NOT IN (SELECT listing_id FROM bookmarks WHERE account_id = $1)
		  AND EXISTS (
		      SELECT 1 FROM bookmarks b
		      JOIN listings bl ON bl.id = b.listing_id
		      WHERE b.account_id = $1
		        AND (bl.type = l.type OR (bl.category <> '' AND bl.category = l.category))
		  )
		ORDER BY l.created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, translate("suggest listings", err)
	}
	if err := loadImages(ctx, r.DB, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// ListByIDs returns the listings with the given ids, with images, in no
// particular order.
func (r *PostgresListingRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Listing, error) {
	listings := []models.Listing{}
	if len(ids) == 0 {
		return listings, nil
	}
	err := r.DB.SelectContext(ctx, &listings,
		`SELECT `+listingColumns("")+` FROM listings WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, translate("list listings by id", err)
	}
	if err := loadImages(ctx, r.DB, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// Update writes the mutable fields of l. When newImages is not empty it
// replaces the listing's images and returns the removed ones, whose files
// the caller deletes after this returns.
func (r *PostgresListingRepository) Update(ctx context.Context, l *models.Listing, newImages []models.Image) ([]models.Image, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, `
		UPDATE listings
		   SET title = $2, description = $3, price = $4, address = $5, area = $6, city = $7,
		       district = $8, division = $9, type = $10, category = $11, contact_info = $12,
		       status = $13, is_featured = $14, updated_at = now()
		 WHERE id = $1
		RETURNING updated_at
	`, l.ID, l.Title, l.Description, l.Price, l.Address, l.Area, l.City,
		l.District, l.Division, l.Type, l.Category, l.ContactInfo, string(l.Status), l.Featured).
		Scan(&l.UpdatedAt)
	if err != nil {
		return nil, translate("update listing", err)
	}

	var removed []models.Image
	if len(newImages) > 0 {
		if err := tx.SelectContext(ctx, &removed,
			`DELETE FROM images WHERE listing_id = $1 RETURNING `+imageColumns, l.ID); err != nil {
			return nil, translate("remove images", err)
		}
		if err := insertImages(ctx, tx, newImages); err != nil {
			return nil, err
		}
		l.Images = newImages
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return removed, nil
}

// UpdateStatus sets the moderation status of a listing.
func (r *PostgresListingRepository) UpdateStatus(ctx context.Context, id string, status models.ListingStatus) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE listings SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	return expectOne(res, err, "update listing status")
}

// Delete removes the listing and its image rows and returns the removed
// images so their files can be deleted after commit.
func (r *PostgresListingRepository) Delete(ctx context.Context, id string) ([]models.Image, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var removed []models.Image
	if err := tx.SelectContext(ctx, &removed,
		`DELETE FROM images WHERE listing_id = $1 RETURNING `+imageColumns, id); err != nil {
		return nil, translate("remove images", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err := expectOne(res, err, "delete listing"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return removed, nil
}

func insertImages(ctx context.Context, tx *sqlx.Tx, images []models.Image) error {
	for _, img := range images {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO images (id, listing_id, storage_key, url) VALUES ($1, $2, $3, $4)
		`, img.ID, img.ListingID, img.Key, img.URL); err != nil {
			return translate("insert image", err)
		}
	}
	return nil
}

// loadImages fills Images of every listing with one query.
func loadImages(ctx context.Context, q sqlx.QueryerContext, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	ids := make([]string, len(listings))
	index := make(map[string]int, len(listings))
	for i := range listings {
		ids[i] = listings[i].ID
		index[listings[i].ID] = i
		listings[i].Images = []models.Image{}
	}

	var images []models.Image
	if err := sqlx.SelectContext(ctx, q, &images,
		`SELECT `+imageColumns+` FROM images WHERE listing_id = ANY($1) ORDER BY created_at`,
		pq.Array(ids)); err != nil {
		return translate("load images", err)
	}
	for _, img := range images {
		if i, ok := index[img.ListingID]; ok {
			listings[i].Images = append(listings[i].Images, img)
		}
	}
	return nil
}
