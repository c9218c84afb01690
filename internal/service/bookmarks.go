package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/realtyhub/realtyhub/internal/models"
)

// BookmarkRepository defines the persistence operations on bookmarks.
type BookmarkRepository interface {
	// Add returns models.ErrConflict when the pair already exists.
	Add(ctx context.Context, b *models.Bookmark) error
	Remove(ctx context.Context, accountID, listingID string) error
	ListByAccount(ctx context.Context, accountID string) ([]models.Bookmark, error)
}

// ListingReader loads listings by id.
type ListingReader interface {
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Listing, error)
}

// BookmarkService manages saved listings.
type BookmarkService struct {
	bookmarks BookmarkRepository
	listings  ListingReader
}

// NewBookmarkService constructs a BookmarkService.
func NewBookmarkService(bookmarks BookmarkRepository, listings ListingReader) *BookmarkService {
	return &BookmarkService{bookmarks: bookmarks, listings: listings}
}

// Add bookmarks a listing visible to actor. A second bookmark of the same
// listing fails with models.ErrConflict.
func (s *BookmarkService) Add(ctx context.Context, actor *models.Identity, listingID string) (*models.Bookmark, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	if listingID == "" {
		return nil, models.Invalid("propertyId is required")
	}
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !models.CanView(l, actor) {
		return nil, models.ErrNotFound
	}
	b := &models.Bookmark{ID: uuid.NewString(), AccountID: actor.AccountID, ListingID: listingID}
	if err := s.bookmarks.Add(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Remove deletes the actor's bookmark on listingID if any.
func (s *BookmarkService) Remove(ctx context.Context, actor *models.Identity, listingID string) error {
	if actor == nil {
		return models.ErrUnauthenticated
	}
	return s.bookmarks.Remove(ctx, actor.AccountID, listingID)
}

// List returns the actor's bookmarks with their listings. Bookmarks on
// listings the actor can no longer see are left out.
func (s *BookmarkService) List(ctx context.Context, actor *models.Identity) ([]models.Bookmark, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	bookmarks, err := s.bookmarks.ListByAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(bookmarks))
	for i, b := range bookmarks {
		ids[i] = b.ListingID
	}
	listings, err := s.listings.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Listing, len(listings))
	for i := range listings {
		byID[listings[i].ID] = &listings[i]
	}

	out := make([]models.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		l, ok := byID[b.ListingID]
		if !ok || !models.CanView(l, actor) {
			continue
		}
		b.Listing = redact(l, actor)
		out = append(out, b)
	}
	return out, nil
}
