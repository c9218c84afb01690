package service

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/realtyhub/realtyhub/internal/models"
	"github.com/realtyhub/realtyhub/internal/storage"
	"go.uber.org/zap"
)

// suggestionLimit caps bookmark-based suggestions merged into a browse.
const suggestionLimit = 10

// ListingRepository defines the persistence operations on listings.
type ListingRepository interface {
	Create(ctx context.Context, l *models.Listing) error
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Listing, error)
	Search(ctx context.Context, f models.ListingFilter) ([]models.Listing, error)
	SuggestFromBookmarks(ctx context.Context, accountID string, limit int) ([]models.Listing, error)
	// Update replaces the images when newImages is not empty and returns
	// the removed ones.
	Update(ctx context.Context, l *models.Listing, newImages []models.Image) ([]models.Image, error)
	UpdateStatus(ctx context.Context, id string, status models.ListingStatus) error
	// Delete returns the images removed with the listing.
	Delete(ctx context.Context, id string) ([]models.Image, error)
}

// ListingInput carries the editable fields of a listing form.
type ListingInput struct {
	Title       string
	Description string
	Price       float64
	Address     string
	Area        string
	City        string
	District    string
	Division    string
	Type        string
	Category    string
	ContactInfo string
	// Status is honoured for administrators only.
	Status string
	// Featured is honoured for administrators only.
	Featured *bool
}

// BrowseQuery is a public catalogue query.
type BrowseQuery struct {
	Filter models.ListingFilter
	// SuggestFromBookmarks merges listings similar to the viewer's bookmarks.
	SuggestFromBookmarks bool
}

// ListingService implements the listing lifecycle and its visibility rules.
type ListingService struct {
	repo  ListingRepository
	files *fileJanitor
	log   *zap.Logger
}

// NewListingService constructs a ListingService.
func NewListingService(repo ListingRepository, store storage.ImageStore, tombstones TombstoneRepository, log *zap.Logger) *ListingService {
	return &ListingService{
		repo:  repo,
		files: &fileJanitor{store: store, tombstones: tombstones, log: log},
		log:   log,
	}
}

// Create stores a new listing owned by actor. Regular users always submit
// for review; administrators publish unless they request another status.
func (s *ListingService) Create(ctx context.Context, actor *models.Identity, in ListingInput, uploads []Upload) (*models.Listing, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	requested, err := requestedStatus(actor, in.Status)
	if err != nil {
		return nil, err
	}

	l := &models.Listing{ID: uuid.NewString(), OwnerID: actor.AccountID}
	in.apply(l, actor)
	l.Status = models.InitialStatus(actor.Role, requested)

	images, err := s.files.save(ctx, l.ID, uploads)
	if err != nil {
		return nil, err
	}
	l.Images = images
	if err := s.repo.Create(ctx, l); err != nil {
		s.files.remove(ctx, imageKeys(images))
		return nil, err
	}
	s.log.Info("listing created",
		zap.String("listing_id", l.ID), zap.String("owner_id", l.OwnerID), zap.String("status", string(l.Status)))
	return l, nil
}

// Update edits a listing. Any edit by a non-administrator sends the listing
// back to pending. New uploads replace the previous images, whose files are
// deleted after the change is committed.
func (s *ListingService) Update(ctx context.Context, actor *models.Identity, id string, in ListingInput, uploads []Upload) (*models.Listing, error) {
	l, err := s.modifiable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	requested, err := requestedStatus(actor, in.Status)
	if err != nil {
		return nil, err
	}

	in.apply(l, actor)
	l.Status = models.StatusAfterEdit(actor.Role, l.Status, requested)

	newImages, err := s.files.save(ctx, l.ID, uploads)
	if err != nil {
		return nil, err
	}
	removed, err := s.repo.Update(ctx, l, newImages)
	if err != nil {
		s.files.remove(ctx, imageKeys(newImages))
		return nil, err
	}
	s.files.remove(ctx, imageKeys(removed))
	return redact(l, actor), nil
}

// Delete removes a listing with its images.
func (s *ListingService) Delete(ctx context.Context, actor *models.Identity, id string) error {
	if _, err := s.modifiable(ctx, actor, id); err != nil {
		return err
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.files.remove(ctx, imageKeys(removed))
	s.log.Info("listing deleted", zap.String("listing_id", id), zap.Int("images", len(removed)))
	return nil
}

// SetStatus approves or rejects a listing. Administrators only.
func (s *ListingService) SetStatus(ctx context.Context, actor *models.Identity, id, status string) (*models.Listing, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	target, err := models.ModerationTarget(status)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Get returns a listing the viewer may see. Hidden listings are reported
// as models.ErrNotFound. Viewer is nil for anonymous requests.
func (s *ListingService) Get(ctx context.Context, viewer *models.Identity, id string) (*models.Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanView(l, viewer) {
		return nil, models.ErrNotFound
	}
	return redact(l, viewer), nil
}

// Browse lists approved listings matching q.
func (s *ListingService) Browse(ctx context.Context, viewer *models.Identity, q BrowseQuery) ([]models.Listing, error) {
	f := q.Filter
	f.Status = models.StatusApproved
	f.OwnerID = ""
	listings, err := s.repo.Search(ctx, f)
	if err != nil {
		return nil, err
	}

	if q.SuggestFromBookmarks && viewer != nil {
		suggested, err := s.repo.SuggestFromBookmarks(ctx, viewer.AccountID, suggestionLimit)
		if err != nil {
			return nil, err
		}
		listings = mergeUnique(listings, suggested)
	}
	return redactAll(listings, viewer), nil
}

// ListMine lists the actor's own listings in every status.
func (s *ListingService) ListMine(ctx context.Context, actor *models.Identity, f models.ListingFilter) ([]models.Listing, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	f.OwnerID = actor.AccountID
	listings, err := s.repo.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	return redactAll(listings, actor), nil
}

// ListAll lists listings in every status. Administrators only.
func (s *ListingService) ListAll(ctx context.Context, actor *models.Identity, f models.ListingFilter) ([]models.Listing, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, f)
}

// modifiable loads a listing the actor may change. Listings the actor
// cannot even see are reported as not found; visible listings owned by
// someone else are forbidden.
func (s *ListingService) modifiable(ctx context.Context, actor *models.Identity, id string) (*models.Listing, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanView(l, actor) {
		return nil, models.ErrNotFound
	}
	if !models.CanModify(l, actor) {
		return nil, models.ErrForbidden
	}
	return l, nil
}

func (in ListingInput) validate() error {
	var missing []string
	for name, v := range map[string]string{
		"title": in.Title, "type": in.Type, "division": in.Division,
		"district": in.District, "city": in.City, "area": in.Area,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return models.Invalid("missing required fields: %s", strings.Join(missing, ", "))
	}
	if in.Price <= 0 {
		return models.Invalid("price must be greater than zero")
	}
	return nil
}

func (in ListingInput) apply(l *models.Listing, actor *models.Identity) {
	l.Title = strings.TrimSpace(in.Title)
	l.Description = strings.TrimSpace(in.Description)
	l.Price = in.Price
	l.Address = strings.TrimSpace(in.Address)
	l.Area = strings.TrimSpace(in.Area)
	l.City = strings.TrimSpace(in.City)
	l.District = strings.TrimSpace(in.District)
	l.Division = strings.TrimSpace(in.Division)
	l.Type = strings.TrimSpace(in.Type)
	l.Category = strings.TrimSpace(in.Category)
	l.ContactInfo = strings.TrimSpace(in.ContactInfo)
	if actor.IsAdmin() && in.Featured != nil {
		l.Featured = *in.Featured
	}
}

// requestedStatus parses a status requested on a form. Only administrators
// may request one; it is ignored for everybody else.
func requestedStatus(actor *models.Identity, raw string) (models.ListingStatus, error) {
	if !actor.IsAdmin() || strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return models.ParseListingStatus(raw)
}

func requireAdmin(actor *models.Identity) error {
	if actor == nil {
		return models.ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return models.ErrForbidden
	}
	return nil
}

// redact hides contact details from viewers other than the owner and
// administrators.
func redact(l *models.Listing, viewer *models.Identity) *models.Listing {
	if models.CanModify(l, viewer) {
		return l
	}
	out := *l
	out.ContactInfo = ""
	return &out
}

func redactAll(listings []models.Listing, viewer *models.Identity) []models.Listing {
	for i := range listings {
		listings[i] = *redact(&listings[i], viewer)
	}
	return listings
}

func mergeUnique(base, extra []models.Listing) []models.Listing {
	seen := make(map[string]struct{}, len(base))
	for _, l := range base {
		seen[l.ID] = struct{}{}
	}
	for _, l := range extra {
		if _, ok := seen[l.ID]; ok {
			continue
		}
		seen[l.ID] = struct{}{}
		base = append(base, l)
	}
	return base
}
