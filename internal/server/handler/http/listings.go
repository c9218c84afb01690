package http

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/realtyhub/realtyhub/internal/middleware"
	"github.com/realtyhub/realtyhub/internal/models"
	"github.com/realtyhub/realtyhub/internal/service"
	"go.uber.org/zap"
)

// ListingService defines the listing operations required by ListingHandler.
type ListingService interface {
	Create(ctx context.Context, actor *models.Identity, in service.ListingInput, uploads []service.Upload) (*models.Listing, error)
	Update(ctx context.Context, actor *models.Identity, id string, in service.ListingInput, uploads []service.Upload) (*models.Listing, error)
	Delete(ctx context.Context, actor *models.Identity, id string) error
	SetStatus(ctx context.Context, actor *models.Identity, id, status string) (*models.Listing, error)
	Get(ctx context.Context, viewer *models.Identity, id string) (*models.Listing, error)
	Browse(ctx context.Context, viewer *models.Identity, q service.BrowseQuery) ([]models.Listing, error)
	ListMine(ctx context.Context, actor *models.Identity, f models.ListingFilter) ([]models.Listing, error)
	ListAll(ctx context.Context, actor *models.Identity, f models.ListingFilter) ([]models.Listing, error)
}

// ListingHandler serves the public catalogue and the owner and
// administrator listing endpoints.
type ListingHandler struct {
	Listings ListingService
	Log      *zap.Logger
}

// Browse handles GET /api/properties.
func (h *ListingHandler) Browse(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	q := service.BrowseQuery{Filter: f}
	if raw := r.URL.Query().Get("suggestedByBookmarks"); raw != "" {
		q.SuggestFromBookmarks, _ = strconv.ParseBool(raw)
	}
	listings, err := h.Listings.Browse(r.Context(), middleware.IdentityFromContext(r.Context()), q)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// Get handles GET /api/properties/{id}.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.Listings.Get(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// Create handles POST of a listing form by owners and administrators.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, uploads, err := parseListingForm(w, r)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	l, err := h.Listings.Create(r.Context(), middleware.IdentityFromContext(r.Context()), in, uploads)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// Update handles PUT of a listing form.
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, uploads, err := parseListingForm(w, r)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	l, err := h.Listings.Update(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), in, uploads)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// Delete handles DELETE of a listing.
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Listings.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetStatus handles PUT /api/admin/properties/{id}/status.
func (h *ListingHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	l, err := h.Listings.SetStatus(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// ListMine handles GET /api/user/properties.
func (h *ListingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Listings.ListMine)
}

// ListAll handles GET /api/admin/properties.
func (h *ListingHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Listings.ListAll)
}

func (h *ListingHandler) list(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, *models.Identity, models.ListingFilter) ([]models.Listing, error)) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		if f.Status, err = models.ParseListingStatus(raw); err != nil {
			writeServiceError(w, h.Log, err)
			return
		}
	}
	listings, err := fn(r.Context(), middleware.IdentityFromContext(r.Context()), f)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func parseFilter(q url.Values) (models.ListingFilter, error) {
	f := models.ListingFilter{
		Location: q.Get("location"),
		Type:     q.Get("type"),
		Category: q.Get("category"),
	}
	var err error
	if f.MinPrice, err = floatParam(q, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = floatParam(q, "maxPrice"); err != nil {
		return f, err
	}
	if raw := q.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return f, models.Invalid("featured must be true or false")
		}
		f.Featured = &featured
	}
	if f.Limit, err = intParam(q, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = intParam(q, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func floatParam(q url.Values, key string) (*float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, models.Invalid("%s must be a number", key)
	}
	return &v, nil
}

func intParam(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, models.Invalid("%s must be a non-negative integer", key)
	}
	return v, nil
}
