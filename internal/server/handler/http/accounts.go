package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/realtyhub/realtyhub/internal/middleware"
	"github.com/realtyhub/realtyhub/internal/models"
	"github.com/realtyhub/realtyhub/internal/service"
	"go.uber.org/zap"
)

// AccountService defines the profile and account administration
// operations required by AccountHandler.
type AccountService interface {
	Profile(ctx context.Context, actor *models.Identity) (*models.Account, error)
	UpdateProfile(ctx context.Context, actor *models.Identity, in service.ProfileInput) (*models.Account, error)
	Create(ctx context.Context, actor *models.Identity, in service.AccountInput) (*models.Account, error)
	List(ctx context.Context, actor *models.Identity) ([]models.Account, error)
	Update(ctx context.Context, actor *models.Identity, id string, in service.AccountInput) (*models.Account, error)
	Delete(ctx context.Context, actor *models.Identity, id string) error
}

// AccountHandler serves /api/user/profile and /api/admin/users.
type AccountHandler struct {
	Accounts AccountService
	Log      *zap.Logger
}

type accountRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	Name     *string `json:"name"`
	Phone    *string `json:"phoneNumber"`
	Location *string `json:"location"`
}

func (req accountRequest) profile() service.ProfileInput {
	return service.ProfileInput{Name: req.Name, Phone: req.Phone, Location: req.Location}
}

func (req accountRequest) input() service.AccountInput {
	return service.AccountInput{
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		ProfileInput: req.profile(),
	}
}

// Profile handles GET /api/user/profile.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	a, err := h.Accounts.Profile(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UpdateProfile handles PUT /api/user/profile.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	a, err := h.Accounts.UpdateProfile(r.Context(), middleware.IdentityFromContext(r.Context()), req.profile())
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Create handles POST /api/admin/users.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	a, err := h.Accounts.Create(r.Context(), middleware.IdentityFromContext(r.Context()), req.input())
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// List handles GET /api/admin/users.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Accounts.List(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Update handles PUT /api/admin/users/{id}.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	a, err := h.Accounts.Update(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Delete handles DELETE /api/admin/users/{id}.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
