// Package http provides the HTTP handlers and routing of the listing
// platform API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/realtyhub/realtyhub/internal/middleware"
	"github.com/realtyhub/realtyhub/internal/models"
	"github.com/realtyhub/realtyhub/internal/service"
	"go.uber.org/zap"
)

// AuthService defines the authentication operations required by
// AuthHandler.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles registration and session cookies.
type AuthHandler struct {
	AuthService AuthService
	Log         *zap.Logger
	// SessionTTL is the cookie Max-Age.
	SessionTTL time.Duration
	// CookieSecure forces the Secure attribute regardless of the transport.
	CookieSecure bool
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phoneNumber"`
	Location string `json:"location"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string      `json:"token"`
	Role   models.Role `json:"role"`
	UserID string      `json:"userId"`
}

// Register handles POST /api/auth/register and answers 201 with the new
// account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	a, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Location: req.Location,
	})
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// Login handles POST /api/auth/login. On success the session token is set
// as an HttpOnly cookie and also returned in the body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeServiceError(w, h.Log, models.Invalid("email and password are required"))
		return
	}
	s, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    s.Token,
		Path:     "/",
		MaxAge:   int(h.SessionTTL / time.Second),
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.CookieSecure || middleware.SecureRequest(r),
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: s.Token, Role: s.Account.Role, UserID: s.Account.ID})
}

// Logout handles POST /api/auth/logout. The cookie is cleared even when
// the token could not be revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookie); err == nil && c.Value != "" {
		_ = h.AuthService.Logout(r.Context(), c.Value)
	}
	middleware.ClearSessionCookie(w, r, h.CookieSecure)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Status handles GET /api/auth/status behind RequireSession and returns the
// decoded session identity.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	if id == nil {
		writeServiceError(w, h.Log, models.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, id)
}
