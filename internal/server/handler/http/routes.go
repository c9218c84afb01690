package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/realtyhub/realtyhub/internal/middleware"
	"github.com/realtyhub/realtyhub/internal/models"
	"go.uber.org/zap"
)

// RouterConfig collects the handlers and cross-cutting pieces of the API.
type RouterConfig struct {
	Auth      *AuthHandler
	Listings  *ListingHandler
	Accounts  *AccountHandler
	Bookmarks *BookmarkHandler
	Inquiries *InquiryHandler
	Chat      *ChatHandler

	// Sessions verifies session cookies.
	Sessions middleware.Verifier
	// Metrics instruments every request when set. /metrics then exposes
	// the default prometheus registry.
	Metrics *middleware.Metrics
	// LoginLimiter throttles login and registration per client address.
	LoginLimiter middleware.Limiter
	// TrustedProxies are the peers whose X-Forwarded-For is believed when
	// keying the limiter. Nil trusts none.
	TrustedProxies *middleware.TrustedProxies
	// Uploads serves stored images under /uploads/ when set.
	Uploads    http.Handler
	CORSOrigin string
	Logger     *zap.Logger
}

// NewRouter builds the HTTP handler of the API.
//
// Routes:
//
//	GET  /health, /metrics, /uploads/*
//	     /api/auth        register, login, logout, status
//	     /api/properties  public catalogue, optional session
//	     /api/user        session with role USER or ADMIN
//	     /api/admin       session with role ADMIN
//	     /api/chat        session
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler)
	}
	r.Use(middleware.CORS(cfg.CORSOrigin))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Uploads != nil {
		r.Handle("/uploads/*", cfg.Uploads)
	}

	session := middleware.RequireSession(cfg.Sessions)
	anyRole := middleware.RequireRole(models.RoleUser, models.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		// Listing forms may carry images; everything else is JSON.
		r.Use(chiMiddleware.AllowContentType("application/json", "multipart/form-data"))

		r.Route("/auth", func(r chi.Router) {
			limit := middleware.RateLimit(cfg.LoginLimiter, cfg.TrustedProxies)
			r.With(limit).Post("/register", cfg.Auth.Register)
			r.With(limit).Post("/login", cfg.Auth.Login)
			r.Post("/logout", cfg.Auth.Logout)
			r.With(session).Get("/status", cfg.Auth.Status)
		})

		r.Route("/properties", func(r chi.Router) {
			r.Use(middleware.OptionalSession(cfg.Sessions))
			r.Get("/", cfg.Listings.Browse)
			r.Get("/{id}", cfg.Listings.Get)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(session, anyRole)
			r.Get("/profile", cfg.Accounts.Profile)
			r.Put("/profile", cfg.Accounts.UpdateProfile)

			r.Post("/inquiries", cfg.Inquiries.Create)
			r.Get("/inquiries", cfg.Inquiries.List)

			r.Post("/bookmarks", cfg.Bookmarks.Add)
			r.Get("/bookmarks", cfg.Bookmarks.List)
			r.Delete("/bookmarks/{propertyId}", cfg.Bookmarks.Remove)

			r.Post("/properties", cfg.Listings.Create)
			r.Get("/properties", cfg.Listings.ListMine)
			r.Put("/properties/{id}", cfg.Listings.Update)
			r.Delete("/properties/{id}", cfg.Listings.Delete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(session, middleware.RequireRole(models.RoleAdmin))
			r.Get("/properties", cfg.Listings.ListAll)
			r.Post("/properties", cfg.Listings.Create)
			r.Put("/properties/{id}", cfg.Listings.Update)
			r.Delete("/properties/{id}", cfg.Listings.Delete)
			r.Put("/properties/{id}/status", cfg.Listings.SetStatus)

			r.Get("/users", cfg.Accounts.List)
			r.Post("/users", cfg.Accounts.Create)
			r.Put("/users/{id}", cfg.Accounts.Update)
			r.Delete("/users/{id}", cfg.Accounts.Delete)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Use(session)
			r.Get("/", cfg.Chat.Thread)
			r.Post("/messages", cfg.Chat.Post)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/admin/all", cfg.Chat.Threads)
				r.Get("/admin/{userId}", cfg.Chat.ThreadOf)
			})
		})
	})

	return r
}
