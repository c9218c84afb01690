package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/realtyhub/realtyhub/internal/middleware"
	"github.com/realtyhub/realtyhub/internal/models"
	"go.uber.org/zap"
)

// BookmarkService defines the operations required by BookmarkHandler.
type BookmarkService interface {
	Add(ctx context.Context, actor *models.Identity, listingID string) (*models.Bookmark, error)
	Remove(ctx context.Context, actor *models.Identity, listingID string) error
	List(ctx context.Context, actor *models.Identity) ([]models.Bookmark, error)
}

// BookmarkHandler serves /api/user/bookmarks.
type BookmarkHandler struct {
	Bookmarks BookmarkService
	Log       *zap.Logger
}

// Add handles POST /api/user/bookmarks.
func (h *BookmarkHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ListingID string `json:"propertyId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	b, err := h.Bookmarks.Add(r.Context(), middleware.IdentityFromContext(r.Context()), req.ListingID)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// Remove handles DELETE /api/user/bookmarks/{propertyId}.
func (h *BookmarkHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Bookmarks.Remove(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "propertyId")); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/user/bookmarks.
func (h *BookmarkHandler) List(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := h.Bookmarks.List(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmarks)
}

// InquiryService defines the operations required by InquiryHandler.
type InquiryService interface {
	Create(ctx context.Context, actor *models.Identity, listingID, message string) (*models.Inquiry, error)
	ListMine(ctx context.Context, actor *models.Identity) ([]models.Inquiry, error)
}

// InquiryHandler serves /api/user/inquiries.
type InquiryHandler struct {
	Inquiries InquiryService
	Log       *zap.Logger
}

// Create handles POST /api/user/inquiries.
func (h *InquiryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ListingID string `json:"propertyId"`
		Message   string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	q, err := h.Inquiries.Create(r.Context(), middleware.IdentityFromContext(r.Context()), req.ListingID, req.Message)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// List handles GET /api/user/inquiries.
func (h *InquiryHandler) List(w http.ResponseWriter, r *http.Request) {
	inquiries, err := h.Inquiries.ListMine(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, inquiries)
}

// ChatService defines the operations required by ChatHandler.
type ChatService interface {
	Thread(ctx context.Context, actor *models.Identity) (*models.Chat, error)
	Post(ctx context.Context, actor *models.Identity, targetAccountID, body string) (*models.ChatMessage, error)
	Threads(ctx context.Context, actor *models.Identity) ([]models.Chat, error)
	ThreadOf(ctx context.Context, actor *models.Identity, accountID string) (*models.Chat, error)
}

// ChatHandler serves /api/chat.
type ChatHandler struct {
	Chats ChatService
	Log   *zap.Logger
}

// Thread handles GET /api/chat.
func (h *ChatHandler) Thread(w http.ResponseWriter, r *http.Request) {
	c, err := h.Chats.Thread(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Post handles POST /api/chat/messages.
func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"userId"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	m, err := h.Chats.Post(r.Context(), middleware.IdentityFromContext(r.Context()), req.UserID, req.Content)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// Threads handles GET /api/chat/admin/all.
func (h *ChatHandler) Threads(w http.ResponseWriter, r *http.Request) {
	chats, err := h.Chats.Threads(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// ThreadOf handles GET /api/chat/admin/{userId}.
func (h *ChatHandler) ThreadOf(w http.ResponseWriter, r *http.Request) {
	c, err := h.Chats.ThreadOf(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "userId"))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
