package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/realtyhub/realtyhub/internal/middleware"
	"github.com/realtyhub/realtyhub/internal/models"
	handler "github.com/realtyhub/realtyhub/internal/server/handler/http"
	"github.com/realtyhub/realtyhub/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiFakes struct {
	listings  *fakeListingService
	accounts  *fakeAccountService
	bookmarks *fakeBookmarkService
	inquiries *fakeInquiryService
	chat      *fakeChatService
}

func newAPI(t *testing.T) (http.Handler, *apiFakes) {
	t.Helper()
	log := zap.NewNop()
	f := &apiFakes{
		listings:  &fakeListingService{},
		accounts:  &fakeAccountService{},
		bookmarks: &fakeBookmarkService{},
		inquiries: &fakeInquiryService{},
		chat:      &fakeChatService{},
	}
	router := handler.NewRouter(handler.RouterConfig{
		Auth:      &handler.AuthHandler{AuthService: &fakeAuthService{}, Log: log},
		Listings:  &handler.ListingHandler{Listings: f.listings, Log: log},
		Accounts:  &handler.AccountHandler{Accounts: f.accounts, Log: log},
		Bookmarks: &handler.BookmarkHandler{Bookmarks: f.bookmarks, Log: log},
		Inquiries: &handler.InquiryHandler{Inquiries: f.inquiries, Log: log},
		Chat:      &handler.ChatHandler{Chats: f.chat, Log: log},
		Sessions:  tokens,
		Logger:    log,
	})
	return router, f
}

func do(t *testing.T, h http.Handler, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h, _ := newAPI(t)
	rec := do(t, h, http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SessionAndRoleGates(t *testing.T) {
	h, f := newAPI(t)
	f.accounts.ListFunc = func(context.Context, *models.Identity) ([]models.Account, error) {
		return []models.Account{}, nil
	}
	f.accounts.ProfileFunc = func(_ context.Context, actor *models.Identity) (*models.Account, error) {
		return &models.Account{ID: actor.AccountID, Email: actor.Email, Role: actor.Role}, nil
	}

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"admin route without session", "/api/admin/users", "", http.StatusUnauthorized},
		{"admin route with forged token", "/api/admin/users", "forged", http.StatusForbidden},
		{"admin route as regular user", "/api/admin/users", "alice-token", http.StatusForbidden},
		{"admin route as admin", "/api/admin/users", "admin-token", http.StatusOK},
		{"user route as regular user", "/api/user/profile", "alice-token", http.StatusOK},
		{"user route as admin", "/api/user/profile", "admin-token", http.StatusOK},
		{"chat admin view as regular user", "/api/chat/admin/all", "alice-token", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path, tt.token, nil, "")
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_AuthStatus(t *testing.T) {
	h, _ := newAPI(t)

	rec := do(t, h, http.MethodGet, "/api/auth/status", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/auth/status", "alice-token", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var id models.Identity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&id))
	assert.Equal(t, *aliceID, id)
}

func TestRouter_PropertyDetailVisibility(t *testing.T) {
	h, f := newAPI(t)
	f.listings.GetFunc = func(_ context.Context, viewer *models.Identity, id string) (*models.Listing, error) {
		l := &models.Listing{ID: id, OwnerID: "alice-1", Status: models.StatusPending}
		if !models.CanView(l, viewer) {
			return nil, models.ErrNotFound
		}
		return l, nil
	}

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/properties/l1", "", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/properties/l1", "forged", nil, "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/properties/l1", "alice-token", nil, "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/properties/l1", "admin-token", nil, "").Code)
}

func TestRouter_BrowseQuery(t *testing.T) {
	h, f := newAPI(t)
	var got service.BrowseQuery
	f.listings.BrowseFunc = func(_ context.Context, _ *models.Identity, q service.BrowseQuery) ([]models.Listing, error) {
		got = q
		return []models.Listing{}, nil
	}

	rec := do(t, h, http.MethodGet, "/api/properties?location=gulshan&minPrice=100&featured=true&suggestedByBookmarks=true&limit=5", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gulshan", got.Filter.Location)
	require.NotNil(t, got.Filter.MinPrice)
	assert.Equal(t, 100.0, *got.Filter.MinPrice)
	require.NotNil(t, got.Filter.Featured)
	assert.True(t, *got.Filter.Featured)
	assert.True(t, got.SuggestFromBookmarks)
	assert.Equal(t, 5, got.Filter.Limit)

	rec = do(t, h, http.MethodGet, "/api/properties?maxPrice=cheap", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_CreateListingMultipart(t *testing.T) {
	h, f := newAPI(t)
	var gotIn service.ListingInput
	var gotBody []byte
	f.listings.CreateFunc = func(_ context.Context, actor *models.Identity, in service.ListingInput, uploads []service.Upload) (*models.Listing, error) {
		gotIn = in
		require.Len(t, uploads, 1)
		assert.Equal(t, "image/png", uploads[0].ContentType)
		rc, err := uploads[0].Open()
		require.NoError(t, err)
		defer rc.Close()
		gotBody, _ = io.ReadAll(rc)
		return &models.Listing{ID: "l1", OwnerID: actor.AccountID, Title: in.Title, Status: models.StatusPending}, nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"title": "Flat", "price": "1500.5", "type": "apartment", "isFeatured": "true"} {
		require.NoError(t, mw.WriteField(k, v))
	}
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="images"; filename="front.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	rec := do(t, h, http.MethodPost, "/api/user/properties", "alice-token", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Flat", gotIn.Title)
	assert.Equal(t, 1500.5, gotIn.Price)
	require.NotNil(t, gotIn.Featured)
	assert.Equal(t, "png-bytes", string(gotBody))
}

func TestRouter_TooManyImages(t *testing.T) {
	h, _ := newAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := 0; i <= handler.MaxImages; i++ {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="images"; filename="x.jpg"`)
		hdr.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, _ = part.Write([]byte("x"))
	}
	require.NoError(t, mw.Close())

	rec := do(t, h, http.MethodPost, "/api/user/properties", "alice-token", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RejectsOtherContentTypes(t *testing.T) {
	h, _ := newAPI(t)
	rec := do(t, h, http.MethodPost, "/api/user/bookmarks", "alice-token", bytes.NewBufferString("x"), "text/plain")
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_ErrorMapping(t *testing.T) {
	h, f := newAPI(t)

	tests := []struct {
		err  error
		want int
	}{
		{models.ErrConflict, http.StatusConflict},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrForbidden, http.StatusForbidden},
		{models.Invalid("propertyId is required"), http.StatusBadRequest},
		{models.ErrServerMisconfiguration, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f.bookmarks.AddFunc = func(context.Context, *models.Identity, string) (*models.Bookmark, error) {
				return nil, tt.err
			}
			rec := do(t, h, http.MethodPost, "/api/user/bookmarks", "alice-token",
				bytes.NewBufferString(`{"propertyId":"l1"}`), "application/json")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_RecordsEndpoints(t *testing.T) {
	h, f := newAPI(t)
	f.bookmarks.AddFunc = func(_ context.Context, actor *models.Identity, listingID string) (*models.Bookmark, error) {
		return &models.Bookmark{ID: "b1", AccountID: actor.AccountID, ListingID: listingID}, nil
	}
	f.bookmarks.RemoveFunc = func(context.Context, *models.Identity, string) error { return nil }
	f.inquiries.CreateFunc = func(_ context.Context, actor *models.Identity, listingID, message string) (*models.Inquiry, error) {
		return &models.Inquiry{ID: "q1", AccountID: actor.AccountID, ListingID: listingID, Message: message}, nil
	}
	var target string
	f.chat.PostFunc = func(_ context.Context, actor *models.Identity, targetAccountID, body string) (*models.ChatMessage, error) {
		target = targetAccountID
		return &models.ChatMessage{ID: "m1", SenderID: actor.AccountID, Body: body}, nil
	}
	f.listings.SetStatusFunc = func(_ context.Context, _ *models.Identity, id, status string) (*models.Listing, error) {
		return &models.Listing{ID: id, Status: models.ListingStatus(status)}, nil
	}

	rec := do(t, h, http.MethodPost, "/api/user/bookmarks", "alice-token", bytes.NewBufferString(`{"propertyId":"l1"}`), "application/json")
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, http.MethodDelete, "/api/user/bookmarks/l1", "alice-token", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/user/inquiries", "alice-token", bytes.NewBufferString(`{"propertyId":"l1","message":"hi"}`), "application/json")
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/chat/messages", "admin-token", bytes.NewBufferString(`{"userId":"alice-1","content":"hello"}`), "application/json")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "alice-1", target)
	rec = do(t, h, http.MethodPut, "/api/admin/properties/l1/status", "admin-token", bytes.NewBufferString(`{"status":"approved"}`), "application/json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"approved"`)
}

// perKeyLimiter allows one request per key.
type perKeyLimiter struct {
	seen map[string]bool
}

func (l *perKeyLimiter) Allow(_ context.Context, key string) bool {
	if l.seen[key] {
		return false
	}
	l.seen[key] = true
	return true
}

func TestRouter_LoginLimitKeyedByTrustedClientIP(t *testing.T) {
	log := zap.NewNop()
	trusted, err := middleware.NewTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	router := handler.NewRouter(handler.RouterConfig{
		Auth: &handler.AuthHandler{AuthService: &fakeAuthService{
			LoginFunc: func(context.Context, string, string) (*service.Session, error) {
				return nil, models.ErrInvalidCredentials
			},
		}, Log: log},
		Sessions:       tokens,
		LoginLimiter:   &perKeyLimiter{seen: map[string]bool{}},
		TrustedProxies: trusted,
		Logger:         log,
	})

	login := func(remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			bytes.NewBufferString(`{"email":"a@example.com","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	// A direct client cannot pick its own key.
	assert.Equal(t, http.StatusUnauthorized, login("203.0.113.7:5555", "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, login("203.0.113.7:5555", "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, login("203.0.113.7:5555", "198.51.100.3"))

	// Behind the proxy each client has its own quota.
	assert.Equal(t, http.StatusUnauthorized, login("10.0.0.1:443", "198.51.100.10"))
	assert.Equal(t, http.StatusUnauthorized, login("10.0.0.1:443", "198.51.100.11"))
	assert.Equal(t, http.StatusTooManyRequests, login("10.0.0.1:443", "198.51.100.10"))
}
