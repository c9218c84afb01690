// Package client provides an API session for the listing platform.
//
// A Session owns the cookie jar holding the session cookie and the identity
// it belongs to. It is created once, restored from the server on start and
// torn down on logout; nothing about the signed-in user lives outside it.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/realtyhub/realtyhub/internal/models"
)

const sessionCookie = "token"

// APIError is a non-2xx answer of the server. It unwraps to the matching
// models sentinel so callers can use errors.Is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.Status, e.Message)
}

// Unwrap maps the status code onto the error taxonomy.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return models.ErrValidation
	case http.StatusUnauthorized:
		if strings.Contains(e.Message, "invalid email or password") {
			return models.ErrInvalidCredentials
		}
		return models.ErrUnauthenticated
	case http.StatusForbidden:
		if strings.Contains(e.Message, "session") {
			return models.ErrInvalidSession
		}
		return models.ErrForbidden
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusConflict:
		return models.ErrConflict
	}
	return nil
}

// Option configures a Session.
type Option func(*Session) error

// WithCAFile trusts the PEM certificate in path, such as a self-signed
// development certificate.
func WithCAFile(path string) Option {
	return func(s *Session) error {
		caCert, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return errors.New("failed to parse CA cert")
		}
		s.http.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
		}
		return nil
	}
}

// WithTimeout sets the per-request timeout. The default is 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) error {
		s.http.Timeout = d
		return nil
	}
}

// Session is an authenticated conversation with the API.
type Session struct {
	base *url.URL
	http *http.Client

	mu       sync.RWMutex
	identity *models.Identity
}

// NewSession returns an anonymous session against baseURL.
func NewSession(baseURL string, opts ...Option) (*Session, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	s := &Session{base: base, http: &http.Client{Jar: jar, Timeout: 10 * time.Second}}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Identity returns the signed-in identity, or nil when anonymous.
func (s *Session) Identity() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// Restore asks the server who the current cookie belongs to. An absent or
// rejected cookie leaves the session anonymous without an error.
func (s *Session) Restore(ctx context.Context) (*models.Identity, error) {
	var id models.Identity
	err := s.do(ctx, http.MethodGet, "/api/auth/status", nil, &id)
	switch {
	case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, models.ErrInvalidSession):
		s.reset()
		return nil, nil
	case err != nil:
		return nil, err
	}
	s.setIdentity(&id)
	return s.Identity(), nil
}

// Login signs in and keeps the session cookie in the jar.
func (s *Session) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	var resp struct {
		Token  string      `json:"token"`
		Role   models.Role `json:"role"`
		UserID string      `json:"userId"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := s.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	s.setIdentity(&models.Identity{AccountID: resp.UserID, Role: resp.Role, Email: models.NormalizeEmail(email)})
	return s.Identity(), nil
}

// Logout ends the session on the server and forgets the identity and the
// session cookie, even when the server cannot be reached.
func (s *Session) Logout(ctx context.Context) error {
	err := s.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	s.reset()
	return err
}

// Listings browses the public catalogue. query carries the catalogue
// filters such as location or minPrice.
func (s *Session) Listings(ctx context.Context, query url.Values) ([]models.Listing, error) {
	path := "/api/properties"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var listings []models.Listing
	if err := s.do(ctx, http.MethodGet, path, nil, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// Listing fetches one listing.
func (s *Session) Listing(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	if err := s.do(ctx, http.MethodGet, "/api/properties/"+url.PathEscape(id), nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Bookmark saves a listing for the signed-in user.
func (s *Session) Bookmark(ctx context.Context, listingID string) (*models.Bookmark, error) {
	var b models.Bookmark
	if err := s.do(ctx, http.MethodPost, "/api/user/bookmarks", map[string]string{"propertyId": listingID}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Session) setIdentity(id *models.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.http.Jar.SetCookies(s.base, []*http.Cookie{{Name: sessionCookie, Path: "/", MaxAge: -1}})
}

func (s *Session) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base.String()+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var payload struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &payload) != nil || payload.Error == "" {
			payload.Error = strings.TrimSpace(string(data))
		}
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
