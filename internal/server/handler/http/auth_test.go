package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/realtyhub/realtyhub/internal/middleware"
	"github.com/realtyhub/realtyhub/internal/models"
	handler "github.com/realtyhub/realtyhub/internal/server/handler/http"
	"github.com/realtyhub/realtyhub/internal/service"
	"go.uber.org/zap"
)

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		err            error
		expectedCode   int
		expectedSubstr string
	}{
		{"invalid JSON", `not a json`, nil, http.StatusBadRequest, "invalid request body"},
		{"validation error", `{"email":"a@example.com"}`, models.Invalid("email and password are required"), http.StatusBadRequest, "email and password are required"},
		{"duplicate email", `{"email":"a@example.com","password":"p"}`, models.ErrConflict, http.StatusConflict, "already exists"},
		{"storage failure", `{"email":"a@example.com","password":"p"}`, errors.New("db down"), http.StatusInternalServerError, "internal error"},
		{"created", `{"email":"a@example.com","password":"p","phoneNumber":"+1"}`, nil, http.StatusCreated, `"role":"USER"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.RegisterInput
			svc := &fakeAuthService{RegisterFunc: func(_ context.Context, in service.RegisterInput) (*models.Account, error) {
				got = in
				if tt.err != nil {
					return nil, tt.err
				}
				return &models.Account{ID: "u1", Email: in.Email, Role: models.RoleUser, Phone: in.Phone}, nil
			}}
			h := &handler.AuthHandler{AuthService: svc, Log: zap.NewNop()}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(tt.body))
			h.Register(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedCode, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
			if tt.expectedCode == http.StatusCreated {
				if got.Phone != "+1" {
					t.Errorf("phone not passed through: %+v", got)
				}
				if strings.Contains(rec.Body.String(), "password") {
					t.Error("response must not carry the password hash")
				}
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	svc := &fakeAuthService{LoginFunc: func(_ context.Context, email, password string) (*service.Session, error) {
		if email != "alice@example.com" || password != "pw123" {
			return nil, models.ErrInvalidCredentials
		}
		return &service.Session{
			Token:     "signed",
			ExpiresAt: expires,
			Account:   &models.Account{ID: "alice-1", Email: email, Role: models.RoleUser},
		}, nil
	}}

	tests := []struct {
		name         string
		body         string
		forwarded    string
		cookieSecure bool
		expectedCode int
		wantSecure   bool
	}{
		{"missing fields", `{"email":"alice@example.com"}`, "", false, http.StatusBadRequest, false},
		{"wrong password", `{"email":"alice@example.com","password":"nope"}`, "", false, http.StatusUnauthorized, false},
		{"plain http", `{"email":"alice@example.com","password":"pw123"}`, "", false, http.StatusOK, false},
		{"behind https proxy", `{"email":"alice@example.com","password":"pw123"}`, "https", false, http.StatusOK, true},
		{"forced secure", `{"email":"alice@example.com","password":"pw123"}`, "", true, http.StatusOK, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &handler.AuthHandler{AuthService: svc, Log: zap.NewNop(), SessionTTL: time.Hour, CookieSecure: tt.cookieSecure}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(tt.body))
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-Proto", tt.forwarded)
			}
			h.Login(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
			cookies := rec.Result().Cookies()
			if tt.expectedCode != http.StatusOK {
				if len(cookies) != 0 {
					t.Errorf("failed login must not set cookies")
				}
				if tt.expectedCode == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), "invalid email or password") {
					t.Errorf("unexpected body %q", rec.Body.String())
				}
				return
			}

			if len(cookies) != 1 {
				t.Fatalf("expected one cookie, got %d", len(cookies))
			}
			c := cookies[0]
			if c.Name != middleware.SessionCookie || c.Value != "signed" || !c.HttpOnly ||
				c.SameSite != http.SameSiteLaxMode || c.MaxAge != 3600 || c.Path != "/" {
				t.Errorf("unexpected cookie %+v", c)
			}
			if c.Secure != tt.wantSecure {
				t.Errorf("Secure = %v; want %v", c.Secure, tt.wantSecure)
			}

			var payload map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
				t.Fatalf("failed to decode JSON: %v", err)
			}
			want := map[string]string{"token": "signed", "role": "USER", "userId": "alice-1"}
			for k, v := range want {
				if payload[k] != v {
					t.Errorf("expected %s=%q, got %q", k, v, payload[k])
				}
			}
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	var revoked string
	svc := &fakeAuthService{LogoutFunc: func(_ context.Context, token string) error {
		revoked = token
		return errors.New("redis down")
	}}
	h := &handler.AuthHandler{AuthService: svc, Log: zap.NewNop()}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "signed"})
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if revoked != "signed" {
		t.Errorf("revoked token = %q", revoked)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", cookies)
	}
}
