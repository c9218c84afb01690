package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/realtyhub/realtyhub/internal/models"
)

// DefaultSessionTTL is the lifetime of a session token.
const DefaultSessionTTL = time.Hour

// Claims is the payload of a session token.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Revoker records tokens invalidated before their expiry.
type Revoker interface {
	// Revoke denylists the token id until the given time.
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	// IsRevoked reports whether the token id is denylisted.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionManager mints and verifies HS256 session tokens.
type SessionManager struct {
	secret  []byte
	ttl     time.Duration
	issuer  string
	now     func() time.Time
	revoker Revoker
}

// Option configures a SessionManager.
type Option func(*SessionManager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *SessionManager) { m.now = now }
}

// WithRevoker enables server-side revocation on logout.
func WithRevoker(r Revoker) Option {
	return func(m *SessionManager) { m.revoker = r }
}

// WithIssuer sets the iss claim.
func WithIssuer(issuer string) Option {
	return func(m *SessionManager) { m.issuer = issuer }
}

// NewSessionManager builds a manager. A zero ttl falls back to
// DefaultSessionTTL. An empty secret is accepted here and reported by Issue,
// so misconfiguration surfaces as ErrServerMisconfiguration.
func NewSessionManager(secret string, ttl time.Duration, opts ...Option) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	m := &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "realtyhub",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the token lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for account and returns it with its expiry.
func (m *SessionManager) Issue(account *models.Account) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: session signing secret is not set", models.ErrServerMisconfiguration)
	}
	now := m.now().UTC()
	// NumericDate has second precision. Round exp up so the token stays
	// valid for the whole ttl.
	expiresAt := now.Add(m.ttl)
	if whole := expiresAt.Truncate(time.Second); whole.Before(expiresAt) {
		expiresAt = whole.Add(time.Second)
	}
	claims := Claims{
		UserID: account.ID,
		Role:   string(account.Role),
		Email:  account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks signature, expiry and revocation, and returns the identity
// carried by the token. Every failure is ErrInvalidSession.
func (m *SessionManager) Verify(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil || claims.UserID == "" {
		return nil, models.ErrInvalidSession
	}
	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil || revoked {
			return nil, models.ErrInvalidSession
		}
	}
	return &models.Identity{AccountID: claims.UserID, Role: role, Email: claims.Email}, nil
}

// Revoke denylists token until its expiry. Without a revoker, or for a token
// that no longer verifies, it does nothing.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if m.revoker == nil || token == "" {
		return nil
	}
	claims, err := m.parse(token)
	if err != nil {
		return nil
	}
	return m.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (m *SessionManager) parse(token string) (*Claims, error) {
	if len(m.secret) == 0 {
		return nil, models.ErrServerMisconfiguration
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, models.ErrInvalidSession
	}
	return claims, nil
}
