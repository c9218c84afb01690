// Package service provides the business logic of the listing platform,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/realtyhub/realtyhub/internal/auth"
	"github.com/realtyhub/realtyhub/internal/models"
	"go.uber.org/zap"
)

// AccountRepository defines the persistence operations on accounts.
type AccountRepository interface {
	// Create inserts a new account. A taken email is models.ErrConflict.
	Create(ctx context.Context, a *models.Account) error
	// GetByEmail returns models.ErrNotFound for unknown emails.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	Update(ctx context.Context, a *models.Account) error
	// Delete removes the account and returns the storage keys of its images.
	Delete(ctx context.Context, id string) ([]string, error)
}

// SessionIssuer mints and revokes session tokens.
type SessionIssuer interface {
	Issue(account *models.Account) (string, time.Time, error)
	Revoke(ctx context.Context, token string) error
}

// AuthService registers accounts and opens and closes sessions.
type AuthService struct {
	accounts AccountRepository
	sessions SessionIssuer
	log      *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(accounts AccountRepository, sessions SessionIssuer, log *zap.Logger) *AuthService {
	return &AuthService{accounts: accounts, sessions: sessions, log: log}
}

// RegisterInput carries a self-registration request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Location string
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *models.Account
}

// Register creates a regular account. The role is always RoleUser.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	email := models.NormalizeEmail(in.Email)
	if err := validateCredentials(email, in.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	a := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Location:     strings.TrimSpace(in.Location),
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("account registered", zap.String("account_id", a.ID))
	return a, nil
}

// Login checks the credentials and issues a session token. Unknown email
// and wrong password fail alike with models.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	a, err := s.accounts.GetByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, models.ErrNotFound) {
		auth.BurnCompare(password)
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(a.PasswordHash, password) {
		return nil, models.ErrInvalidCredentials
	}
	token, exp, err := s.sessions.Issue(a)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, Account: a}, nil
}

// Logout revokes token when server-side revocation is enabled.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.log.Warn("failed to revoke session", zap.Error(err))
		return err
	}
	return nil
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return models.Invalid("email and password are required")
	}
	if !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") {
		return models.Invalid("email is not valid")
	}
	return nil
}
