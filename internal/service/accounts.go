package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/realtyhub/realtyhub/internal/auth"
	"github.com/realtyhub/realtyhub/internal/models"
	"github.com/realtyhub/realtyhub/internal/storage"
	"go.uber.org/zap"
)

// AccountService manages profiles and, for administrators, accounts.
type AccountService struct {
	accounts AccountRepository
	files    *fileJanitor
	log      *zap.Logger
}

// NewAccountService constructs an AccountService. store and tombstones are
// used to clean up the images of deleted accounts.
func NewAccountService(accounts AccountRepository, store storage.ImageStore, tombstones TombstoneRepository, log *zap.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		files:    &fileJanitor{store: store, tombstones: tombstones, log: log},
		log:      log,
	}
}

// ProfileInput carries profile fields; nil fields are left unchanged.
type ProfileInput struct {
	Name     *string
	Phone    *string
	Location *string
}

// AccountInput carries an administrator's create or update request.
// On update, empty strings leave fields unchanged.
type AccountInput struct {
	Email    string
	Password string
	Role     string
	ProfileInput
}

// Profile returns the actor's own account.
func (s *AccountService) Profile(ctx context.Context, actor *models.Identity) (*models.Account, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	return s.accounts.GetByID(ctx, actor.AccountID)
}

// UpdateProfile changes the actor's own profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, actor *models.Identity, in ProfileInput) (*models.Account, error) {
	a, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	in.apply(a)
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Create adds an account with any role. Administrators only.
func (s *AccountService) Create(ctx context.Context, actor *models.Identity, in AccountInput) (*models.Account, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	email := models.NormalizeEmail(in.Email)
	if err := validateCredentials(email, in.Password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Role) == "" {
		return nil, models.Invalid("role is required")
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	a := &models.Account{ID: uuid.NewString(), Email: email, PasswordHash: hash, Role: role}
	in.ProfileInput.apply(a)
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("account created by admin",
		zap.String("account_id", a.ID), zap.String("role", string(a.Role)), zap.String("admin_id", actor.AccountID))
	return a, nil
}

// List returns every account. Administrators only.
func (s *AccountService) List(ctx context.Context, actor *models.Identity) ([]models.Account, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.accounts.List(ctx)
}

// Update changes any field of an account, including its role.
// Administrators only.
func (s *AccountService) Update(ctx context.Context, actor *models.Identity, id string, in AccountInput) (*models.Account, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Email) != "" {
		email := models.NormalizeEmail(in.Email)
		if err := validateCredentials(email, "-"); err != nil {
			return nil, err
		}
		a.Email = email
	}
	if strings.TrimSpace(in.Role) != "" {
		role, err := models.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		a.Role = role
	}
	in.ProfileInput.apply(a)
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an account with everything it owns, then deletes the
// files of its listings. Administrators only.
func (s *AccountService) Delete(ctx context.Context, actor *models.Identity, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	keys, err := s.accounts.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.files.remove(ctx, keys)
	s.log.Info("account deleted", zap.String("account_id", id), zap.String("admin_id", actor.AccountID))
	return nil
}

func (in ProfileInput) apply(a *models.Account) {
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		a.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Location != nil {
		a.Location = strings.TrimSpace(*in.Location)
	}
}
