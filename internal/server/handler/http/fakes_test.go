package http_test

import (
	"context"

	"github.com/realtyhub/realtyhub/internal/models"
	"github.com/realtyhub/realtyhub/internal/service"
)

// fakeAuthService implements AuthService with overridable functions.
type fakeAuthService struct {
	RegisterFunc func(ctx context.Context, in service.RegisterInput) (*models.Account, error)
	LoginFunc    func(ctx context.Context, email, password string) (*service.Session, error)
	LogoutFunc   func(ctx context.Context, token string) error
}

func (f *fakeAuthService) Register(ctx context.Context, in service.RegisterInput) (*models.Account, error) {
	return f.RegisterFunc(ctx, in)
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	return f.LoginFunc(ctx, email, password)
}

func (f *fakeAuthService) Logout(ctx context.Context, token string) error {
	if f.LogoutFunc == nil {
		return nil
	}
	return f.LogoutFunc(ctx, token)
}

// fakeListingService implements ListingService. Unset functions panic so
// that unexpected calls fail the test.
type fakeListingService struct {
	CreateFunc    func(ctx context.Context, actor *models.Identity, in service.ListingInput, uploads []service.Upload) (*models.Listing, error)
	UpdateFunc    func(ctx context.Context, actor *models.Identity, id string, in service.ListingInput, uploads []service.Upload) (*models.Listing, error)
	DeleteFunc    func(ctx context.Context, actor *models.Identity, id string) error
	SetStatusFunc func(ctx context.Context, actor *models.Identity, id, status string) (*models.Listing, error)
	GetFunc       func(ctx context.Context, viewer *models.Identity, id string) (*models.Listing, error)
	BrowseFunc    func(ctx context.Context, viewer *models.Identity, q service.BrowseQuery) ([]models.Listing, error)
	ListMineFunc  func(ctx context.Context, actor *models.Identity, f models.ListingFilter) ([]models.Listing, error)
	ListAllFunc   func(ctx context.Context, actor *models.Identity, f models.ListingFilter) ([]models.Listing, error)
}

func (f *fakeListingService) Create(ctx context.Context, actor *models.Identity, in service.ListingInput, uploads []service.Upload) (*models.Listing, error) {
	return f.CreateFunc(ctx, actor, in, uploads)
}

func (f *fakeListingService) Update(ctx context.Context, actor *models.Identity, id string, in service.ListingInput, uploads []service.Upload) (*models.Listing, error) {
	return f.UpdateFunc(ctx, actor, id, in, uploads)
}

func (f *fakeListingService) Delete(ctx context.Context, actor *models.Identity, id string) error {
	return f.DeleteFunc(ctx, actor, id)
}

func (f *fakeListingService) SetStatus(ctx context.Context, actor *models.Identity, id, status string) (*models.Listing, error) {
	return f.SetStatusFunc(ctx, actor, id, status)
}

func (f *fakeListingService) Get(ctx context.Context, viewer *models.Identity, id string) (*models.Listing, error) {
	return f.GetFunc(ctx, viewer, id)
}

func (f *fakeListingService) Browse(ctx context.Context, viewer *models.Identity, q service.BrowseQuery) ([]models.Listing, error) {
	return f.BrowseFunc(ctx, viewer, q)
}

func (f *fakeListingService) ListMine(ctx context.Context, actor *models.Identity, lf models.ListingFilter) ([]models.Listing, error) {
	return f.ListMineFunc(ctx, actor, lf)
}

func (f *fakeListingService) ListAll(ctx context.Context, actor *models.Identity, lf models.ListingFilter) ([]models.Listing, error) {
	return f.ListAllFunc(ctx, actor, lf)
}

// fakeAccountService implements AccountService.
type fakeAccountService struct {
	ProfileFunc       func(ctx context.Context, actor *models.Identity) (*models.Account, error)
	UpdateProfileFunc func(ctx context.Context, actor *models.Identity, in service.ProfileInput) (*models.Account, error)
	CreateFunc        func(ctx context.Context, actor *models.Identity, in service.AccountInput) (*models.Account, error)
	ListFunc          func(ctx context.Context, actor *models.Identity) ([]models.Account, error)
	UpdateFunc        func(ctx context.Context, actor *models.Identity, id string, in service.AccountInput) (*models.Account, error)
	DeleteFunc        func(ctx context.Context, actor *models.Identity, id string) error
}

func (f *fakeAccountService) Profile(ctx context.Context, actor *models.Identity) (*models.Account, error) {
	return f.ProfileFunc(ctx, actor)
}

func (f *fakeAccountService) UpdateProfile(ctx context.Context, actor *models.Identity, in service.ProfileInput) (*models.Account, error) {
	return f.UpdateProfileFunc(ctx, actor, in)
}

func (f *fakeAccountService) Create(ctx context.Context, actor *models.Identity, in service.AccountInput) (*models.Account, error) {
	return f.CreateFunc(ctx, actor, in)
}

func (f *fakeAccountService) List(ctx context.Context, actor *models.Identity) ([]models.Account, error) {
	return f.ListFunc(ctx, actor)
}

func (f *fakeAccountService) Update(ctx context.Context, actor *models.Identity, id string, in service.AccountInput) (*models.Account, error) {
	return f.UpdateFunc(ctx, actor, id, in)
}

func (f *fakeAccountService) Delete(ctx context.Context, actor *models.Identity, id string) error {
	return f.DeleteFunc(ctx, actor, id)
}

// fakeBookmarkService implements BookmarkService.
type fakeBookmarkService struct {
	AddFunc    func(ctx context.Context, actor *models.Identity, listingID string) (*models.Bookmark, error)
	RemoveFunc func(ctx context.Context, actor *models.Identity, listingID string) error
	ListFunc   func(ctx context.Context, actor *models.Identity) ([]models.Bookmark, error)
}

func (f *fakeBookmarkService) Add(ctx context.Context, actor *models.Identity, listingID string) (*models.Bookmark, error) {
	return f.AddFunc(ctx, actor, listingID)
}

func (f *fakeBookmarkService) Remove(ctx context.Context, actor *models.Identity, listingID string) error {
	return f.RemoveFunc(ctx, actor, listingID)
}

func (f *fakeBookmarkService) List(ctx context.Context, actor *models.Identity) ([]models.Bookmark, error) {
	return f.ListFunc(ctx, actor)
}

// fakeInquiryService implements InquiryService.
type fakeInquiryService struct {
	CreateFunc   func(ctx context.Context, actor *models.Identity, listingID, message string) (*models.Inquiry, error)
	ListMineFunc func(ctx context.Context, actor *models.Identity) ([]models.Inquiry, error)
}

func (f *fakeInquiryService) Create(ctx context.Context, actor *models.Identity, listingID, message string) (*models.Inquiry, error) {
	return f.CreateFunc(ctx, actor, listingID, message)
}

func (f *fakeInquiryService) ListMine(ctx context.Context, actor *models.Identity) ([]models.Inquiry, error) {
	return f.ListMineFunc(ctx, actor)
}

// fakeChatService implements ChatService.
type fakeChatService struct {
	ThreadFunc   func(ctx context.Context, actor *models.Identity) (*models.Chat, error)
	PostFunc     func(ctx context.Context, actor *models.Identity, targetAccountID, body string) (*models.ChatMessage, error)
	ThreadsFunc  func(ctx context.Context, actor *models.Identity) ([]models.Chat, error)
	ThreadOfFunc func(ctx context.Context, actor *models.Identity, accountID string) (*models.Chat, error)
}

func (f *fakeChatService) Thread(ctx context.Context, actor *models.Identity) (*models.Chat, error) {
	return f.ThreadFunc(ctx, actor)
}

func (f *fakeChatService) Post(ctx context.Context, actor *models.Identity, targetAccountID, body string) (*models.ChatMessage, error) {
	return f.PostFunc(ctx, actor, targetAccountID, body)
}

func (f *fakeChatService) Threads(ctx context.Context, actor *models.Identity) ([]models.Chat, error) {
	return f.ThreadsFunc(ctx, actor)
}

func (f *fakeChatService) ThreadOf(ctx context.Context, actor *models.Identity, accountID string) (*models.Chat, error) {
	return f.ThreadOfFunc(ctx, actor, accountID)
}

// tokenVerifier accepts tokens from a fixed table.
type tokenVerifier map[string]*models.Identity

func (v tokenVerifier) Verify(_ context.Context, token string) (*models.Identity, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return nil, models.ErrInvalidSession
}

var (
	aliceID = &models.Identity{AccountID: "alice-1", Role: models.RoleUser, Email: "alice@example.com"}
	adminID = &models.Identity{AccountID: "admin-1", Role: models.RoleAdmin, Email: "root@example.com"}
	tokens  = tokenVerifier{"alice-token": aliceID, "admin-token": adminID}
)
