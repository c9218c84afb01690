package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/realtyhub/realtyhub/internal/models"
)

// memStore is an in-memory database behind every repository interface of
// this package.
type memStore struct {
	mu        sync.Mutex
	accounts  map[string]*models.Account
	listings  map[string]*models.Listing
	bookmarks map[string]models.Bookmark
	inquiries []models.Inquiry
	chats     map[string]*models.Chat
	messages  []models.ChatMessage
	tombs     []string
}

func newMemStore() *memStore {
	return &memStore{
		accounts:  map[string]*models.Account{},
		listings:  map[string]*models.Listing{},
		bookmarks: map[string]models.Bookmark{},
		chats:     map[string]*models.Chat{},
	}
}

type memAccounts struct{ *memStore }

func (m memAccounts) Create(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return models.ErrConflict
		}
	}
	a.CreatedAt = time.Now()
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m memAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m memAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m memAccounts) List(_ context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m memAccounts) Update(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m memAccounts) Delete(_ context.Context, id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return nil, models.ErrNotFound
	}
	delete(m.accounts, id)
	var keys []string
	for lid, l := range m.listings {
		if l.OwnerID == id {
			keys = append(keys, imageKeys(l.Images)...)
			delete(m.listings, lid)
		}
	}
	return keys, nil
}

type memListings struct{ *memStore }

func (m memListings) Create(_ context.Context, l *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.listings[l.ID] = &cp
	return nil
}

func (m memListings) GetByID(_ context.Context, id string) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m memListings) ListByIDs(_ context.Context, ids []string) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Listing
	for _, id := range ids {
		if l, ok := m.listings[id]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m memListings) Search(_ context.Context, f models.ListingFilter) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Listing
	for _, l := range m.listings {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.OwnerID != "" && l.OwnerID != f.OwnerID {
			continue
		}
		if f.Type != "" && l.Type != f.Type {
			continue
		}
		if f.Location != "" && !strings.Contains(strings.ToLower(l.City+" "+l.District+" "+l.Area), strings.ToLower(f.Location)) {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memListings) SuggestFromBookmarks(_ context.Context, accountID string, limit int) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := map[string]bool{}
	for _, b := range m.bookmarks {
		if b.AccountID != accountID {
			continue
		}
		if l, ok := m.listings[b.ListingID]; ok {
			types[l.Type] = true
		}
	}
	var out []models.Listing
	for _, l := range m.listings {
		if l.Status == models.StatusApproved && types[l.Type] && len(out) < limit {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m memListings) Update(_ context.Context, l *models.Listing, newImages []models.Image) ([]models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.listings[l.ID]
	if !ok {
		return nil, models.ErrNotFound
	}
	var removed []models.Image
	if len(newImages) > 0 {
		removed = old.Images
		l.Images = newImages
	}
	cp := *l
	m.listings[l.ID] = &cp
	return removed, nil
}

func (m memListings) UpdateStatus(_ context.Context, id string, status models.ListingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return models.ErrNotFound
	}
	l.Status = status
	return nil
}

func (m memListings) Delete(_ context.Context, id string) ([]models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	delete(m.listings, id)
	for k, b := range m.bookmarks {
		if b.ListingID == id {
			delete(m.bookmarks, k)
		}
	}
	return l.Images, nil
}

type memBookmarks struct{ *memStore }

func (m memBookmarks) Add(_ context.Context, b *models.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := b.AccountID + "/" + b.ListingID
	if _, ok := m.bookmarks[key]; ok {
		return models.ErrConflict
	}
	m.bookmarks[key] = *b
	return nil
}

func (m memBookmarks) Remove(_ context.Context, accountID, listingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bookmarks, accountID+"/"+listingID)
	return nil
}

func (m memBookmarks) ListByAccount(_ context.Context, accountID string) ([]models.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Bookmark
	for _, b := range m.bookmarks {
		if b.AccountID == accountID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ListingID < out[j].ListingID })
	return out, nil
}

type memInquiries struct{ *memStore }

func (m memInquiries) Create(_ context.Context, q *models.Inquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inquiries = append(m.inquiries, *q)
	return nil
}

func (m memInquiries) ListByAccount(_ context.Context, accountID string) ([]models.Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Inquiry
	for _, q := range m.inquiries {
		if q.AccountID == accountID {
			out = append(out, q)
		}
	}
	return out, nil
}

type memChats struct{ *memStore }

func (m memChats) GetOrCreate(_ context.Context, accountID, newID string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.chats[accountID]; ok {
		cp := *c
		return &cp, nil
	}
	c := &models.Chat{ID: newID, AccountID: accountID}
	m.chats[accountID] = c
	cp := *c
	return &cp, nil
}

func (m memChats) GetByAccount(_ context.Context, accountID string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[accountID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memChats) Messages(_ context.Context, chatID string) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChatMessage
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m memChats) AddMessage(_ context.Context, msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m memChats) List(_ context.Context) ([]models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Chat
	for _, c := range m.chats {
		out = append(out, *c)
	}
	return out, nil
}

type memTombstones struct{ *memStore }

func (m memTombstones) Add(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tombs = append(m.tombs, keys...)
	return nil
}

// memImages is an in-memory storage.ImageStore. DeleteFunc, when set,
// overrides deletion.
type memImages struct {
	mu         sync.Mutex
	files      map[string][]byte
	seq        int
	DeleteFunc func(key string) error
}

func newMemImages() *memImages {
	return &memImages{files: map[string][]byte{}}
}

func (m *memImages) Save(_ context.Context, prefix, filename, _ string, r io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	key := prefix + "/" + strings.Repeat("x", m.seq) + "-" + filename
	m.files[key] = data
	return key, nil
}

func (m *memImages) Delete(_ context.Context, key string) error {
	if m.DeleteFunc != nil {
		if err := m.DeleteFunc(key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	return nil
}

func (m *memImages) URL(key string) string {
	return "/uploads/" + key
}

func (m *memImages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// fakeSessions issues predictable tokens.
type fakeSessions struct {
	RevokeFunc func(token string) error
}

func (f *fakeSessions) Issue(a *models.Account) (string, time.Time, error) {
	return "token-" + a.ID, time.Now().Add(time.Hour), nil
}

func (f *fakeSessions) Revoke(_ context.Context, token string) error {
	if f.RevokeFunc != nil {
		return f.RevokeFunc(token)
	}
	return nil
}

// recordingRelay captures published messages.
type recordingRelay struct {
	mu    sync.Mutex
	rooms []string
	err   error
}

func (r *recordingRelay) Publish(_ context.Context, room string, _ *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms = append(r.rooms, room)
	return r.err
}

var errBoom = errors.New("boom")

// jpegBytes starts like a JFIF file.
const jpegBytes = "\xff\xd8\xff\xe0\x00\x10JFIF\x00"

func imageUpload(name string) Upload {
	return fileUpload(name, "image/jpeg", jpegBytes)
}

func fileUpload(name, contentType, content string) Upload {
	return Upload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func admin() *models.Identity {
	return &models.Identity{AccountID: "admin-1", Role: models.RoleAdmin, Email: "root@example.com"}
}

func user(id string) *models.Identity {
	return &models.Identity{AccountID: id, Role: models.RoleUser, Email: id + "@example.com"}
}

func validListing(title string) ListingInput {
	return ListingInput{
		Title:    title,
		Price:    120000,
		Type:     "apartment",
		Division: "Dhaka",
		District: "Dhaka",
		City:     "Dhaka",
		Area:     "Gulshan",
	}
}
