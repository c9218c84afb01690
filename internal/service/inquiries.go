package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/realtyhub/realtyhub/internal/models"
)

// InquiryRepository defines the persistence operations on inquiries.
type InquiryRepository interface {
	Create(ctx context.Context, q *models.Inquiry) error
	ListByAccount(ctx context.Context, accountID string) ([]models.Inquiry, error)
}

// InquiryService records questions about listings.
type InquiryService struct {
	inquiries InquiryRepository
	listings  ListingReader
}

// NewInquiryService constructs an InquiryService.
func NewInquiryService(inquiries InquiryRepository, listings ListingReader) *InquiryService {
	return &InquiryService{inquiries: inquiries, listings: listings}
}

// Create stores an inquiry about a listing visible to actor.
func (s *InquiryService) Create(ctx context.Context, actor *models.Identity, listingID, message string) (*models.Inquiry, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	message = strings.TrimSpace(message)
	if listingID == "" || message == "" {
		return nil, models.Invalid("propertyId and message are required")
	}
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !models.CanView(l, actor) {
		return nil, models.ErrNotFound
	}
	q := &models.Inquiry{
		ID:           uuid.NewString(),
		AccountID:    actor.AccountID,
		ListingID:    listingID,
		Message:      message,
		ListingTitle: l.Title,
	}
	if err := s.inquiries.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ListMine returns the actor's inquiries, newest first.
func (s *InquiryService) ListMine(ctx context.Context, actor *models.Identity) ([]models.Inquiry, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	return s.inquiries.ListByAccount(ctx, actor.AccountID)
}
