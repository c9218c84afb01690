package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/realtyhub/realtyhub/internal/models"
	"go.uber.org/zap"
)

// ChatRepository defines the persistence operations on chat threads.
type ChatRepository interface {
	GetOrCreate(ctx context.Context, accountID, newID string) (*models.Chat, error)
	GetByAccount(ctx context.Context, accountID string) (*models.Chat, error)
	Messages(ctx context.Context, chatID string) ([]models.ChatMessage, error)
	AddMessage(ctx context.Context, m *models.ChatMessage) error
	List(ctx context.Context) ([]models.Chat, error)
}

// Relay delivers stored messages to live subscribers of a room.
type Relay interface {
	Publish(ctx context.Context, room string, m *models.ChatMessage) error
}

// ChatService keeps one support thread per account. Users write in their
// own thread; administrators answer in any.
type ChatService struct {
	chats ChatRepository
	relay Relay
	log   *zap.Logger
}

// NewChatService constructs a ChatService.
func NewChatService(chats ChatRepository, relay Relay, log *zap.Logger) *ChatService {
	return &ChatService{chats: chats, relay: relay, log: log}
}

// Thread returns the actor's thread with its messages, creating it on
// first access.
func (s *ChatService) Thread(ctx context.Context, actor *models.Identity) (*models.Chat, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	c, err := s.chats.GetOrCreate(ctx, actor.AccountID, uuid.NewString())
	if err != nil {
		return nil, err
	}
	return s.withMessages(ctx, c)
}

// Post stores a message and relays it to the thread owner's room.
// Administrators must name the account whose thread they answer; for
// everybody else targetAccountID is ignored.
func (s *ChatService) Post(ctx context.Context, actor *models.Identity, targetAccountID, body string) (*models.ChatMessage, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, models.Invalid("content is required")
	}
	room := actor.AccountID
	if actor.IsAdmin() {
		if targetAccountID == "" {
			return nil, models.Invalid("userId is required")
		}
		room = targetAccountID
	}

	c, err := s.chats.GetOrCreate(ctx, room, uuid.NewString())
	if err != nil {
		return nil, err
	}
	m := &models.ChatMessage{ID: uuid.NewString(), ChatID: c.ID, SenderID: actor.AccountID, Body: body}
	if err := s.chats.AddMessage(ctx, m); err != nil {
		return nil, err
	}

	if err := s.relay.Publish(context.WithoutCancel(ctx), room, m); err != nil {
		s.log.Warn("failed to relay chat message", zap.String("room", room), zap.Error(err))
	}
	return m, nil
}

// Threads lists every thread. Administrators only.
func (s *ChatService) Threads(ctx context.Context, actor *models.Identity) ([]models.Chat, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.chats.List(ctx)
}

// ThreadOf returns the thread of accountID. Administrators only.
func (s *ChatService) ThreadOf(ctx context.Context, actor *models.Identity, accountID string) (*models.Chat, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	c, err := s.chats.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.withMessages(ctx, c)
}

func (s *ChatService) withMessages(ctx context.Context, c *models.Chat) (*models.Chat, error) {
	messages, err := s.chats.Messages(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Messages = messages
	return c, nil
}
