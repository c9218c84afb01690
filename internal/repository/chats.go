package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/realtyhub/realtyhub/internal/models"
)

// PostgresChatRepository stores chat threads and their messages.
type PostgresChatRepository struct {
	DB *sqlx.DB
}

// NewPostgresChatRepository creates a repository over db.
func NewPostgresChatRepository(db *sqlx.DB) *PostgresChatRepository {
	return &PostgresChatRepository{DB: db}
}

// GetOrCreate returns the thread of accountID, creating it on first use.
// newID is used only when a thread is created.
func (r *PostgresChatRepository) GetOrCreate(ctx context.Context, accountID, newID string) (*models.Chat, error) {
	var c models.Chat
	err := r.DB.GetContext(ctx, &c, `
		INSERT INTO chats (id, account_id) VALUES ($1, $2)
		ON CONFLICT (account_id) DO UPDATE SET account_id = EXCLUDED.account_id
		RETURNING id, account_id, created_at, updated_at
	`, newID, accountID)
	if err != nil {
		return nil, translate("get or create chat", err)
	}
	return &c, nil
}

// GetByAccount returns the thread of accountID or ErrNotFound.
func (r *PostgresChatRepository) GetByAccount(ctx context.Context, accountID string) (*models.Chat, error) {
	var c models.Chat
	err := r.DB.GetContext(ctx, &c,
		`SELECT id, account_id, created_at, updated_at FROM chats WHERE account_id = $1`, accountID)
	if err != nil {
		return nil, translate("get chat", err)
	}
	return &c, nil
}

// Messages returns the messages of a thread, oldest first.
func (r *PostgresChatRepository) Messages(ctx context.Context, chatID string) ([]models.ChatMessage, error) {
	messages := []models.ChatMessage{}
	err := r.DB.SelectContext(ctx, &messages, `
		SELECT id, chat_id, sender_id, body, created_at FROM chat_messages
		WHERE chat_id = $1
		ORDER BY created_at
	`, chatID)
	if err != nil {
		return nil, translate("list chat messages", err)
	}
	return messages, nil
}

// AddMessage stores m and bumps the thread's updated_at.
func (r *PostgresChatRepository) AddMessage(ctx context.Context, m *models.ChatMessage) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowxContext(ctx, `
		INSERT INTO chat_messages (id, chat_id, sender_id, body) VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, m.ID, m.ChatID, m.SenderID, m.Body).Scan(&m.CreatedAt); err != nil {
		return translate("add chat message", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE chats SET updated_at = now() WHERE id = $1`, m.ChatID); err != nil {
		return translate("touch chat", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns all threads with the owner's email, most recently active first.
func (r *PostgresChatRepository) List(ctx context.Context) ([]models.Chat, error) {
	chats := []models.Chat{}
	err := r.DB.SelectContext(ctx, &chats, `
		SELECT c.id, c.account_id, c.created_at, c.updated_at, a.email AS account_email
		FROM chats c
		JOIN accounts a ON a.id = c.account_id
		ORDER BY c.updated_at DESC
	`)
	if err != nil {
		return nil, translate("list chats", err)
	}
	return chats, nil
}
