// Package chat relays stored chat messages to live subscribers.
package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/realtyhub/realtyhub/internal/models"
	"github.com/redis/go-redis/v9"
)

// EventReceiveMessage is the event name live clients listen for.
const EventReceiveMessage = "receive_message"

// Event is the payload published to a room.
type Event struct {
	Event   string              `json:"event"`
	Room    string              `json:"room"`
	Message *models.ChatMessage `json:"message"`
}

// RedisRelay publishes messages on one Redis channel per room. A room is
// the account id of the thread owner. Delivery is at most once.
type RedisRelay struct {
	client *redis.Client
	prefix string
}

// NewRedisRelay returns a relay publishing on "<prefix>:<room>".
func NewRedisRelay(client *redis.Client, prefix string) *RedisRelay {
	if prefix == "" {
		prefix = "chat:room"
	}
	return &RedisRelay{client: client, prefix: prefix}
}

func (r *RedisRelay) channel(room string) string {
	return r.prefix + ":" + room
}

// Publish sends m to room. Subscribers that are not connected miss it.
func (r *RedisRelay) Publish(ctx context.Context, room string, m *models.ChatMessage) error {
	payload, err := json.Marshal(Event{Event: EventReceiveMessage, Room: room, Message: m})
	if err != nil {
		return fmt.Errorf("encode chat event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel(room), payload).Err(); err != nil {
		return fmt.Errorf("publish chat event: %w", err)
	}
	return nil
}

// NopRelay drops every message. It is used when Redis is not configured.
type NopRelay struct{}

// Publish does nothing.
func (NopRelay) Publish(context.Context, string, *models.ChatMessage) error { return nil }
