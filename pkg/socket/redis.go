package socket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channel = "socket:private"

// envelope is the message format the socket gateway expects on the channel
type envelope struct {
	UserID  uuid.UUID       `json:"userId"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type redisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis creates a notifier publishing to the socket gateway channel
func NewRedis(client *redis.Client, logger *zap.Logger) Notifier {
	return &redisNotifier{client: client, logger: logger}
}

func (n *redisNotifier) SendPrivateMessage(ctx context.Context, userID uuid.UUID, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal socket payload: %w", err)
	}
	msg, err := json.Marshal(envelope{UserID: userID, Event: event, Payload: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal socket envelope: %w", err)
	}
	if err := n.client.Publish(ctx, channel, msg).Err(); err != nil {
		return fmt.Errorf("failed to publish socket event: %w", err)
	}
	n.logger.Debug("socket event published",
		zap.String("event", event),
		zap.String("userId", userID.String()))
	return nil
}
