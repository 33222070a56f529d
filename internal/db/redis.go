package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BidderConfigUpdateChannel is the pub/sub channel consumers of bidder
// configuration subscribe to.
const BidderConfigUpdateChannel = "bidder-config-updates"

// Update actions.
const (
	ActionUpdate = "update"
	ActionCreate = "create"
	ActionDelete = "delete"
)

// UpdateMessage announces a change to one bidder config.
type UpdateMessage struct {
	ID             uuid.UUID `json:"id"`
	Entity         string    `json:"entity"`
	Action         string    `json:"action"`
	BidderConfigID int       `json:"bidder_config_id"`
	Bidder         string    `json:"bidder"`
}

// RedisNotifier publishes bidder config changes over Redis pub/sub.
type RedisNotifier struct {
	Client *redis.Client
}

// InitRedis connects to Redis and returns a notifier.
func InitRedis(ctx context.Context, addr string) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return &RedisNotifier{Client: client}, nil
}

// Publish sends an update message for a bidder config and returns it.
func (n *RedisNotifier) Publish(ctx context.Context, action string, bidderConfigID int, bidder string) (UpdateMessage, error) {
	msg := UpdateMessage{
		ID:             uuid.New(),
		Entity:         "bidder_config",
		Action:         action,
		BidderConfigID: bidderConfigID,
		Bidder:         bidder,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return msg, fmt.Errorf("marshal update message: %w", err)
	}
	if err := n.Client.Publish(ctx, BidderConfigUpdateChannel, payload).Err(); err != nil {
		return msg, fmt.Errorf("publish update message: %w", err)
	}
	return msg, nil
}

// Close closes the Redis client.
func (n *RedisNotifier) Close() {
	if n != nil && n.Client != nil {
		if err := n.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
