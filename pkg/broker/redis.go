package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/superdao/reconciler/internal/metrics"
	"github.com/superdao/reconciler/pkg/config"
)

// messageField is the stream entry field the envelope is serialized into
const messageField = "message"

// RedisBroker is a Redis Streams implementation of the transaction broker.
// Publishing appends to the stream; consumption runs through a consumer
// group so multiple reconciler instances share the load.
type RedisBroker struct {
	client *redis.Client
	cfg    config.BrokerConfig
	logger *zap.Logger
}

// NewRedisBroker creates a broker on an already connected Redis client
func NewRedisBroker(client *redis.Client, cfg config.BrokerConfig, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{client: client, cfg: cfg, logger: logger}
}

func (b *RedisBroker) publish(ctx context.Context, action Action, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", action, err)
	}

	msg := Message{
		Action:   action,
		Scenario: ScenarioPending,
		Data:     payload,
	}
	envelope, err := json.Marshal(&msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", action, err)
	}

	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.cfg.Stream,
		Values: map[string]any{messageField: string(envelope)},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish %s message: %w", action, err)
	}
	return nil
}

func (b *RedisBroker) TrackBanTransaction(ctx context.Context, data *BanData) error {
	return b.publish(ctx, ActionBan, data)
}

func (b *RedisBroker) TrackAirdropTransaction(ctx context.Context, data *AirdropData) error {
	return b.publish(ctx, ActionAirdrop, data)
}

func (b *RedisBroker) TrackWhitelistTransaction(ctx context.Context, data *WhitelistData) error {
	return b.publish(ctx, ActionWhitelist, data)
}

func (b *RedisBroker) TrackBuyNftTransaction(ctx context.Context, data *BuyNftData) error {
	return b.publish(ctx, ActionBuyNft, data)
}

func (b *RedisBroker) TrackBuyWhitelistNftTransaction(ctx context.Context, data *BuyNftData) error {
	return b.publish(ctx, ActionBuyWhitelistNft, data)
}

func (b *RedisBroker) TrackClaimNftTransaction(ctx context.Context, data *ClaimNftData) error {
	return b.publish(ctx, ActionClaimNft, data)
}

func (b *RedisBroker) TrackReferralClaimTransaction(ctx context.Context, data *ReferralClaimData) error {
	return b.publish(ctx, ActionReferralClaim, data)
}

func (b *RedisBroker) TrackChangeRoleTransaction(ctx context.Context, data *ChangeRoleData) error {
	return b.publish(ctx, ActionChangeRole, data)
}

// Run consumes the stream until ctx is canceled, dispatching every entry.
// Entries are acknowledged regardless of handler outcome.
func (b *RedisBroker) Run(ctx context.Context, dispatcher *Dispatcher) error {
	if err := b.ensureGroup(ctx); err != nil {
		return err
	}

	b.logger.Info("Broker consumer started",
		zap.String("stream", b.cfg.Stream),
		zap.String("group", b.cfg.ConsumerGroup),
		zap.String("consumer", b.cfg.ConsumerName))

	for {
		if err := ctx.Err(); err != nil {
			b.logger.Info("Broker consumer stopped")
			return nil
		}

		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.cfg.ConsumerGroup,
			Consumer: b.cfg.ConsumerName,
			Streams:  []string{b.cfg.Stream, ">"},
			Count:    b.cfg.BatchSize,
			Block:    b.cfg.BlockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			metrics.ErrorsTotal.WithLabelValues("broker", "read").Inc()
			b.logger.Error("Broker read failed", zap.Error(err))
			continue
		}

		for _, stream := range streams {
			for _, entry := range stream.Messages {
				b.handleEntry(ctx, dispatcher, entry)
			}
		}
	}
}

func (b *RedisBroker) handleEntry(ctx context.Context, dispatcher *Dispatcher, entry redis.XMessage) {
	defer func() {
		if err := b.client.XAck(ctx, b.cfg.Stream, b.cfg.ConsumerGroup, entry.ID).Err(); err != nil {
			b.logger.Warn("Broker ack failed",
				zap.String("entry_id", entry.ID),
				zap.Error(err))
		}
	}()

	raw, ok := entry.Values[messageField].(string)
	if !ok {
		b.logger.Warn("Broker entry missing message field", zap.String("entry_id", entry.ID))
		return
	}

	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		metrics.ErrorsTotal.WithLabelValues("broker", "decode").Inc()
		b.logger.Warn("Broker entry is not a valid message",
			zap.String("entry_id", entry.ID),
			zap.Error(err))
		return
	}

	dispatcher.Dispatch(ctx, &msg)
}

func (b *RedisBroker) ensureGroup(ctx context.Context) error {
	err := b.client.XGroupCreateMkStream(ctx, b.cfg.Stream, b.cfg.ConsumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}
