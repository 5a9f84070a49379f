package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/shared/constants"
	"github.com/saathi-inc/saathi/internal/shared/goroutine"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

const (
	initialReconnectBackoff = time.Second
	maxReconnectBackoff     = 30 * time.Second
)

// entitlementChangedMessage is the wire form of an entitlement change.
type entitlementChangedMessage struct {
	quota.EntitlementChangedEvent
	InstanceID string `json:"instance_id,omitempty"` // Source instance ID to avoid self-delivery
}

// EntitlementChangedHandler is invoked for every change published by another instance.
type EntitlementChangedHandler func(ctx context.Context, event quota.EntitlementChangedEvent)

// RedisEntitlementEventBus fans entitlement changes out to every instance over Redis Pub/Sub.
type RedisEntitlementEventBus struct {
	client     *redis.Client
	logger     logger.Interface
	instanceID string
}

var _ quota.EntitlementEventPublisher = (*RedisEntitlementEventBus)(nil)

// NewRedisEntitlementEventBus creates a new Redis-based entitlement event bus.
func NewRedisEntitlementEventBus(client *redis.Client, logger logger.Interface) *RedisEntitlementEventBus {
	return &RedisEntitlementEventBus{
		client:     client,
		logger:     logger,
		instanceID: uuid.NewString(),
	}
}

// InstanceID returns the identifier stamped on events published by this bus.
func (b *RedisEntitlementEventBus) InstanceID() string {
	return b.instanceID
}

// PublishEntitlementChanged publishes a change event. The timestamp defaults to now.
func (b *RedisEntitlementEventBus) PublishEntitlementChanged(ctx context.Context, event quota.EntitlementChangedEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UTC().Unix()
	}

	data, err := json.Marshal(entitlementChangedMessage{
		EntitlementChangedEvent: event,
		InstanceID:              b.instanceID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal entitlement changed event: %w", err)
	}

	if err := b.client.Publish(ctx, constants.ChannelEntitlementChanged, data).Err(); err != nil {
		b.logger.Errorw("failed to publish entitlement changed event",
			"subscriber_id", event.SubscriberID,
			"reason", event.Reason,
			"error", err,
		)
		return fmt.Errorf("failed to publish entitlement changed event: %w", err)
	}

	b.logger.Debugw("entitlement changed event published",
		"subscriber_id", event.SubscriberID,
		"reason", event.Reason,
	)
	return nil
}

// SubscribeEntitlementChanged blocks until ctx is done, reconnecting with
// exponential backoff. Events published by this instance are filtered out.
func (b *RedisEntitlementEventBus) SubscribeEntitlementChanged(ctx context.Context, handler EntitlementChangedHandler) error {
	return b.subscribeWithReconnect(ctx, constants.ChannelEntitlementChanged, func(ctx context.Context, payload string) {
		var msg entitlementChangedMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			b.logger.Warnw("failed to unmarshal entitlement changed event",
				"payload", payload,
				"error", err,
			)
			return
		}

		if msg.InstanceID == b.instanceID {
			return
		}

		handler(ctx, msg.EntitlementChangedEvent)
	})
}

func (b *RedisEntitlementEventBus) subscribeWithReconnect(ctx context.Context, channel string, handler func(ctx context.Context, payload string)) error {
	backoff := initialReconnectBackoff

	for {
		err := b.subscribe(ctx, channel, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.logger.Warnw("entitlement subscription disconnected, reconnecting",
			"channel", channel,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxReconnectBackoff)
	}
}

func (b *RedisEntitlementEventBus) subscribe(ctx context.Context, channel string, handler func(ctx context.Context, payload string)) error {
	ps := b.client.Subscribe(ctx, channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}

	b.logger.Infow("subscribed to entitlement event channel",
		"channel", channel,
	)

	ch := ps.Channel()

	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("entitlement event subscriber stopped",
				"channel", channel,
				"reason", ctx.Err(),
			)
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("entitlement event channel closed",
					"channel", channel,
				)
				return nil
			}

			goroutine.SafeGo(ctx, b.logger, "entitlement-event-handler", func(ctx context.Context) {
				handler(ctx, msg.Payload)
			})
		}
	}
}

// NopEntitlementEventPublisher drops every event. Used when Redis is disabled.
type NopEntitlementEventPublisher struct{}

func (NopEntitlementEventPublisher) PublishEntitlementChanged(context.Context, quota.EntitlementChangedEvent) error {
	return nil
}
