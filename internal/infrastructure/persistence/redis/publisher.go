package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alem-hub/seminar-rating/internal/domain/shared"
	"github.com/alem-hub/seminar-rating/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT PUBLISHER
// ══════════════════════════════════════════════════════════════════════════════

// Message is the wire format of a published domain event.
type Message struct {
	Type        shared.EventType       `json:"type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// NewMessage converts a domain event to its wire format.
func NewMessage(event shared.Event) Message {
	return Message{
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	}
}

// EventPublisher implements shared.EventPublisher over Redis pub/sub.
// Each event goes to the channel "pubsub:<event type>" unless a fixed
// channel is configured.
type EventPublisher struct {
	cache   *Cache
	channel string
	retrier *retry.Retrier
	logger  *slog.Logger
}

var _ shared.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher creates a publisher. An empty channel means per-type channels.
func NewEventPublisher(cache *Cache, channel string, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{
		cache:   cache,
		channel: channel,
		retrier: retry.PublishRetrier(),
		logger:  logger,
	}
}

// Channel returns the channel an event of the given type is published to.
func (p *EventPublisher) Channel(eventType shared.EventType) string {
	if p.channel != "" {
		return p.channel
	}
	return PubSubChannel(string(eventType))
}

// Publish sends the event. Network failures are retried with backoff.
func (p *EventPublisher) Publish(ctx context.Context, event shared.Event) error {
	channel := p.Channel(event.EventType())
	msg := NewMessage(event)

	return p.retrier.Do(ctx, func(ctx context.Context) error {
		receivers, err := p.cache.Publish(ctx, channel, msg)
		if err != nil {
			if isTransient(err) {
				return retry.Retryable(err)
			}
			return err
		}

		p.logger.Debug("event published",
			"channel", channel,
			"type", string(msg.Type),
			"aggregate_id", msg.AggregateID,
			"receivers", receivers,
		)
		return nil
	})
}

func isTransient(err error) bool {
	if errors.Is(err, ErrCacheSerialization) || errors.Is(err, ErrCacheKeyEmpty) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, redis.ErrClosed)
}
