package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types.
const (
	// Rating events
	EventRatingsRecalculated EventType = "rating.recalculated"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Rating Events
// ═══════════════════════════════════════════════════════════════════════════

// RatingsRecalculatedEvent is emitted after a full population recalculation
// has been persisted. The aggregate ID is the recalculation run ID.
type RatingsRecalculatedEvent struct {
	BaseEvent
	Trigger  string   `json:"trigger"` // "explicit" or "cache_miss"
	Total    int      `json:"total"`
	Included int      `json:"included"`
	Excluded int      `json:"excluded"`
	Mu       *float64 `json:"mu,omitempty"`
	Sigma    *float64 `json:"sigma,omitempty"`
}

// Payload implements Event interface.
func (e RatingsRecalculatedEvent) Payload() map[string]interface{} {
	payload := map[string]interface{}{
		"trigger":  e.Trigger,
		"total":    e.Total,
		"included": e.Included,
		"excluded": e.Excluded,
	}
	if e.Mu != nil {
		payload["mu"] = *e.Mu
	}
	if e.Sigma != nil {
		payload["sigma"] = *e.Sigma
	}
	return payload
}

// NewRatingsRecalculatedEvent creates a new RatingsRecalculatedEvent.
func NewRatingsRecalculatedEvent(runID, trigger string, total, included, excluded int, mu, sigma *float64) RatingsRecalculatedEvent {
	return RatingsRecalculatedEvent{
		BaseEvent: NewBaseEvent(EventRatingsRecalculated, runID),
		Trigger:   trigger,
		Total:     total,
		Included:  included,
		Excluded:  excluded,
		Mu:        mu,
		Sigma:     sigma,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(ctx context.Context, event Event) error
}
