package redis

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/seminar-rating/internal/domain/shared"
)

func recalculatedEvent() shared.RatingsRecalculatedEvent {
	mu, sigma := 175.0, 55.9
	return shared.NewRatingsRecalculatedEvent("run-1", "explicit", 5, 4, 1, &mu, &sigma)
}

func TestEventPublisher_Channel(t *testing.T) {
	perType := NewEventPublisher(nil, "", nil)
	assert.Equal(t, "pubsub:rating.recalculated", perType.Channel(shared.EventRatingsRecalculated))

	fixed := NewEventPublisher(nil, "custom", nil)
	assert.Equal(t, "custom", fixed.Channel(shared.EventRatingsRecalculated))
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(recalculatedEvent())

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "rating.recalculated", decoded["type"])
	assert.Equal(t, "run-1", decoded["aggregate_id"])

	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "explicit", payload["trigger"])
	assert.Equal(t, 5.0, payload["total"])
	assert.Equal(t, 175.0, payload["mu"])
}

func TestIsTransient(t *testing.T) {
	assert.False(t, isTransient(ErrCacheSerialization))
	assert.False(t, isTransient(context.Canceled))
	assert.True(t, isTransient(assert.AnError))
}

// Requires a running Redis; set REDIS_ADDR to enable.
func TestEventPublisher_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	cfg := DefaultConfig()
	cfg.Addr = addr
	cache, err := NewCache(cfg)
	require.NoError(t, err)
	defer cache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pub := NewEventPublisher(cache, "", nil)
	sub := cache.Subscribe(ctx, pub.Channel(shared.EventRatingsRecalculated))
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, recalculatedEvent()))

	received, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(received.Payload), &msg))
	assert.Equal(t, shared.EventRatingsRecalculated, msg.Type)
	assert.Equal(t, "run-1", msg.AggregateID)
}
