package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCompositeHealthChecker_NoChecks(t *testing.T) {
	status := NewCompositeHealthChecker("1.0").Check(context.Background())

	assert.True(t, status.Healthy)
	assert.Equal(t, "No health checks registered", status.Message)
	assert.Equal(t, "1.0", status.Version)
}

func TestCompositeHealthChecker_AllPass(t *testing.T) {
	c := NewCompositeHealthChecker("1.0")
	c.AddCheck("storage", NewPingCheck(pingerFunc(func(context.Context) error { return nil })))
	c.AddCheck("redis", NewPingCheck(pingerFunc(func(context.Context) error { return nil })))

	status := c.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.Equal(t, "All checks passed", status.Message)
	require.Len(t, status.Checks, 2)
	assert.Equal(t, "OK", status.Checks["redis"].Message)
}

func TestCompositeHealthChecker_FailuresSorted(t *testing.T) {
	c := NewCompositeHealthChecker("1.0")
	fail := func(context.Context) error { return errors.New("down") }
	c.AddCheck("storage", fail)
	c.AddCheck("redis", fail)

	status := c.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, "Some checks failed: redis, storage", status.Message)
	assert.Equal(t, "down", status.Checks["storage"].Message)
}

func TestCompositeHealthChecker_Timeout(t *testing.T) {
	c := NewCompositeHealthChecker("1.0")
	c.SetTimeout(10 * time.Millisecond)
	c.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status := c.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.Contains(t, status.Checks["slow"].Message, "deadline exceeded")
}
