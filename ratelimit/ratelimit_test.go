package ratelimit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemory_SlidingWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewMemory(3, time.Minute)
	limiter.Now = clock.now
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "key")
		require.NoError(t, err)
		assert.True(t, ok, "hit %d", i)
		clock.advance(10 * time.Second)
	}

	ok, _ := limiter.Allow(ctx, "key")
	assert.False(t, ok, "fourth hit within the window is rejected")

	other, _ := limiter.Allow(ctx, "other-key")
	assert.True(t, other, "keys have separate budgets")

	// First hit was at t=0; at t=61s it has left the window.
	clock.advance(31 * time.Second)
	ok, _ = limiter.Allow(ctx, "key")
	assert.True(t, ok)

	ok, _ = limiter.Allow(ctx, "key")
	assert.False(t, ok)
}

func TestRedis_AllowsUpToLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRedis(client, 2, time.Minute)
	limiter.Now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	key := limiter.BucketKey("secret")

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectIncr(key).SetVal(3)

	for _, want := range []bool{true, true, false} {
		ok, err := limiter.Allow(ctx, "secret")
		require.NoError(t, err)
		assert.Equal(t, want, ok)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Error(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRedis(client, 2, time.Minute)
	key := limiter.BucketKey("secret")

	mock.ExpectIncr(key).SetErr(errors.New("connection refused"))

	_, err := limiter.Allow(context.Background(), "secret")
	assert.ErrorContains(t, err, "connection refused")
}

func TestRedis_BucketKeyHidesSecret(t *testing.T) {
	limiter := NewRedis(nil, 1, time.Minute)
	limiter.Now = func() time.Time { return time.Unix(120, 0) }

	key := limiter.BucketKey("super-secret")
	assert.NotContains(t, key, "super-secret")
	assert.Contains(t, key, "vacation:ratelimit:")
	assert.Equal(t, ":2", key[len(key)-2:])
}

func TestRedis_SubMillisecondWindow(t *testing.T) {
	limiter := NewRedis(nil, 1, 500*time.Microsecond)
	limiter.Now = func() time.Time { return time.UnixMilli(1234) }

	var key string
	require.NotPanics(t, func() { key = limiter.BucketKey("k") })
	assert.True(t, strings.HasSuffix(key, ":1234"), key)
}

func TestMemory_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewMemory(5, time.Minute)
	limiter.Now = clock.now
	ctx := context.Background()

	limiter.Allow(ctx, "idle")
	clock.advance(45 * time.Second)
	limiter.Allow(ctx, "active")
	require.Equal(t, 2, limiter.Keys())

	clock.advance(30 * time.Second)
	assert.Equal(t, 1, limiter.Sweep())
	assert.Equal(t, 1, limiter.Keys())
}

func TestJanitor_StartStop(t *testing.T) {
	limiter := NewMemory(5, time.Minute)
	limiter.Allow(context.Background(), "key")

	janitor := NewJanitor(limiter, nil)
	janitor.Interval = time.Millisecond
	limiter.Now = func() time.Time { return time.Now().Add(time.Hour) }

	janitor.Start()
	janitor.Start()
	assert.Eventually(t, func() bool { return limiter.Keys() == 0 }, time.Second, 5*time.Millisecond)
	janitor.Stop()
	janitor.Stop()
}
