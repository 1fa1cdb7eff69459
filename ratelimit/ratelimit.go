// Package ratelimit limits requests per API key.
//
// Two implementations share the Limiter interface: Memory keeps a sliding
// window of hit timestamps per key, Redis keeps a fixed-window counter so
// several processes can share one budget.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// MEMORY - Sliding window
// =============================================================================

// Memory allows at most Limit hits per key in any Window.
type Memory struct {
	Limit  int
	Window time.Duration
	Now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		Limit:  limit,
		Window: window,
		Now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// Allow records a hit and reports whether it fits in the window.
// Rejected hits are not recorded.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	q := m.hits[key]

	// Drop hits older than the window.
	drop := 0
	for drop < len(q) && now.Sub(q[drop]) > m.Window {
		drop++
	}
	q = q[drop:]

	if len(q) >= m.Limit {
		m.hits[key] = q
		return false, nil
	}
	m.hits[key] = append(q, now)
	return true, nil
}

// =============================================================================
// REDIS - Fixed window counter
// =============================================================================

// Redis counts hits per key and window bucket with INCR + EXPIRE.
type Redis struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
	Prefix string
	Now    func() time.Time
}

func NewRedis(client *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{
		Client: client,
		Limit:  limit,
		Window: window,
		Prefix: "vacation:ratelimit",
		Now:    time.Now,
	}
}

// Allow increments the current bucket; the first hit sets its expiry.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	bucketKey := r.BucketKey(key)

	count, err := r.Client.Incr(ctx, bucketKey).Result()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", bucketKey, err)
	}
	if count == 1 {
		if err := r.Client.Expire(ctx, bucketKey, r.Window).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", bucketKey, err)
		}
	}
	return count <= int64(r.Limit), nil
}

// BucketKey is the Redis key for key in the current window. The API key is
// hashed so the secret never appears in Redis.
func (r *Redis) BucketKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	bucket := r.Now().UnixMilli() / max(r.Window.Milliseconds(), 1)
	return fmt.Sprintf("%s:%s:%d", r.Prefix, hex.EncodeToString(sum[:8]), bucket)
}
