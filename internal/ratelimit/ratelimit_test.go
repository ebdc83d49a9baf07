package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/patrickwarner/nativeads/internal/observability"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestTokenBucket_Allow(t *testing.T) {
	bucket := NewTokenBucket(5, 1)

	for i := 0; i < 5; i++ {
		assert.True(t, bucket.Allow(), "request %d", i+1)
	}
	assert.False(t, bucket.Allow())

	hits, total := bucket.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(6), total)
}

func TestTokenBucket_Refill(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	bucket := newTokenBucket(2, 10, clock.now)

	assert.True(t, bucket.Allow())
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow())

	clock.advance(50 * time.Millisecond)
	assert.False(t, bucket.Allow(), "half a token is not enough")

	clock.advance(50 * time.Millisecond)
	assert.True(t, bucket.Allow())

	clock.advance(time.Hour)
	assert.True(t, bucket.Allow())
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow(), "refill is capped at capacity")
}

func TestClientLimiter_PerClientBuckets(t *testing.T) {
	metrics := &observability.MockMetricsRegistry{}
	limiter := NewClientLimiter(Config{Capacity: 1, RefillRate: 1, Enabled: true}, metrics)
	clock := &fakeClock{t: time.Unix(0, 0)}
	limiter.now = clock.now

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))

	assert.Equal(t, 2, metrics.Count("rate_limit:allowed"))
	assert.Equal(t, 1, metrics.Count("rate_limit:limited"))

	stats := limiter.GetStats()
	assert.Equal(t, int64(1), stats["10.0.0.1"].Hits)
	assert.Equal(t, 0.5, stats["10.0.0.1"].HitRate)
	assert.Equal(t, "client 10.0.0.1: 1/2 hits (50.00%)", stats["10.0.0.1"].String())
}

func TestClientLimiter_Disabled(t *testing.T) {
	limiter := NewClientLimiter(Config{Capacity: 0, Enabled: false}, nil)
	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Allow("client"))
	}
	assert.Empty(t, limiter.GetStats())
}

func TestClientLimiter_Prune(t *testing.T) {
	limiter := NewClientLimiter(Config{Capacity: 1, RefillRate: 1, Enabled: true}, nil)
	clock := &fakeClock{t: time.Unix(0, 0)}
	limiter.now = clock.now

	limiter.Allow("old")
	clock.advance(time.Minute)
	limiter.Allow("new")

	assert.Equal(t, 1, limiter.Prune(30*time.Second))
	assert.Len(t, limiter.GetStats(), 1)
	assert.Contains(t, limiter.GetStats(), "new")
}
