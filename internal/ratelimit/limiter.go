package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickwarner/nativeads/internal/observability"
)

// Config holds the configuration for rate limiting.
type Config struct {
	Capacity   int  // burst allowance
	RefillRate int  // tokens added per second
	Enabled    bool // whether rate limiting is active
}

// ClientLimiter keeps one token bucket per client key, created lazily.
type ClientLimiter struct {
	buckets map[string]*TokenBucket
	mu      sync.RWMutex
	config  Config
	metrics observability.MetricsRegistry
	now     func() time.Time
}

func NewClientLimiter(config Config, metrics observability.MetricsRegistry) *ClientLimiter {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &ClientLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
		metrics: metrics,
		now:     time.Now,
	}
}

// Allow reports whether a request from client may proceed. A disabled
// limiter allows everything.
func (l *ClientLimiter) Allow(client string) bool {
	if !l.config.Enabled {
		return true
	}

	l.mu.RLock()
	bucket, exists := l.buckets[client]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		bucket, exists = l.buckets[client]
		if !exists {
			bucket = newTokenBucket(l.config.Capacity, l.config.RefillRate, l.now)
			l.buckets[client] = bucket
		}
		l.mu.Unlock()
	}

	if bucket.Allow() {
		l.metrics.IncrementRateLimitChecks("allowed")
		return true
	}
	l.metrics.IncrementRateLimitChecks("limited")
	return false
}

// Prune forgets clients idle for longer than idle and returns how many were
// removed.
func (l *ClientLimiter) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for client, bucket := range l.buckets {
		if bucket.idleSince().Before(cutoff) {
			delete(l.buckets, client)
			removed++
		}
	}
	return removed
}

// GetStats returns a snapshot of per client statistics.
func (l *ClientLimiter) GetStats() map[string]Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := make(map[string]Stats, len(l.buckets))
	for client, bucket := range l.buckets {
		hits, total := bucket.Stats()
		hitRate := 0.0
		if total > 0 {
			hitRate = float64(hits) / float64(total)
		}
		stats[client] = Stats{Client: client, Hits: hits, Total: total, HitRate: hitRate}
	}
	return stats
}

// Stats contains rate limiting statistics for a single client.
type Stats struct {
	Client  string  `json:"client"`
	Hits    int64   `json:"hits"`
	Total   int64   `json:"total"`
	HitRate float64 `json:"hitRate"`
}

func (s Stats) String() string {
	return fmt.Sprintf("client %s: %d/%d hits (%.2f%%)", s.Client, s.Hits, s.Total, s.HitRate*100)
}
