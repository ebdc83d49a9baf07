package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	remoteConfigKey = "nativeads:remote_config"
	adEventTTL      = 24 * time.Hour
)

// ErrCacheMiss is returned when a cached value does not exist.
var ErrCacheMiss = errors.New("db: cache miss")

// Ad event names counted per native ad.
const (
	EventImpression = "impression"
	EventClick      = "click"
)

// RedisStore wraps a redis client.
type RedisStore struct {
	Client *redis.Client
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(ctx context.Context, addr string) (*RedisStore, error) {
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
	}

	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

// SaveRemoteConfig caches the raw remote configuration payload for ttl.
func (r *RedisStore) SaveRemoteConfig(ctx context.Context, raw []byte, ttl time.Duration) error {
	return r.Client.Set(ctx, remoteConfigKey, raw, ttl).Err()
}

// LoadRemoteConfig returns the cached remote configuration payload or
// ErrCacheMiss.
func (r *RedisStore) LoadRemoteConfig(ctx context.Context) ([]byte, error) {
	raw, err := r.Client.Get(ctx, remoteConfigKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// IncrementAdEvent increments the counter of event for a native ad.
// A 24h TTL is applied on first set.
func (r *RedisStore) IncrementAdEvent(ctx context.Context, adID, event string) error {
	key := adEventKey(adID, event)
	val, err := r.Client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if val == 1 {
		r.Client.Expire(ctx, key, adEventTTL)
	}
	return nil
}

// GetAdEventCounts returns the impression and click counters of a native ad.
// Missing counters are zero.
func (r *RedisStore) GetAdEventCounts(ctx context.Context, adID string) (int64, int64, error) {
	imps, err := r.adEventCount(ctx, adID, EventImpression)
	if err != nil {
		return 0, 0, err
	}
	clicks, err := r.adEventCount(ctx, adID, EventClick)
	if err != nil {
		return 0, 0, err
	}
	return imps, clicks, nil
}

func (r *RedisStore) adEventCount(ctx context.Context, adID, event string) (int64, error) {
	n, err := r.Client.Get(ctx, adEventKey(adID, event)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s count: %w", event, err)
	}
	return n, nil
}

func adEventKey(adID, event string) string {
	return fmt.Sprintf("nativeads:ad:%s:%s", adID, event)
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
