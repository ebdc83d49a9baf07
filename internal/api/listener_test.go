package api

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patrickwarner/nativeads/internal/db"
)

func TestEventRecorder_WritesEventsInOrder(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := &db.RedisStore{Client: client}

	rec := newEventRecorder(store, 8, time.Second, zap.NewNop())
	l := &adEventListener{adID: "ad-1", events: rec, logger: zap.NewNop()}
	l.OnAdImpression()
	l.OnAdClicked()
	l.OnAdClicked()
	rec.close()

	imps, clicks, err := store.GetAdEventCounts(context.Background(), "ad-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), imps)
	assert.Equal(t, int64(2), clicks)
	assert.Zero(t, rec.dropped.Load())

	// recording after close is dropped, flushing is a no-op
	l.OnAdClicked()
	rec.flush()
	assert.Equal(t, int64(1), rec.dropped.Load())
}

func TestEventRecorder_StalledRedisDoesNotBlockCallbacks(t *testing.T) {
	// accepts connections and never answers
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				_, _ = io.Copy(io.Discard, c)
				_ = c.Close()
			}(conn)
		}
	}()

	client := redis.NewClient(&redis.Options{
		Addr:                  ln.Addr().String(),
		ReadTimeout:           50 * time.Millisecond,
		WriteTimeout:          50 * time.Millisecond,
		MaxRetries:            -1,
		ContextTimeoutEnabled: true,
	})
	defer client.Close()

	rec := newEventRecorder(&db.RedisStore{Client: client}, 2, 50*time.Millisecond, zap.NewNop())
	l := &adEventListener{adID: "ad-1", events: rec, logger: zap.NewNop()}

	start := time.Now()
	for i := 0; i < 20; i++ {
		l.OnAdClicked()
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Positive(t, rec.dropped.Load())

	rec.close()
}

func TestAdEventListener_NoRecorder(t *testing.T) {
	l := &adEventListener{adID: "ad-1", logger: zap.NewNop()}
	assert.NotPanics(t, func() {
		l.OnAdImpression()
		l.OnAdClicked()
	})
}
