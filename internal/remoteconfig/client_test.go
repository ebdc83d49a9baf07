package remoteconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/patrickwarner/nativeads/internal/db"
	"github.com/patrickwarner/nativeads/internal/observability"
)

func setupStore(t *testing.T) (*db.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &db.RedisStore{Client: client}, mr
}

func newTestClient(t *testing.T, baseURL string, cache Cache, metrics observability.MetricsRegistry) *Client {
	t.Helper()
	return NewClient(baseURL, 42, "com.example.app", "1.0.0", time.Second, time.Hour, cache, zaptest.NewLogger(t), metrics)
}

func TestFetch_SendsQueryAndCaches(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"networkId":  r.URL.Query().Get("networkId"),
			"appId":      r.URL.Query().Get("appId"),
			"sdkVersion": r.URL.Query().Get("sdkVersion"),
		}
		_, _ = w.Write([]byte(`{"killSwitch": "true", "csmEnabled": false}`))
	}))
	defer srv.Close()

	store, _ := setupStore(t)
	metrics := &observability.MockMetricsRegistry{}
	c := newTestClient(t, srv.URL, store, metrics)

	assert.Nil(t, c.Current())
	assert.False(t, c.KillSwitchEngaged())

	resp, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.IsKillSwitchEnabled())
	assert.False(t, resp.IsCSMEnabled())
	assert.True(t, c.KillSwitchEngaged())
	assert.Same(t, resp, c.Current())

	assert.Equal(t, "/v1.0/api/config", gotPath)
	assert.Equal(t, map[string]string{"networkId": "42", "appId": "com.example.app", "sdkVersion": "1.0.0"}, gotQuery)

	raw, err := store.LoadRemoteConfig(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"killSwitch": "true", "csmEnabled": false}`, string(raw))
	assert.Equal(t, 1, metrics.Count("remote_config:success"))
}

func TestFetch_FallsBackToCacheOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store, _ := setupStore(t)
	require.NoError(t, store.SaveRemoteConfig(context.Background(), []byte(`{"killSwitch": true}`), time.Hour))

	metrics := &observability.MockMetricsRegistry{}
	c := newTestClient(t, srv.URL, store, metrics)

	resp, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.IsKillSwitchEnabled())
	assert.Equal(t, 1, metrics.Count("remote_config:cached"))
}

func TestFetch_FailsWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store, _ := setupStore(t)
	metrics := &observability.MockMetricsRegistry{}
	c := newTestClient(t, srv.URL, store, metrics)

	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrCacheMiss)
	assert.Nil(t, c.Current())
	assert.Equal(t, 1, metrics.Count("remote_config:failure"))

	nocache := newTestClient(t, srv.URL, nil, nil)
	_, err = nocache.Fetch(context.Background())
	require.Error(t, err)
}

func TestFetch_DecodeErrorIsNotMaskedByCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"killSwitch": 1}`))
	}))
	defer srv.Close()

	store, _ := setupStore(t)
	require.NoError(t, store.SaveRemoteConfig(context.Background(), []byte(`{"killSwitch": false}`), time.Hour))

	c := newTestClient(t, srv.URL, store, &observability.MockMetricsRegistry{})
	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)

	raw, err := store.LoadRemoteConfig(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"killSwitch": false}`, string(raw))
}

func TestFetch_CacheExpires(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	store, mr := setupStore(t)
	c := newTestClient(t, srv.URL, store, nil)

	_, err := c.Fetch(context.Background())
	require.NoError(t, err)
	srv.Close()

	mr.FastForward(2 * time.Hour)
	_, err = c.Fetch(context.Background())
	assert.ErrorIs(t, err, db.ErrCacheMiss)
}
