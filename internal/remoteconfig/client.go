package remoteconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/nativeads/internal/observability"
)

const configPath = "/v1.0/api/config"

// Cache persists the last good raw payload. db.RedisStore implements it.
type Cache interface {
	SaveRemoteConfig(ctx context.Context, raw []byte, ttl time.Duration) error
	LoadRemoteConfig(ctx context.Context) ([]byte, error)
}

// Client fetches the remote configuration and keeps the latest decoded copy.
type Client struct {
	baseURL     string
	publisherID int
	appID       string
	sdkVersion  string
	httpClient  *http.Client
	cache       Cache
	cacheTTL    time.Duration
	logger      *zap.Logger
	metrics     observability.MetricsRegistry

	current atomic.Pointer[Response]
}

// NewClient creates a remote configuration client. cache may be nil.
func NewClient(baseURL string, publisherID int, appID, sdkVersion string, timeout, cacheTTL time.Duration, cache Cache, logger *zap.Logger, metrics observability.MetricsRegistry) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Client{
		baseURL:     baseURL,
		publisherID: publisherID,
		appID:       appID,
		sdkVersion:  sdkVersion,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		metrics:  metrics,
	}
}

// Fetch loads the configuration from the remote endpoint. When the endpoint
// cannot be reached or answers with a non-200 status the cached payload is
// used instead. A payload that fails to decode is returned as an error and
// never replaced by the cached copy.
func (c *Client) Fetch(ctx context.Context) (*Response, error) {
	raw, err := c.download(ctx)
	if err != nil {
		c.logger.Warn("remote config unavailable, trying cache", zap.Error(err))
		resp, cacheErr := c.loadCached(ctx)
		if cacheErr != nil {
			c.metrics.IncrementRemoteConfigFetches("failure")
			return nil, fmt.Errorf("fetch remote config: %w (cache: %w)", err, cacheErr)
		}
		c.metrics.IncrementRemoteConfigFetches("cached")
		c.current.Store(resp)
		return resp, nil
	}

	resp, err := Decode(bytes.NewReader(raw))
	if err != nil {
		c.metrics.IncrementRemoteConfigFetches("failure")
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SaveRemoteConfig(ctx, raw, c.cacheTTL); err != nil {
			c.logger.Warn("failed to cache remote config", zap.Error(err))
		}
	}
	c.metrics.IncrementRemoteConfigFetches("success")
	c.current.Store(resp)
	c.logger.Info("remote config refreshed",
		zap.Bool("kill_switch", resp.IsKillSwitchEnabled()),
		zap.Bool("csm_enabled", resp.IsCSMEnabled()))
	return resp, nil
}

// Current returns the last fetched configuration, or nil before the first
// successful fetch.
func (c *Client) Current() *Response {
	return c.current.Load()
}

// KillSwitchEngaged reports whether the last fetched configuration engages
// the kill switch.
func (c *Client) KillSwitchEngaged() bool {
	return c.current.Load().IsKillSwitchEnabled()
}

// Refresh calls Fetch every interval until ctx is done.
func (c *Client) Refresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Fetch(ctx); err != nil {
				c.logger.Warn("remote config refresh failed", zap.Error(err))
			}
		}
	}
}

func (c *Client) endpoint() string {
	q := url.Values{}
	q.Set("networkId", strconv.Itoa(c.publisherID))
	q.Set("appId", c.appID)
	q.Set("sdkVersion", c.sdkVersion)
	return c.baseURL + configPath + "?" + q.Encode()
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return raw, nil
}

var errNoCache = errors.New("no cache configured")

func (c *Client) loadCached(ctx context.Context) (*Response, error) {
	if c.cache == nil {
		return nil, errNoCache
	}
	raw, err := c.cache.LoadRemoteConfig(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(raw))
}
