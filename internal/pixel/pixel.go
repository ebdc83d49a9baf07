// Package pixel delivers impression tracking pixels.
package pixel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/patrickwarner/nativeads/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
)

// ErrStatus is returned by Get when the pixel endpoint answers with a
// non-2xx status.
var ErrStatus = errors.New("pixel: unexpected status")

// Firer issues fire-and-forget GET requests on a bounded worker pool.
// Fire never blocks: when the queue is full the pixel is dropped and counted.
type Firer struct {
	client  *http.Client
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan string
	wg     sync.WaitGroup

	logger  *zap.Logger
	metrics observability.MetricsRegistry
}

// NewFirer starts a Firer with the given per-request timeout, worker count
// and queue size. Non-positive sizes fall back to defaults and a non-positive
// timeout disables the per-request bound.
func NewFirer(timeout time.Duration, workers, queueSize int, logger *zap.Logger, metrics observability.MetricsRegistry) *Firer {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	f := &Firer{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeout: timeout,
		queue:   make(chan string, queueSize),
		logger:  logger.Named("pixel"),
		metrics: metrics,
	}
	for i := 0; i < workers; i++ {
		f.wg.Add(1)
		go f.worker()
	}
	return f
}

// Fire queues a GET to pixelURL.
func (f *Firer) Fire(pixelURL string) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		f.metrics.IncrementPixels("dropped")
		f.logger.Warn("pixel fired after close", zap.String("url", pixelURL))
		return
	}
	select {
	case f.queue <- pixelURL:
	default:
		f.metrics.IncrementPixels("dropped")
		f.logger.Warn("pixel queue full, dropping pixel", zap.String("url", pixelURL))
	}
}

// Close stops accepting pixels and waits for queued ones to be sent.
func (f *Firer) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.queue)
	f.mu.Unlock()

	f.wg.Wait()
}

func (f *Firer) worker() {
	defer f.wg.Done()
	for pixelURL := range f.queue {
		ctx, cancel := f.requestContext()
		start := time.Now()
		err := f.Get(ctx, pixelURL)
		f.metrics.RecordPixelLatency(time.Since(start))
		cancel()

		if err != nil {
			f.metrics.IncrementPixels("failure")
			f.logger.Warn("pixel request failed", zap.String("url", pixelURL), zap.Error(err))
			continue
		}
		f.metrics.IncrementPixels("success")
	}
}

// requestContext bounds a pixel request by the firer timeout. A
// non-positive timeout leaves the request unbounded.
func (f *Firer) requestContext() (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), f.timeout)
}

// Get performs a single pixel GET and discards the body.
func (f *Firer) Get(ctx context.Context, pixelURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pixelURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return nil
}
