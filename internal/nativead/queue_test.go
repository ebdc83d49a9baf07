package nativead

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/patrickwarner/nativeads/internal/observability"
	"github.com/patrickwarner/nativeads/internal/uiexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// newQueuedEnv runs every host callback on an asynchronous uiexec.Queue.
func newQueuedEnv(t *testing.T) (*testEnv, *uiexec.Queue) {
	t.Helper()
	env := newTestEnv()
	q := uiexec.NewQueue(0, zap.NewNop(), observability.NewNoOpRegistry())
	t.Cleanup(q.Close)
	env.deps.UI = q
	return env, q
}

// concurrently calls fn n times from separate goroutines released together.
func concurrently(n int, fn func(i int)) {
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			fn(i)
		}()
	}
	close(start)
	wg.Wait()
}

func TestQueuedExecutor_ImpressionAndClicks(t *testing.T) {
	const (
		views   = 8
		signals = 40
		taps    = 25
	)

	for round := 0; round < 10; round++ {
		env, q := newQueuedEnv(t)
		metrics := &observability.MockMetricsRegistry{}
		m, err := NewMapper(env.deps, zaptest.NewLogger(t), metrics)
		require.NoError(t, err)
		listener := newCountingListener()

		assets := Assets{
			Product:               Product{ClickURL: "http://click.url"},
			ImpressionPixels:      []string{"http://pixel1.url", "http://pixel2.url"},
			PrivacyOptOutClickURL: "http://privacy.url",
		}
		ad := m.Map(assets, WeakListener(listener))
		for v := 0; v < views; v++ {
			ad.WatchForImpression(v)
		}
		ad.SetProductClickableView("product")
		ad.SetAdChoiceClickableView("privacy")

		concurrently(views*signals, func(i int) { env.visibility.signal(i % views) })
		concurrently(taps, func(int) { env.clicks.signal("product") })
		concurrently(taps, func(int) { env.clicks.signal("privacy") })
		q.Close()

		require.Equal(t, int32(1), listener.impressions.Load(), "round %d", round)
		require.Equal(t, int32(taps), listener.clicks.Load(), "round %d", round)
		for _, p := range assets.ImpressionPixels {
			require.Equal(t, 1, env.pixels.Count(p), "round %d pixel %s", round, p)
		}

		var product, privacy int
		for _, c := range env.redirector.Calls() {
			switch c.destination {
			case "http://click.url":
				product++
			case "http://privacy.url":
				privacy++
			}
			assert.Equal(t, "MainActivity", c.screen)
		}
		assert.Equal(t, taps, product, "round %d", round)
		assert.Equal(t, taps, privacy, "round %d", round)
		runtime.KeepAlive(listener)
	}
}

func TestQueuedExecutor_ReleasedListener(t *testing.T) {
	env, q := newQueuedEnv(t)
	m := newTestMapper(t, env)

	impressions, clicks := new(atomic.Int32), new(atomic.Int32)
	ref := releasedListenerRef(impressions, clicks)
	require.Eventually(t, func() bool {
		runtime.GC()
		return ref.Get() == nil
	}, 5*time.Second, 10*time.Millisecond)

	ad := m.Map(Assets{
		Product:          Product{ClickURL: "http://click.url"},
		ImpressionPixels: []string{"http://pixel.url"},
	}, ref)
	ad.WatchForImpression("view")
	ad.SetProductClickableView("view")

	concurrently(10, func(int) {
		env.visibility.signal("view")
		env.clicks.signal("view")
	})
	q.Close()

	assert.Equal(t, int32(0), impressions.Load())
	assert.Equal(t, int32(0), clicks.Load())
	assert.Equal(t, 1, env.pixels.Count("http://pixel.url"))
	assert.Len(t, env.redirector.Calls(), 10)
}
