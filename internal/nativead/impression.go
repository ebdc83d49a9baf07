package nativead

import (
	"sync/atomic"

	"github.com/patrickwarner/nativeads/internal/observability"
	"go.uber.org/zap"
)

// ImpressionState is the impression lifecycle of a single NativeAd.
type ImpressionState int32

// An ad starts NotFired and moves to Fired exactly once.
const (
	NotFired ImpressionState = iota
	Fired
)

func (s ImpressionState) String() string {
	switch s {
	case NotFired:
		return "not_fired"
	case Fired:
		return "fired"
	default:
		return "unknown"
	}
}

// impressionTask is shared by every view watched for impression on one ad.
// Only the first visibility signal across all of them wins the transition to
// Fired; every later signal is a no-op.
type impressionTask struct {
	adID     string
	state    atomic.Int32
	pixels   []string
	listener ListenerRef
	firer    PixelFirer
	ui       UIExecutor
	logger   *zap.Logger
	metrics  observability.MetricsRegistry
}

func (t *impressionTask) State() ImpressionState {
	return ImpressionState(t.state.Load())
}

func (t *impressionTask) onVisible() {
	if !t.state.CompareAndSwap(int32(NotFired), int32(Fired)) {
		t.metrics.IncrementVisibilitySignals("duplicate")
		return
	}
	t.metrics.IncrementVisibilitySignals("fired")
	t.metrics.IncrementImpressions()

	if observability.ShouldSample(observability.GetSamplingRate()) {
		t.logger.Info("impression", zap.String("ad_id", t.adID), zap.Int("pixels", len(t.pixels)))
	}

	t.ui.Execute(func() {
		if l := t.listener.Get(); l != nil {
			l.OnAdImpression()
		}
	})

	for _, p := range t.pixels {
		t.firer.Fire(p)
	}
}
