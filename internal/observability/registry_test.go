package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusRegistry_UpdatesGlobalCollectors(t *testing.T) {
	r := NewPrometheusRegistry()

	before := testutil.ToFloat64(ImpressionCount)
	r.IncrementImpressions()
	assert.Equal(t, before+1, testutil.ToFloat64(ImpressionCount))

	clicks := ClickCount.WithLabelValues("product")
	before = testutil.ToFloat64(clicks)
	r.IncrementClicks("product")
	r.IncrementClicks("product")
	assert.Equal(t, before+2, testutil.ToFloat64(clicks))

	pixels := PixelCount.WithLabelValues("dropped")
	before = testutil.ToFloat64(pixels)
	r.IncrementPixels("dropped")
	assert.Equal(t, before+1, testutil.ToFloat64(pixels))

	requests := RequestCount.WithLabelValues("ads", "POST", "201")
	before = testutil.ToFloat64(requests)
	r.IncrementRequests("ads", "POST", "201")
	r.RecordRequestLatency("ads", "POST", 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(requests))

	limited := RateLimitCount.WithLabelValues("limited")
	before = testutil.ToFloat64(limited)
	r.IncrementRateLimitChecks("limited")
	assert.Equal(t, before+1, testutil.ToFloat64(limited))
}

func TestMockMetricsRegistry_Counts(t *testing.T) {
	m := &MockMetricsRegistry{}
	m.IncrementVisibilitySignals("duplicate")
	m.IncrementVisibilitySignals("duplicate")
	m.IncrementRedirects("failure")
	m.IncrementRequests("health", "GET", "200")

	assert.Equal(t, 2, m.Count("visibility:duplicate"))
	assert.Equal(t, 1, m.Count("redirects:failure"))
	assert.Equal(t, 1, m.Count("requests:health:200"))
	assert.Equal(t, 0, m.Count("impressions"))
}

func TestShouldSample_Bounds(t *testing.T) {
	assert.True(t, ShouldSample(1.0))
	assert.False(t, ShouldSample(0))
}
