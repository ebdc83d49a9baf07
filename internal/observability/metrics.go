package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total host API requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nativeads_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nativeads_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// impressions fired, at most one per native ad
	ImpressionCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nativeads_impressions_total",
			Help: "Total native ad impressions fired",
		},
	)

	// visibility signals labelled fired or duplicate
	VisibilitySignalCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nativeads_visibility_signals_total",
			Help: "Total visibility signals received from watched views",
		},
		[]string{"outcome"},
	)

	// clicks per click role
	ClickCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nativeads_clicks_total",
			Help: "Total clicks on registered views",
		},
		[]string{"role"},
	)

	// impression pixels labelled success, failure or dropped
	PixelCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nativeads_pixels_total",
			Help: "Total tracking pixels fired",
		},
		[]string{"outcome"},
	)

	// pixel GET latency
	PixelLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nativeads_pixel_duration_seconds",
			Help:    "Duration of tracking pixel requests",
			Buckets: prometheus.DefBuckets,
		},
	)

	// redirects labelled success or failure
	RedirectCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nativeads_redirects_total",
			Help: "Total click redirections",
		},
		[]string{"outcome"},
	)

	// remote config fetches labelled success, failure or cached
	RemoteConfigFetchCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nativeads_remote_config_fetch_total",
			Help: "Total remote configuration fetches",
		},
		[]string{"outcome"},
	)

	// host UI tasks labelled executed, dropped or panicked
	UITaskCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nativeads_ui_tasks_total",
			Help: "Total tasks submitted to the host UI executor",
		},
		[]string{"outcome"},
	)

	// harness requests checked by the client rate limiter, labelled allowed or limited
	RateLimitCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nativeads_rate_limit_checks_total",
			Help: "Total client rate limit checks",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		ImpressionCount,
		VisibilitySignalCount,
		ClickCount,
		PixelCount,
		PixelLatency,
		RedirectCount,
		RemoteConfigFetchCount,
		UITaskCount,
		RateLimitCount,
	)
}
