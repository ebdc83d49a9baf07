package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics.
// Components receive it through their constructors instead of touching the
// global Prometheus collectors directly.
type MetricsRegistry interface {
	// HTTP Request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Native ad interaction metrics
	IncrementImpressions()
	IncrementVisibilitySignals(outcome string)
	IncrementClicks(role string)

	// Collaborator metrics
	IncrementPixels(outcome string)
	RecordPixelLatency(duration time.Duration)
	IncrementRedirects(outcome string)
	IncrementRemoteConfigFetches(outcome string)
	IncrementUITasks(outcome string)

	// Rate limiting metrics
	IncrementRateLimitChecks(outcome string)
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

// HTTP Request metrics
func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// Native ad interaction metrics
func (r *PrometheusRegistry) IncrementImpressions() {
	ImpressionCount.Inc()
}

func (r *PrometheusRegistry) IncrementVisibilitySignals(outcome string) {
	VisibilitySignalCount.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) IncrementClicks(role string) {
	ClickCount.WithLabelValues(role).Inc()
}

// Collaborator metrics
func (r *PrometheusRegistry) IncrementPixels(outcome string) {
	PixelCount.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) RecordPixelLatency(duration time.Duration) {
	PixelLatency.Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementRedirects(outcome string) {
	RedirectCount.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) IncrementRemoteConfigFetches(outcome string) {
	RemoteConfigFetchCount.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) IncrementUITasks(outcome string) {
	UITaskCount.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) IncrementRateLimitChecks(outcome string) {
	RateLimitCount.WithLabelValues(outcome).Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementImpressions()                                                {}
func (r *NoOpRegistry) IncrementVisibilitySignals(outcome string)                            {}
func (r *NoOpRegistry) IncrementClicks(role string)                                          {}
func (r *NoOpRegistry) IncrementPixels(outcome string)                                       {}
func (r *NoOpRegistry) RecordPixelLatency(duration time.Duration)                            {}
func (r *NoOpRegistry) IncrementRedirects(outcome string)                                    {}
func (r *NoOpRegistry) IncrementRemoteConfigFetches(outcome string)                          {}
func (r *NoOpRegistry) IncrementUITasks(outcome string)                                      {}
func (r *NoOpRegistry) IncrementRateLimitChecks(outcome string)                              {}
