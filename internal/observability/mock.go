package observability

import (
	"sync"
	"time"
)

// MockMetricsRegistry records every counter increment so tests can assert on
// what a component reported. The zero value is ready to use.
type MockMetricsRegistry struct {
	mu       sync.Mutex
	counters map[string]int
}

func (m *MockMetricsRegistry) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int)
	}
	m.counters[key]++
}

// Count returns how many times the named counter was incremented. Labelled
// counters are keyed as "name:label", e.g. "pixels:success".
func (m *MockMetricsRegistry) Count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

func (m *MockMetricsRegistry) IncrementRequests(endpoint, method, status string) {
	m.inc("requests:" + endpoint + ":" + status)
}
func (m *MockMetricsRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (m *MockMetricsRegistry) IncrementImpressions()                                                { m.inc("impressions") }
func (m *MockMetricsRegistry) IncrementVisibilitySignals(outcome string) {
	m.inc("visibility:" + outcome)
}
func (m *MockMetricsRegistry) IncrementClicks(role string)               { m.inc("clicks:" + role) }
func (m *MockMetricsRegistry) IncrementPixels(outcome string)            { m.inc("pixels:" + outcome) }
func (m *MockMetricsRegistry) RecordPixelLatency(duration time.Duration) {}
func (m *MockMetricsRegistry) IncrementRedirects(outcome string)         { m.inc("redirects:" + outcome) }
func (m *MockMetricsRegistry) IncrementRemoteConfigFetches(outcome string) {
	m.inc("remote_config:" + outcome)
}
func (m *MockMetricsRegistry) IncrementUITasks(outcome string) { m.inc("ui_tasks:" + outcome) }
func (m *MockMetricsRegistry) IncrementRateLimitChecks(outcome string) {
	m.inc("rate_limit:" + outcome)
}
