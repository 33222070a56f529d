package observability

import (
	"sync"
	"time"
)

// MockMetricsRegistry counts calls by metric and label for assertions in tests.
type MockMetricsRegistry struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMockMetricsRegistry creates an empty MockMetricsRegistry.
func NewMockMetricsRegistry() *MockMetricsRegistry {
	return &MockMetricsRegistry{counts: make(map[string]int)}
}

func (m *MockMetricsRegistry) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[key]++
}

// Count returns how often metric was incremented with label, e.g.
// Count("param_saves", "updated").
func (m *MockMetricsRegistry) Count(metric, label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[metric+":"+label]
}

func (m *MockMetricsRegistry) IncrementRequests(endpoint, method, status string) {
	m.inc("requests:" + endpoint + " " + method + " " + status)
}

func (m *MockMetricsRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}

func (m *MockMetricsRegistry) IncrementParamSaves(outcome string) { m.inc("param_saves:" + outcome) }
func (m *MockMetricsRegistry) IncrementStoreErrors(op string)     { m.inc("store_errors:" + op) }
func (m *MockMetricsRegistry) IncrementNotifications(outcome string) {
	m.inc("notifications:" + outcome)
}
func (m *MockMetricsRegistry) IncrementAuditWrites(outcome string) { m.inc("audit_writes:" + outcome) }
