package analytics

import (
	"context"
	"sync"
)

var (
	_ EditRecorder = (*Analytics)(nil)
	_ EditRecorder = (*MockAnalytics)(nil)
)

// MockAnalytics keeps recorded edits in memory for tests. When Err is set
// RecordEdit fails with it and records nothing.
type MockAnalytics struct {
	mu    sync.Mutex
	Err   error
	edits []EditRecord
}

// NewMockAnalytics creates a new mock analytics instance
func NewMockAnalytics() *MockAnalytics {
	return &MockAnalytics{}
}

// RecordEdit appends the edit.
func (m *MockAnalytics) RecordEdit(_ context.Context, e EditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.edits = append(m.edits, e)
	return nil
}

// Edits returns a copy of the recorded edits in order.
func (m *MockAnalytics) Edits() []EditRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EditRecord(nil), m.edits...)
}
