package analytics

import (
	"context"
	"sync"
)

var _ MatchRecorder = (*MockRecorder)(nil)

// MockRecorder keeps recorded matches in memory for tests.
type MockRecorder struct {
	mu      sync.Mutex
	records []MatchRecord
	// Err, when set, is returned from RecordMatch.
	Err error
}

// NewMockRecorder creates an empty MockRecorder.
func NewMockRecorder() *MockRecorder {
	return &MockRecorder{}
}

// RecordMatch stores rec unless Err is set.
func (m *MockRecorder) RecordMatch(_ context.Context, rec MatchRecord) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything recorded so far.
func (m *MockRecorder) Records() []MatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MatchRecord, len(m.records))
	copy(out, m.records)
	return out
}
