package observability

import (
	"sync"
	"time"
)

// MockMetricsRegistry records calls so tests can assert on them.
type MockMetricsRegistry struct {
	mu                   sync.Mutex
	Requests             map[string]int
	Stages               map[string]int
	Matches              map[string]int
	Candidates           []int
	PoolSizes            []int
	UniverseSize         int
	UniverseRefreshFails int
	MatchLogFails        int
}

// NewMockMetricsRegistry returns an empty MockMetricsRegistry.
func NewMockMetricsRegistry() *MockMetricsRegistry {
	return &MockMetricsRegistry{
		Requests: make(map[string]int),
		Stages:   make(map[string]int),
		Matches:  make(map[string]int),
	}
}

func (m *MockMetricsRegistry) IncrementRequests(endpoint, method, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests[endpoint+" "+method+" "+status]++
}

func (m *MockMetricsRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}

func (m *MockMetricsRegistry) RecordStageDuration(stage string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stages[stage]++
}

func (m *MockMetricsRegistry) IncrementMatches(tag, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Matches[tag+"/"+status]++
}

func (m *MockMetricsRegistry) RecordCandidates(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Candidates = append(m.Candidates, n)
}

func (m *MockMetricsRegistry) RecordPoolSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PoolSizes = append(m.PoolSizes, n)
}

func (m *MockMetricsRegistry) SetUniverseSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UniverseSize = n
}

func (m *MockMetricsRegistry) IncrementUniverseRefreshErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UniverseRefreshFails++
}

func (m *MockMetricsRegistry) IncrementMatchLogErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MatchLogFails++
}

// StageCount returns how many durations were recorded for stage.
func (m *MockMetricsRegistry) StageCount(stage string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Stages[stage]
}

// MatchCount returns how many matches were recorded for tag and status.
func (m *MockMetricsRegistry) MatchCount(tag, status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Matches[tag+"/"+status]
}
