package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics so
// components don't reach for the global Prometheus vectors directly.
type MetricsRegistry interface {
	// HTTP Request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Matching metrics
	RecordStageDuration(stage string, duration time.Duration)
	IncrementMatches(tag, status string)
	RecordCandidates(n int)
	RecordPoolSize(n int)

	// Universe metrics
	SetUniverseSize(n int)
	IncrementUniverseRefreshErrors()

	// Match log metrics
	IncrementMatchLogErrors()
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

// Matching metrics
func (r *PrometheusRegistry) RecordStageDuration(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementMatches(tag, status string) {
	MatchCount.WithLabelValues(tag, status).Inc()
}

func (r *PrometheusRegistry) RecordCandidates(n int) {
	CandidateCount.Observe(float64(n))
}

func (r *PrometheusRegistry) RecordPoolSize(n int) {
	PoolSize.Observe(float64(n))
}

// Universe metrics
func (r *PrometheusRegistry) SetUniverseSize(n int) {
	UniverseSize.Set(float64(n))
}

func (r *PrometheusRegistry) IncrementUniverseRefreshErrors() {
	UniverseRefreshErrors.Inc()
}

// Match log metrics
func (r *PrometheusRegistry) IncrementMatchLogErrors() {
	MatchLogErrors.Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) RecordStageDuration(stage string, duration time.Duration)             {}
func (r *NoOpRegistry) IncrementMatches(tag, status string)                                  {}
func (r *NoOpRegistry) RecordCandidates(n int)                                               {}
func (r *NoOpRegistry) RecordPoolSize(n int)                                                 {}
func (r *NoOpRegistry) SetUniverseSize(n int)                                                {}
func (r *NoOpRegistry) IncrementUniverseRefreshErrors()                                      {}
func (r *NoOpRegistry) IncrementMatchLogErrors()                                             {}
