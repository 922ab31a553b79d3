package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admatcher_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admatcher_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// time spent in each matching stage
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admatcher_stage_duration_seconds",
			Help:    "Duration of matching stages",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"stage"},
	)

	// match outcomes labelled by strategy tag and status
	MatchCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admatcher_matches_total",
			Help: "Total match attempts by tag and status",
		},
		[]string{"tag", "status"},
	)

	// candidates retrieved per decision request
	CandidateCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "admatcher_candidates",
			Help:    "Number of candidates retrieved per decision",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// size of the widened selection pool
	PoolSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "admatcher_pool_size",
			Help:    "Number of ads in the final selection pool",
			Buckets: []float64{1, 2, 3},
		},
	)

	// number of ads in the exploration universe
	UniverseSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "admatcher_universe_size",
			Help: "Number of ad ids in the current universe snapshot",
		},
	)

	// failed universe refreshes
	UniverseRefreshErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "admatcher_universe_refresh_errors_total",
			Help: "Total universe refresh failures",
		},
	)

	// failed writes to the match log
	MatchLogErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "admatcher_match_log_errors_total",
			Help: "Total match log write failures",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		StageDuration,
		MatchCount,
		CandidateCount,
		PoolSize,
		UniverseSize,
		UniverseRefreshErrors,
		MatchLogErrors,
	)
}
