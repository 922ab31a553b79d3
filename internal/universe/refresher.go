// Package universe keeps the exploration ad universe in sync with its source.
package universe

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/admatcher/internal/models"
	"github.com/patrickwarner/admatcher/internal/observability"
)

// ErrNoSource is returned when a refresh is requested without a source.
var ErrNoSource = errors.New("universe source unavailable")

// Refresher reloads an AdUniverse from an AdIDSource on demand or on a timer.
type Refresher struct {
	Universe *models.AdUniverse
	Source   models.AdIDSource
	Logger   *zap.Logger
	Metrics  observability.MetricsRegistry

	mu sync.Mutex
}

// NewRefresher returns a Refresher for universe backed by source.
func NewRefresher(universe *models.AdUniverse, source models.AdIDSource, logger *zap.Logger, metrics observability.MetricsRegistry) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Refresher{Universe: universe, Source: source, Logger: logger, Metrics: metrics}
}

// Refresh loads the ad ids and swaps them in. Concurrent calls are
// serialized; a failed load leaves the current snapshot in place.
func (r *Refresher) Refresh(ctx context.Context) error {
	if r.Source == nil {
		return ErrNoSource
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.Universe.Refresh(ctx, r.Source); err != nil {
		r.Metrics.IncrementUniverseRefreshErrors()
		return err
	}
	n := r.Universe.Len()
	r.Metrics.SetUniverseSize(n)
	r.Logger.Debug("universe refreshed", zap.Int("ads", n))
	return nil
}

// Run refreshes every interval until ctx is done. Failures are logged and the
// loop continues.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.Logger.Error("universe refresh", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
