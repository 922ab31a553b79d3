package matchers

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/patrickwarner/admatcher/internal/logic"
	"github.com/patrickwarner/admatcher/internal/models"
	"github.com/patrickwarner/admatcher/internal/observability"
)

// ErrEmptyUniverse is returned when exploration has no ad ids to choose from.
var ErrEmptyUniverse = errors.New("ad universe is empty")

// ExploreMatcher ignores the request and picks uniformly from the ad universe.
type ExploreMatcher struct {
	universe *models.AdUniverse
	metrics  observability.MetricsRegistry
	// Pick returns a uniform index in [0, n). Tests may replace it.
	Pick func(n int) int
}

// NewExploreMatcher returns a matcher drawing from universe.
func NewExploreMatcher(universe *models.AdUniverse) *ExploreMatcher {
	return &ExploreMatcher{
		universe: universe,
		metrics:  observability.NewNoOpRegistry(),
		Pick:     rand.IntN,
	}
}

// SetMetrics configures the metrics registry.
func (m *ExploreMatcher) SetMetrics(metrics observability.MetricsRegistry) {
	if metrics != nil {
		m.metrics = metrics
	}
}

// Match picks one ad id from the current universe snapshot.
func (m *ExploreMatcher) Match(ctx context.Context, req models.RequestFeatures) (models.MatchResult, error) {
	return m.MatchWithTrace(ctx, req, nil)
}

// MatchWithTrace behaves like Match and records the draw in trace.
func (m *ExploreMatcher) MatchWithTrace(_ context.Context, _ models.RequestFeatures, trace *logic.MatchTrace) (models.MatchResult, error) {
	start := time.Now()
	var ids []string
	if m.universe != nil {
		ids = m.universe.IDs()
	}
	if len(ids) == 0 {
		m.metrics.IncrementMatches(string(models.TagExplore), models.StatusLabel(models.StatusNoCandidate))
		return models.MatchResult{Status: models.StatusNoCandidate, Tag: models.TagExplore}, ErrEmptyUniverse
	}

	adID := ids[m.Pick(len(ids))]
	d := time.Since(start)
	m.metrics.RecordStageDuration(logic.StageExplore, d)
	m.metrics.IncrementMatches(string(models.TagExplore), models.StatusLabel(models.StatusOK))
	trace.AddStepWithDetails(logic.StageExplore, []string{adID}, d, map[string]string{
		"universe": strconv.Itoa(len(ids)),
	})
	return models.MatchResult{Status: models.StatusOK, AdID: adID, Tag: models.TagExplore}, nil
}
