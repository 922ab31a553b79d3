package matchers

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"

	"go.uber.org/zap"

	"github.com/patrickwarner/admatcher/internal/logic"
	"github.com/patrickwarner/admatcher/internal/models"
)

// Router splits traffic between exploration and decision matching. A request
// goes to exploration with probability ExploreRate; otherwise the decision
// matcher runs, and an empty candidate set falls back to exploration when
// FallbackToExplore is set.
type Router struct {
	Decision          Matcher
	Explore           Matcher
	ExploreRate       float64
	FallbackToExplore bool
	// Roll returns a uniform float in [0, 1). Tests may replace it.
	Roll func() float64

	logger *zap.Logger
}

// NewRouter returns a Router over the two strategies.
func NewRouter(decision, explore Matcher, exploreRate float64, fallback bool) *Router {
	return &Router{
		Decision:          decision,
		Explore:           explore,
		ExploreRate:       exploreRate,
		FallbackToExplore: fallback,
		Roll:              rand.Float64,
		logger:            zap.NewNop(),
	}
}

// SetLogger configures the logger for this router.
func (r *Router) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Match routes req to one strategy.
func (r *Router) Match(ctx context.Context, req models.RequestFeatures) (models.MatchResult, error) {
	return r.MatchWithTrace(ctx, req, nil)
}

// MatchWithTrace routes req and records the route and the chosen strategy's
// steps in trace when the strategy supports it.
func (r *Router) MatchWithTrace(ctx context.Context, req models.RequestFeatures, trace *logic.MatchTrace) (models.MatchResult, error) {
	roll := r.Roll()
	if roll < r.ExploreRate {
		trace.AddStepWithDetails("route", nil, 0, map[string]string{
			"strategy": string(models.TagExplore),
			"roll":     strconv.FormatFloat(roll, 'f', 4, 64),
		})
		return run(ctx, r.Explore, req, trace)
	}

	trace.AddStepWithDetails("route", nil, 0, map[string]string{
		"strategy": string(models.TagDecision),
	})
	res, err := run(ctx, r.Decision, req, trace)
	if err != nil && r.FallbackToExplore && errors.Is(err, logic.ErrEmptyCandidateSet) {
		r.logger.Debug("falling back to exploration", zap.String("reqid", req.ReqID))
		trace.AddStep(logic.StageFallback, nil, 0)
		return run(ctx, r.Explore, req, trace)
	}
	return res, err
}

func run(ctx context.Context, m Matcher, req models.RequestFeatures, trace *logic.MatchTrace) (models.MatchResult, error) {
	if tm, ok := m.(TracingMatcher); ok && trace != nil {
		return tm.MatchWithTrace(ctx, req, trace)
	}
	return m.Match(ctx, req)
}
