package matchers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/patrickwarner/admatcher/internal/config"
	"github.com/patrickwarner/admatcher/internal/logic"
	"github.com/patrickwarner/admatcher/internal/models"
	"github.com/patrickwarner/admatcher/internal/observability"
)

// DecisionMatcher runs the feature pipeline: profile, retrieval, scoring and
// selection.
type DecisionMatcher struct {
	builder   *logic.ProfileBuilder
	retriever *logic.CandidateRetriever
	scorer    *logic.Scorer
	selector  *logic.Selector

	logger       *zap.Logger
	metrics      observability.MetricsRegistry
	storeTimeout time.Duration
}

// NewDecisionMatcher wires the pipeline stages over store using model.
func NewDecisionMatcher(store logic.FeatureStore, model config.ModelConfig, concurrency int) *DecisionMatcher {
	return &DecisionMatcher{
		builder:   logic.NewProfileBuilder(store, model.HistoryFeatureTypes),
		retriever: logic.NewCandidateRetriever(store),
		scorer:    logic.NewScorer(store, model, concurrency),
		selector:  logic.NewSelector(model.Pair1, model.Pair2),
		logger:    zap.NewNop(),
		metrics:   observability.NewNoOpRegistry(),
	}
}

// SetLogger configures the logger for this matcher.
func (m *DecisionMatcher) SetLogger(logger *zap.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// SetMetrics configures the metrics registry.
func (m *DecisionMatcher) SetMetrics(metrics observability.MetricsRegistry) {
	if metrics != nil {
		m.metrics = metrics
	}
}

// SetStoreTimeout bounds the whole pipeline's store access. Zero disables it.
func (m *DecisionMatcher) SetStoreTimeout(d time.Duration) {
	m.storeTimeout = d
}

// Selector exposes the selection stage so callers can replace its random source.
func (m *DecisionMatcher) Selector() *logic.Selector {
	return m.selector
}

// Match runs the pipeline for req.
func (m *DecisionMatcher) Match(ctx context.Context, req models.RequestFeatures) (models.MatchResult, error) {
	return m.MatchWithTrace(ctx, req, nil)
}

// MatchWithTrace behaves like Match but records each stage in trace.
func (m *DecisionMatcher) MatchWithTrace(ctx context.Context, req models.RequestFeatures, trace *logic.MatchTrace) (models.MatchResult, error) {
	ctx, span := observability.StartSpan(ctx, "match.decision",
		attribute.String("match.reqid", req.ReqID),
		attribute.String("match.nation", req.Nation),
	)
	defer span.End()

	if m.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.storeTimeout)
		defer cancel()
	}

	start := time.Now()
	profile, err := m.builder.Build(ctx, req)
	d := m.stageDone(logic.StageProfile, start)
	if err != nil {
		return m.fail(span, req, models.StatusFailed, err)
	}
	trace.AddStepWithDetails(logic.StageProfile, nil, d, map[string]string{
		"pairs": strconv.Itoa(profile.PairCount()),
	})

	start = time.Now()
	candidates, err := m.retriever.Retrieve(ctx, profile)
	d = m.stageDone(logic.StageRetrieve, start)
	if err != nil {
		return m.fail(span, req, models.StatusFailed, err)
	}
	m.metrics.RecordCandidates(len(candidates))
	trace.AddStep(logic.StageRetrieve, candidates.IDs(), d)
	if len(candidates) == 0 {
		return m.fail(span, req, models.StatusNoCandidate, logic.ErrEmptyCandidateSet)
	}

	start = time.Now()
	scored, err := m.scorer.ScoreAll(ctx, profile, candidates)
	d = m.stageDone(logic.StageScore, start)
	if err != nil {
		return m.fail(span, req, models.StatusFailed, err)
	}

	start = time.Now()
	adID, sel, err := m.selector.Select(scored)
	d2 := m.stageDone(logic.StageSelect, start)
	if err != nil {
		return m.fail(span, req, models.StatusFailed, err)
	}
	trace.AddScored(logic.StageScore, sel.Ranked, d)
	trace.AddScored(logic.StageSelect, sel.Pool, d2)

	m.metrics.RecordPoolSize(len(sel.Pool))
	m.metrics.IncrementMatches(string(models.TagDecision), models.StatusLabel(models.StatusOK))
	span.SetAttributes(
		attribute.Int("match.candidates", len(candidates)),
		attribute.Int("match.pool", len(sel.Pool)),
		attribute.String("match.adid", adID),
	)
	if ce := m.logger.Check(zap.DebugLevel, "decision ranked"); ce != nil {
		ce.Write(
			zap.String("reqid", req.ReqID),
			zap.Strings("ranked", rankedStrings(sel.Ranked)),
			zap.Int("pool", len(sel.Pool)),
			zap.String("adid", adID),
		)
	}
	return models.MatchResult{Status: models.StatusOK, AdID: adID, Tag: models.TagDecision}, nil
}

func (m *DecisionMatcher) stageDone(stage string, start time.Time) time.Duration {
	d := time.Since(start)
	m.metrics.RecordStageDuration(stage, d)
	m.logger.Debug("stage done", zap.String("stage", stage), zap.Duration("elapsed", d))
	return d
}

func (m *DecisionMatcher) fail(span trace.Span, req models.RequestFeatures, status int, err error) (models.MatchResult, error) {
	m.metrics.IncrementMatches(string(models.TagDecision), models.StatusLabel(status))
	if errors.Is(err, logic.ErrEmptyCandidateSet) {
		m.logger.Debug("no candidates", zap.String("reqid", req.ReqID), zap.String("uid", req.UID))
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.Warn("decision match failed", zap.String("reqid", req.ReqID), zap.Error(err))
	}
	return models.MatchResult{Status: status, Tag: models.TagDecision}, err
}

func rankedStrings(ranked []models.ScoredCandidate) []string {
	out := make([]string, len(ranked))
	for i, c := range ranked {
		out[i] = c.AdID + "=" + c.Score.String()
	}
	return out
}
