package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/admatcher/internal/analytics"
	"github.com/patrickwarner/admatcher/internal/geoip"
	"github.com/patrickwarner/admatcher/internal/logic/matchers"
	"github.com/patrickwarner/admatcher/internal/models"
	"github.com/patrickwarner/admatcher/internal/observability"
	"github.com/patrickwarner/admatcher/internal/universe"
)

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger     *zap.Logger
	Matcher    matchers.Matcher
	Universe   *models.AdUniverse
	Refresher  *universe.Refresher
	Recorder   analytics.MatchRecorder
	GeoIP      *geoip.GeoIP
	DebugTrace bool
	Metrics    observability.MetricsRegistry
	// Now supplies the clock used for time features. Tests may replace it.
	Now func() time.Time
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, matcher matchers.Matcher, u *models.AdUniverse, refresher *universe.Refresher,
	recorder analytics.MatchRecorder, geo *geoip.GeoIP, debug bool, metrics observability.MetricsRegistry) *Server {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Server{
		Logger:     logger,
		Matcher:    matcher,
		Universe:   u,
		Refresher:  refresher,
		Recorder:   recorder,
		GeoIP:      geo,
		DebugTrace: debug,
		Metrics:    metrics,
		Now:        time.Now,
	}
}

// Reload refreshes the ad universe from its source.
func (s *Server) Reload(ctx context.Context) error {
	if s.Refresher == nil {
		return universe.ErrNoSource
	}
	return s.Refresher.Refresh(ctx)
}
