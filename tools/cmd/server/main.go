package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/admatcher/internal/analytics"
	"github.com/patrickwarner/admatcher/internal/api"
	"github.com/patrickwarner/admatcher/internal/config"
	"github.com/patrickwarner/admatcher/internal/db"
	"github.com/patrickwarner/admatcher/internal/geoip"
	"github.com/patrickwarner/admatcher/internal/logic/matchers"
	"github.com/patrickwarner/admatcher/internal/middleware"
	"github.com/patrickwarner/admatcher/internal/models"
	"github.com/patrickwarner/admatcher/internal/observability"
	"github.com/patrickwarner/admatcher/internal/universe"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func loadModel(cfg config.Config) (config.ModelConfig, error) {
	if cfg.ModelConfigPath == "" {
		return config.DefaultModelConfig(), nil
	}
	return config.LoadModelConfig(cfg.ModelConfigPath)
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TempoEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	model, err := loadModel(cfg)
	if err != nil {
		return fmt.Errorf("load model config: %w", err)
	}

	store, err := db.InitRedis(ctx, cfg.RedisAddr, cfg.IndexMinScore, cfg.IndexLimit)
	if err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	defer store.Close()

	metricsRegistry := observability.NewPrometheusRegistry()

	var source models.AdIDSource = store
	if cfg.UniverseSource == config.UniverseSourcePostgres {
		pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
		if err != nil {
			return fmt.Errorf("failed to connect postgres: %w", err)
		}
		defer pg.Close()
		source = pg
	}

	adUniverse := models.NewAdUniverse()
	refresher := universe.NewRefresher(adUniverse, source, logger, metricsRegistry)
	if err := refresher.Refresh(ctx); err != nil {
		return fmt.Errorf("initial universe load: %w", err)
	}
	go refresher.Run(ctx, cfg.UniverseRefreshInterval)

	var recorder analytics.MatchRecorder
	if cfg.ClickHouseDSN != "" {
		analyticsSvc, err := analytics.InitClickHouse(cfg.ClickHouseDSN, metricsRegistry)
		if err != nil {
			return fmt.Errorf("failed to connect clickhouse: %w", err)
		}
		defer func() { _ = analyticsSvc.Close() }()
		recorder = analyticsSvc
	}

	var geoSvc *geoip.GeoIP
	if cfg.GeoIPDB != "" {
		geoSvc, err = geoip.Init(cfg.GeoIPDB)
		if err != nil {
			return fmt.Errorf("failed to load geoip db: %w", err)
		}
		defer func() { _ = geoSvc.Close() }()
	}

	decision := matchers.NewDecisionMatcher(store, model, cfg.ScoreConcurrency)
	decision.SetLogger(logger)
	decision.SetMetrics(metricsRegistry)
	decision.SetStoreTimeout(cfg.StoreTimeout)

	explore := matchers.NewExploreMatcher(adUniverse)
	explore.SetMetrics(metricsRegistry)

	router := matchers.NewRouter(decision, explore, cfg.ExploreRate, cfg.FallbackToExplore)
	router.SetLogger(logger)

	srvDeps := api.NewServer(logger, router, adUniverse, refresher, recorder, geoSvc, cfg.DebugTrace, metricsRegistry)

	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(logger))
	r.HandleFunc("/match", srvDeps.MatchHandler).Methods("POST")
	r.HandleFunc("/health", srvDeps.HealthHandler).Methods("GET")
	r.HandleFunc("/reload", srvDeps.ReloadHandler).Methods("POST")
	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, "admatcher"),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Ad matcher running",
		zap.String("addr", addr),
		zap.Int("universe", adUniverse.Len()),
		zap.Float64("explore_rate", cfg.ExploreRate))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	observability.LogSamplingStats(logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
