package config

import (
	"os"
	"strconv"
	"time"
)

// Universe sources accepted by UNIVERSE_SOURCE.
const (
	UniverseSourcePostgres = "postgres"
	UniverseSourceRedis    = "redis"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	RedisAddr     string
	ClickHouseDSN string
	PostgresDSN   string
	GeoIPDB       string
	DebugTrace    bool
	ServiceName   string
	// Matching
	ModelConfigPath   string
	ExploreRate       float64
	FallbackToExplore bool
	StoreTimeout      time.Duration
	ScoreConcurrency  int
	IndexMinScore     float64
	IndexLimit        int64
	// Ad universe used by exploration
	UniverseSource          string
	UniverseRefreshInterval time.Duration
	// Database connection pooling configuration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	// Tracing configuration
	TracingEnabled    bool
	TempoEndpoint     string
	TracingSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8787")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 10*time.Second)
	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	// empty DSN disables the match log
	cfg.ClickHouseDSN = getenv("CLICKHOUSE_DSN", "")
	cfg.PostgresDSN = getenv("POSTGRES_DSN", "postgres://postgres@127.0.0.1:5432/postgres?sslmode=disable")
	cfg.GeoIPDB = getenv("GEOIP_DB", "")
	cfg.DebugTrace = envBool("DEBUG_TRACE", false)
	cfg.ServiceName = getenv("SERVICE_NAME", "admatcher")

	cfg.ModelConfigPath = getenv("MODEL_CONFIG", "")
	cfg.ExploreRate = envFloat("EXPLORE_RATE", 0.1)
	cfg.FallbackToExplore = envBool("FALLBACK_TO_EXPLORE", true)
	cfg.StoreTimeout = envDuration("STORE_TIMEOUT", 200*time.Millisecond)
	cfg.ScoreConcurrency = envInt("SCORE_CONCURRENCY", 8)
	cfg.IndexMinScore = envFloat("INDEX_MIN_SCORE", 0)
	cfg.IndexLimit = int64(envInt("INDEX_LIMIT", 100))

	cfg.UniverseSource = getenv("UNIVERSE_SOURCE", UniverseSourceRedis)
	cfg.UniverseRefreshInterval = envDuration("UNIVERSE_REFRESH_INTERVAL", 60*time.Second)

	cfg.DBMaxOpenConns = envInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DBMaxIdleConns = envInt("DB_MAX_IDLE_CONNS", 2)
	cfg.DBConnMaxLifetime = envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.DBConnMaxIdleTime = envDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute)

	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TempoEndpoint = getenv("TEMPO_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
