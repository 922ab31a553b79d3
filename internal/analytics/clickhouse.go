package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/patrickwarner/admatcher/internal/models"
	"github.com/patrickwarner/admatcher/internal/observability"
)

// ErrUnavailable is returned when the match log is not configured.
var ErrUnavailable = errors.New("analytics unavailable")

// MatchRecorder persists served matches as feedback for training the model.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, rec MatchRecord) error
}

// MatchRecord mirrors a row in the matches table.
type MatchRecord struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	UID       string    `json:"uid"`
	Nation    string    `json:"nation"`
	PID       string    `json:"pid"`
	Browser   string    `json:"browser"`
	AdID      string    `json:"ad_id"`
	Tag       string    `json:"tag"`
	Status    int       `json:"status"`
}

// NewMatchRecord builds the log row for a request and its result.
func NewMatchRecord(req models.RequestFeatures, res models.MatchResult, at time.Time) MatchRecord {
	return MatchRecord{
		Timestamp: at,
		RequestID: req.ReqID,
		UID:       req.UID,
		Nation:    req.Nation,
		PID:       req.PID,
		Browser:   req.Browser,
		AdID:      res.AdID,
		Tag:       string(res.Tag),
		Status:    res.Status,
	}
}

// Analytics wraps a ClickHouse DB connection.
type Analytics struct {
	DB      *sql.DB
	Metrics observability.MetricsRegistry
}

var _ MatchRecorder = (*Analytics)(nil)

const createMatchesSQL = `CREATE TABLE IF NOT EXISTS matches (
       timestamp  DateTime,
       request_id String,
       uid        String,
       nation     LowCardinality(String),
       pid        String,
       browser    LowCardinality(String),
       ad_id      String,
       tag        LowCardinality(String),
       status     UInt8
   ) ENGINE=MergeTree() ORDER BY (tag, timestamp)`

// InitClickHouse connects to ClickHouse and ensures the matches table exists.
func InitClickHouse(dsn string, metrics observability.MetricsRegistry) (*Analytics, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(25)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), createMatchesSQL); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}

	zap.L().Info("Connected to ClickHouse")
	return &Analytics{DB: db, Metrics: metrics}, nil
}

// RecordMatch inserts one row into the matches table.
func (a *Analytics) RecordMatch(ctx context.Context, rec MatchRecord) error {
	if a == nil || a.DB == nil {
		return ErrUnavailable
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	stmt := `INSERT INTO matches (timestamp, request_id, uid, nation, pid, browser, ad_id, tag, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := a.DB.ExecContext(ctx, stmt, rec.Timestamp, rec.RequestID, rec.UID, rec.Nation,
		rec.PID, rec.Browser, rec.AdID, rec.Tag, uint8(rec.Status)); err != nil {
		if a.Metrics != nil {
			a.Metrics.IncrementMatchLogErrors()
		}
		zap.L().Error("clickhouse insert failed", zap.Error(err), zap.String("reqid", rec.RequestID))
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// Close releases the ClickHouse connection.
func (a *Analytics) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
