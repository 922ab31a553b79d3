package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/patrickwarner/admatcher/internal/analytics"
	"github.com/patrickwarner/admatcher/internal/logic"
	"github.com/patrickwarner/admatcher/internal/logic/matchers"
	"github.com/patrickwarner/admatcher/internal/middleware"
	"github.com/patrickwarner/admatcher/internal/models"
	"github.com/patrickwarner/admatcher/internal/observability"
)

// maxRequestBody bounds the JSON body accepted by /match.
const maxRequestBody = 64 << 10

// decodeMatchRequest reads and unmarshals a match request body.
func decodeMatchRequest(r *http.Request) (models.RequestFeatures, error) {
	var req models.RequestFeatures
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return req, fmt.Errorf("read body: %w", err)
	}
	defer func() {
		_ = r.Body.Close()
	}()
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("parse json: %w", err)
	}
	return req, nil
}

// clientIP returns the first X-Forwarded-For address or the peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusCode maps a match outcome to an HTTP status.
func statusCode(res models.MatchResult, err error) int {
	switch {
	case err == nil && res.OK():
		return http.StatusOK
	case res.Status == models.StatusNoCandidate:
		return http.StatusNoContent
	case errors.Is(err, logic.ErrStoreAccess):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type matchResponse struct {
	models.MatchResult
	Error string            `json:"error,omitempty"`
	Debug *logic.MatchTrace `json:"debug,omitempty"`
}

// MatchHandler handles POST /match.
func (s *Server) MatchHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.StartSpan(r.Context(), "MatchHandler",
		attribute.String("http.method", "POST"),
		attribute.String("http.route", "/match"),
	)
	defer span.End()

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "match"
	const method = "POST"

	req, err := decodeMatchRequest(r)
	if err != nil {
		logger.Warn("decode request", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.IP == "" {
		req.IP = clientIP(r)
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}
	if req.ReqID == "" {
		req.ReqID = r.Header.Get(middleware.RequestIDHeader)
	}
	req = logic.ResolveRequest(s.GeoIP, req, s.Now())

	span.SetAttributes(
		attribute.String("match.reqid", req.ReqID),
		attribute.String("match.uid", req.UID),
		attribute.String("match.nation", req.Nation),
	)

	debugEnabled := s.DebugTrace || r.URL.Query().Get("debug") == "1"
	var trace *logic.MatchTrace
	var res models.MatchResult
	if tm, ok := s.Matcher.(matchers.TracingMatcher); ok && debugEnabled {
		trace = &logic.MatchTrace{}
		res, err = tm.MatchWithTrace(ctx, req, trace)
	} else {
		res, err = s.Matcher.Match(ctx, req)
	}

	code := statusCode(res, err)
	span.SetAttributes(
		attribute.String("match.tag", string(res.Tag)),
		attribute.String("match.status", models.StatusLabel(res.Status)),
	)

	if res.OK() && s.Recorder != nil {
		if rerr := s.Recorder.RecordMatch(ctx, analytics.NewMatchRecord(req, res, s.Now())); rerr != nil && !errors.Is(rerr, analytics.ErrUnavailable) {
			logger.Error("match log", zap.Error(rerr), zap.String("reqid", req.ReqID))
		}
	}

	switch {
	case code >= http.StatusInternalServerError:
		logger.Error("match failed", zap.Error(err), zap.String("reqid", req.ReqID))
	case observability.ShouldSample(observability.GetSamplingRate()):
		logger.Info("match",
			zap.String("reqid", req.ReqID),
			zap.String("uid", req.UID),
			zap.String("adid", res.AdID),
			zap.String("tag", string(res.Tag)),
			zap.Int("status", res.Status))
	}

	s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(code))
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))

	if code == http.StatusNoContent && !debugEnabled {
		w.WriteHeader(code)
		return
	}
	if code == http.StatusNoContent {
		// 204 cannot carry the trace
		code = http.StatusOK
	}
	out := matchResponse{MatchResult: res, Debug: trace}
	switch {
	case err == nil:
	case debugEnabled:
		out.Error = err.Error()
	default:
		out.Error = http.StatusText(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(out); err != nil {
		logger.Error("encode response", zap.Error(err))
	}
}
