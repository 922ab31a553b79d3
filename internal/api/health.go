package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler responds with the service status and the universe size.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "health"
	const method = "GET"

	out := struct {
		Status   string `json:"status"`
		Universe int    `json:"universe"`
	}{Status: "ok"}
	if s.Universe != nil {
		out.Universe = s.Universe.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
