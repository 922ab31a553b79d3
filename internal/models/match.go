package models

// MatchTag identifies which strategy produced a match.
type MatchTag string

const (
	TagExplore  MatchTag = "EXPLORE"
	TagDecision MatchTag = "DECISION"
)

// Match status codes.
const (
	StatusOK          = 0
	StatusNoCandidate = 1
	StatusFailed      = 2
)

// MatchResult is the outcome of a single match request.
type MatchResult struct {
	Status int      `json:"status"`
	AdID   string   `json:"adid"`
	Tag    MatchTag `json:"tag"`
}

// OK reports whether the result carries a served ad.
func (r MatchResult) OK() bool { return r.Status == StatusOK && r.AdID != "" }

// StatusLabel returns a short name for a status code, used in metrics and logs.
func StatusLabel(status int) string {
	switch status {
	case StatusOK:
		return "ok"
	case StatusNoCandidate:
		return "no_candidate"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
