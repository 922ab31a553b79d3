package logic

import (
	"time"

	"github.com/patrickwarner/admatcher/internal/models"
)

// Stage names used for traces and timing metrics.
const (
	StageProfile  = "profile"
	StageRetrieve = "retrieve"
	StageScore    = "score"
	StageSelect   = "select"
	StageExplore  = "explore"
	StageFallback = "fallback"
)

// TraceStep records the ads considered at one matching stage.
type TraceStep struct {
	Stage    string            `json:"stage"`
	AdIDs    []string          `json:"ad_ids,omitempty"`
	Scores   map[string]string `json:"scores,omitempty"`
	Duration time.Duration     `json:"duration_ns"`
	Details  map[string]string `json:"details,omitempty"`
}

// MatchTrace captures the ordered list of steps performed by a matcher.
// A nil *MatchTrace is valid and records nothing.
type MatchTrace struct {
	Steps []TraceStep `json:"steps"`
}

// AddStep appends a trace entry for the given stage.
func (t *MatchTrace) AddStep(stage string, adIDs []string, d time.Duration) {
	t.AddStepWithDetails(stage, adIDs, d, nil)
}

// AddStepWithDetails appends a trace entry with additional details.
func (t *MatchTrace) AddStepWithDetails(stage string, adIDs []string, d time.Duration, details map[string]string) {
	if t == nil {
		return
	}
	t.Steps = append(t.Steps, TraceStep{Stage: stage, AdIDs: adIDs, Duration: d, Details: details})
}

// AddScored appends a step listing scored candidates in the given order.
func (t *MatchTrace) AddScored(stage string, cs []models.ScoredCandidate, d time.Duration) {
	if t == nil {
		return
	}
	step := TraceStep{Stage: stage, Duration: d, Scores: make(map[string]string, len(cs))}
	for _, c := range cs {
		step.AdIDs = append(step.AdIDs, c.AdID)
		step.Scores[c.AdID] = c.Score.String()
	}
	t.Steps = append(t.Steps, step)
}
