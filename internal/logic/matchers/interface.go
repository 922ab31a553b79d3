package matchers

import (
	"context"

	"github.com/patrickwarner/admatcher/internal/logic"
	"github.com/patrickwarner/admatcher/internal/models"
)

// Matcher turns request features into a single match.
type Matcher interface {
	Match(ctx context.Context, req models.RequestFeatures) (models.MatchResult, error)
}

// TracingMatcher is a Matcher that can also record its intermediate steps.
type TracingMatcher interface {
	Matcher
	MatchWithTrace(ctx context.Context, req models.RequestFeatures, trace *logic.MatchTrace) (models.MatchResult, error)
}
