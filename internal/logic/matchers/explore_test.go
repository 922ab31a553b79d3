package matchers

import (
	"context"
	"errors"
	"testing"

	"github.com/patrickwarner/admatcher/internal/logic"
	"github.com/patrickwarner/admatcher/internal/models"
	"github.com/patrickwarner/admatcher/internal/observability"
)

func TestExploreMatcherIsRoughlyUniform(t *testing.T) {
	m := NewExploreMatcher(models.NewAdUniverse("a", "b", "c"))

	counts := map[string]int{}
	const trials = 3000
	for i := 0; i < trials; i++ {
		res, err := m.Match(context.Background(), models.RequestFeatures{})
		if err != nil {
			t.Fatalf("explore: %v", err)
		}
		if res.Tag != models.TagExplore || res.Status != models.StatusOK {
			t.Fatalf("unexpected result %+v", res)
		}
		counts[res.AdID]++
	}
	if len(counts) != 3 {
		t.Fatalf("expected all three ids drawn, got %v", counts)
	}
	for id, n := range counts {
		if n < trials/3-250 || n > trials/3+250 {
			t.Fatalf("id %s drawn %d times of %d, counts=%v", id, n, trials, counts)
		}
	}
}

func TestExploreMatcherIgnoresRequest(t *testing.T) {
	m := NewExploreMatcher(models.NewAdUniverse("a", "b", "c"))
	m.Pick = func(int) int { return 2 }

	for _, req := range []models.RequestFeatures{{}, testRequest(), {UID: "other", Nation: "us"}} {
		res, err := m.Match(context.Background(), req)
		if err != nil || res.AdID != "c" {
			t.Fatalf("expected c for %+v, got %+v err=%v", req, res, err)
		}
	}
}

func TestExploreMatcherEmptyUniverse(t *testing.T) {
	metrics := observability.NewMockMetricsRegistry()
	m := NewExploreMatcher(models.NewAdUniverse())
	m.SetMetrics(metrics)

	res, err := m.Match(context.Background(), models.RequestFeatures{})
	if !errors.Is(err, ErrEmptyUniverse) {
		t.Fatalf("expected ErrEmptyUniverse, got %v", err)
	}
	if res.Status != models.StatusNoCandidate || res.AdID != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if metrics.MatchCount("EXPLORE", "no_candidate") != 1 {
		t.Fatalf("expected no_candidate metric, got %v", metrics.Matches)
	}
}

func TestExploreMatcherSeesReloadedUniverse(t *testing.T) {
	u := models.NewAdUniverse("old")
	m := NewExploreMatcher(u)
	u.Reload([]string{"new"})

	trace := &logic.MatchTrace{}
	res, err := m.MatchWithTrace(context.Background(), models.RequestFeatures{}, trace)
	if err != nil || res.AdID != "new" {
		t.Fatalf("expected reloaded id, got %+v err=%v", res, err)
	}
	if len(trace.Steps) != 1 || trace.Steps[0].Details["universe"] != "1" {
		t.Fatalf("unexpected trace %+v", trace.Steps)
	}
}
