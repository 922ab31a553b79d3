package matchers

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/patrickwarner/admatcher/internal/config"
	"github.com/patrickwarner/admatcher/internal/db"
	"github.com/patrickwarner/admatcher/internal/logic"
	"github.com/patrickwarner/admatcher/internal/models"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *db.RedisStore) {
	t.Helper()
	ms, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: ms.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		ms.Close()
	})
	return ms, &db.RedisStore{Client: client}
}

// seedCTR indexes each ad under (ft, value) in nation "kr" with the given impctr.
func seedCTR(t *testing.T, store *db.RedisStore, ft models.FeatureType, value string, ctrs map[string]string) {
	t.Helper()
	ctx := context.Background()
	for adID, ctr := range ctrs {
		if err := store.IndexCandidate(ctx, "kr", ft, value, adID, 1); err != nil {
			t.Fatalf("index %s: %v", adID, err)
		}
		if err := store.PutStatistic(ctx, "kr", ft, value, adID, map[string]string{logic.StatImpCTR: ctr}); err != nil {
			t.Fatalf("stat %s: %v", adID, err)
		}
	}
}

func testRequest() models.RequestFeatures {
	return models.RequestFeatures{UID: "u1", Nation: "kr", ReqID: "r1", PID: "p1"}
}

func newTestDecision(store logic.FeatureStore) *DecisionMatcher {
	return NewDecisionMatcher(store, config.DefaultModelConfig(), 4)
}

// stubMatcher returns a fixed result and counts calls.
type stubMatcher struct {
	res   models.MatchResult
	err   error
	calls int
}

func (s *stubMatcher) Match(context.Context, models.RequestFeatures) (models.MatchResult, error) {
	s.calls++
	return s.res, s.err
}
