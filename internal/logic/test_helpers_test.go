package logic

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/patrickwarner/admatcher/internal/models"
)

var errBackend = errors.New("backend down")

// memStore is an in-memory FeatureStore keyed the same way as the Redis schema.
type memStore struct {
	mu      sync.Mutex
	history map[string]map[string]models.FeatureInfo // uid|nation|type
	index   map[string][]string                      // nation|type|value
	stats   map[string]map[string]string             // nation|type|value|ad

	failHistory bool
	failIndex   bool
	failStats   bool

	statCalls int
}

func newMemStore() *memStore {
	return &memStore{
		history: make(map[string]map[string]models.FeatureInfo),
		index:   make(map[string][]string),
		stats:   make(map[string]map[string]string),
	}
}

func (m *memStore) setHistory(uid, nation string, ft models.FeatureType, values ...string) {
	vals := make(map[string]models.FeatureInfo, len(values))
	for _, v := range values {
		vals[v] = models.FeatureInfo{Raw: "1"}
	}
	m.history[uid+"|"+nation+"|"+string(ft)] = vals
}

func (m *memStore) setIndex(nation string, ft models.FeatureType, value string, adIDs ...string) {
	m.index[nation+"|"+string(ft)+"|"+value] = adIDs
}

func (m *memStore) setCTR(nation string, ft models.FeatureType, value, adID, ctr string) {
	m.stats[nation+"|"+string(ft)+"|"+value+"|"+adID] = map[string]string{StatImpCTR: ctr}
}

func (m *memStore) GetUserHistoryFeature(_ context.Context, uid, nation string, ft models.FeatureType) (map[string]models.FeatureInfo, error) {
	if m.failHistory {
		return nil, errBackend
	}
	return m.history[uid+"|"+nation+"|"+string(ft)], nil
}

func (m *memStore) GetCandidatesByFeature(_ context.Context, nation string, ft models.FeatureType, value string) ([]string, error) {
	if m.failIndex {
		return nil, errBackend
	}
	return m.index[nation+"|"+string(ft)+"|"+value], nil
}

func (m *memStore) GetCandidateStatistic(_ context.Context, nation string, ft models.FeatureType, value, adID string) (map[string]string, error) {
	m.mu.Lock()
	m.statCalls++
	m.mu.Unlock()
	if m.failStats {
		return nil, errBackend
	}
	return m.stats[nation+"|"+string(ft)+"|"+value+"|"+adID], nil
}

// fixedModel is a ScoreModel backed by plain maps.
type fixedModel struct {
	defaults map[models.FeatureType]decimal.Decimal
	weights  map[models.FeatureType]decimal.Decimal
}

func (f fixedModel) Default(ft models.FeatureType) decimal.Decimal { return f.defaults[ft] }
func (f fixedModel) Weight(ft models.FeatureType) decimal.Decimal  { return f.weights[ft] }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func scored(pairs ...string) []models.ScoredCandidate {
	out := make([]models.ScoredCandidate, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.ScoredCandidate{AdID: pairs[i], Score: dec(pairs[i+1])})
	}
	return out
}
