package logic

import (
	"context"

	"github.com/patrickwarner/admatcher/internal/models"
)

// CandidateRetriever joins a profile against the store's inverted index.
type CandidateRetriever struct {
	Store FeatureStore
}

// NewCandidateRetriever returns a retriever backed by store.
func NewCandidateRetriever(store FeatureStore) *CandidateRetriever {
	return &CandidateRetriever{Store: store}
}

// Retrieve queries the index for every (type, value) pair of the profile and
// unions the results. Each candidate records which pairs matched it. An empty
// set is a valid result; the caller decides how to handle it.
func (r *CandidateRetriever) Retrieve(ctx context.Context, p *models.Profile) (models.CandidateSet, error) {
	if r.Store == nil {
		return nil, ErrNilFeatureStore
	}
	pairs := p.Pairs()
	out := make(models.CandidateSet)

	if bs, ok := r.Store.(BatchFeatureStore); ok {
		byPair, err := bs.GetCandidatesByFeatures(ctx, p.Nation, pairs)
		if err != nil {
			return nil, storeErr("candidates", p.Nation, err)
		}
		for _, pair := range pairs {
			addMatches(out, pair, byPair[pair])
		}
		return out, nil
	}

	for _, pair := range pairs {
		adIDs, err := r.Store.GetCandidatesByFeature(ctx, p.Nation, pair.Type, pair.Value)
		if err != nil {
			return nil, storeErr("candidates", string(pair.Type)+"="+pair.Value, err)
		}
		addMatches(out, pair, adIDs)
	}
	return out, nil
}

func addMatches(out models.CandidateSet, pair models.FeaturePair, adIDs []string) {
	for _, adID := range adIDs {
		matched, ok := out[adID]
		if !ok {
			matched = make(models.MatchedFeatures)
			out[adID] = matched
		}
		matched.Add(pair.Type, pair.Value)
	}
}
