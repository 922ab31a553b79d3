package logic

import (
	"context"

	"github.com/patrickwarner/admatcher/internal/models"
)

// StatImpCTR is the statistic field holding a candidate's historical engagement rate.
const StatImpCTR = "impctr"

// FeatureStore is the read side of the feature model consumed by the matcher.
// Implementations must be safe for concurrent use.
type FeatureStore interface {
	// GetUserHistoryFeature returns the stored values of one feature type for a user.
	GetUserHistoryFeature(ctx context.Context, uid, nation string, ft models.FeatureType) (map[string]models.FeatureInfo, error)
	// GetCandidatesByFeature returns the ad ids indexed under one feature value,
	// already ranked and filtered by the store's indexing policy.
	GetCandidatesByFeature(ctx context.Context, nation string, ft models.FeatureType, value string) ([]string, error)
	// GetCandidateStatistic returns the statistics recorded for an ad under one feature value.
	GetCandidateStatistic(ctx context.Context, nation string, ft models.FeatureType, value, adID string) (map[string]string, error)
}

// BatchFeatureStore is implemented by stores that can resolve many index
// lookups in one round trip. The retriever uses it when available.
type BatchFeatureStore interface {
	GetCandidatesByFeatures(ctx context.Context, nation string, pairs []models.FeaturePair) (map[models.FeaturePair][]string, error)
}
