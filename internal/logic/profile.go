package logic

import (
	"context"

	"github.com/patrickwarner/admatcher/internal/models"
)

// ProfileBuilder assembles a request profile from stored history and the
// request's own signals.
type ProfileBuilder struct {
	Store        FeatureStore
	HistoryTypes []models.FeatureType
}

// NewProfileBuilder returns a builder reading the given history types.
func NewProfileBuilder(store FeatureStore, historyTypes []models.FeatureType) *ProfileBuilder {
	return &ProfileBuilder{Store: store, HistoryTypes: historyTypes}
}

// Build reads the user's stored values for every history type and merges in
// the request-derived features. Any store failure aborts the build so a
// partial profile is never used.
func (b *ProfileBuilder) Build(ctx context.Context, req models.RequestFeatures) (*models.Profile, error) {
	if b.Store == nil {
		return nil, ErrNilFeatureStore
	}
	p := models.NewProfile(req.UID, req.Nation, req.ReqID)

	for _, ft := range b.HistoryTypes {
		values, err := b.Store.GetUserHistoryFeature(ctx, req.UID, req.Nation, ft)
		if err != nil {
			return nil, storeErr("user history", string(ft), err)
		}
		p.AddFeature(ft, values)
	}

	MergeRequestFeatures(p, req)
	return p, nil
}

// MergeRequestFeatures adds the singleton request features and the composite
// TIME feature to p.
func MergeRequestFeatures(p *models.Profile, req models.RequestFeatures) {
	p.AddValues(models.FeaturePID, req.PID)
	p.AddValues(models.FeatureIP, req.IP)
	p.AddValues(models.FeatureUID, req.UID)
	p.AddValues(models.FeatureBrowser, req.Browser)
	p.AddValues(models.FeatureTime, req.AMPM, req.Hour, req.WorkOrVacation)
}
