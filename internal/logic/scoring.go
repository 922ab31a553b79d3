package logic

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/patrickwarner/admatcher/internal/models"
)

var errMissingStatistic = errors.New("missing")

// ScoreModel supplies the configured scoring constants.
type ScoreModel interface {
	Default(ft models.FeatureType) decimal.Decimal
	Weight(ft models.FeatureType) decimal.Decimal
}

// Scorer computes an additive score per candidate with exact decimal arithmetic.
type Scorer struct {
	Store FeatureStore
	Model ScoreModel
	// Concurrency bounds how many candidates ScoreAll evaluates at once.
	// Zero or negative means sequential.
	Concurrency int
}

// NewScorer returns a Scorer for the given store and model.
func NewScorer(store FeatureStore, model ScoreModel, concurrency int) *Scorer {
	return &Scorer{Store: store, Model: model, Concurrency: concurrency}
}

// Score sums, for every feature type in the profile, either the type's
// default contribution (no matched values) or impctr × weight for each
// matched value.
func (s *Scorer) Score(ctx context.Context, adID string, p *models.Profile, matched models.MatchedFeatures) (decimal.Decimal, error) {
	if s.Store == nil {
		return decimal.Zero, ErrNilFeatureStore
	}
	total := decimal.Zero
	for _, ft := range p.Types() {
		values := matched.Values(ft)
		if len(values) == 0 {
			total = total.Add(s.Model.Default(ft))
			continue
		}
		weight := s.Model.Weight(ft)
		for _, value := range values {
			ctr, err := s.statistic(ctx, p.Nation, ft, value, adID)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(ctr.Mul(weight))
		}
	}
	return total, nil
}

func (s *Scorer) statistic(ctx context.Context, nation string, ft models.FeatureType, value, adID string) (decimal.Decimal, error) {
	stats, err := s.Store.GetCandidateStatistic(ctx, nation, ft, value, adID)
	if err != nil {
		return decimal.Zero, storeErr("statistic", adID+"/"+string(ft)+"="+value, err)
	}
	raw, ok := stats[StatImpCTR]
	if !ok || raw == "" {
		return decimal.Zero, &StatisticParseError{
			AdID: adID, FeatureType: string(ft), FeatureValue: value,
			Field: StatImpCTR, Err: errMissingStatistic,
		}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &StatisticParseError{
			AdID: adID, FeatureType: string(ft), FeatureValue: value,
			Field: StatImpCTR, Raw: raw, Err: err,
		}
	}
	return d, nil
}

// ScoreAll scores every candidate. The first failure cancels the remaining
// work and is returned. Output order is unspecified; rank it with the Selector.
func (s *Scorer) ScoreAll(ctx context.Context, p *models.Profile, candidates models.CandidateSet) ([]models.ScoredCandidate, error) {
	ids := candidates.IDs()
	out := make([]models.ScoredCandidate, len(ids))

	eg, egCtx := errgroup.WithContext(ctx)
	if s.Concurrency > 0 {
		eg.SetLimit(s.Concurrency)
	} else {
		eg.SetLimit(1)
	}

	for i, adID := range ids {
		eg.Go(func() error {
			score, err := s.Score(egCtx, adID, p, candidates[adID])
			if err != nil {
				return err
			}
			out[i] = models.ScoredCandidate{AdID: adID, Score: score}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
