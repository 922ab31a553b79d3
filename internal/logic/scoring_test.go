package logic

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/admatcher/internal/models"
)

func testModel() fixedModel {
	return fixedModel{
		defaults: map[models.FeatureType]decimal.Decimal{
			models.FeatureQuery: dec("-1"),
			models.FeatureTime:  dec("0.5"),
			models.FeatureUID:   dec("-0.25"),
		},
		weights: map[models.FeatureType]decimal.Decimal{
			models.FeatureQuery: dec("2"),
			models.FeatureTime:  dec("1"),
			models.FeatureUID:   dec("1"),
		},
	}
}

func scoringProfile() *models.Profile {
	p := models.NewProfile("u1", "us", "r1")
	p.AddValues(models.FeatureQuery, "shoes", "boots")
	p.AddValues(models.FeatureTime, models.PM, "14", models.Work)
	p.AddValues(models.FeatureUID, "u1")
	return p
}

func TestScorer_DefaultOncePerUnmatchedType(t *testing.T) {
	store := newMemStore()
	store.setCTR("us", models.FeatureQuery, "shoes", "A", "0.1")
	store.setCTR("us", models.FeatureQuery, "boots", "A", "0.3")

	matched := models.MatchedFeatures{}
	matched.Add(models.FeatureQuery, "shoes")
	matched.Add(models.FeatureQuery, "boots")

	got, err := NewScorer(store, testModel(), 1).Score(context.Background(), "A", scoringProfile(), matched)
	require.NoError(t, err)

	// 2*0.1 + 2*0.3 + TIME default 0.5 (once, despite three values) + UID default -0.25
	assert.True(t, got.Equal(dec("1.05")), "got %s", got)
	assert.Equal(t, 2, store.statCalls, "statistics are only fetched for matched values")
}

func TestScorer_ExactDecimalAccumulation(t *testing.T) {
	store := newMemStore()
	p := models.NewProfile("u1", "us", "r1")
	p.AddValues(models.FeatureTime, "a", "b", "c")
	matched := models.MatchedFeatures{}
	for _, v := range []string{"a", "b", "c"} {
		store.setCTR("us", models.FeatureTime, v, "A", "0.1")
		matched.Add(models.FeatureTime, v)
	}

	got, err := NewScorer(store, testModel(), 1).Score(context.Background(), "A", p, matched)
	require.NoError(t, err)
	assert.Equal(t, "0.3", got.String())
}

func TestScorer_OrderIndependent(t *testing.T) {
	store := newMemStore()
	ctrs := map[string]string{"a": "0.013", "b": "0.7", "c": "0.0001", "d": "1.9"}
	for v, ctr := range ctrs {
		store.setCTR("us", models.FeatureQuery, v, "A", ctr)
	}
	orders := [][]string{{"a", "b", "c", "d"}, {"d", "c", "b", "a"}, {"b", "d", "a", "c"}}

	var first decimal.Decimal
	for i, order := range orders {
		p := models.NewProfile("u1", "us", "r1")
		matched := models.MatchedFeatures{}
		for _, v := range order {
			p.AddValues(models.FeatureQuery, v)
			matched.Add(models.FeatureQuery, v)
		}
		p.AddValues(models.FeatureUID, "u1")

		got, err := NewScorer(store, testModel(), 1).Score(context.Background(), "A", p, matched)
		require.NoError(t, err)
		if i == 0 {
			first = got
			continue
		}
		assert.True(t, got.Equal(first), "order %v gave %s, want %s", order, got, first)
	}
	// 2*(0.013+0.7+0.0001+1.9) - 0.25
	assert.True(t, first.Equal(dec("4.9762")), "got %s", first)
}

func TestScorer_ZeroWeightLeavesOnlyDefaults(t *testing.T) {
	store := newMemStore()
	store.setCTR("us", models.FeatureQuery, "shoes", "A", "0.9")
	model := testModel()
	model.weights[models.FeatureQuery] = decimal.Zero

	p := models.NewProfile("u1", "us", "r1")
	p.AddValues(models.FeatureQuery, "shoes")
	p.AddValues(models.FeatureUID, "u1")
	matched := models.MatchedFeatures{}
	matched.Add(models.FeatureQuery, "shoes")

	got, err := NewScorer(store, model, 1).Score(context.Background(), "A", p, matched)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("-0.25")), "got %s", got)
}

func TestScorer_StatisticErrors(t *testing.T) {
	tests := []struct {
		name string
		ctr  *string
	}{
		{name: "missing", ctr: nil},
		{name: "empty", ctr: strPtr("")},
		{name: "non-numeric", ctr: strPtr("n/a")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			if tt.ctr != nil {
				store.setCTR("us", models.FeatureQuery, "shoes", "A", *tt.ctr)
			}
			p := models.NewProfile("u1", "us", "r1")
			p.AddValues(models.FeatureQuery, "shoes")
			matched := models.MatchedFeatures{}
			matched.Add(models.FeatureQuery, "shoes")

			_, err := NewScorer(store, testModel(), 1).Score(context.Background(), "A", p, matched)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrStatisticParse))
			var spe *StatisticParseError
			require.True(t, errors.As(err, &spe))
			assert.Equal(t, "A", spe.AdID)
			assert.Equal(t, StatImpCTR, spe.Field)
		})
	}
}

func TestScorer_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.failStats = true
	p := models.NewProfile("u1", "us", "r1")
	p.AddValues(models.FeatureQuery, "shoes")
	matched := models.MatchedFeatures{}
	matched.Add(models.FeatureQuery, "shoes")

	_, err := NewScorer(store, testModel(), 1).Score(context.Background(), "A", p, matched)
	assert.True(t, errors.Is(err, ErrStoreAccess), "got %v", err)
}

func TestScorer_ScoreAll(t *testing.T) {
	store := newMemStore()
	candidates := models.CandidateSet{}
	for _, ad := range []string{"A", "B", "C", "D"} {
		store.setCTR("us", models.FeatureQuery, "shoes", ad, "0.5")
		m := models.MatchedFeatures{}
		m.Add(models.FeatureQuery, "shoes")
		candidates[ad] = m
	}
	store.setCTR("us", models.FeatureQuery, "shoes", "D", "0.75")

	p := models.NewProfile("u1", "us", "r1")
	p.AddValues(models.FeatureQuery, "shoes")

	out, err := NewScorer(store, testModel(), 3).ScoreAll(context.Background(), p, candidates)
	require.NoError(t, err)
	require.Len(t, out, 4)
	byID := make(map[string]decimal.Decimal)
	for _, c := range out {
		byID[c.AdID] = c.Score
	}
	assert.True(t, byID["A"].Equal(dec("1")))
	assert.True(t, byID["D"].Equal(dec("1.5")))
}

func TestScorer_ScoreAllPropagatesFailure(t *testing.T) {
	store := newMemStore()
	candidates := models.CandidateSet{}
	for _, ad := range []string{"A", "B"} {
		m := models.MatchedFeatures{}
		m.Add(models.FeatureQuery, "shoes")
		candidates[ad] = m
	}
	store.setCTR("us", models.FeatureQuery, "shoes", "A", "0.5")
	// B has no statistic

	p := models.NewProfile("u1", "us", "r1")
	p.AddValues(models.FeatureQuery, "shoes")

	out, err := NewScorer(store, testModel(), 0).ScoreAll(context.Background(), p, candidates)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrStatisticParse), "got %v", err)
}

func strPtr(s string) *string { return &s }
