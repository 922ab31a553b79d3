package logic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/admatcher/internal/models"
)

func TestCandidateRetriever_UnionsAndRecordsMatches(t *testing.T) {
	store := newMemStore()
	store.setIndex("us", models.FeatureQuery, "shoes", "A", "B")
	store.setIndex("us", models.FeatureQuery, "boots", "B")
	store.setIndex("us", models.FeatureTime, models.PM, "C", "A")

	p := models.NewProfile("u1", "us", "r1")
	p.AddValues(models.FeatureQuery, "shoes", "boots", "sandals")
	p.AddValues(models.FeatureTime, models.PM, "14")

	got, err := NewCandidateRetriever(store).Retrieve(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, got.IDs())
	assert.Equal(t, []string{"shoes"}, got["A"].Values(models.FeatureQuery))
	assert.Equal(t, []string{"pm"}, got["A"].Values(models.FeatureTime))
	assert.Equal(t, []string{"boots", "shoes"}, got["B"].Values(models.FeatureQuery))
	assert.Empty(t, got["B"].Values(models.FeatureTime))
	assert.Empty(t, got["C"].Values(models.FeatureQuery))
}

func TestCandidateRetriever_EmptyIsNotAnError(t *testing.T) {
	p := models.NewProfile("u1", "us", "r1")
	p.AddValues(models.FeatureUID, "u1")

	got, err := NewCandidateRetriever(newMemStore()).Retrieve(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCandidateRetriever_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.failIndex = true
	p := models.NewProfile("u1", "us", "r1")
	p.AddValues(models.FeatureUID, "u1")

	_, err := NewCandidateRetriever(store).Retrieve(context.Background(), p)
	if !errors.Is(err, ErrStoreAccess) {
		t.Fatalf("expected store access error, got %v", err)
	}
}

// batchStore serves index lookups through the batch interface only.
type batchStore struct {
	*memStore
	batchCalls int
}

func (b *batchStore) GetCandidatesByFeatures(ctx context.Context, nation string, pairs []models.FeaturePair) (map[models.FeaturePair][]string, error) {
	b.batchCalls++
	out := make(map[models.FeaturePair][]string, len(pairs))
	for _, p := range pairs {
		ids, err := b.memStore.GetCandidatesByFeature(ctx, nation, p.Type, p.Value)
		if err != nil {
			return nil, err
		}
		out[p] = ids
	}
	return out, nil
}

func TestCandidateRetriever_UsesBatchLookup(t *testing.T) {
	store := &batchStore{memStore: newMemStore()}
	store.setIndex("us", models.FeatureQuery, "shoes", "A", "B")
	store.setIndex("us", models.FeatureBrowser, "chrome", "B")

	p := models.NewProfile("u1", "us", "r1")
	p.AddValues(models.FeatureQuery, "shoes")
	p.AddValues(models.FeatureBrowser, "chrome")

	got, err := NewCandidateRetriever(store).Retrieve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 1, store.batchCalls)
	assert.Equal(t, []string{"A", "B"}, got.IDs())
	assert.Equal(t, []string{"chrome"}, got["B"].Values(models.FeatureBrowser))

	store.failIndex = true
	_, err = NewCandidateRetriever(store).Retrieve(context.Background(), p)
	assert.ErrorIs(t, err, ErrStoreAccess)
}
