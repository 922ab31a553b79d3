package logic

import (
	"context"
	"errors"
	"testing"

	"github.com/patrickwarner/admatcher/internal/models"
)

func testRequest() models.RequestFeatures {
	return models.RequestFeatures{
		UID: "u1", Nation: "us", ReqID: "r1",
		PID: "p9", IP: "1.2.3.4", Browser: "chrome",
		AMPM: models.PM, Hour: "14", WorkOrVacation: models.Work,
	}
}

func TestProfileBuilder_MergesHistoryAndRequest(t *testing.T) {
	store := newMemStore()
	store.setHistory("u1", "us", models.FeatureQuery, "shoes", "boots")
	store.setHistory("u1", "us", models.FeatureKeyword, "leather")

	b := NewProfileBuilder(store, models.HistoryFeatureTypes)
	p, err := b.Build(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := p.Values(models.FeatureQuery); len(got) != 2 {
		t.Errorf("expected two query values, got %v", got)
	}
	// types with no stored values contribute nothing
	if _, ok := p.Features[models.FeatureQueryLength]; ok {
		t.Error("empty history type must not be present")
	}
	for _, ft := range []models.FeatureType{models.FeaturePID, models.FeatureIP, models.FeatureUID, models.FeatureBrowser} {
		if got := p.Values(ft); len(got) != 1 {
			t.Errorf("expected singleton %s, got %v", ft, got)
		}
	}
	if got := p.Values(models.FeatureTime); len(got) != 3 {
		t.Errorf("expected three time values, got %v", got)
	}
	for _, v := range p.Features[models.FeatureTime] {
		if v.Raw != "" {
			t.Errorf("request features must carry placeholder info, got %+v", v)
		}
	}
	if p.UID != "u1" || p.Nation != "us" || p.ReqID != "r1" {
		t.Errorf("unexpected identity %+v", p)
	}
}

func TestProfileBuilder_OnlyReadsAllowlist(t *testing.T) {
	store := newMemStore()
	store.setHistory("u1", "us", models.FeatureQuery, "shoes")
	store.setHistory("u1", "us", models.FeatureKeyword, "leather")

	b := NewProfileBuilder(store, []models.FeatureType{models.FeatureKeyword})
	p, err := b.Build(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := p.Features[models.FeatureQuery]; ok {
		t.Error("query is not in the allowlist")
	}
	if _, ok := p.Features[models.FeatureKeyword]; !ok {
		t.Error("keyword history missing")
	}
}

func TestProfileBuilder_StoreFailureAborts(t *testing.T) {
	store := newMemStore()
	store.failHistory = true

	p, err := NewProfileBuilder(store, models.HistoryFeatureTypes).Build(context.Background(), testRequest())
	if p != nil {
		t.Error("no partial profile may be returned")
	}
	if !errors.Is(err, ErrStoreAccess) {
		t.Fatalf("expected store access error, got %v", err)
	}
	var sae *StoreAccessError
	if !errors.As(err, &sae) || !errors.Is(sae.Err, errBackend) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
}

func TestProfileBuilder_NilStore(t *testing.T) {
	_, err := (&ProfileBuilder{}).Build(context.Background(), testRequest())
	if !errors.Is(err, ErrNilFeatureStore) {
		t.Fatalf("expected ErrNilFeatureStore, got %v", err)
	}
}
