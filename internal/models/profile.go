package models

import "sort"

// Profile is the request-scoped feature set assembled from stored history and
// request-derived signals. It is never shared between requests.
type Profile struct {
	UID      string
	Nation   string
	ReqID    string
	Features map[FeatureType]map[string]FeatureInfo
}

// NewProfile returns an empty profile for the request.
func NewProfile(uid, nation, reqID string) *Profile {
	return &Profile{
		UID:      uid,
		Nation:   nation,
		ReqID:    reqID,
		Features: make(map[FeatureType]map[string]FeatureInfo),
	}
}

// AddFeature merges values into the given feature type. Existing values are
// kept, so each value appears once per type.
func (p *Profile) AddFeature(ft FeatureType, values map[string]FeatureInfo) {
	if len(values) == 0 {
		return
	}
	existing, ok := p.Features[ft]
	if !ok {
		existing = make(map[string]FeatureInfo, len(values))
		p.Features[ft] = existing
	}
	for v, info := range values {
		if _, dup := existing[v]; !dup {
			existing[v] = info
		}
	}
}

// AddValues records request-derived values with empty info. Empty strings are skipped.
func (p *Profile) AddValues(ft FeatureType, values ...string) {
	m := make(map[string]FeatureInfo, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		m[v] = FeatureInfo{}
	}
	p.AddFeature(ft, m)
}

// Types returns the profile's feature types sorted by name.
func (p *Profile) Types() []FeatureType {
	types := make([]FeatureType, 0, len(p.Features))
	for ft := range p.Features {
		types = append(types, ft)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Values returns the values of a feature type sorted lexically.
func (p *Profile) Values(ft FeatureType) []string {
	vals := make([]string, 0, len(p.Features[ft]))
	for v := range p.Features[ft] {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	return vals
}

// PairCount is the number of distinct (type, value) pairs in the profile.
func (p *Profile) PairCount() int {
	n := 0
	for _, vals := range p.Features {
		n += len(vals)
	}
	return n
}

// Pairs returns every (type, value) pair of the profile in sorted order.
func (p *Profile) Pairs() []FeaturePair {
	pairs := make([]FeaturePair, 0, p.PairCount())
	for _, ft := range p.Types() {
		for _, v := range p.Values(ft) {
			pairs = append(pairs, FeaturePair{Type: ft, Value: v})
		}
	}
	return pairs
}
