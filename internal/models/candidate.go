package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MatchedFeatures records, per feature type, the profile values that matched
// a candidate in the inverted index.
type MatchedFeatures map[FeatureType]map[string]struct{}

// Add records that value of type ft matched.
func (m MatchedFeatures) Add(ft FeatureType, value string) {
	vals, ok := m[ft]
	if !ok {
		vals = make(map[string]struct{})
		m[ft] = vals
	}
	vals[value] = struct{}{}
}

// Values returns the matched values of ft sorted lexically.
func (m MatchedFeatures) Values(ft FeatureType) []string {
	vals := make([]string, 0, len(m[ft]))
	for v := range m[ft] {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	return vals
}

// CandidateSet maps an ad id to the features it matched for one request.
type CandidateSet map[string]MatchedFeatures

// IDs returns the candidate ad ids sorted lexically.
func (c CandidateSet) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ScoredCandidate pairs an ad id with its score for the current request.
type ScoredCandidate struct {
	AdID  string          `json:"adid"`
	Score decimal.Decimal `json:"score"`
}

// Less orders by score descending and breaks exact ties by ad id ascending,
// giving a total order that does not depend on input order.
func (s ScoredCandidate) Less(o ScoredCandidate) bool {
	if c := s.Score.Cmp(o.Score); c != 0 {
		return c > 0
	}
	return s.AdID < o.AdID
}

// SortScored sorts candidates in ranking order.
func SortScored(cs []ScoredCandidate) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Less(cs[j]) })
}
