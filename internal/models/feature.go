package models

import (
	"fmt"
	"strings"
)

// FeatureType names a category of signal such as a query string or the time of day.
type FeatureType string

// Known feature types. The set is closed; ParseFeatureType rejects anything else.
const (
	FeatureQuery          FeatureType = "QUERY"
	FeatureQueryLength    FeatureType = "QUERY_LENGTH"
	FeatureQueryWordCount FeatureType = "QUERY_WORD_COUNT"
	FeatureKeyword        FeatureType = "KEYWORD"
	FeaturePID            FeatureType = "PID"
	FeatureIP             FeatureType = "IP"
	FeatureUID            FeatureType = "UID"
	FeatureBrowser        FeatureType = "BROWSER"
	FeatureTime           FeatureType = "TIME"
)

// AllFeatureTypes lists every known feature type in a fixed order.
var AllFeatureTypes = []FeatureType{
	FeatureQuery,
	FeatureQueryLength,
	FeatureQueryWordCount,
	FeatureKeyword,
	FeaturePID,
	FeatureIP,
	FeatureUID,
	FeatureBrowser,
	FeatureTime,
}

// HistoryFeatureTypes is the default allowlist of types read from a user's
// stored history. All other types come from the request itself.
var HistoryFeatureTypes = []FeatureType{
	FeatureQuery,
	FeatureQueryLength,
	FeatureQueryWordCount,
	FeatureKeyword,
}

// ParseFeatureType converts a case-insensitive name into a FeatureType.
func ParseFeatureType(s string) (FeatureType, error) {
	ft := FeatureType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllFeatureTypes {
		if ft == known {
			return ft, nil
		}
	}
	return "", fmt.Errorf("unknown feature type %q", s)
}

func (f FeatureType) String() string { return string(f) }

// FeatureInfo is the per-value placeholder recorded while building a profile.
// Detailed statistics are fetched later, only for candidates that matched.
type FeatureInfo struct {
	Raw string `json:"raw,omitempty"`
}

// FeaturePair identifies one (type, value) entry of a profile.
type FeaturePair struct {
	Type  FeatureType
	Value string
}
