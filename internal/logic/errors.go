package logic

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreAccess matches any StoreAccessError via errors.Is.
	ErrStoreAccess = errors.New("feature store access failed")
	// ErrStatisticParse matches any StatisticParseError via errors.Is.
	ErrStatisticParse = errors.New("candidate statistic invalid")
	// ErrEmptyCandidateSet is returned when no ad matched any profile feature.
	// It is an expected outcome, not a failure of the store.
	ErrEmptyCandidateSet = errors.New("no candidate matched the request profile")
	// ErrNilFeatureStore is returned when a pipeline stage has no store configured.
	ErrNilFeatureStore = errors.New("feature store is nil")
)

// StoreAccessError wraps a failed FeatureStore call.
type StoreAccessError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreAccessError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreAccessError) Unwrap() error { return e.Err }

func (e *StoreAccessError) Is(target error) bool { return target == ErrStoreAccess }

// StatisticParseError reports a missing or non-numeric candidate statistic.
type StatisticParseError struct {
	AdID         string
	FeatureType  string
	FeatureValue string
	Field        string
	Raw          string
	Err          error
}

func (e *StatisticParseError) Error() string {
	return fmt.Sprintf("statistic %s for ad %s (%s=%s) value %q: %v",
		e.Field, e.AdID, e.FeatureType, e.FeatureValue, e.Raw, e.Err)
}

func (e *StatisticParseError) Unwrap() error { return e.Err }

func (e *StatisticParseError) Is(target error) bool { return target == ErrStatisticParse }

// storeErr wraps err as a StoreAccessError unless it already is one.
func storeErr(op, key string, err error) error {
	var sae *StoreAccessError
	if errors.As(err, &sae) {
		return err
	}
	return &StoreAccessError{Op: op, Key: key, Err: err}
}
