package models

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"
)

// universeSnapshot is an immutable list of ad ids. Readers never see it change.
type universeSnapshot struct {
	ids      []string
	loadedAt time.Time
}

// AdUniverse holds the full set of servable ad ids used by exploration.
// Reload swaps in a new snapshot atomically; readers holding the old one are unaffected.
type AdUniverse struct {
	data atomic.Pointer[universeSnapshot]
}

// NewAdUniverse creates a universe populated with ids.
func NewAdUniverse(ids ...string) *AdUniverse {
	u := &AdUniverse{}
	u.Reload(ids)
	return u
}

// Reload replaces the universe with a deduplicated, sorted copy of ids.
func (u *AdUniverse) Reload(ids []string) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	u.data.Store(&universeSnapshot{ids: out, loadedAt: time.Now()})
}

// IDs returns the current snapshot. The slice must not be modified.
func (u *AdUniverse) IDs() []string {
	if s := u.data.Load(); s != nil {
		return s.ids
	}
	return nil
}

// Len returns the number of ad ids in the current snapshot.
func (u *AdUniverse) Len() int { return len(u.IDs()) }

// LoadedAt returns when the current snapshot was installed.
func (u *AdUniverse) LoadedAt() time.Time {
	if s := u.data.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}

// AdIDSource lists the ad ids that currently form the universe.
type AdIDSource interface {
	LoadAdIDs(ctx context.Context) ([]string, error)
}

// Refresh reloads the universe from src. On error the current snapshot is kept.
func (u *AdUniverse) Refresh(ctx context.Context, src AdIDSource) error {
	ids, err := src.LoadAdIDs(ctx)
	if err != nil {
		return fmt.Errorf("load ad ids: %w", err)
	}
	u.Reload(ids)
	return nil
}
