package models

import (
	"sync"
	"testing"
)

func TestAdUniverse_ReloadDedupes(t *testing.T) {
	u := NewAdUniverse("3", "1", "3", "", "2")
	got := u.IDs()
	want := []string{"1", "2", "3"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if u.LoadedAt().IsZero() {
		t.Error("expected load time to be set")
	}
}

func TestAdUniverse_ReloadDoesNotMutateHeldSnapshot(t *testing.T) {
	u := NewAdUniverse("a", "b")
	held := u.IDs()
	u.Reload([]string{"x"})

	if len(held) != 2 || held[0] != "a" {
		t.Fatalf("held snapshot changed: %v", held)
	}
	if u.Len() != 1 {
		t.Fatalf("expected new snapshot of 1, got %d", u.Len())
	}
}

func TestAdUniverse_ConcurrentReadReload(t *testing.T) {
	u := NewAdUniverse("a")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = u.IDs()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				u.Reload([]string{"a", "b"})
			}
		}()
	}
	wg.Wait()
	if u.Len() != 2 {
		t.Fatalf("expected 2 ids, got %d", u.Len())
	}
}
