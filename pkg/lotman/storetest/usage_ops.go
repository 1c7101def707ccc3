package storetest

import (
	"errors"
	"testing"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

func runUsageTests(t *testing.T, factory StoreFactory) {
	t.Run("ApplyWithReset", func(t *testing.T) { testApplyWithReset(t, factory) })
	t.Run("ApplyWithoutReset", func(t *testing.T) { testApplyWithoutReset(t, factory) })
	t.Run("ApplyIgnoresUnknownLots", func(t *testing.T) { testApplyIgnoresUnknownLots(t, factory) })
}

func seedUsage(t *testing.T, store lotman.Store) {
	t.Helper()
	ctx := t.Context()

	for _, name := range []string{"a", "b"} {
		if err := store.CreateLot(ctx, newLot(name, "/"+name, true)); err != nil {
			t.Fatalf("CreateLot(%s) failed: %v", name, err)
		}
	}
	err := store.ApplyUsage(ctx, map[string]lotman.LotUsage{
		"a": {SelfGB: 1.5, UpdatedAt: 10},
		"b": {SelfGB: 2.5, UpdatedAt: 10},
	}, true)
	if err != nil {
		t.Fatalf("ApplyUsage() failed: %v", err)
	}
}

func selfGB(t *testing.T, store lotman.Store, name string) float64 {
	t.Helper()
	l, err := store.GetLot(t.Context(), name)
	if err != nil {
		t.Fatalf("GetLot(%s) failed: %v", name, err)
	}
	return l.Usage.SelfGB
}

func testApplyWithReset(t *testing.T, factory StoreFactory) {
	store := factory(t)
	seedUsage(t, store)

	err := store.ApplyUsage(t.Context(), map[string]lotman.LotUsage{"a": {SelfGB: 4, UpdatedAt: 20}}, true)
	if err != nil {
		t.Fatalf("ApplyUsage() failed: %v", err)
	}

	if got := selfGB(t, store, "a"); got != 4 {
		t.Errorf("a.SelfGB = %v, want 4", got)
	}
	if got := selfGB(t, store, "b"); got != 0 {
		t.Errorf("b.SelfGB = %v, want 0 after reset", got)
	}
}

func testApplyWithoutReset(t *testing.T, factory StoreFactory) {
	store := factory(t)
	seedUsage(t, store)

	err := store.ApplyUsage(t.Context(), map[string]lotman.LotUsage{"a": {SelfGB: 4, UpdatedAt: 20}}, false)
	if err != nil {
		t.Fatalf("ApplyUsage() failed: %v", err)
	}

	if got := selfGB(t, store, "a"); got != 4 {
		t.Errorf("a.SelfGB = %v, want 4", got)
	}
	if got := selfGB(t, store, "b"); got != 2.5 {
		t.Errorf("b.SelfGB = %v, want 2.5 (untouched)", got)
	}

	l, err := store.GetLot(t.Context(), "a")
	if err != nil {
		t.Fatalf("GetLot() failed: %v", err)
	}
	if l.Usage.UpdatedAt != 20 {
		t.Errorf("a.UpdatedAt = %d, want 20", l.Usage.UpdatedAt)
	}
}

func testApplyIgnoresUnknownLots(t *testing.T, factory StoreFactory) {
	store := factory(t)
	seedUsage(t, store)

	err := store.ApplyUsage(t.Context(), map[string]lotman.LotUsage{"ghost": {SelfGB: 9}}, false)
	if err != nil {
		t.Fatalf("ApplyUsage(unknown) failed: %v", err)
	}
	if _, err := store.GetLot(t.Context(), "ghost"); !errors.Is(err, lotman.ErrLotNotFound) {
		t.Errorf("ApplyUsage must not create lots, GetLot(ghost) error = %v", err)
	}
}
