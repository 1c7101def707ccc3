package storetest

import (
	"errors"
	"testing"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

func runLotOpsTests(t *testing.T, factory StoreFactory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, factory) })
	t.Run("DuplicateLot", func(t *testing.T) { testDuplicateLot(t, factory) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, factory) })
	t.Run("DeleteLot", func(t *testing.T) { testDeleteLot(t, factory) })
	t.Run("ListSorted", func(t *testing.T) { testListSorted(t, factory) })
	t.Run("ReturnedLotsAreCopies", func(t *testing.T) { testReturnedLotsAreCopies(t, factory) })
}

func testCreateAndGet(t *testing.T, factory StoreFactory) {
	store := factory(t)
	ctx := t.Context()

	lot := newLot("lot1", "/lot1", true)
	lot.MPA.ExpirationTime = 1_700_000_030_000
	lot.MPA.DeletionTime = 1_700_000_060_000
	if err := store.CreateLot(ctx, lot); err != nil {
		t.Fatalf("CreateLot() failed: %v", err)
	}

	got, err := store.GetLot(ctx, "lot1")
	if err != nil {
		t.Fatalf("GetLot() failed: %v", err)
	}
	if got.Owner != "owner1" {
		t.Errorf("Owner = %q, want owner1", got.Owner)
	}
	if len(got.Parents) != 1 || got.Parents[0] != "lot1" {
		t.Errorf("Parents = %v, want [lot1]", got.Parents)
	}
	if len(got.Paths) != 1 || got.Paths[0].Path != "/lot1" || !got.Paths[0].Recursive {
		t.Errorf("Paths = %+v, want [{/lot1 true}]", got.Paths)
	}
	if got.MPA != lot.MPA {
		t.Errorf("MPA = %+v, want %+v", got.MPA, lot.MPA)
	}
}

func testDuplicateLot(t *testing.T, factory StoreFactory) {
	store := factory(t)
	ctx := t.Context()

	if err := store.CreateLot(ctx, newLot("lot1", "/lot1", false)); err != nil {
		t.Fatalf("CreateLot() failed: %v", err)
	}
	err := store.CreateLot(ctx, newLot("lot1", "/other", false))
	if !errors.Is(err, lotman.ErrDuplicateLot) {
		t.Errorf("CreateLot(duplicate) error = %v, want ErrDuplicateLot", err)
	}
}

func testGetMissing(t *testing.T, factory StoreFactory) {
	store := factory(t)

	_, err := store.GetLot(t.Context(), "nope")
	if !errors.Is(err, lotman.ErrLotNotFound) {
		t.Errorf("GetLot(missing) error = %v, want ErrLotNotFound", err)
	}
}

func testDeleteLot(t *testing.T, factory StoreFactory) {
	store := factory(t)
	ctx := t.Context()

	if err := store.CreateLot(ctx, newLot("lot1", "/lot1", false)); err != nil {
		t.Fatalf("CreateLot() failed: %v", err)
	}
	if err := store.DeleteLot(ctx, "lot1"); err != nil {
		t.Fatalf("DeleteLot() failed: %v", err)
	}
	if _, err := store.GetLot(ctx, "lot1"); !errors.Is(err, lotman.ErrLotNotFound) {
		t.Errorf("GetLot(after delete) error = %v, want ErrLotNotFound", err)
	}
	if err := store.DeleteLot(ctx, "lot1"); !errors.Is(err, lotman.ErrLotNotFound) {
		t.Errorf("DeleteLot(twice) error = %v, want ErrLotNotFound", err)
	}
}

func testListSorted(t *testing.T, factory StoreFactory) {
	store := factory(t)
	ctx := t.Context()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := store.CreateLot(ctx, newLot(name, "/"+name, false)); err != nil {
			t.Fatalf("CreateLot(%s) failed: %v", name, err)
		}
	}

	lots, err := store.ListLots(ctx)
	if err != nil {
		t.Fatalf("ListLots() failed: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(lots) != len(want) {
		t.Fatalf("ListLots() returned %d lots, want %d", len(lots), len(want))
	}
	for i, l := range lots {
		if l.Name != want[i] {
			t.Errorf("ListLots()[%d] = %q, want %q", i, l.Name, want[i])
		}
	}
}

func testReturnedLotsAreCopies(t *testing.T, factory StoreFactory) {
	store := factory(t)
	ctx := t.Context()

	if err := store.CreateLot(ctx, newLot("lot1", "/lot1", false)); err != nil {
		t.Fatalf("CreateLot() failed: %v", err)
	}

	got, err := store.GetLot(ctx, "lot1")
	if err != nil {
		t.Fatalf("GetLot() failed: %v", err)
	}
	got.Paths[0].Path = "/mutated"
	got.Owner = "mallory"

	again, err := store.GetLot(ctx, "lot1")
	if err != nil {
		t.Fatalf("GetLot() failed: %v", err)
	}
	if again.Paths[0].Path != "/lot1" || again.Owner != "owner1" {
		t.Errorf("store state changed through a returned lot: %+v", again)
	}
}
