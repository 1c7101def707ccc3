package storetest

import (
	"errors"
	"testing"
	"time"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

func runManagerTests(t *testing.T, factory StoreFactory) {
	t.Run("HierarchyAndUsage", func(t *testing.T) { testHierarchyAndUsage(t, factory) })
	t.Run("RemoveParentRejected", func(t *testing.T) { testRemoveParentRejected(t, factory) })
}

func testHierarchyAndUsage(t *testing.T, factory StoreFactory) {
	ctx := t.Context()
	m := lotman.NewManager(factory(t), lotman.WithClock(func() time.Time { return time.UnixMilli(1_700_000_100_000) }))

	parent := newLot("parent", "/p", true)
	child := newLot("child", "/p/c", true)
	child.Parents = []string{"parent"}

	if err := m.AddLot(ctx, parent); err != nil {
		t.Fatalf("AddLot(parent) failed: %v", err)
	}
	if err := m.AddLot(ctx, child); err != nil {
		t.Fatalf("AddLot(child) failed: %v", err)
	}

	err := m.UpdateUsageByDir(ctx, []lotman.DirReport{{
		Path: "p", SizeGB: 3, IncludesSubdirs: true,
		Subdirs: []lotman.DirReport{{Path: "c", SizeGB: 2}},
	}}, false)
	if err != nil {
		t.Fatalf("UpdateUsageByDir() failed: %v", err)
	}

	u, err := m.GetUsage(ctx, lotman.UsageQuery{Lot: "parent", Total: true})
	if err != nil {
		t.Fatalf("GetUsage() failed: %v", err)
	}
	if u.TotalGB != 3 {
		t.Errorf("parent total = %v, want 3", u.TotalGB)
	}

	root, err := m.IsRoot(ctx, "child")
	if err != nil {
		t.Fatalf("IsRoot() failed: %v", err)
	}
	if root {
		t.Error("child must not be a root lot")
	}

	past, err := m.ListLotsPast(ctx, lotman.PastDedicated, false)
	if err != nil {
		t.Fatalf("ListLotsPast() failed: %v", err)
	}
	if len(past) != 2 {
		t.Errorf("ListLotsPast(dedicated) = %v, want [child parent]", past)
	}
}

func testRemoveParentRejected(t *testing.T, factory StoreFactory) {
	ctx := t.Context()
	m := lotman.NewManager(factory(t))

	if err := m.AddLot(ctx, newLot("parent", "/p", true)); err != nil {
		t.Fatalf("AddLot(parent) failed: %v", err)
	}
	child := newLot("child", "/p/c", true)
	child.Parents = []string{"parent"}
	if err := m.AddLot(ctx, child); err != nil {
		t.Fatalf("AddLot(child) failed: %v", err)
	}

	if err := m.RemoveLot(ctx, "parent"); !errors.Is(err, lotman.ErrLotInUse) {
		t.Errorf("RemoveLot(parent) error = %v, want ErrLotInUse", err)
	}
	if err := m.RemoveLot(ctx, "child"); err != nil {
		t.Fatalf("RemoveLot(child) failed: %v", err)
	}
	if err := m.RemoveLot(ctx, "parent"); err != nil {
		t.Fatalf("RemoveLot(parent) failed: %v", err)
	}
}
