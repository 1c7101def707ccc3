// Package storetest provides a conformance suite for lotman.Store
// implementations.
//
// Every store package runs the suite from its own tests:
//
//	storetest.RunConformanceSuite(t, func(t *testing.T) lotman.Store {
//		return memory.New()
//	})
package storetest

import (
	"testing"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

// StoreFactory creates a fresh Store instance for each test.
// The factory receives *testing.T so it can use t.TempDir() for stores
// that need filesystem paths and t.Cleanup() for teardown.
type StoreFactory func(t *testing.T) lotman.Store

// RunConformanceSuite runs the full conformance test suite against the provided
// store factory. Each test gets a fresh store instance to ensure isolation.
//
// The suite covers:
//   - LotOps: create, get, delete, sorted listing, duplicate detection
//   - Usage: reset and partial usage application
//   - Context: context value round trips
//   - Manager: authority semantics layered on the store
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("LotOps", func(t *testing.T) {
		runLotOpsTests(t, factory)
	})

	t.Run("Usage", func(t *testing.T) {
		runUsageTests(t, factory)
	})

	t.Run("Context", func(t *testing.T) {
		runContextTests(t, factory)
	})

	t.Run("Manager", func(t *testing.T) {
		runManagerTests(t, factory)
	})
}

// newLot builds a root lot governing a single path.
func newLot(name, path string, recursive bool) *lotman.Lot {
	return &lotman.Lot{
		Name:    name,
		Owner:   "owner1",
		Parents: []string{name},
		Paths:   []lotman.LotPath{{Path: path, Recursive: recursive}},
		MPA: lotman.ManagementPolicyAttrs{
			DedicatedGB:     1,
			OpportunisticGB: 0.5,
			MaxNumObjects:   100,
			CreationTime:    1_700_000_000_000,
		},
	}
}
