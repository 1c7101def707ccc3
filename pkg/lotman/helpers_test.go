package lotman_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/lotpurge/pkg/lotman"
	"github.com/marmos91/lotpurge/pkg/lotman/store/memory"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) *lotman.Manager {
	t.Helper()
	return lotman.NewManager(memory.New(), lotman.WithClock(func() time.Time { return testNow }))
}

func rootLot(name, path string, recursive bool, dedGB, oppGB float64) *lotman.Lot {
	return &lotman.Lot{
		Name:    name,
		Owner:   "owner1",
		Parents: []string{name},
		Paths:   []lotman.LotPath{{Path: path, Recursive: recursive}},
		MPA: lotman.ManagementPolicyAttrs{
			DedicatedGB:     dedGB,
			OpportunisticGB: oppGB,
		},
	}
}

func childLot(name, parent, path string, recursive bool, dedGB, oppGB float64) *lotman.Lot {
	l := rootLot(name, path, recursive, dedGB, oppGB)
	l.Parents = []string{parent}
	return l
}

func mustAdd(t *testing.T, m *lotman.Manager, lots ...*lotman.Lot) {
	t.Helper()
	for _, l := range lots {
		require.NoError(t, m.AddLot(t.Context(), l), "AddLot(%s)", l.Name)
	}
}

func totalGB(t *testing.T, m *lotman.Manager, name string) float64 {
	t.Helper()
	u, err := m.GetUsage(t.Context(), lotman.UsageQuery{Lot: name, Total: true})
	require.NoError(t, err)
	return u.TotalGB
}
