package purge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/lotpurge/pkg/lotman"
	"github.com/marmos91/lotpurge/pkg/snapshot"
)

// newTestPlanner configures a planner on auth with the given policy tokens.
func newTestPlanner(t *testing.T, auth Authority, w Watermarks, policies string) *Planner {
	t.Helper()
	p, err := NewPlanner(auth, Options{Watermarks: w})
	require.NoError(t, err)
	require.NoError(t, p.Configure(t.Context(), t.TempDir()+" "+policies))
	return p
}

// snapOf builds a flat snapshot of top-level directories sized in bytes.
func snapOf(dirs map[string]int64) *snapshot.Snapshot {
	snap := snapshot.New()
	for name, bytes := range dirs {
		snap.AddDir(0, name, blocksOf(bytes))
	}
	return snap
}

func assertConserved(t *testing.T, res *Result) {
	t.Helper()
	var committed int64
	for dir, c := range res.ledger {
		assert.Equal(t, c.Usage, c.ToPurge+c.Remaining, "candidate %s", dir)
		assert.GreaterOrEqual(t, c.Remaining, int64(0), "candidate %s", dir)
		committed += c.ToPurge
	}
	assert.Equal(t, res.BytesToRecover, committed+res.Unallocated)
	assert.Equal(t, committed, res.Planned())
}

func TestNewPlanner(t *testing.T) {
	_, err := NewPlanner(nil, Options{})
	assert.Error(t, err)

	_, err = NewPlanner(newFakeAuthority(), Options{Watermarks: Watermarks{High: 10, Low: 20}})
	assert.ErrorIs(t, err, ErrInvalidWatermarks)

	_, err = NewPlanner(newFakeAuthority(), Options{Watermarks: Watermarks{High: -1}})
	assert.ErrorIs(t, err, ErrInvalidWatermarks)

	p, err := NewPlanner(newFakeAuthority(), Options{Watermarks: Watermarks{High: 10, Low: 5}})
	require.NoError(t, err)
	assert.Nil(t, p.PinConfig())
	assert.Equal(t, DefaultPolicies(), p.Policies())
	assert.Equal(t, Watermarks{High: 10, Low: 5}, p.Watermarks())
	assert.Nil(t, p.LastResult())
}

func TestConfigure(t *testing.T) {
	auth := newFakeAuthority()
	p, err := NewPlanner(auth, Options{Watermarks: Watermarks{High: 10, Low: 5}})
	require.NoError(t, err)

	home := t.TempDir()
	require.NoError(t, p.Configure(t.Context(), home+" del"))
	assert.Equal(t, []Policy{PolicyPastDel}, p.Policies())
	assert.Equal(t, home, auth.values[lotman.ContextLotHome])

	t.Run("DuplicateTokenKeepsPriorConfig", func(t *testing.T) {
		other := t.TempDir()
		err := p.Configure(t.Context(), other+" ded ded")
		assert.ErrorIs(t, err, ErrDuplicatePolicy)

		cfg := p.PinConfig()
		require.NotNil(t, cfg)
		assert.Equal(t, home, cfg.LotHome)
		assert.Equal(t, []Policy{PolicyPastDel}, cfg.Policies)
		assert.Equal(t, home, auth.values[lotman.ContextLotHome])
	})

	t.Run("MissingHomeKeepsPriorConfig", func(t *testing.T) {
		err := p.Configure(t.Context(), "/definitely/not/here exp")
		assert.ErrorIs(t, err, ErrInvalidLotHome)
		assert.Equal(t, []Policy{PolicyPastDel}, p.Policies())
	})
}

func TestPlanSingleDeletableLot(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("A", lotman.Usage{TotalGB: 150}, "/a")
	auth.past[lotman.PastDeletion] = []string{"A"}

	m := newFakeMetrics()
	p, err := NewPlanner(auth, Options{Watermarks: Watermarks{High: 100 * gib, Low: 60 * gib}, Metrics: m})
	require.NoError(t, err)
	require.NoError(t, p.Configure(t.Context(), t.TempDir()+" del"))

	res, err := p.Plan(t.Context(), snapOf(map[string]int64{"a": 150 * gib}))
	require.NoError(t, err)

	assert.Equal(t, StatusPlanned, res.Status)
	assert.Equal(t, 150*gib, res.TotalUsage)
	assert.Equal(t, 90*gib, res.BytesToRecover)
	assert.Equal(t, []DirPurge{{Path: "/a", BytesToPurge: 90 * gib}}, res.Dirs)
	assert.Zero(t, res.Unallocated)

	c, ok := res.Candidate("/a")
	require.True(t, ok)
	assert.Equal(t, 60*gib, c.Remaining)
	assertConserved(t, res)

	require.Len(t, res.Passes, 1)
	assert.Equal(t, PassResult{Policy: PolicyPastDel, Lots: 1, Bytes: 90 * gib}, res.Passes[0])

	assert.Equal(t, []Status{StatusPlanned}, m.cycles)
	assert.Equal(t, 90*gib, m.allocations[PolicyPastDel])
	assert.Equal(t, 150*gib, m.total)
	assert.Equal(t, 90*gib, m.recover)
	assert.Equal(t, 1, m.dirs)

	assert.Same(t, res, p.LastResult())
	assert.Equal(t, 90*gib, p.GetBytesToRecover(t.Context(), snapOf(map[string]int64{"a": 150 * gib})))
}

func TestPlanSharedDirectoryNotReallocated(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("B", lotman.Usage{TotalGB: 40}, "/x")
	auth.addLot("C", lotman.Usage{TotalGB: 30, DedicatedGB: 5, OpportunisticGB: 5}, "/x")
	auth.past[lotman.PastDeletion] = []string{"B"}
	auth.past[lotman.PastOpportunistic] = []string{"C"}

	p := newTestPlanner(t, auth, Watermarks{High: 60 * gib, Low: 20 * gib}, "del opp")

	res, err := p.Plan(t.Context(), snapOf(map[string]int64{"x": 40 * gib}))
	require.NoError(t, err)

	assert.Equal(t, 50*gib, res.BytesToRecover)
	require.Len(t, res.Passes, 2)
	assert.Equal(t, 40*gib, res.Passes[0].Bytes)
	assert.Zero(t, res.Passes[1].Bytes)
	assert.Equal(t, 1, res.Passes[1].Lots)
	assert.Equal(t, 10*gib, res.Unallocated)

	c, ok := res.Candidate("/x")
	require.True(t, ok)
	assert.Zero(t, c.Remaining)
	assert.Equal(t, []DirPurge{{Path: "/x", BytesToPurge: 40 * gib}}, res.Dirs)
	assertConserved(t, res)
}

func TestPlanBelowHighWatermark(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("A", lotman.Usage{TotalGB: 99}, "/a")
	auth.past[lotman.PastDeletion] = []string{"A"}

	m := newFakeMetrics()
	p, err := NewPlanner(auth, Options{Watermarks: Watermarks{High: 100 * gib, Low: 60 * gib}, Metrics: m})
	require.NoError(t, err)

	res, err := p.Plan(t.Context(), snapOf(map[string]int64{"a": 99 * gib}))
	require.NoError(t, err)

	assert.Equal(t, StatusBelowWatermark, res.Status)
	assert.Zero(t, res.BytesToRecover)
	assert.Empty(t, res.Dirs)
	assert.Empty(t, res.Passes)
	assert.Empty(t, auth.pastQueries)
	assert.Equal(t, []Status{StatusBelowWatermark}, m.cycles)
	assert.Zero(t, p.GetBytesToRecover(t.Context(), snapOf(map[string]int64{"a": 99 * gib})))
}

func TestPlanAtHighWatermarkPlans(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("A", lotman.Usage{TotalGB: 100}, "/a")
	auth.past[lotman.PastDeletion] = []string{"A"}

	p := newTestPlanner(t, auth, Watermarks{High: 100 * gib, Low: 60 * gib}, "del")
	res, err := p.Plan(t.Context(), snapOf(map[string]int64{"a": 100 * gib}))
	require.NoError(t, err)
	assert.Equal(t, StatusPlanned, res.Status)
	assert.Equal(t, 40*gib, res.BytesToRecover)
}

func TestPlanUndetermined(t *testing.T) {
	w := Watermarks{High: 10 * gib, Low: 5 * gib}

	tests := []struct {
		name  string
		setup func(f *fakeAuthority)
	}{
		{"LotHomeMissing", func(f *fakeAuthority) { delete(f.values, lotman.ContextLotHome) }},
		{"UsageUpdateFails", func(f *fakeAuthority) { f.updateErr = errAuthorityDown }},
		{"LotListingFails", func(f *fakeAuthority) { f.listErr = errAuthorityDown }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := newFakeAuthority()
			auth.addLot("A", lotman.Usage{TotalGB: 20}, "/a")
			tt.setup(auth)

			m := newFakeMetrics()
			p, err := NewPlanner(auth, Options{Watermarks: w, Metrics: m})
			require.NoError(t, err)

			res, err := p.Plan(t.Context(), snapOf(map[string]int64{"a": 20 * gib}))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUndetermined)
			require.NotNil(t, res)
			assert.Equal(t, StatusUndetermined, res.Status)
			assert.NotEmpty(t, res.Error)
			assert.Zero(t, res.BytesToRecover)
			assert.Empty(t, res.Dirs)
			assert.Equal(t, []Status{StatusUndetermined}, m.cycles)
			assert.Zero(t, m.total)

			assert.Zero(t, p.GetBytesToRecover(t.Context(), snapOf(map[string]int64{"a": 20 * gib})))
		})
	}
}

func TestPlanCancelledContext(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("A", lotman.Usage{TotalGB: 20}, "/a")
	auth.past[lotman.PastDeletion] = []string{"A"}
	p := newTestPlanner(t, auth, Watermarks{High: 10 * gib, Low: 5 * gib}, "del")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	res, err := p.Plan(ctx, snapOf(map[string]int64{"a": 20 * gib}))
	assert.ErrorIs(t, err, ErrUndetermined)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusUndetermined, res.Status)
}

func TestPlanNilSnapshot(t *testing.T) {
	p := newTestPlanner(t, newFakeAuthority(), Watermarks{}, "")
	_, err := p.Plan(t.Context(), nil)
	assert.ErrorIs(t, err, ErrNilSnapshot)
}

func TestPlanPushesUsageReport(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("A", lotman.Usage{TotalGB: 1}, "/a")
	p := newTestPlanner(t, auth, Watermarks{High: 10 * gib, Low: 5 * gib}, "")

	snap := snapshot.New()
	a := snap.AddDir(0, "a", blocksOf(gib))
	snap.AddDir(a, "b", blocksOf(gib/2))

	_, err := p.Plan(t.Context(), snap)
	require.NoError(t, err)

	require.Len(t, auth.reports, 1)
	assert.Equal(t, BuildUsageReport(snap), auth.reports[0])
}

func TestTotalUsage(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("root1", lotman.Usage{TotalGB: 1.5}, "/r1")
	auth.addLot("root2", lotman.Usage{TotalGB: 2}, "/r2")
	auth.addLot("child", lotman.Usage{TotalGB: 100}, "/r1/c")
	auth.addLot("flaky-root", lotman.Usage{TotalGB: 100}, "/f")
	auth.addLot("no-usage", lotman.Usage{TotalGB: 100}, "/n")
	auth.nonRoot["child"] = true
	auth.rootErr["flaky-root"] = errAuthorityDown
	auth.usageErr["no-usage"] = errAuthorityDown

	p := newTestPlanner(t, auth, Watermarks{}, "")
	total, err := p.totalUsage(t.Context())
	require.NoError(t, err)
	assert.Equal(t, gib+gib/2+2*gib, total)

	auth.listErr = errAuthorityDown
	total, err = p.totalUsage(t.Context())
	assert.Error(t, err)
	assert.Zero(t, total)
}

func TestLotDirUsage(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("A", lotman.Usage{}, "/b", "/a/", "/missing", "/b//", "/a")
	p := newTestPlanner(t, auth, Watermarks{}, "")

	snap := snapOf(map[string]int64{"a": 2 * gib, "b": gib})
	got := p.lotDirUsage(t.Context(), snap, "A")
	assert.Equal(t, []dirUsage{{path: "/a", bytes: 2 * gib}, {path: "/b", bytes: gib}}, got)

	assert.Nil(t, p.lotDirUsage(t.Context(), snap, "unknown"))
}

func TestDirectorySpelledTwoWaysPlannedOnce(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("B", lotman.Usage{TotalGB: 40}, "/x")
	auth.addLot("C", lotman.Usage{TotalGB: 40}, "/x/")
	auth.past[lotman.PastDeletion] = []string{"B", "C"}

	p := newTestPlanner(t, auth, Watermarks{High: 10 * gib, Low: 0}, "del")
	res, err := p.Plan(t.Context(), snapOf(map[string]int64{"x": 40 * gib}))
	require.NoError(t, err)

	assert.Equal(t, 80*gib, res.BytesToRecover)
	assert.Equal(t, []DirPurge{{Path: "/x", BytesToPurge: 40 * gib}}, res.Dirs)
	assert.Equal(t, 40*gib, res.Planned())
	assert.Equal(t, 40*gib, res.Unallocated)

	c, ok := res.Candidate("/x/")
	require.True(t, ok)
	assert.Zero(t, c.Remaining)
	assertConserved(t, res)
}

func TestCompletePassStopsWhenBudgetExhausted(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("E", lotman.Usage{TotalGB: 10}, "/e1", "/e2")
	auth.addLot("F", lotman.Usage{TotalGB: 2}, "/f")
	auth.past[lotman.PastExpiration] = []string{"E", "F"}

	p := newTestPlanner(t, auth, Watermarks{High: 10 * gib, Low: 5 * gib}, "exp")
	res, err := p.Plan(t.Context(), snapOf(map[string]int64{"e1": 5 * gib, "e2": 5 * gib, "f": 2 * gib}))
	require.NoError(t, err)

	assert.Equal(t, 7*gib, res.BytesToRecover)
	assert.Equal(t, []DirPurge{
		{Path: "/e1", BytesToPurge: 5 * gib},
		{Path: "/e2", BytesToPurge: 2 * gib},
	}, res.Dirs)
	assert.Equal(t, 1, res.Passes[0].Lots)
	_, touched := res.Candidate("/f")
	assert.False(t, touched)
	assertConserved(t, res)
}

func TestPartialPassLimitedByExcess(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("D", lotman.Usage{TotalGB: 10, DedicatedGB: 4, OpportunisticGB: 6}, "/d1", "/d2")
	auth.addLot("U", lotman.Usage{TotalGB: 3, DedicatedGB: 3}, "/u")
	auth.past[lotman.PastDedicated] = []string{"D", "U"}

	p := newTestPlanner(t, auth, Watermarks{High: 10 * gib, Low: 0}, "ded")
	res, err := p.Plan(t.Context(), snapOf(map[string]int64{"d1": 5 * gib, "d2": 5 * gib, "u": 3 * gib}))
	require.NoError(t, err)

	// Dedicated overage ignores the opportunistic component: 10 - 4.
	assert.Equal(t, []DirPurge{
		{Path: "/d1", BytesToPurge: 5 * gib},
		{Path: "/d2", BytesToPurge: gib},
	}, res.Dirs)
	assert.Equal(t, 13*gib-6*gib, res.Unallocated)
	assertConserved(t, res)
}

func TestOpportunisticExcess(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("O", lotman.Usage{TotalGB: 10, DedicatedGB: 4, OpportunisticGB: 3}, "/o")
	auth.past[lotman.PastOpportunistic] = []string{"O"}

	p := newTestPlanner(t, auth, Watermarks{High: gib, Low: 0}, "opp")
	res, err := p.Plan(t.Context(), snapOf(map[string]int64{"o": 10 * gib}))
	require.NoError(t, err)
	assert.Equal(t, []DirPurge{{Path: "/o", BytesToPurge: 3 * gib}}, res.Dirs)
}

func TestPartialPassSkipsLotsWithoutUsage(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("bad", lotman.Usage{TotalGB: 10}, "/bad")
	auth.addLot("good", lotman.Usage{TotalGB: 4, DedicatedGB: 1}, "/good")
	auth.usageErr["bad"] = errAuthorityDown
	auth.past[lotman.PastDedicated] = []string{"bad", "good"}

	p := newTestPlanner(t, auth, Watermarks{}, "ded")
	res, err := p.Plan(t.Context(), snapOf(map[string]int64{"bad": 10 * gib, "good": 4 * gib}))
	require.NoError(t, err)
	assert.Equal(t, []DirPurge{{Path: "/good", BytesToPurge: 3 * gib}}, res.Dirs)
}

func TestSecondPassDoesNotReallocate(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("A", lotman.Usage{TotalGB: 8}, "/a")
	auth.past[lotman.PastDeletion] = []string{"A"}
	auth.past[lotman.PastExpiration] = []string{"A"}
	auth.past[lotman.PastDedicated] = []string{"A"}

	p := newTestPlanner(t, auth, Watermarks{High: 4 * gib, Low: 0}, "del exp ded")
	res, err := p.Plan(t.Context(), snapOf(map[string]int64{"a": 8 * gib}))
	require.NoError(t, err)

	require.Len(t, res.Passes, 3)
	assert.Equal(t, 8*gib, res.Passes[0].Bytes)
	assert.Zero(t, res.Passes[1].Bytes)
	assert.Zero(t, res.Passes[2].Bytes)
	assert.Equal(t, []DirPurge{{Path: "/a", BytesToPurge: 8 * gib}}, res.Dirs)
	assertConserved(t, res)
}

func TestFailedListingAbortsOnlyThatPass(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("A", lotman.Usage{TotalGB: 8}, "/a")
	auth.past[lotman.PastExpiration] = []string{"A"}
	auth.pastErr[lotman.PastDeletion] = errAuthorityDown

	p := newTestPlanner(t, auth, Watermarks{High: 4 * gib, Low: 2 * gib}, "del exp")
	res, err := p.Plan(t.Context(), snapOf(map[string]int64{"a": 8 * gib}))
	require.NoError(t, err)

	assert.Equal(t, StatusPlanned, res.Status)
	require.Len(t, res.Passes, 2)
	assert.True(t, res.Passes[0].Failed)
	assert.False(t, res.Passes[1].Failed)
	assert.Equal(t, []DirPurge{{Path: "/a", BytesToPurge: 6 * gib}}, res.Dirs)
}

func TestPlanDirSuffix(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("A", lotman.Usage{TotalGB: 2}, "/a")
	auth.past[lotman.PastDeletion] = []string{"A"}

	p, err := NewPlanner(auth, Options{Watermarks: Watermarks{High: gib, Low: gib}, DirSuffix: "/"})
	require.NoError(t, err)

	res, err := p.Plan(t.Context(), snapOf(map[string]int64{"a": 2 * gib}))
	require.NoError(t, err)
	assert.Equal(t, []DirPurge{{Path: "/a/", BytesToPurge: gib}}, res.Dirs)
}

func TestPlansAreIndependent(t *testing.T) {
	auth := newFakeAuthority()
	auth.addLot("A", lotman.Usage{TotalGB: 10}, "/a")
	auth.past[lotman.PastDeletion] = []string{"A"}
	p := newTestPlanner(t, auth, Watermarks{High: 5 * gib, Low: 4 * gib}, "del")

	snap := snapOf(map[string]int64{"a": 10 * gib})
	first, err := p.Plan(t.Context(), snap)
	require.NoError(t, err)
	second, err := p.Plan(t.Context(), snap)
	require.NoError(t, err)

	assert.NotEqual(t, first.CycleID, second.CycleID)
	assert.Equal(t, first.Dirs, second.Dirs)
	assert.Equal(t, 6*gib, second.Dirs[0].BytesToPurge)
}
