package purge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

const gib = int64(1) << 30

var errAuthorityDown = errors.New("authority unreachable")

// fakeAuthority is an in-test lot authority with scripted answers.
type fakeAuthority struct {
	mu sync.Mutex

	lots    []string
	nonRoot map[string]bool
	past    map[lotman.Past][]string
	usage   map[string]lotman.Usage
	dirs    map[string][]string
	values  map[string]string

	listErr   error
	rootErr   map[string]error
	pastErr   map[lotman.Past]error
	usageErr  map[string]error
	updateErr error

	reports     [][]lotman.DirReport
	pastQueries []lotman.Past
}

func newFakeAuthority() *fakeAuthority {
	return &fakeAuthority{
		nonRoot:  make(map[string]bool),
		past:     make(map[lotman.Past][]string),
		usage:    make(map[string]lotman.Usage),
		dirs:     make(map[string][]string),
		values:   map[string]string{lotman.ContextLotHome: "/lots"},
		rootErr:  make(map[string]error),
		pastErr:  make(map[lotman.Past]error),
		usageErr: make(map[string]error),
	}
}

// addLot registers a root lot with its usage (GB) and directories.
func (f *fakeAuthority) addLot(name string, u lotman.Usage, dirs ...string) {
	f.lots = append(f.lots, name)
	f.usage[name] = u
	f.dirs[name] = dirs
}

func (f *fakeAuthority) ListAllLots(_ context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.lots...), nil
}

func (f *fakeAuthority) IsRoot(_ context.Context, lot string) (bool, error) {
	if err := f.rootErr[lot]; err != nil {
		return false, err
	}
	return !f.nonRoot[lot], nil
}

func (f *fakeAuthority) ListLotsPast(_ context.Context, past lotman.Past, _ bool) ([]string, error) {
	f.mu.Lock()
	f.pastQueries = append(f.pastQueries, past)
	f.mu.Unlock()
	if err := f.pastErr[past]; err != nil {
		return nil, err
	}
	return append([]string(nil), f.past[past]...), nil
}

func (f *fakeAuthority) GetUsage(_ context.Context, q lotman.UsageQuery) (lotman.Usage, error) {
	if err := f.usageErr[q.Lot]; err != nil {
		return lotman.Usage{}, err
	}
	full, ok := f.usage[q.Lot]
	if !ok {
		return lotman.Usage{}, lotman.ErrLotNotFound
	}
	var u lotman.Usage
	if q.Total {
		u.TotalGB = full.TotalGB
	}
	if q.Dedicated {
		u.DedicatedGB = full.DedicatedGB
	}
	if q.Opportunistic {
		u.OpportunisticGB = full.OpportunisticGB
	}
	return u, nil
}

func (f *fakeAuthority) GetLotDirs(_ context.Context, lot string, recursive bool) ([]lotman.LotDir, error) {
	paths, ok := f.dirs[lot]
	if !ok {
		return nil, lotman.ErrLotNotFound
	}
	out := make([]lotman.LotDir, 0, len(paths))
	for _, p := range paths {
		out = append(out, lotman.LotDir{Lot: lot, Path: p, Recursive: recursive})
	}
	return out, nil
}

func (f *fakeAuthority) UpdateUsageByDir(_ context.Context, reports []lotman.DirReport, _ bool) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	f.reports = append(f.reports, reports)
	f.mu.Unlock()
	return nil
}

func (f *fakeAuthority) GetContextValue(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", lotman.ErrContextKeyNotFound
	}
	return v, nil
}

func (f *fakeAuthority) SetContextValue(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

// fakeMetrics records what the planner reports.
type fakeMetrics struct {
	cycles      []Status
	allocations map[Policy]int64
	total       int64
	recover     int64
	unallocated int64
	dirs        int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{allocations: make(map[Policy]int64)}
}

func (m *fakeMetrics) ObserveCycle(status Status, _ time.Duration) {
	m.cycles = append(m.cycles, status)
}

func (m *fakeMetrics) RecordUsage(total, bytesToRecover, unallocated int64) {
	m.total, m.recover, m.unallocated = total, bytesToRecover, unallocated
}

func (m *fakeMetrics) ObserveAllocation(p Policy, bytes int64) {
	m.allocations[p] += bytes
}

func (m *fakeMetrics) RecordPlannedDirs(n int) {
	m.dirs = n
}
