package lotman

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/marmos91/lotpurge/internal/logger"
)

// Manager implements the quota authority on top of a Store.
//
// Reads are served from a fresh view of the store on every call, so lots
// added or removed by another process sharing the store are picked up
// without coordination. Mutations issued through one Manager are serialized.
type Manager struct {
	store   Store
	now     func() time.Time
	metrics Metrics
	mu      sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the clock used for deadlines and timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager returns a Manager persisting through store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// ============================================================================
// Lot lifecycle
// ============================================================================

// AddLot validates and stores a new lot. Every parent other than the lot
// itself must already exist. Usage is always reset on creation.
func (m *Manager) AddLot(ctx context.Context, lot *Lot) error {
	l := lot.Clone()
	l.normalize()
	if err := l.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, parent := range l.Parents {
		if parent == l.Name {
			continue
		}
		if _, err := m.store.GetLot(ctx, parent); err != nil {
			if errors.Is(err, ErrLotNotFound) {
				return fmt.Errorf("%w: %q (required by %q)", ErrParentMissing, parent, l.Name)
			}
			return err
		}
	}

	if l.MPA.CreationTime == 0 {
		l.MPA.CreationTime = m.now().UnixMilli()
	}
	l.Usage = LotUsage{}

	if err := m.store.CreateLot(ctx, l); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "Lot added", logger.KeyLot, l.Name, "owner", l.Owner, "parents", strings.Join(l.Parents, ", "))
	return nil
}

// RemoveLot deletes a lot that no other lot names as a parent.
func (m *Manager) RemoveLot(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ix, err := m.index(ctx)
	if err != nil {
		return err
	}
	if _, ok := ix.lots[name]; !ok {
		return ErrLotNotFound
	}
	if kids := ix.children[name]; len(kids) > 0 {
		return fmt.Errorf("%w: %q is a parent of %s", ErrLotInUse, name, strings.Join(kids, ", "))
	}

	if err := m.store.DeleteLot(ctx, name); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "Lot removed", logger.KeyLot, name)
	return nil
}

// GetLot returns a single lot.
func (m *Manager) GetLot(ctx context.Context, name string) (*Lot, error) {
	return m.store.GetLot(ctx, name)
}

// ListLots returns every lot sorted by name.
func (m *Manager) ListLots(ctx context.Context) ([]*Lot, error) {
	return m.store.ListLots(ctx)
}

// ListAllLots returns the names of every lot, sorted.
func (m *Manager) ListAllLots(ctx context.Context) ([]string, error) {
	lots, err := m.store.ListLots(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(lots, func(l *Lot, _ int) string { return l.Name }), nil
}

// IsRoot reports whether the lot is a root lot.
func (m *Manager) IsRoot(ctx context.Context, name string) (bool, error) {
	l, err := m.store.GetLot(ctx, name)
	if err != nil {
		return false, err
	}
	return l.IsRoot(), nil
}

// Children returns the lots naming name as a parent. With recursive set,
// grandchildren and further descendants are included breadth-first.
func (m *Manager) Children(ctx context.Context, name string, recursive bool) ([]string, error) {
	ix, err := m.index(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := ix.lots[name]; !ok {
		return nil, ErrLotNotFound
	}
	if !recursive {
		return append([]string(nil), ix.children[name]...), nil
	}
	return ix.descendants(name), nil
}

// LotDir is a directory governed by a lot, as returned by GetLotDirs.
type LotDir struct {
	Lot       string `json:"lot_name" yaml:"lot_name"`
	Path      string `json:"path" yaml:"path"`
	Recursive bool   `json:"recursive" yaml:"recursive"`
}

// GetLotDirs returns the directories governed by a lot. With recursive set,
// the directories of every descendant lot are included. A path governed by
// several lots is reported once, for the first lot that claims it.
func (m *Manager) GetLotDirs(ctx context.Context, name string, recursive bool) ([]LotDir, error) {
	ix, err := m.index(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := ix.lots[name]; !ok {
		return nil, ErrLotNotFound
	}

	lots := []string{name}
	if recursive {
		lots = append(lots, ix.descendants(name)...)
	}

	var dirs []LotDir
	seen := make(map[string]struct{})
	for _, lotName := range lots {
		for _, p := range ix.lots[lotName].Paths {
			if _, dup := seen[p.Path]; dup {
				continue
			}
			seen[p.Path] = struct{}{}
			dirs = append(dirs, LotDir{Lot: lotName, Path: p.Path, Recursive: p.Recursive})
		}
	}
	return dirs, nil
}

// ============================================================================
// Context values
// ============================================================================

// GetContextValue returns a session-scoped authority setting.
func (m *Manager) GetContextValue(ctx context.Context, key string) (string, error) {
	return m.store.GetContextValue(ctx, key)
}

// SetContextValue stores a session-scoped authority setting.
func (m *Manager) SetContextValue(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("context key is required")
	}
	return m.store.SetContextValue(ctx, key, value)
}

// ============================================================================
// Index
// ============================================================================

// lotIndex is a point-in-time view of every lot and the parent/child edges.
type lotIndex struct {
	names    []string
	lots     map[string]*Lot
	children map[string][]string
}

func (m *Manager) index(ctx context.Context) (*lotIndex, error) {
	lots, err := m.store.ListLots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	return newLotIndex(lots), nil
}

func newLotIndex(lots []*Lot) *lotIndex {
	ix := &lotIndex{
		lots:     make(map[string]*Lot, len(lots)),
		children: make(map[string][]string),
	}
	for _, l := range lots {
		ix.lots[l.Name] = l
		ix.names = append(ix.names, l.Name)
	}
	sort.Strings(ix.names)

	for _, name := range ix.names {
		for _, parent := range ix.lots[name].Parents {
			if parent != name {
				ix.children[parent] = append(ix.children[parent], name)
			}
		}
	}
	return ix
}

// descendants returns every lot below name, breadth-first, without repeats.
func (ix *lotIndex) descendants(name string) []string {
	var out []string
	seen := map[string]bool{name: true}
	queue := append([]string(nil), ix.children[name]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		queue = append(queue, ix.children[cur]...)
	}
	return out
}
