// Package memory provides an in-memory lotman.Store.
//
// Lots are lost when the process exits. Suitable for tests and for one-shot
// planning runs fed from a lots file.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

// Store is an in-memory lotman.Store.
type Store struct {
	mu      sync.RWMutex
	lots    map[string]*lotman.Lot
	context map[string]string
	closed  bool
}

var _ lotman.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		lots:    make(map[string]*lotman.Lot),
		context: make(map[string]string),
	}
}

func (s *Store) CreateLot(_ context.Context, lot *lotman.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.lots[lot.Name]; exists {
		return lotman.ErrDuplicateLot
	}
	s.lots[lot.Name] = lot.Clone()
	return nil
}

func (s *Store) GetLot(_ context.Context, name string) (*lotman.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lots[name]
	if !ok {
		return nil, lotman.ErrLotNotFound
	}
	return l.Clone(), nil
}

func (s *Store) DeleteLot(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lots[name]; !ok {
		return lotman.ErrLotNotFound
	}
	delete(s.lots, name)
	return nil
}

func (s *Store) ListLots(_ context.Context) ([]*lotman.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*lotman.Lot, 0, len(s.lots))
	for _, l := range s.lots {
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ApplyUsage(_ context.Context, usage map[string]lotman.LotUsage, reset bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reset {
		for _, l := range s.lots {
			l.Usage = lotman.LotUsage{}
		}
	}
	for name, u := range usage {
		if l, ok := s.lots[name]; ok {
			l.Usage = u
		}
	}
	return nil
}

func (s *Store) GetContextValue(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.context[key]
	if !ok {
		return "", lotman.ErrContextKeyNotFound
	}
	return v, nil
}

func (s *Store) SetContextValue(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.context[key] = value
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
