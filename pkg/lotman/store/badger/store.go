// Package badger provides a lotman.Store backed by an embedded BadgerDB.
//
// It needs no external service and survives restarts, which makes it the
// natural choice for a planner co-located with its cache.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

// Config configures the Badger store.
type Config struct {
	// Path is the database directory.
	Path string `mapstructure:"path" yaml:"path"`

	// InMemory keeps all data in memory; Path is ignored.
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory"`
}

// Store implements lotman.Store on BadgerDB.
type Store struct {
	db *badgerdb.DB
}

var _ lotman.Store = (*Store)(nil)

// New opens (or creates) a Badger database.
func New(cfg Config) (*Store, error) {
	var opts badgerdb.Options
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create badger directory: %w", err)
		}
		opts = badgerdb.DefaultOptions(cfg.Path)
	}

	// Badger's own logger is chatty at INFO; lot operations are logged by the manager.
	opts = opts.WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) CreateLot(ctx context.Context, lot *lotman.Lot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(keyLot(lot.Name))
		if err == nil {
			return lotman.ErrDuplicateLot
		}
		if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}

		data, err := encodeLot(lot)
		if err != nil {
			return err
		}
		return txn.Set(keyLot(lot.Name), data)
	})
}

func (s *Store) GetLot(ctx context.Context, name string) (*lotman.Lot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lot *lotman.Lot
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		lot, err = getLot(txn, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

func (s *Store) DeleteLot(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyLot(name)); err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return lotman.ErrLotNotFound
			}
			return err
		}
		return txn.Delete(keyLot(name))
	})
}

func (s *Store) ListLots(ctx context.Context) ([]*lotman.Lot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lots := []*lotman.Lot{}
	err := s.db.View(func(txn *badgerdb.Txn) error {
		return iterateLots(txn, func(l *lotman.Lot) error {
			lots = append(lots, l)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	return lots, nil
}

func (s *Store) ApplyUsage(ctx context.Context, usage map[string]lotman.LotUsage, reset bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		var lots []*lotman.Lot
		if reset {
			if err := iterateLots(txn, func(l *lotman.Lot) error {
				lots = append(lots, l)
				return nil
			}); err != nil {
				return err
			}
		} else {
			for name := range usage {
				l, err := getLot(txn, name)
				if errors.Is(err, lotman.ErrLotNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				lots = append(lots, l)
			}
		}

		for _, l := range lots {
			l.Usage = usage[l.Name]
			data, err := encodeLot(l)
			if err != nil {
				return err
			}
			if err := txn.Set(keyLot(l.Name), data); err != nil {
				return fmt.Errorf("failed to store usage of lot %q: %w", l.Name, err)
			}
		}
		return nil
	})
}

func (s *Store) GetContextValue(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var value string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyContext(key))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return lotman.ErrContextKeyNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	return value, err
}

func (s *Store) SetContextValue(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyContext(key), []byte(value))
	})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func getLot(txn *badgerdb.Txn, name string) (*lotman.Lot, error) {
	item, err := txn.Get(keyLot(name))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, lotman.ErrLotNotFound
	}
	if err != nil {
		return nil, err
	}

	var lot *lotman.Lot
	err = item.Value(func(val []byte) error {
		var err error
		lot, err = decodeLot(val)
		return err
	})
	return lot, err
}

func iterateLots(txn *badgerdb.Txn, fn func(*lotman.Lot) error) error {
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = []byte(prefixLot)

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var lot *lotman.Lot
		err := it.Item().Value(func(val []byte) error {
			var err error
			lot, err = decodeLot(val)
			return err
		})
		if err != nil {
			return err
		}
		if err := fn(lot); err != nil {
			return err
		}
	}
	return nil
}
