package lotman

import "context"

// Store persists lots, their self usage and authority context values.
//
// Implementations must be safe for concurrent use. ListLots returns lots
// sorted by name so that every listing derived from it is deterministic.
type Store interface {
	// CreateLot stores a new lot. Returns ErrDuplicateLot if the name exists.
	CreateLot(ctx context.Context, lot *Lot) error

	// GetLot returns the lot with the given name or ErrLotNotFound.
	GetLot(ctx context.Context, name string) (*Lot, error)

	// DeleteLot removes a lot or returns ErrLotNotFound.
	DeleteLot(ctx context.Context, name string) error

	// ListLots returns all lots sorted by name.
	ListLots(ctx context.Context) ([]*Lot, error)

	// ApplyUsage sets the self usage of the named lots in one step. When
	// reset is true every other lot's self usage is zeroed first. Names not
	// present in the store are ignored.
	ApplyUsage(ctx context.Context, usage map[string]LotUsage, reset bool) error

	// GetContextValue returns a context value or ErrContextKeyNotFound.
	GetContextValue(ctx context.Context, key string) (string, error)

	// SetContextValue stores a context value, replacing any previous one.
	SetContextValue(ctx context.Context, key, value string) error

	// Close releases the store's resources.
	Close() error
}
