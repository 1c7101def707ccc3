package lotman

import "errors"

var (
	// Lot errors
	ErrLotNotFound   = errors.New("lot not found")
	ErrDuplicateLot  = errors.New("lot already exists")
	ErrInvalidLot    = errors.New("invalid lot")
	ErrParentMissing = errors.New("parent lot does not exist")
	ErrLotInUse      = errors.New("lot is a parent of other lots")

	// Context errors
	ErrContextKeyNotFound = errors.New("context key not found")

	// Usage errors
	ErrInvalidQuery  = errors.New("invalid usage query")
	ErrInvalidReport = errors.New("invalid usage report")
)
