package purge

import "errors"

var (
	// Configuration errors
	ErrInvalidParams     = errors.New("invalid purge parameters")
	ErrInvalidLotHome    = errors.New("invalid lot home")
	ErrUnknownPolicy     = errors.New("unknown purge policy")
	ErrDuplicatePolicy   = errors.New("duplicate purge policy")
	ErrInvalidWatermarks = errors.New("invalid watermarks")

	// Cycle errors
	ErrUndetermined = errors.New("could not determine bytes to recover")
	ErrNilSnapshot  = errors.New("snapshot is required")
)
