package snapshot

import "errors"

// ErrInvalidSnapshot is returned when a snapshot violates its structural invariants.
var ErrInvalidSnapshot = errors.New("invalid snapshot")
