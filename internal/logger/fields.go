package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so purge cycles
// can be correlated and queried after the fact.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID
	KeySpanID  = "span_id"  // OpenTelemetry span ID

	// ========================================================================
	// Purge Cycle
	// ========================================================================
	KeyCycleID   = "cycle_id"  // Purge cycle identifier
	KeyPolicy    = "policy"    // Policy pass: LotsPastDel, LotsPastExp, ...
	KeyLot       = "lot"       // Lot name
	KeyPath      = "path"      // Directory path
	KeyBytes     = "bytes"     // Byte count attached to a decision
	KeyBudget    = "budget"    // Remaining bytes to recover
	KeyTotal     = "total"     // Total usage in bytes
	KeyHWM       = "hwm"       // High watermark in bytes
	KeyLWM       = "lwm"       // Low watermark in bytes
	KeyStatus    = "status"    // Cycle status: planned, below_watermark, undetermined
	KeyCount     = "count"     // Generic item count
	KeyLotHome   = "lot_home"  // Quota authority home directory
	KeyPolicies  = "policies"  // Configured policy order
	KeySnapshot  = "snapshot"  // Snapshot source
	KeyStore     = "store"     // Lot store backend
	KeyDirSuffix = "dir_suffix"

	// ========================================================================
	// Timing
	// ========================================================================
	KeyDurationMs = "duration_ms"

	// ========================================================================
	// Errors
	// ========================================================================
	KeyError = "error"

	// ========================================================================
	// HTTP
	// ========================================================================
	KeyMethod     = "method"
	KeyRequestID  = "request_id"
	KeyStatusCode = "status_code"
	KeyRemoteAddr = "remote_addr"
)

// Field constructors for type safety

// CycleID creates a cycle ID attribute
func CycleID(id string) slog.Attr {
	return slog.String(KeyCycleID, id)
}

// Policy creates a policy attribute
func Policy(name string) slog.Attr {
	return slog.String(KeyPolicy, name)
}

// Lot creates a lot name attribute
func Lot(name string) slog.Attr {
	return slog.String(KeyLot, name)
}

// Path creates a path attribute
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Bytes creates a byte count attribute
func Bytes(n int64) slog.Attr {
	return slog.Int64(KeyBytes, n)
}

// Budget creates a remaining budget attribute
func Budget(n int64) slog.Attr {
	return slog.Int64(KeyBudget, n)
}

// Total creates a total usage attribute
func Total(n int64) slog.Attr {
	return slog.Int64(KeyTotal, n)
}

// Count creates a count attribute
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// DurationMs creates a duration attribute in milliseconds
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, Duration(start))
}

// Err creates an error attribute
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
