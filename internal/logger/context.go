package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds cycle-scoped logging context.
//
// A purge cycle creates one LogContext and narrows it while it walks the
// configured policies and the lots each policy selects.
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	CycleID   string    // Purge cycle identifier
	Policy    string    // Policy pass currently running (LotsPastDel, ...)
	Lot       string    // Lot currently being processed
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for the given cycle
func NewLogContext(cycleID string) *LogContext {
	return &LogContext{
		CycleID:   cycleID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithPolicy returns a copy with the policy set and the lot cleared
func (lc *LogContext) WithPolicy(policy string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Policy = policy
		clone.Lot = ""
	}
	return clone
}

// WithLot returns a copy with the lot set
func (lc *LogContext) WithLot(lot string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Lot = lot
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
