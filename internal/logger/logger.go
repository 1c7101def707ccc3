// Package logger is the process-wide structured logger. It wraps log/slog,
// renders a coloured text format on terminals and injects the purge cycle
// fields carried by a LogContext.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Config selects the level, format and destination of the logger.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or a file path (appended to)
}

// sink is the handler configuration; it is rebuilt whenever output or format
// changes. The level lives in a shared LevelVar and needs no rebuild.
type sink struct {
	out    io.Writer
	file   *os.File
	color  bool
	format string
	log    *slog.Logger
}

var (
	level = new(slog.LevelVar)

	mu  sync.RWMutex
	cur = sink{out: os.Stdout, color: isTerminal(os.Stdout.Fd()), format: "text"}
)

func init() {
	cur.rebuild()
}

func (s *sink) rebuild() {
	opts := &slog.HandlerOptions{Level: level}
	if s.format == "json" {
		s.log = slog.New(slog.NewJSONHandler(s.out, opts))
		return
	}
	s.log = slog.New(NewColorTextHandler(s.out, opts, s.color))
}

// Init applies cfg. Empty fields keep their current value. A previously
// opened log file is closed once the new output is in place.
func Init(cfg Config) error {
	if cfg.Output != "" {
		out, file, color, err := openOutput(cfg.Output)
		if err != nil {
			return err
		}
		mu.Lock()
		prev := cur.file
		cur.out, cur.file, cur.color = out, file, color
		cur.rebuild()
		mu.Unlock()
		if prev != nil {
			_ = prev.Close()
		}
	}

	SetLevel(cfg.Level)
	SetFormat(cfg.Format)
	return nil
}

func openOutput(target string) (io.Writer, *os.File, bool, error) {
	switch strings.ToLower(target) {
	case "stdout":
		return os.Stdout, nil, isTerminal(os.Stdout.Fd()), nil
	case "stderr":
		return os.Stderr, nil, isTerminal(os.Stderr.Fd()), nil
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to open log file %q: %w", target, err)
	}
	return f, f, false, nil
}

// InitWithWriter sends log output to w. Used by tests and embedding callers.
func InitWithWriter(w io.Writer, lvl, format string, enableColor bool) {
	mu.Lock()
	cur.out, cur.file, cur.color = w, nil, enableColor
	cur.rebuild()
	mu.Unlock()

	SetLevel(lvl)
	SetFormat(format)
}

// SetLevel sets the minimum level. Unknown names are ignored.
func SetLevel(name string) {
	if l, ok := parseLevel(name); ok {
		level.Set(l)
	}
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return 0, false
}

// SetFormat switches between "text" and "json". Other values are ignored.
func SetFormat(format string) {
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if cur.format != format {
		cur.format = format
		cur.rebuild()
	}
}

func emit(ctx context.Context, lvl slog.Level, msg string, args []any) {
	if lvl < level.Level() {
		return
	}
	args = appendContextFields(ctx, args)
	mu.RLock()
	l := cur.log
	mu.RUnlock()
	l.Log(ctx, lvl, msg, args...)
}

// Debug logs msg with key/value pairs, e.g. Debug("msg", KeyLot, name).
func Debug(msg string, args ...any) { emit(context.Background(), slog.LevelDebug, msg, args) }
func Info(msg string, args ...any)  { emit(context.Background(), slog.LevelInfo, msg, args) }
func Warn(msg string, args ...any)  { emit(context.Background(), slog.LevelWarn, msg, args) }
func Error(msg string, args ...any) { emit(context.Background(), slog.LevelError, msg, args) }

// DebugCtx and friends prepend the LogContext fields found in ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) { emit(ctx, slog.LevelDebug, msg, args) }
func InfoCtx(ctx context.Context, msg string, args ...any)  { emit(ctx, slog.LevelInfo, msg, args) }
func WarnCtx(ctx context.Context, msg string, args ...any)  { emit(ctx, slog.LevelWarn, msg, args) }
func ErrorCtx(ctx context.Context, msg string, args ...any) { emit(ctx, slog.LevelError, msg, args) }

func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	fields := []struct{ key, val string }{
		{KeyTraceID, lc.TraceID},
		{KeySpanID, lc.SpanID},
		{KeyCycleID, lc.CycleID},
		{KeyPolicy, lc.Policy},
		{KeyLot, lc.Lot},
	}
	out := make([]any, 0, 2*len(fields)+len(args))
	for _, f := range fields {
		if f.val != "" {
			out = append(out, f.key, f.val)
		}
	}
	return append(out, args...)
}

// Duration returns the time elapsed since start in milliseconds. Pair it
// with KeyDurationMs, or use DurationMs.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
