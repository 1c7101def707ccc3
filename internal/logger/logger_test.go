package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput sends log output to a buffer, uncoloured text at INFO, and
// returns a function restoring the previous sink.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.RLock()
	saved := cur
	mu.RUnlock()
	savedLevel := level.Level()

	InitWithWriter(buf, "INFO", "text", false)

	return buf, func() {
		mu.Lock()
		cur = saved
		cur.rebuild()
		mu.Unlock()
		level.Set(savedLevel)
	}
}

// ============================================================================
// Level Filtering Tests
// ============================================================================

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		visible []string
		hidden  []string
	}{
		{"DEBUG", []string{"debug msg", "info msg", "warn msg", "error msg"}, nil},
		{"INFO", []string{"info msg", "warn msg", "error msg"}, []string{"debug msg"}},
		{"WARN", []string{"warn msg", "error msg"}, []string{"debug msg", "info msg"}},
		{"ERROR", []string{"error msg"}, []string{"debug msg", "info msg", "warn msg"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf, cleanup := captureOutput()
			defer cleanup()

			SetLevel(tt.level)

			Debug("debug msg")
			Info("info msg")
			Warn("warn msg")
			Error("error msg")

			out := buf.String()
			for _, s := range tt.visible {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.hidden {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestSetLevelIgnoresInvalid(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("WARN")
	SetLevel("VERBOSE")

	Info("hidden")
	Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

// ============================================================================
// Format Tests
// ============================================================================

func TestTextFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("text")
	Info("lot selected", KeyLot, "lot1", KeyBytes, int64(1024), KeyPath, "/data/with space")

	out := buf.String()
	assert.Contains(t, out, "[INFO] lot selected")
	assert.Contains(t, out, "lot=lot1")
	assert.Contains(t, out, "bytes=1024")
	assert.Contains(t, out, `path="/data/with space"`)
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("json")
	Info("cycle finished", KeyBudget, int64(0), KeyCount, 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cycle finished", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.EqualValues(t, 0, entry[KeyBudget])
	assert.EqualValues(t, 3, entry[KeyCount])
}

func TestSetFormatIgnoresInvalid(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("text")
	SetFormat("xml")
	Info("still text")

	assert.True(t, strings.HasPrefix(buf.String(), "["))
}

// ============================================================================
// Context Tests
// ============================================================================

func TestContextFieldsInjected(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	lc := NewLogContext("cycle-42").WithPolicy("LotsPastDel").WithLot("lot1")
	ctx := WithContext(context.Background(), lc)

	InfoCtx(ctx, "allocating", KeyBytes, int64(10))

	out := buf.String()
	assert.Contains(t, out, "cycle_id=cycle-42")
	assert.Contains(t, out, "policy=LotsPastDel")
	assert.Contains(t, out, "lot=lot1")
	assert.Contains(t, out, "bytes=10")

	// Context fields come before call-site fields
	assert.Less(t, strings.Index(out, "cycle_id="), strings.Index(out, "bytes="))
}

func TestContextWithoutLogContext(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	WarnCtx(context.Background(), "no context", KeyLot, "x")
	assert.Contains(t, buf.String(), "lot=x")
	assert.NotContains(t, buf.String(), "cycle_id")
}

func TestLogContextNarrowing(t *testing.T) {
	base := NewLogContext("c1")
	withLot := base.WithPolicy("LotsPastExp").WithLot("lotA")
	nextPolicy := withLot.WithPolicy("LotsPastOpp")

	assert.Empty(t, base.Policy, "narrowing must not mutate the parent")
	assert.Equal(t, "lotA", withLot.Lot)
	assert.Equal(t, "LotsPastOpp", nextPolicy.Policy)
	assert.Empty(t, nextPolicy.Lot, "switching policy clears the lot")
	assert.Equal(t, "c1", nextPolicy.CycleID)

	var nilCtx *LogContext
	assert.Nil(t, nilCtx.WithLot("x"))
	assert.Zero(t, nilCtx.DurationMs())
	assert.Nil(t, FromContext(nil)) //nolint:staticcheck // nil context is handled explicitly
}

// ============================================================================
// Handler Tests
// ============================================================================

func TestColorTextHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, nil, false)
	l := slog.New(h).With(KeyCycleID, "c9").WithGroup("lotman")

	l.Info("usage", slog.Group("lot", slog.String("name", "lot2")), KeyBytes, 5)

	out := buf.String()
	assert.Contains(t, out, "cycle_id=c9")
	assert.Contains(t, out, "lotman.lot.name=lot2")
	assert.Contains(t, out, "lotman.bytes=5")
}

func TestErrAttr(t *testing.T) {
	assert.True(t, Err(nil).Equal(slog.Attr{}))
	assert.Equal(t, "boom", Err(errors.New("boom")).Value.String())
}

// ============================================================================
// Init Tests
// ============================================================================

func TestInitWithFileOutput(t *testing.T) {
	_, cleanup := captureOutput()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "lotpurge.log")
	require.NoError(t, Init(Config{Level: "DEBUG", Format: "text", Output: path}))

	Debug("to file", KeyLot, "lot1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, string(data), "lot=lot1")
}

func TestInitWithUnwritableFile(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)

	Info("still buffered")
	assert.Contains(t, buf.String(), "still buffered")
}

func TestInitSwitchingFilesClosesPrevious(t *testing.T) {
	_, cleanup := captureOutput()
	defer cleanup()

	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")

	require.NoError(t, Init(Config{Output: first}))
	mu.RLock()
	opened := cur.file
	mu.RUnlock()
	require.NotNil(t, opened)

	require.NoError(t, Init(Config{Output: second}))
	Info("second only")

	_, err := opened.Write([]byte("x"))
	assert.Error(t, err, "first log file should be closed")

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(data), "second only")

	mu.Lock()
	_ = cur.file.Close()
	cur.file = nil
	mu.Unlock()
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestConcurrentLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				Info("concurrent", KeyCount, j)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 200)
}

func TestDurationMsAttr(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()
	SetFormat("json")

	start := time.Now().Add(-1500 * time.Millisecond)
	Info("cycle finished", DurationMs(start))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	ms, ok := entry[KeyDurationMs].(float64)
	require.True(t, ok, "duration_ms should be a number")
	assert.GreaterOrEqual(t, ms, 1500.0)
	assert.GreaterOrEqual(t, Duration(start), ms)
}
