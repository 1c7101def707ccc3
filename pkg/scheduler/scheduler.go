// Package scheduler drives purge cycles for a long-running planner.
//
// A Runner reloads the usage snapshot and asks the planner for a new plan
// whenever one of its triggers fires:
//   - once at startup
//   - on every tick of a cron schedule
//   - when the snapshot file is rewritten (fsnotify)
//   - on demand through RunOnce (used by POST /api/v1/plan/run)
//
// Triggers that fire while a cycle is running are coalesced into a single
// follow-up cycle.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron"

	"github.com/marmos91/lotpurge/internal/cli/output"
	"github.com/marmos91/lotpurge/internal/logger"
	"github.com/marmos91/lotpurge/pkg/purge"
	"github.com/marmos91/lotpurge/pkg/snapshot"
)

// DefaultDebounce is how long the watcher waits for writes to a snapshot
// file to settle before planning.
const DefaultDebounce = 2 * time.Second

// Planner is the part of purge.Planner the runner needs.
type Planner interface {
	Plan(ctx context.Context, snap *snapshot.Snapshot) (*purge.Result, error)
}

var _ Planner = (*purge.Planner)(nil)

// Config configures a Runner.
type Config struct {
	// SnapshotPath is the usage snapshot file (JSON or YAML). Required.
	SnapshotPath string

	// Schedule is a cron spec ("@every 5m", "0 */10 * * * *"). Empty
	// disables scheduled cycles.
	Schedule string

	// WatchSnapshot plans again whenever the snapshot file changes.
	WatchSnapshot bool

	// OutputPath, when set, receives every determined plan as JSON or YAML.
	OutputPath string

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
}

// Runner serializes purge cycles over a snapshot file.
type Runner struct {
	planner  Planner
	cfg      Config
	schedule cron.Schedule
	trigger  chan string
}

// New validates cfg and returns a stopped Runner.
func New(planner Planner, cfg Config) (*Runner, error) {
	if planner == nil {
		return nil, errors.New("scheduler: planner is required")
	}
	if cfg.SnapshotPath == "" {
		return nil, errors.New("scheduler: snapshot path is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	r := &Runner{
		planner: planner,
		cfg:     cfg,
		trigger: make(chan string, 1),
	}

	if cfg.Schedule != "" {
		sched, err := cron.Parse(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", cfg.Schedule, err)
		}
		r.schedule = sched
	}
	return r, nil
}

// RunOnce loads the snapshot and plans one cycle.
//
// A snapshot that cannot be loaded is returned as an error with a nil
// Result. Otherwise the planner's Result and error are returned unchanged;
// determined plans are also written to the configured output path.
func (r *Runner) RunOnce(ctx context.Context) (*purge.Result, error) {
	snap, err := snapshot.Load(r.cfg.SnapshotPath)
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to load usage snapshot", logger.Path(r.cfg.SnapshotPath), logger.Err(err))
		return nil, err
	}
	logger.DebugCtx(ctx, "Usage snapshot loaded", logger.Path(r.cfg.SnapshotPath),
		logger.Count(snap.Len()), logger.Total(snap.TotalBytes()))

	res, err := r.planner.Plan(ctx, snap)
	if err != nil {
		return res, err
	}

	if r.cfg.OutputPath != "" && res != nil {
		if werr := output.WriteFile(r.cfg.OutputPath, res); werr != nil {
			logger.ErrorCtx(ctx, "Failed to write purge plan", logger.Path(r.cfg.OutputPath), logger.Err(werr))
			return res, werr
		}
		logger.DebugCtx(ctx, "Purge plan written", logger.Path(r.cfg.OutputPath), logger.CycleID(res.CycleID))
	}
	return res, nil
}

// Run plans once immediately, then on every trigger until ctx is cancelled.
// It returns nil on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	if r.schedule != nil {
		c := cron.New()
		c.Schedule(r.schedule, cron.FuncJob(func() { r.fire("schedule") }))
		c.Start()
		defer c.Stop()
		logger.Info("Purge schedule started", "schedule", r.cfg.Schedule)
	}

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if r.cfg.WatchSnapshot {
		watcher, err := r.watch()
		if err != nil {
			return err
		}
		defer func() { _ = watcher.Close() }()
		events, watchErrs = watcher.Events, watcher.Errors
	}

	r.fire("startup")

	// Stopped until the first relevant event arrives.
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case reason := <-r.trigger:
			r.cycle(ctx, reason)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if r.isSnapshotEvent(ev) {
				debounce.Reset(r.cfg.Debounce)
			}

		case <-debounce.C:
			r.fire("snapshot")

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Warn("Snapshot watcher error", logger.Err(err))
		}
	}
}

// watch observes the snapshot's directory so that files replaced by rename
// are still seen.
func (r *Runner) watch() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot watcher: %w", err)
	}
	dir := filepath.Dir(r.cfg.SnapshotPath)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger.Info("Watching usage snapshot", logger.Path(r.cfg.SnapshotPath))
	return watcher, nil
}

func (r *Runner) isSnapshotEvent(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(r.cfg.SnapshotPath) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// fire queues a cycle unless one is already queued.
func (r *Runner) fire(reason string) {
	select {
	case r.trigger <- reason:
	default:
	}
}

func (r *Runner) cycle(ctx context.Context, reason string) {
	logger.Debug("Purge cycle triggered", "reason", reason)
	res, err := r.RunOnce(ctx)
	switch {
	case err != nil && res == nil:
		// Already logged by RunOnce.
	case err != nil:
		logger.Warn("Purge cycle undetermined", logger.CycleID(res.CycleID), "reason", reason, logger.Err(err))
	default:
		logger.Info("Purge cycle finished",
			logger.CycleID(res.CycleID), "status", res.Status, "reason", reason,
			logger.Count(len(res.Dirs)), logger.Bytes(res.Planned()))
	}
}
