package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/internal/logger"
	"github.com/marmos91/lotpurge/internal/telemetry"
	"github.com/marmos91/lotpurge/pkg/api"
	"github.com/marmos91/lotpurge/pkg/config"
	"github.com/marmos91/lotpurge/pkg/metrics"
	"github.com/marmos91/lotpurge/pkg/scheduler"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/lotpurge/pkg/metrics/prometheus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the planner as a service",
	Long: `Run the purge planner in the foreground.

The planner re-plans at startup, on every tick of purge.schedule and, when
purge.watch_snapshot is set, whenever the snapshot file changes. Each plan is
written to purge.output when configured.

The REST API (default port 8080) exposes the last plan, on-demand cycles and
lot management. Prometheus metrics are served on metrics.port when enabled.

Examples:
  # Serve with the default config location
  lotpurge serve

  # Serve with a custom config file
  lotpurge serve --config /etc/lotpurge/config.yaml

  # Override settings from the environment
  LOTPURGE_LOGGING_LEVEL=DEBUG LOTPURGE_PURGE_SCHEDULE="@every 1m" lotpurge serve`,
	RunE: runServe,
}

// component is a long-running part of the service. Start blocks until ctx
// is cancelled.
type component struct {
	name  string
	start func(ctx context.Context) error
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}
	if cfg.Purge.Snapshot == "" {
		return fmt.Errorf("purge.snapshot must be configured to serve")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "lotpurge",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "lotpurge",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("lotpurge starting", "version", Version, "config", getConfigSource(cmdutil.Flags.ConfigFile))
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	// The registry must exist before the planner, the lot manager and the
	// API router ask for their metrics.
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	m, err := cmdutil.OpenManager(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Error("lot store close error", "error", err)
		}
	}()
	logger.Info("Lot store opened", "type", cfg.Database.Type)

	planner, err := newPlanner(ctx, cfg, m)
	if err != nil {
		return err
	}

	runner, err := scheduler.New(planner, scheduler.Config{
		SnapshotPath:  cfg.Purge.Snapshot,
		Schedule:      cfg.Purge.Schedule,
		WatchSnapshot: cfg.Purge.WatchSnapshot,
		OutputPath:    cfg.Purge.Output,
	})
	if err != nil {
		return err
	}

	components := []component{{name: "scheduler", start: runner.Run}}

	if cfg.API.IsEnabled() {
		apiServer := api.NewServer(cfg.API, api.Deps{
			Lots:    m,
			Planner: planner,
			Run:     runner.RunOnce,
		})
		components = append(components, component{name: "api", start: apiServer.Start})
	} else {
		logger.Info("API server disabled")
	}

	if cfg.Metrics.Enabled {
		components = append(components, component{name: "metrics", start: metrics.NewServer(cfg.Metrics.Port).Start})
	} else {
		logger.Info("Metrics collection disabled")
	}

	return serve(ctx, cancel, cfg.ShutdownTimeout, components)
}

// serve runs every component until a signal arrives or one of them fails,
// then cancels the rest and waits up to timeout for them to return.
func serve(ctx context.Context, cancel context.CancelFunc, timeout time.Duration, components []component) error {
	type result struct {
		name string
		err  error
	}
	done := make(chan result, len(components))
	for _, c := range components {
		go func() {
			done <- result{name: c.name, err: c.start(ctx)}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Planner is running. Press Ctrl+C to stop.")

	var errs error
	remaining := len(components)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
	case <-ctx.Done():
	case r := <-done:
		remaining--
		if r.err != nil {
			logger.Error("Component failed", "component", r.name, "error", r.err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.name, r.err))
		}
	}
	cancel()

	deadline := time.After(timeout)
	for remaining > 0 {
		select {
		case r := <-done:
			remaining--
			if r.err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.name, r.err))
			}
		case <-deadline:
			return multierr.Append(errs, fmt.Errorf("shutdown timed out after %s with %d component(s) still running", timeout, remaining))
		}
	}

	if errs == nil {
		logger.Info("Planner stopped gracefully")
	}
	return errs
}
