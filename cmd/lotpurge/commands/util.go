package commands

import (
	"context"
	"fmt"

	"github.com/marmos91/lotpurge/internal/bytesize"
	"github.com/marmos91/lotpurge/internal/logger"
	"github.com/marmos91/lotpurge/pkg/config"
	"github.com/marmos91/lotpurge/pkg/lotman"
	"github.com/marmos91/lotpurge/pkg/metrics"
	"github.com/marmos91/lotpurge/pkg/purge"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// newPlanner builds a planner over m and applies purge.params when set.
// Without params the lot home already recorded in the store is used.
func newPlanner(ctx context.Context, cfg *config.Config, m *lotman.Manager) (*purge.Planner, error) {
	planner, err := purge.NewPlanner(m, purge.Options{
		Watermarks: cfg.Watermarks(),
		DirSuffix:  cfg.Purge.DirSuffix,
		Metrics:    metrics.NewPurgeMetrics(),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Purge.Params != "" {
		if err := planner.Configure(ctx, cfg.Purge.Params); err != nil {
			return nil, fmt.Errorf("purge.params: %w", err)
		}
	}
	return planner, nil
}

// applyWatermarkFlags overrides the configured watermarks with non-empty
// flag values such as "800Gi".
func applyWatermarkFlags(cfg *config.Config, high, low string) error {
	if high != "" {
		v, err := bytesize.ParseByteSize(high)
		if err != nil {
			return fmt.Errorf("--high: %w", err)
		}
		cfg.Purge.HighWatermark = v
	}
	if low != "" {
		v, err := bytesize.ParseByteSize(low)
		if err != nil {
			return fmt.Errorf("--low: %w", err)
		}
		cfg.Purge.LowWatermark = v
	}
	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
