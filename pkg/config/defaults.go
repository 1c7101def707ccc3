package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/lotpurge/internal/bytesize"
	gormstore "github.com/marmos91/lotpurge/pkg/lotman/store/gorm"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit
// values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyDatabaseDefaults(&cfg.Database)
	applyMetricsDefaults(&cfg.Metrics)
	cfg.API.ApplyDefaults()
	applyPurgeDefaults(&cfg.Purge)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyDatabaseDefaults fills in the selected backend. The gorm backends
// share their defaults with the store package.
func applyDatabaseDefaults(cfg *DatabaseConfig) {
	if cfg.Type == "" {
		cfg.Type = DatabaseSQLite
	}
	cfg.Type = strings.ToLower(cfg.Type)

	switch cfg.Type {
	case DatabaseSQLite, DatabasePostgres:
		g := cfg.gormConfig()
		g.ApplyDefaults()
		cfg.SQLite = g.SQLite
		cfg.Postgres = g.Postgres
	case DatabaseBadger:
		if cfg.Badger.Path == "" && !cfg.Badger.InMemory {
			cfg.Badger.Path = filepath.Join(GetConfigDir(), "lots.badger")
		}
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyPurgeDefaults sets watermark and schedule defaults. A missing low
// watermark is derived from the high one.
func applyPurgeDefaults(cfg *PurgeConfig) {
	if cfg.HighWatermark == 0 {
		cfg.HighWatermark = bytesize.TiB
	}
	if cfg.LowWatermark == 0 {
		cfg.LowWatermark = cfg.HighWatermark / 5 * 4
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
}

// gormConfig maps the section onto the gorm store configuration.
func (c *DatabaseConfig) gormConfig() *gormstore.Config {
	return &gormstore.Config{
		Type:     gormstore.DatabaseType(c.Type),
		SQLite:   c.SQLite,
		Postgres: c.Postgres,
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// Used to generate sample configuration files and in tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Database: DatabaseConfig{
			Type: DatabaseSQLite,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
