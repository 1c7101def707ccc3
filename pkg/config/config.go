package config

import (
	"time"

	"github.com/marmos91/lotpurge/internal/bytesize"
	"github.com/marmos91/lotpurge/pkg/api"
	badgerstore "github.com/marmos91/lotpurge/pkg/lotman/store/badger"
	gormstore "github.com/marmos91/lotpurge/pkg/lotman/store/gorm"
)

// Config is the static configuration of a planner deployment. Lots are not
// part of it; they live in the lot database and are managed with
// `lotpurge lots`.
//
// Values are layered: LOTPURGE_* environment variables override the file
// (YAML or TOML), and the file overrides GetDefaultConfig.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout bounds how long serve waits for the API, the
	// scheduler and the stores to stop.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	API      api.APIConfig  `mapstructure:"api" yaml:"api"`
	Purge    PurgeConfig    `mapstructure:"purge" yaml:"purge"`
}

// LoggingConfig mirrors logger.Config. Level is case-insensitive.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig exports one trace per purge cycle to an OTLP collector.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the collector's gRPC host:port. Default: localhost:4317
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of cycles traced. Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig pushes continuous profiles to a Pyroscope server.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the server URL. Default: http://localhost:4040
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes defaults to cpu, the alloc and inuse profiles, and
	// goroutines.
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig serves Prometheus metrics on their own port. When disabled
// no collectors are registered at all.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Lot database backends.
const (
	DatabaseMemory   = "memory"
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseBadger   = "badger"
)

// DatabaseConfig selects and configures the lot store.
type DatabaseConfig struct {
	// Type is one of memory, sqlite, postgres, badger.
	// Default: sqlite
	Type string `mapstructure:"type" validate:"required,oneof=memory sqlite postgres badger" yaml:"type"`

	SQLite   gormstore.SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite,omitempty"`
	Postgres gormstore.PostgresConfig `mapstructure:"postgres" yaml:"postgres,omitempty"`
	Badger   badgerstore.Config       `mapstructure:"badger" yaml:"badger,omitempty"`
}

// PurgeConfig configures the planner.
type PurgeConfig struct {
	// Params is the purge parameter string: the lot home followed by up
	// to four policy tokens (del, exp, opp, ded) in pass order.
	// Example: "/var/cache/xrootd del exp ded"
	Params string `mapstructure:"params" yaml:"params"`

	// HighWatermark is the usage that triggers reclamation.
	// Supports human-readable sizes: "1Ti", "900Gi"
	// Default: 1Ti
	HighWatermark bytesize.ByteSize `mapstructure:"high_watermark" yaml:"high_watermark"`

	// LowWatermark is the usage a cycle aims to get back to.
	// Default: 80% of HighWatermark
	LowWatermark bytesize.ByteSize `mapstructure:"low_watermark" yaml:"low_watermark"`

	// DirSuffix is appended to every planned directory path.
	// Default: none
	DirSuffix string `mapstructure:"dir_suffix" yaml:"dir_suffix,omitempty"`

	// Snapshot is the path of the directory usage snapshot (JSON or YAML).
	Snapshot string `mapstructure:"snapshot" yaml:"snapshot"`

	// Schedule is a cron expression for periodic cycles.
	// Default: "@every 5m"
	Schedule string `mapstructure:"schedule" yaml:"schedule"`

	// WatchSnapshot runs a cycle whenever the snapshot file is rewritten.
	// Default: false
	WatchSnapshot bool `mapstructure:"watch_snapshot" yaml:"watch_snapshot"`

	// Output is an optional file receiving each planned result as JSON.
	Output string `mapstructure:"output" yaml:"output,omitempty"`
}
