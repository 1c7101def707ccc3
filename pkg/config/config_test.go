package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/lotpurge/internal/bytesize"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO"

database:
  type: badger
  badger:
    path: "`+yamlSafePath(tmpDir)+`/lots"

purge:
  params: "/var/cache/lots del ded"
  high_watermark: 100Gi
  low_watermark: 60Gi
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected API port 8080, got %d", cfg.API.Port)
	}
	if cfg.Purge.HighWatermark != 100*bytesize.GiB {
		t.Errorf("Expected high watermark 100Gi, got %v", cfg.Purge.HighWatermark)
	}
	if cfg.Purge.LowWatermark != 60*bytesize.GiB {
		t.Errorf("Expected low watermark 60Gi, got %v", cfg.Purge.LowWatermark)
	}
	if cfg.Purge.Schedule != "@every 5m" {
		t.Errorf("Expected default schedule '@every 5m', got %q", cfg.Purge.Schedule)
	}
	if cfg.Database.Badger.Path != yamlSafePath(tmpDir)+"/lots" {
		t.Errorf("Expected badger path to be kept, got %q", cfg.Database.Badger.Path)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// A missing file yields the defaults so `lotpurge plan` works without setup.
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}
	if cfg.Database.Type != DatabaseSQLite {
		t.Errorf("Expected default database sqlite, got %q", cfg.Database.Type)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_InvalidWatermarks(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
database:
  type: memory
purge:
  high_watermark: 10Gi
  low_watermark: 20Gi
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error when low watermark exceeds high watermark")
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[logging]
level = "WARN"
format = "json"

[database]
type = "memory"

[purge]
high_watermark = "2Ti"
schedule = "0 */10 * * * *"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Purge.LowWatermark != 2*bytesize.TiB/5*4 {
		t.Errorf("Expected derived low watermark, got %v", cfg.Purge.LowWatermark)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if cfg.Purge.HighWatermark != bytesize.TiB {
		t.Errorf("Expected default high watermark 1Ti, got %v", cfg.Purge.HighWatermark)
	}
	if cfg.Purge.DirSuffix != "" {
		t.Errorf("Expected no default dir suffix, got %q", cfg.Purge.DirSuffix)
	}
	if cfg.Database.SQLite.Path == "" {
		t.Error("Expected default sqlite path")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	if base := filepath.Base(GetConfigDir()); base != "lotpurge" {
		t.Errorf("Expected directory name 'lotpurge', got %q", base)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("LOTPURGE_LOGGING_LEVEL", "ERROR")
	t.Setenv("LOTPURGE_PURGE_HIGH_WATERMARK", "500Gi")

	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO"

database:
  type: memory

purge:
  high_watermark: 100Gi
  low_watermark: 50Gi
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Purge.HighWatermark != 500*bytesize.GiB {
		t.Errorf("Expected high watermark 500Gi from env var, got %v", cfg.Purge.HighWatermark)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Database.Type = DatabaseMemory
	cfg.Purge.Params = "/data del"
	cfg.Purge.HighWatermark = 3 * bytesize.TiB
	cfg.Purge.LowWatermark = 2 * bytesize.TiB

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Purge.Params != "/data del" {
		t.Errorf("Expected params to survive, got %q", loaded.Purge.Params)
	}
	if loaded.Purge.HighWatermark != 3*bytesize.TiB {
		t.Errorf("Expected high watermark 3Ti, got %v", loaded.Purge.HighWatermark)
	}
}

func TestLoad_NumericUnits(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
database:
  type: memory

shutdown_timeout: 5000000000

purge:
  high_watermark: 2048
  low_watermark: "1Ki"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown_timeout 5s from nanoseconds, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Purge.HighWatermark != 2048 {
		t.Errorf("Expected high watermark 2048 bytes, got %v", cfg.Purge.HighWatermark)
	}
	if cfg.Purge.LowWatermark != bytesize.KiB {
		t.Errorf("Expected low watermark 1Ki, got %v", cfg.Purge.LowWatermark)
	}
}

func TestLoad_NegativeWatermark(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
database:
  type: memory

purge:
  high_watermark: -5
`)

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for negative watermark")
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := MustLoad(path)
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "lotpurge config init --config "+path) {
		t.Errorf("Expected init hint for %s, got %q", path, err.Error())
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if got := GetConfigDir(); got != filepath.Join(xdg, "lotpurge") {
		t.Errorf("Expected XDG config dir, got %q", got)
	}
	if got := GetDefaultConfigPath(); got != filepath.Join(xdg, "lotpurge", "config.yaml") {
		t.Errorf("Expected config.yaml under XDG dir, got %q", got)
	}
}
