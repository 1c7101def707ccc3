// Package cmdutil provides shared utilities for lotpurge commands.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/marmos91/lotpurge/internal/cli/output"
	"github.com/marmos91/lotpurge/internal/cli/prompt"
	"github.com/marmos91/lotpurge/internal/logger"
	"github.com/marmos91/lotpurge/pkg/config"
	"github.com/marmos91/lotpurge/pkg/lotman"
	"github.com/marmos91/lotpurge/pkg/metrics"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	NoColor    bool
}

// GetOutputFormat returns the parsed --output value.
func GetOutputFormat() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// NewPrinter returns a printer for w honoring --output and --no-color.
func NewPrinter(w io.Writer) (*output.Printer, error) {
	format, err := GetOutputFormat()
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(w, format, Flags.NoColor), nil
}

// PrintOutput prints data as JSON or YAML, or as a table using
// tableRenderer. Empty tables print emptyMsg instead.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	p, err := NewPrinter(w)
	if err != nil {
		return err
	}
	if p.Format() != output.FormatTable {
		return p.Print(data)
	}
	if isEmpty {
		p.Notice(emptyMsg)
		return nil
	}
	return p.Print(tableRenderer)
}

// PrintSuccess prints a success message when the output format is table.
func PrintSuccess(w io.Writer, msg string) {
	p, err := NewPrinter(w)
	if err != nil || p.Format() != output.FormatTable {
		return
	}
	p.Success(msg)
}

// LoadConfig loads the configuration named by --config, falling back to
// defaults when no file exists, and initializes logging for one-shot
// commands. Logs written to stdout are redirected to stderr so they never
// mix with command output.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(Flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	logCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if strings.EqualFold(logCfg.Output, "stdout") {
		logCfg.Output = "stderr"
	}
	if err := logger.Init(logCfg); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// OpenManager opens the configured lot store. The caller must Close the
// returned manager.
func OpenManager(cfg *config.Config) (*lotman.Manager, error) {
	store, err := config.CreateLotStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open lot store: %w", err)
	}
	return lotman.NewManager(store, lotman.WithMetrics(metrics.NewLotMetrics())), nil
}

// WithManager loads the configuration, opens the lot store and runs fn.
func WithManager(fn func(ctx context.Context, m *lotman.Manager) error) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m, err := OpenManager(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			logger.Warn("Failed to close lot store", logger.Err(cerr))
		}
	}()
	return fn(context.Background(), m)
}

// RunRemoveWithConfirmation prompts for confirmation (unless force is set)
// and runs removeFn.
func RunRemoveWithConfirmation(w io.Writer, resourceType, name string, force bool, removeFn func() error) error {
	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Remove %s '%s'?", resourceType, name), force)
	if err != nil {
		return HandleAbort(w, err)
	}
	if !confirmed {
		_, _ = fmt.Fprintln(w, "Aborted.")
		return nil
	}

	if err := removeFn(); err != nil {
		return err
	}

	PrintSuccess(w, fmt.Sprintf("%s '%s' removed", resourceType, name))
	return nil
}

// HandleAbort turns a cancelled prompt into a clean exit.
func HandleAbort(w io.Writer, err error) error {
	if prompt.IsAborted(err) {
		_, _ = fmt.Fprintln(w, "\nAborted.")
		return nil
	}
	return err
}

// ParseCommaSeparatedList parses a comma-separated string into a slice of
// trimmed, non-empty strings.
func ParseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// BoolToYesNo converts a boolean to "yes" or "no".
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EmptyOr returns value, or fallback when value is empty.
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
