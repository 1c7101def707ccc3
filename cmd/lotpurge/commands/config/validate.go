package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/internal/bytesize"
	"github.com/marmos91/lotpurge/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the lotpurge configuration file.

Checks for syntax errors, missing required fields, invalid watermarks,
schedules and purge parameters.

Examples:
  # Validate default config
  lotpurge config validate

  # Validate specific config file
  lotpurge config validate --config /etc/lotpurge/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.Purge.Params == "" {
		warnings = append(warnings, "purge.params not set - cycles rely on the lot home already stored in the database")
	} else if home := strings.Fields(cfg.Purge.Params)[0]; !isDir(home) {
		warnings = append(warnings, fmt.Sprintf("lot home %q is not an existing directory on this host", home))
	}
	if cfg.Purge.Snapshot == "" {
		warnings = append(warnings, "purge.snapshot not set - 'lotpurge serve' will refuse to start")
	}
	if cfg.Database.Type == config.DatabaseMemory {
		warnings = append(warnings, "memory database selected - lots are lost on restart")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Database type:   %s\n", cfg.Database.Type)
	_, _ = fmt.Fprintf(out, "  Watermarks:      %s / %s\n", bytesize.Format(cfg.Purge.HighWatermark.Int64()), bytesize.Format(cfg.Purge.LowWatermark.Int64()))
	_, _ = fmt.Fprintf(out, "  Schedule:        %s\n", cfg.Purge.Schedule)
	_, _ = fmt.Fprintf(out, "  API enabled:     %s (port %d)\n", cmdutil.BoolToYesNo(cfg.API.IsEnabled()), cfg.API.Port)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
