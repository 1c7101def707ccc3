package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/internal/cli/output"
	"github.com/marmos91/lotpurge/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective lotpurge configuration, after defaults and
environment overrides are applied.

Outputs YAML unless --output json is given.

Examples:
  # Show default config as YAML
  lotpurge config show

  # Show as JSON
  lotpurge config show -o json`,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	format, err := cmdutil.GetOutputFormat()
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	}
	return output.PrintYAML(cmd.OutOrStdout(), cfg)
}
