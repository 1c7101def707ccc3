package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample lotpurge configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/lotpurge/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  lotpurge init

  # Initialize with custom path
  lotpurge init --config /etc/lotpurge/config.yaml

  # Force overwrite existing config
  lotpurge init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile

	var err error
	if configPath != "" {
		err = config.InitConfigToPath(configPath, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Set purge.params to '<lot_home> [del exp opp ded]' and purge.snapshot")
	_, _ = fmt.Fprintln(out, "  2. Register lots with: lotpurge lots add")
	_, _ = fmt.Fprintln(out, "  3. Start the planner with: lotpurge serve")
	return nil
}
