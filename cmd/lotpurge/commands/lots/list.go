package lots

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/pkg/lotman"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List lots",
	Long: `List every lot in the configured database.

Examples:
  # List lots as table
  lotpurge lots list

  # List as JSON
  lotpurge lots list -o json`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	return cmdutil.WithManager(func(ctx context.Context, m *lotman.Manager) error {
		lots, err := m.ListLots(ctx)
		if err != nil {
			return fmt.Errorf("failed to list lots: %w", err)
		}
		return cmdutil.PrintOutput(cmd.OutOrStdout(), lots, len(lots) == 0, "No lots found.", LotList(lots))
	})
}
