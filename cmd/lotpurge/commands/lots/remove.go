package lots

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/pkg/lotman"
)

var removeForce bool

var removeCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a lot",
	Long: `Remove a lot from the database.

A lot that is still the parent of other lots cannot be removed. You will be
prompted for confirmation unless --force is specified.

Examples:
  # Remove with confirmation
  lotpurge lots remove run42

  # Remove without confirmation
  lotpurge lots remove run42 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Skip confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	return cmdutil.WithManager(func(ctx context.Context, m *lotman.Manager) error {
		return cmdutil.RunRemoveWithConfirmation(cmd.OutOrStdout(), "Lot", name, removeForce, func() error {
			if err := m.RemoveLot(ctx, name); err != nil {
				return fmt.Errorf("failed to remove lot: %w", err)
			}
			return nil
		})
	})
}
