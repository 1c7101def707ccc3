package lots

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/internal/cli/output"
	"github.com/marmos91/lotpurge/pkg/lotman"
)

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show one lot",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	return cmdutil.WithManager(func(ctx context.Context, m *lotman.Manager) error {
		lot, err := m.GetLot(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get lot %q: %w", args[0], err)
		}

		p, err := cmdutil.NewPrinter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if p.Format() == output.FormatTable {
			return p.Print(LotDetail{lot})
		}
		return p.Print(lot)
	})
}
