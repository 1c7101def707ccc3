package lots

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/internal/cli/output"
	"github.com/marmos91/lotpurge/pkg/lotman"
)

var pastRecursive bool

var pastCmd = &cobra.Command{
	Use:   "past <deletion|expiration|opportunistic|dedicated>",
	Short: "List lots past a deadline or allotment",
	Long: `List the lots a purge policy would select.

  deletion       deletion time has passed
  expiration     expiration time has passed
  opportunistic  usage exceeds dedicated plus opportunistic allotments
  dedicated      usage exceeds the dedicated allotment

With --recursive, the descendants of every listed lot are included.

Examples:
  lotpurge lots past expiration
  lotpurge lots past dedicated --recursive -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runPast,
}

func init() {
	pastCmd.Flags().BoolVarP(&pastRecursive, "recursive", "r", false, "Include descendants of listed lots")
}

func runPast(cmd *cobra.Command, args []string) error {
	past, err := lotman.ParsePast(args[0])
	if err != nil {
		return err
	}

	return cmdutil.WithManager(func(ctx context.Context, m *lotman.Manager) error {
		names, err := m.ListLotsPast(ctx, past, pastRecursive)
		if err != nil {
			return fmt.Errorf("failed to list lots past %s: %w", past, err)
		}

		table := output.NewTableData("Lot")
		for _, n := range names {
			table.AddRow(n)
		}
		return cmdutil.PrintOutput(cmd.OutOrStdout(), names, len(names) == 0,
			fmt.Sprintf("No lots past %s.", past), table)
	})
}
