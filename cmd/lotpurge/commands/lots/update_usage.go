package lots

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/pkg/lotman"
	"github.com/marmos91/lotpurge/pkg/purge"
	"github.com/marmos91/lotpurge/pkg/snapshot"
)

var updateUsageDelta bool

var updateUsageCmd = &cobra.Command{
	Use:   "update-usage <snapshot>",
	Short: "Attribute a usage snapshot to lots",
	Long: `Attribute the usage in a snapshot file to the lots governing each
directory, replacing the stored usage. Directories no lot governs are charged
to the default lot.

With --delta the snapshot sizes are added to the stored usage instead.

Examples:
  lotpurge lots update-usage /var/lib/lotpurge/usage.json`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdateUsage,
}

func init() {
	updateUsageCmd.Flags().BoolVar(&updateUsageDelta, "delta", false, "Add to stored usage instead of replacing it")
}

func runUpdateUsage(cmd *cobra.Command, args []string) error {
	snap, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}
	report := purge.BuildUsageReport(snap)

	return cmdutil.WithManager(func(ctx context.Context, m *lotman.Manager) error {
		if err := m.UpdateUsageByDir(ctx, report, updateUsageDelta); err != nil {
			return fmt.Errorf("failed to update usage: %w", err)
		}
		cmdutil.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Usage updated from %s (%d top-level directories)", args[0], len(report)))
		return nil
	})
}
