package lots

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/pkg/lotman"
)

var dirsRecursive bool

var dirsCmd = &cobra.Command{
	Use:   "dirs <name>",
	Short: "List the directories a lot governs",
	Args:  cobra.ExactArgs(1),
	RunE:  runDirs,
}

func init() {
	dirsCmd.Flags().BoolVarP(&dirsRecursive, "recursive", "r", false, "Include the directories of descendant lots")
}

// DirList is a list of lot directories for table rendering.
type DirList []lotman.LotDir

// Headers implements TableRenderer.
func (dl DirList) Headers() []string {
	return []string{"PATH", "LOT", "RECURSIVE"}
}

// Rows implements TableRenderer.
func (dl DirList) Rows() [][]string {
	rows := make([][]string, 0, len(dl))
	for _, d := range dl {
		rows = append(rows, []string{d.Path, d.Lot, cmdutil.BoolToYesNo(d.Recursive)})
	}
	return rows
}

func runDirs(cmd *cobra.Command, args []string) error {
	return cmdutil.WithManager(func(ctx context.Context, m *lotman.Manager) error {
		dirs, err := m.GetLotDirs(ctx, args[0], dirsRecursive)
		if err != nil {
			return fmt.Errorf("failed to list directories of %q: %w", args[0], err)
		}
		return cmdutil.PrintOutput(cmd.OutOrStdout(), dirs, len(dirs) == 0, "No directories.", DirList(dirs))
	})
}
