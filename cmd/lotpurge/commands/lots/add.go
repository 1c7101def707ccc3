package lots

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/internal/cli/output"
	"github.com/marmos91/lotpurge/internal/cli/timeutil"
	"github.com/marmos91/lotpurge/pkg/lotman"
)

var (
	addFile          string
	addOwner         string
	addParents       string
	addPaths         []string
	addRecursive     bool
	addDedicated     float64
	addOpportunistic float64
	addMaxObjects    int64
	addExpires       string
	addDeletes       string
)

var addCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a lot",
	Long: `Create a lot, or every lot listed in a YAML or JSON file.

A lot without --parent is a root lot. Deadlines accept an RFC3339 time or a
duration from now.

Examples:
  # Root lot governing one directory tree
  lotpurge lots add physics --owner alice --path /data/physics --recursive \
    --dedicated 500 --opportunistic 100

  # Child lot that expires in 30 days
  lotpurge lots add run42 --parent physics --path /data/physics/run42 \
    --dedicated 10 --expires 720h

  # Load lots from a file, parents first
  lotpurge lots add -f lots.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addFile, "file", "f", "", "YAML or JSON file holding a list of lots")
	addCmd.Flags().StringVar(&addOwner, "owner", "", "Lot owner")
	addCmd.Flags().StringVar(&addParents, "parent", "", "Comma-separated parent lots (default: root lot)")
	addCmd.Flags().StringArrayVar(&addPaths, "path", nil, "Governed directory (repeatable)")
	addCmd.Flags().BoolVar(&addRecursive, "recursive", false, "Paths also govern their subdirectories")
	addCmd.Flags().Float64Var(&addDedicated, "dedicated", 0, "Dedicated allotment in GB")
	addCmd.Flags().Float64Var(&addOpportunistic, "opportunistic", 0, "Opportunistic allotment in GB")
	addCmd.Flags().Int64Var(&addMaxObjects, "max-objects", 0, "Maximum number of objects (0: unlimited)")
	addCmd.Flags().StringVar(&addExpires, "expires", "", "Expiration time (RFC3339 or duration from now)")
	addCmd.Flags().StringVar(&addDeletes, "deletes", "", "Deletion time (RFC3339 or duration from now)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	var lots []*lotman.Lot
	var err error

	switch {
	case addFile != "" && len(args) > 0:
		return fmt.Errorf("give either a lot name or --file, not both")
	case addFile != "":
		lots, err = readLotFile(addFile)
	case len(args) == 1:
		var lot *lotman.Lot
		lot, err = lotFromFlags(args[0], time.Now())
		lots = []*lotman.Lot{lot}
	default:
		return fmt.Errorf("a lot name or --file is required")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return cmdutil.WithManager(func(ctx context.Context, m *lotman.Manager) error {
		for _, lot := range lots {
			if err := m.AddLot(ctx, lot); err != nil {
				return fmt.Errorf("failed to add lot %q: %w", lot.Name, err)
			}
			cmdutil.PrintSuccess(out, fmt.Sprintf("Lot '%s' created", lot.Name))
		}

		if format, _ := cmdutil.GetOutputFormat(); format == output.FormatTable {
			return nil
		}
		created := make([]*lotman.Lot, 0, len(lots))
		for _, lot := range lots {
			l, err := m.GetLot(ctx, lot.Name)
			if err != nil {
				return err
			}
			created = append(created, l)
		}
		return cmdutil.PrintOutput(out, created, false, "", LotList(created))
	})
}

func lotFromFlags(name string, now time.Time) (*lotman.Lot, error) {
	expires, err := timeutil.ParseDeadline(addExpires, now)
	if err != nil {
		return nil, fmt.Errorf("--expires: %w", err)
	}
	deletes, err := timeutil.ParseDeadline(addDeletes, now)
	if err != nil {
		return nil, fmt.Errorf("--deletes: %w", err)
	}

	lot := &lotman.Lot{
		Name:    name,
		Owner:   addOwner,
		Parents: cmdutil.ParseCommaSeparatedList(addParents),
		MPA: lotman.ManagementPolicyAttrs{
			DedicatedGB:     addDedicated,
			OpportunisticGB: addOpportunistic,
			MaxNumObjects:   addMaxObjects,
			ExpirationTime:  expires,
			DeletionTime:    deletes,
		},
	}
	for _, p := range addPaths {
		lot.Paths = append(lot.Paths, lotman.LotPath{Path: p, Recursive: addRecursive})
	}
	return lot, nil
}

// readLotFile decodes a list of lots. JSON is accepted as YAML.
func readLotFile(path string) ([]*lotman.Lot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var lots []*lotman.Lot
	if err := yaml.Unmarshal(data, &lots); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(lots) == 0 {
		return nil, fmt.Errorf("%s holds no lots", path)
	}
	return lots, nil
}
