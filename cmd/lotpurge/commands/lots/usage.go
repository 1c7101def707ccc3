package lots

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/pkg/lotman"
)

var usageCmd = &cobra.Command{
	Use:   "usage <name>",
	Short: "Show a lot's usage",
	Long: `Show a lot's usage in GB, including its descendants.

Dedicated usage is the part of the total covered by the dedicated allotment;
opportunistic usage is what exceeds it, capped at the opportunistic
allotment.`,
	Args: cobra.ExactArgs(1),
	RunE: runUsage,
}

// UsageReport is what usage prints.
type UsageReport struct {
	lotman.Usage `yaml:",inline"`

	Lot    string  `json:"lot_name" yaml:"lot_name"`
	SelfGB float64 `json:"self_GB" yaml:"self_GB"`
}

// Pairs implements output.KeyValueRenderer.
func (u UsageReport) Pairs() [][2]string {
	return [][2]string{
		{"Lot", u.Lot},
		{"Total", formatGB(u.TotalGB) + " GB"},
		{"Dedicated", formatGB(u.DedicatedGB) + " GB"},
		{"Opportunistic", formatGB(u.OpportunisticGB) + " GB"},
		{"Self", formatGB(u.SelfGB) + " GB"},
	}
}

func runUsage(cmd *cobra.Command, args []string) error {
	name := args[0]
	return cmdutil.WithManager(func(ctx context.Context, m *lotman.Manager) error {
		lot, err := m.GetLot(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get lot %q: %w", name, err)
		}
		usage, err := m.GetUsage(ctx, lotman.UsageQuery{Lot: name, Total: true, Dedicated: true, Opportunistic: true})
		if err != nil {
			return fmt.Errorf("failed to compute usage: %w", err)
		}

		p, err := cmdutil.NewPrinter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return p.Print(UsageReport{Lot: name, Usage: usage, SelfGB: lot.Usage.SelfGB})
	})
}
