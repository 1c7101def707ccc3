package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/internal/bytesize"
	"github.com/marmos91/lotpurge/internal/cli/output"
	"github.com/marmos91/lotpurge/internal/cli/timeutil"
	"github.com/marmos91/lotpurge/internal/logger"
	"github.com/marmos91/lotpurge/pkg/apiclient"
	"github.com/marmos91/lotpurge/pkg/purge"
	"github.com/marmos91/lotpurge/pkg/scheduler"
)

var (
	planParams string
	planHigh   string
	planLow    string
	planSave   string
	planServer string
	planLast   bool
)

var planCmd = &cobra.Command{
	Use:   "plan [snapshot]",
	Short: "Run one purge cycle and print the plan",
	Long: `Run a single purge cycle against a usage snapshot and print the result.

The snapshot defaults to purge.snapshot from the configuration. Lots are read
from the configured database, and their usage is refreshed from the snapshot
before planning.

The command exits with an error when the bytes to recover cannot be
determined (for example when no lot home is configured).

Examples:
  # Plan with the configured snapshot and parameters
  lotpurge plan

  # Plan a specific snapshot with explicit policies
  lotpurge plan /var/lib/lotpurge/usage.json --params "/var/cache/lots opp ded"

  # Override the watermarks and save the plan for an executor
  lotpurge plan --high 800Gi --low 600Gi --save /var/lib/lotpurge/plan.json

  # Print as JSON
  lotpurge plan -o json

  # Ask a running service to plan now, or show its last plan
  lotpurge plan --server http://localhost:8080
  lotpurge plan --server http://localhost:8080 --last`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planParams, "params", "", "Purge parameters '<lot_home> [del exp opp ded]' (default: purge.params)")
	planCmd.Flags().StringVar(&planHigh, "high", "", "High watermark, e.g. 1Ti (default: purge.high_watermark)")
	planCmd.Flags().StringVar(&planLow, "low", "", "Low watermark, e.g. 800Gi (default: purge.low_watermark)")
	planCmd.Flags().StringVar(&planSave, "save", "", "Write the plan to this file as JSON or YAML (default: purge.output)")
	planCmd.Flags().StringVar(&planServer, "server", "", "Run the cycle on a lotpurge service instead of locally")
	planCmd.Flags().BoolVar(&planLast, "last", false, "With --server, show the service's last plan instead of running a cycle")
}

func runPlan(cmd *cobra.Command, args []string) error {
	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if planServer != "" {
		return runRemotePlan(printer, apiclient.New(planServer), planLast)
	}
	if planLast {
		return fmt.Errorf("--last requires --server")
	}

	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}
	if planParams != "" {
		cfg.Purge.Params = planParams
	}
	if err := applyWatermarkFlags(cfg, planHigh, planLow); err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Purge.Snapshot = args[0]
	}
	if planSave != "" {
		cfg.Purge.Output = planSave
	}
	if cfg.Purge.Snapshot == "" {
		return fmt.Errorf("no snapshot given and purge.snapshot is not configured")
	}

	m, err := cmdutil.OpenManager(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			logger.Warn("Failed to close lot store", logger.Err(cerr))
		}
	}()

	ctx := context.Background()
	planner, err := newPlanner(ctx, cfg, m)
	if err != nil {
		return err
	}

	runner, err := scheduler.New(planner, scheduler.Config{
		SnapshotPath: cfg.Purge.Snapshot,
		OutputPath:   cfg.Purge.Output,
	})
	if err != nil {
		return err
	}

	res, planErr := runner.RunOnce(ctx)
	if res == nil {
		return planErr
	}

	if err := printResult(printer, res); err != nil {
		return err
	}
	return planErr
}

// runRemotePlan runs or fetches a plan on a running service. An
// undetermined cycle is printed before its error is returned.
func runRemotePlan(p *output.Printer, client *apiclient.Client, last bool) error {
	var res *purge.Result
	var err error
	if last {
		res, err = client.LastPlan()
	} else {
		res, err = client.RunCycle()
	}
	if res == nil {
		return err
	}

	if perr := printResult(p, res); perr != nil {
		return perr
	}
	return err
}

// printResult renders a cycle as a summary followed by the pass and
// directory tables, or encodes it whole for JSON and YAML.
func printResult(p *output.Printer, res *purge.Result) error {
	if p.Format() != output.FormatTable {
		return p.Print(res)
	}

	w := p.Writer()
	if err := output.PrintKeyValues(w, resultSummary(res)); err != nil {
		return err
	}

	if len(res.Passes) > 0 {
		_, _ = fmt.Fprintln(w)
		if err := output.PrintTable(w, passTable(res.Passes)); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintln(w)
	if len(res.Dirs) == 0 {
		p.Notice("Nothing to purge.")
		return nil
	}
	return output.PrintTable(w, dirTable(res.Dirs))
}

func resultSummary(res *purge.Result) [][2]string {
	pairs := [][2]string{
		{"Cycle", res.CycleID},
		{"Status", string(res.Status)},
		{"Total usage", bytesize.Format(res.TotalUsage)},
		{"High watermark", bytesize.Format(res.HighWatermark)},
		{"Low watermark", bytesize.Format(res.LowWatermark)},
		{"Bytes to recover", bytesize.Format(res.BytesToRecover)},
		{"Planned", bytesize.Format(res.Planned())},
		{"Unallocated", bytesize.Format(res.Unallocated)},
		{"Started", timeutil.FormatTime(res.StartedAt)},
		{"Duration", timeutil.FormatDuration(res.FinishedAt.Sub(res.StartedAt))},
	}
	if res.Error != "" {
		pairs = append(pairs, [2]string{"Error", res.Error})
	}
	return pairs
}

type passTable []purge.PassResult

func (t passTable) Headers() []string {
	return []string{"POLICY", "LOTS", "BYTES", "FAILED"}
}

func (t passTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, p := range t {
		rows = append(rows, []string{
			p.Policy.String(),
			strconv.Itoa(p.Lots),
			bytesize.Format(p.Bytes),
			cmdutil.BoolToYesNo(p.Failed),
		})
	}
	return rows
}

type dirTable []purge.DirPurge

func (t dirTable) Headers() []string {
	return []string{"PATH", "BYTES TO PURGE", "BYTES"}
}

func (t dirTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, d := range t {
		rows = append(rows, []string{d.Path, bytesize.Format(d.BytesToPurge), strconv.FormatInt(d.BytesToPurge, 10)})
	}
	return rows
}
