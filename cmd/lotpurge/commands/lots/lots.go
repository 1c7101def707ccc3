// Package lots implements the lot management subcommands.
package lots

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/internal/cli/timeutil"
	"github.com/marmos91/lotpurge/pkg/lotman"
)

// Cmd is the lots subcommand.
var Cmd = &cobra.Command{
	Use:   "lots",
	Short: "Manage lots",
	Long: `Manage the lots stored in the configured database.

Lots are read directly from the database named in the configuration. With
the BadgerDB backend, stop the service before using these commands.

Subcommands:
  add           Create a lot
  list          List lots
  get           Show one lot
  remove        Remove a lot
  usage         Show a lot's usage including its descendants
  dirs          List the directories a lot governs
  past          List lots past a deadline or allotment
  update-usage  Attribute a usage snapshot to lots`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(removeCmd)
	Cmd.AddCommand(usageCmd)
	Cmd.AddCommand(dirsCmd)
	Cmd.AddCommand(pastCmd)
	Cmd.AddCommand(updateUsageCmd)
}

// LotList is a list of lots for table rendering.
type LotList []*lotman.Lot

// Headers implements TableRenderer.
func (ll LotList) Headers() []string {
	return []string{"NAME", "OWNER", "PARENTS", "PATHS", "DEDICATED GB", "OPPORTUNISTIC GB", "SELF GB", "EXPIRES", "DELETES"}
}

// Rows implements TableRenderer.
func (ll LotList) Rows() [][]string {
	rows := make([][]string, 0, len(ll))
	for _, l := range ll {
		rows = append(rows, []string{
			l.Name,
			cmdutil.EmptyOr(l.Owner, "-"),
			parentsOf(l),
			pathsOf(l),
			formatGB(l.MPA.DedicatedGB),
			formatGB(l.MPA.OpportunisticGB),
			formatGB(l.Usage.SelfGB),
			timeutil.FormatMillis(l.MPA.ExpirationTime),
			timeutil.FormatMillis(l.MPA.DeletionTime),
		})
	}
	return rows
}

// LotDetail renders a single lot as a key-value summary.
type LotDetail struct{ *lotman.Lot }

// Pairs implements output.KeyValueRenderer.
func (d LotDetail) Pairs() [][2]string {
	l := d.Lot
	return [][2]string{
		{"Name", l.Name},
		{"Owner", cmdutil.EmptyOr(l.Owner, "-")},
		{"Root", cmdutil.BoolToYesNo(l.IsRoot())},
		{"Parents", parentsOf(l)},
		{"Paths", pathsOf(l)},
		{"Dedicated", formatGB(l.MPA.DedicatedGB) + " GB"},
		{"Opportunistic", formatGB(l.MPA.OpportunisticGB) + " GB"},
		{"Max objects", maxObjects(l.MPA.MaxNumObjects)},
		{"Created", timeutil.FormatMillis(l.MPA.CreationTime)},
		{"Expires", timeutil.FormatMillis(l.MPA.ExpirationTime)},
		{"Deletes", timeutil.FormatMillis(l.MPA.DeletionTime)},
		{"Self usage", formatGB(l.Usage.SelfGB) + " GB"},
		{"Usage updated", timeutil.FormatMillis(l.Usage.UpdatedAt)},
	}
}

func parentsOf(l *lotman.Lot) string {
	if l.IsRoot() {
		return "-"
	}
	var parents []string
	for _, p := range l.Parents {
		if p != l.Name {
			parents = append(parents, p)
		}
	}
	return strings.Join(parents, ",")
}

func pathsOf(l *lotman.Lot) string {
	if len(l.Paths) == 0 {
		return "-"
	}
	paths := make([]string, 0, len(l.Paths))
	for _, p := range l.Paths {
		if p.Recursive {
			paths = append(paths, p.Path+" (r)")
		} else {
			paths = append(paths, p.Path)
		}
	}
	return strings.Join(paths, ",")
}

func formatGB(gb float64) string {
	return strconv.FormatFloat(gb, 'f', -1, 64)
}

func maxObjects(n int64) string {
	if n == 0 {
		return "unlimited"
	}
	return strconv.FormatInt(n, 10)
}
