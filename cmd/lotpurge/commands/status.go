package commands

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/lotpurge/cmd/lotpurge/cmdutil"
	"github.com/marmos91/lotpurge/internal/cli/output"
	"github.com/marmos91/lotpurge/internal/cli/timeutil"
	"github.com/marmos91/lotpurge/pkg/apiclient"
)

var (
	statusServer  string
	statusAPIPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show planner status",
	Long: `Display the status of a running lotpurge service.

This command calls the readiness endpoint and reports whether the lot store
answers, how many lots are registered and the outcome of the last cycle.

Examples:
  # Check the local service
  lotpurge status

  # Check a remote service
  lotpurge status --server http://planner.example.com:8080

  # Output as JSON
  lotpurge status -o json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusServer, "server", "", "Service URL (default: http://localhost:<api-port>)")
	statusCmd.Flags().IntVar(&statusAPIPort, "api-port", 8080, "API server port")
}

// ServiceStatus is what status prints.
type ServiceStatus struct {
	Running         bool      `json:"running" yaml:"running"`
	Healthy         bool      `json:"healthy" yaml:"healthy"`
	Message         string    `json:"message" yaml:"message"`
	Lots            int       `json:"lots" yaml:"lots"`
	StoreLatency    string    `json:"store_latency,omitempty" yaml:"store_latency,omitempty"`
	LastCycleID     string    `json:"last_cycle_id,omitempty" yaml:"last_cycle_id,omitempty"`
	LastCycleStatus string    `json:"last_cycle_status,omitempty" yaml:"last_cycle_status,omitempty"`
	CheckedAt       time.Time `json:"checked_at" yaml:"checked_at"`
}

// Pairs implements output.KeyValueRenderer.
func (s ServiceStatus) Pairs() [][2]string {
	state := "stopped"
	switch {
	case s.Running && s.Healthy:
		state = "running"
	case s.Running:
		state = "running (unhealthy)"
	}

	pairs := [][2]string{{"Status", state}}
	if s.Healthy {
		pairs = append(pairs,
			[2]string{"Lots", strconv.Itoa(s.Lots)},
			[2]string{"Store latency", s.StoreLatency},
			[2]string{"Last cycle", cmdutil.EmptyOr(s.LastCycleID, "-")},
			[2]string{"Last status", s.LastCycleStatus},
		)
	}
	return append(pairs,
		[2]string{"Checked", timeutil.FormatTime(s.CheckedAt)},
		[2]string{"Message", s.Message},
	)
}

func runStatus(cmd *cobra.Command, args []string) error {
	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	client := apiclient.NewWithHTTPClient(serverURL(statusServer, statusAPIPort), &http.Client{Timeout: 5 * time.Second})
	return printer.Print(checkReadiness(client))
}

// serverURL returns server, or the local API address when it is empty.
func serverURL(server string, port int) string {
	if server != "" {
		return server
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

func checkReadiness(client *apiclient.Client) ServiceStatus {
	status := ServiceStatus{Message: "Service is not running", CheckedAt: time.Now()}

	ready, err := client.Ready()
	if errors.Is(err, apiclient.ErrUnreachable) {
		return status
	}

	status.Running = true
	if err != nil {
		status.Message = "Service is running but health response invalid"
		return status
	}

	status.Healthy = ready.Healthy()
	if !status.Healthy {
		status.Message = "Service is running but unhealthy: " + ready.Error
		return status
	}

	status.Message = "Service is running and healthy"
	status.Lots = ready.Data.Lots
	status.StoreLatency = ready.Data.StoreLatency
	status.LastCycleID = ready.Data.LastCycleID
	status.LastCycleStatus = ready.Data.LastCycleStatus
	return status
}

var _ output.KeyValueRenderer = ServiceStatus{}
