package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/marmos91/lotpurge/pkg/api/handlers"
	"github.com/marmos91/lotpurge/pkg/purge"
)

// LastPlan returns the result of the last cycle the service ran.
func (c *Client) LastPlan() (*purge.Result, error) {
	return getResource[purge.Result](c, "/api/v1/plan")
}

// RunCycle asks the service to run a cycle now. An undetermined cycle is
// returned together with an *APIError whose IsUnavailable is true.
func (c *Client) RunCycle() (*purge.Result, error) {
	status, body, err := c.send(http.MethodPost, "/api/v1/plan/run", nil)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		var res purge.Result
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &res, nil
	case http.StatusServiceUnavailable:
		var res purge.Result
		if json.Unmarshal(body, &res) == nil && res.CycleID != "" {
			return &res, &APIError{StatusCode: status, Title: "Service Unavailable", Detail: res.Error}
		}
	}
	return nil, newAPIError(status, body)
}

// PlanConfig returns the planner's active parameters.
func (c *Client) PlanConfig() (*handlers.PlannerConfigResponse, error) {
	return getResource[handlers.PlannerConfigResponse](c, "/api/v1/plan/config")
}

// Configure replaces the planner's purge parameters.
func (c *Client) Configure(params string) (*handlers.PlannerConfigResponse, error) {
	return updateResource[handlers.PlannerConfigResponse](c, "/api/v1/plan/config", handlers.ConfigureRequest{Params: params})
}
