package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/marmos91/lotpurge/internal/cli/health"
)

// Ready calls the readiness probe. An unhealthy service answers 503 with
// a regular body, which is decoded rather than reported as an error.
func (c *Client) Ready() (*health.ReadyResponse, error) {
	status, body, err := c.send(http.MethodGet, "/health/ready", nil)
	if err != nil {
		return nil, err
	}

	var ready health.ReadyResponse
	if err := json.Unmarshal(body, &ready); err != nil {
		if status >= 400 {
			return nil, newAPIError(status, body)
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &ready, nil
}
