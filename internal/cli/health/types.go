// Package health holds the client side of the server's health endpoints.
package health

import "time"

// ReadyResponse is the body of GET /health/ready.
type ReadyResponse struct {
	Status    string    `json:"status" yaml:"status"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Data      ReadyData `json:"data" yaml:"data"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// ReadyData carries the planner state reported by a healthy server.
type ReadyData struct {
	Lots            int    `json:"lots" yaml:"lots"`
	StoreLatency    string `json:"store_latency" yaml:"store_latency"`
	LastCycleID     string `json:"last_cycle_id,omitempty" yaml:"last_cycle_id,omitempty"`
	LastCycleStatus string `json:"last_cycle_status" yaml:"last_cycle_status"`
}

// Healthy reports whether the server answered ready.
func (r *ReadyResponse) Healthy() bool {
	return r.Status == "healthy"
}
