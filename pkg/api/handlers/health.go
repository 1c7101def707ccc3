package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/lotpurge/pkg/purge"
)

// LotLister is the part of the lot authority the readiness probe needs.
type LotLister interface {
	ListAllLots(ctx context.Context) ([]string, error)
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	lots  LotLister
	plans PlanSource
}

// NewHealthHandler creates a new health handler. Either argument may be
// nil, in which case readiness reports unhealthy.
func NewHealthHandler(lots LotLister, plans PlanSource) *HealthHandler {
	return &HealthHandler{lots: lots, plans: plans}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "lotpurge",
	}))
}

// Readiness handles GET /health/ready.
//
// The planner is ready when the lot store answers. The last cycle status is
// reported but does not affect readiness: an undetermined cycle is retried
// on the next schedule tick.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.lots == nil || h.plans == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("planner not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	lots, err := h.lots.ListAllLots(ctx)
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("lot store unavailable: "+err.Error()))
		return
	}

	data := map[string]interface{}{
		"lots":          len(lots),
		"store_latency": time.Since(start).String(),
	}
	if last := h.plans.LastResult(); last != nil {
		data["last_cycle_id"] = last.CycleID
		data["last_cycle_status"] = last.Status
	} else {
		data["last_cycle_status"] = purge.Status("none")
	}

	WriteJSON(w, http.StatusOK, healthyResponse(data))
}
