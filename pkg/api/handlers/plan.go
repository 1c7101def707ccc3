package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/marmos91/lotpurge/pkg/purge"
)

// PlanSource is the planner state exposed over the API.
type PlanSource interface {
	LastResult() *purge.Result
	PinConfig() *purge.PinConfig
	Policies() []purge.Policy
	Watermarks() purge.Watermarks
	Configure(ctx context.Context, params string) error
}

var _ PlanSource = (*purge.Planner)(nil)

// CycleRunner runs one cycle on demand, loading the current snapshot.
type CycleRunner func(ctx context.Context) (*purge.Result, error)

// PlanHandler handles purge plan endpoints.
type PlanHandler struct {
	planner PlanSource
	run     CycleRunner
}

// NewPlanHandler creates a PlanHandler. run may be nil, in which case
// on-demand cycles are refused.
func NewPlanHandler(planner PlanSource, run CycleRunner) *PlanHandler {
	return &PlanHandler{planner: planner, run: run}
}

// PlannerConfigResponse is the response for GET /api/v1/plan/config.
type PlannerConfigResponse struct {
	LotHome    string           `json:"lot_home,omitempty"`
	Policies   []purge.Policy   `json:"policies"`
	Watermarks purge.Watermarks `json:"watermarks"`
}

// ConfigureRequest is the request body for PUT /api/v1/plan/config.
type ConfigureRequest struct {
	Params string `json:"params"`
}

// Last handles GET /api/v1/plan.
func (h *PlanHandler) Last(w http.ResponseWriter, r *http.Request) {
	last := h.planner.LastResult()
	if last == nil {
		NotFound(w, "No purge cycle has run yet")
		return
	}
	WriteJSONOK(w, last)
}

// Run handles POST /api/v1/plan/run.
//
// An undetermined cycle is still returned, with status 503, so callers can
// tell "nothing to do" from "could not decide".
func (h *PlanHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.run == nil {
		ServiceUnavailable(w, "On-demand cycles are disabled")
		return
	}

	res, err := h.run(r.Context())
	switch {
	case err == nil:
		WriteJSONOK(w, res)
	case errors.Is(err, purge.ErrUndetermined) && res != nil:
		WriteJSON(w, http.StatusServiceUnavailable, res)
	default:
		InternalServerError(w, err.Error())
	}
}

// Config handles GET /api/v1/plan/config.
func (h *PlanHandler) Config(w http.ResponseWriter, r *http.Request) {
	resp := PlannerConfigResponse{
		Policies:   h.planner.Policies(),
		Watermarks: h.planner.Watermarks(),
	}
	if pin := h.planner.PinConfig(); pin != nil {
		resp.LotHome = pin.LotHome
	}
	WriteJSONOK(w, resp)
}

// Configure handles PUT /api/v1/plan/config.
func (h *PlanHandler) Configure(w http.ResponseWriter, r *http.Request) {
	var req ConfigureRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.planner.Configure(r.Context(), req.Params); err != nil {
		switch {
		case errors.Is(err, purge.ErrInvalidParams),
			errors.Is(err, purge.ErrInvalidLotHome),
			errors.Is(err, purge.ErrUnknownPolicy),
			errors.Is(err, purge.ErrDuplicatePolicy):
			UnprocessableEntity(w, err.Error())
		default:
			InternalServerError(w, "Failed to configure planner")
		}
		return
	}

	h.Config(w, r)
}
