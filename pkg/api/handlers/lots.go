package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

// LotHandler handles lot management endpoints.
type LotHandler struct {
	lots *lotman.Manager
}

// NewLotHandler creates a new LotHandler.
func NewLotHandler(lots *lotman.Manager) *LotHandler {
	return &LotHandler{lots: lots}
}

// LotUsageResponse is the response for GET /api/v1/lots/{name}/usage.
type LotUsageResponse struct {
	lotman.Usage

	Lot    string  `json:"lot_name"`
	SelfGB float64 `json:"self_GB"`
}

// PastResponse is the response for GET /api/v1/lots/past/{listing}.
type PastResponse struct {
	Listing string   `json:"listing"`
	Lots    []string `json:"lots"`
}

// List handles GET /api/v1/lots.
func (h *LotHandler) List(w http.ResponseWriter, r *http.Request) {
	lots, err := h.lots.ListLots(r.Context())
	if err != nil {
		writeLotError(w, err, "Failed to list lots")
		return
	}
	if lots == nil {
		lots = []*lotman.Lot{}
	}
	WriteJSONOK(w, lots)
}

// Create handles POST /api/v1/lots.
func (h *LotHandler) Create(w http.ResponseWriter, r *http.Request) {
	var lot lotman.Lot
	if !decodeJSONBody(w, r, &lot) {
		return
	}

	if err := h.lots.AddLot(r.Context(), &lot); err != nil {
		writeLotError(w, err, "Failed to create lot")
		return
	}

	created, err := h.lots.GetLot(r.Context(), lot.Name)
	if err != nil {
		writeLotError(w, err, "Failed to read created lot")
		return
	}
	WriteJSONCreated(w, created)
}

// Get handles GET /api/v1/lots/{name}.
func (h *LotHandler) Get(w http.ResponseWriter, r *http.Request) {
	lot, err := h.lots.GetLot(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeLotError(w, err, "Failed to get lot")
		return
	}
	WriteJSONOK(w, lot)
}

// Delete handles DELETE /api/v1/lots/{name}.
func (h *LotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.lots.RemoveLot(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeLotError(w, err, "Failed to remove lot")
		return
	}
	WriteNoContent(w)
}

// Usage handles GET /api/v1/lots/{name}/usage.
func (h *LotHandler) Usage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	lot, err := h.lots.GetLot(r.Context(), name)
	if err != nil {
		writeLotError(w, err, "Failed to get lot")
		return
	}

	usage, err := h.lots.GetUsage(r.Context(), lotman.UsageQuery{
		Lot:           name,
		Total:         true,
		Dedicated:     true,
		Opportunistic: true,
	})
	if err != nil {
		writeLotError(w, err, "Failed to compute usage")
		return
	}

	WriteJSONOK(w, LotUsageResponse{Lot: name, Usage: usage, SelfGB: lot.Usage.SelfGB})
}

// Dirs handles GET /api/v1/lots/{name}/dirs?recursive=true.
func (h *LotHandler) Dirs(w http.ResponseWriter, r *http.Request) {
	recursive, ok := boolQuery(w, r, "recursive")
	if !ok {
		return
	}

	dirs, err := h.lots.GetLotDirs(r.Context(), chi.URLParam(r, "name"), recursive)
	if err != nil {
		writeLotError(w, err, "Failed to list lot directories")
		return
	}
	if dirs == nil {
		dirs = []lotman.LotDir{}
	}
	WriteJSONOK(w, dirs)
}

// Past handles GET /api/v1/lots/past/{listing}?recursive=true.
func (h *LotHandler) Past(w http.ResponseWriter, r *http.Request) {
	past, err := lotman.ParsePast(chi.URLParam(r, "listing"))
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	recursive, ok := boolQuery(w, r, "recursive")
	if !ok {
		return
	}

	lots, err := h.lots.ListLotsPast(r.Context(), past, recursive)
	if err != nil {
		writeLotError(w, err, "Failed to list lots")
		return
	}
	if lots == nil {
		lots = []string{}
	}
	WriteJSONOK(w, PastResponse{Listing: past.String(), Lots: lots})
}

// boolQuery reads an optional boolean query parameter, writing a 400 on
// malformed values.
func boolQuery(w http.ResponseWriter, r *http.Request, key string) (bool, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		BadRequest(w, "Invalid value for "+key)
		return false, false
	}
	return v, true
}
