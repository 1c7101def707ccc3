package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// writeLotError maps authority errors to problem responses.
func writeLotError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, lotman.ErrLotNotFound):
		NotFound(w, "Lot not found")
	case errors.Is(err, lotman.ErrDuplicateLot):
		Conflict(w, err.Error())
	case errors.Is(err, lotman.ErrLotInUse):
		Conflict(w, err.Error())
	case errors.Is(err, lotman.ErrInvalidLot),
		errors.Is(err, lotman.ErrParentMissing),
		errors.Is(err, lotman.ErrInvalidQuery):
		UnprocessableEntity(w, err.Error())
	default:
		InternalServerError(w, fallback)
	}
}
