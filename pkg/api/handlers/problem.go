// Package handlers provides the HTTP handlers of the lotpurge API.
package handlers

import (
	"net/http"
)

// ContentTypeProblemJSON is the media type of error bodies.
const ContentTypeProblemJSON = "application/problem+json"

// Problem is an RFC 7807 error body. Title is always the status text, so
// clients can match on Status and show Detail.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	writeBody(w, status, Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

func BadRequest(w http.ResponseWriter, detail string)          { writeProblem(w, http.StatusBadRequest, detail) }
func NotFound(w http.ResponseWriter, detail string)            { writeProblem(w, http.StatusNotFound, detail) }
func Conflict(w http.ResponseWriter, detail string)            { writeProblem(w, http.StatusConflict, detail) }
func UnprocessableEntity(w http.ResponseWriter, detail string) { writeProblem(w, http.StatusUnprocessableEntity, detail) }
func InternalServerError(w http.ResponseWriter, detail string) { writeProblem(w, http.StatusInternalServerError, detail) }
func ServiceUnavailable(w http.ResponseWriter, detail string)  { writeProblem(w, http.StatusServiceUnavailable, detail) }

// WriteJSON writes data as an application/json body.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	writeBody(w, status, data)
}

func WriteJSONOK(w http.ResponseWriter, data any)      { WriteJSON(w, http.StatusOK, data) }
func WriteJSONCreated(w http.ResponseWriter, data any) { WriteJSON(w, http.StatusCreated, data) }
func WriteNoContent(w http.ResponseWriter)             { w.WriteHeader(http.StatusNoContent) }
