// Package httpapi exposes the server's HTTP+JSON surface: account auth,
// keyring storage, record CRUD and attachment presigning.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes v as the raw response body. Encoding failures are
// ignored; the status line has already gone out.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, errorBody{Error: msg})
}

func badRequest(w http.ResponseWriter, msg string)    { writeError(w, http.StatusBadRequest, msg) }
func unauthorized(w http.ResponseWriter, msg string)  { writeError(w, http.StatusUnauthorized, msg) }
func notFound(w http.ResponseWriter, msg string)      { writeError(w, http.StatusNotFound, msg) }
func conflict(w http.ResponseWriter, msg string)      { writeError(w, http.StatusConflict, msg) }
func internalError(w http.ResponseWriter, msg string) { writeError(w, http.StatusInternalServerError, msg) }
