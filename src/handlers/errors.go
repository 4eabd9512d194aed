package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"finboard-server/src/finance"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

// writeError maps a service error to its HTTP status. Internal details are
// logged by the caller, not returned.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, finance.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated", Code: "unauthenticated"})
	case errors.Is(err, finance.ErrInvalidCursor):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cursor, restart from the first page", Code: "invalid_cursor"})
	case errors.Is(err, finance.ErrInvalidScope):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid identifier", Code: "invalid_scope"})
	case errors.Is(err, finance.ErrAccountNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "account not found", Code: "account_not_found"})
	case errors.Is(err, finance.ErrPartialJoin):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "some accounts could not be loaded", Code: "partial_join", Retryable: true})
	case errors.Is(err, finance.ErrStoreQuery):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "record store unavailable", Code: "store_unavailable", Retryable: true})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
