package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/balhadj47/fleet-console/internal/domain"
)

// errorResponse is the JSON error envelope for every non-2xx response.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON serializes v with the given status. Encoding failures are
// ignored — the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorCode writes the error envelope with an explicit status/code.
func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// writeError maps domain sentinel errors onto HTTP statuses:
// 401 auth_required, 404 not_found, 409 conflict, 422 validation_error
// (vehicle exclusivity included), 500 otherwise.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		writeErrorCode(w, http.StatusUnauthorized, "auth_required", "authentication required")
	case errors.Is(err, domain.ErrNotFound):
		writeErrorCode(w, http.StatusNotFound, "not_found", unwrapMessage(err))
	case errors.Is(err, domain.ErrConflict):
		writeErrorCode(w, http.StatusConflict, "conflict", unwrapMessage(err))
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrVehicleUnavailable):
		writeErrorCode(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	default:
		writeErrorCode(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// unwrapMessage extracts the human-readable tail from a wrapped sentinel
// error, e.g. "store.Complete: validation error: end_km must be >= start_km"
// becomes "end_km must be >= start_km".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []string{
		domain.ErrValidation.Error() + ": ",
		domain.ErrVehicleUnavailable.Error() + ": ",
		domain.ErrConflict.Error() + ": ",
	} {
		if i := strings.Index(msg, sentinel); i >= 0 {
			return msg[i+len(sentinel):]
		}
	}
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
