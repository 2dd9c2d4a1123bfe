package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

func newRequestID() string { return "req_" + uuid.NewString() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type errorBody struct {
	RequestID string    `json:"request_id"`
	Error     errorInfo `json:"error"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorBody{
		RequestID: requestID(r.Context()),
		Error:     errorInfo{Code: code, Message: message},
	})
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrUnresolvedIdentity):
		writeError(w, r, http.StatusUnauthorized, "unresolved_identity", "no role could be resolved for this account")
	case errors.Is(err, models.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", "record not found")
	case errors.Is(err, models.ErrStaleWrite):
		writeError(w, r, http.StatusConflict, "stale_write", "the record changed; re-fetch and retry")
	case errors.Is(err, models.ErrInvalidStateTransition):
		writeError(w, r, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, models.ErrInvalidPayload):
		writeError(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
	case errors.Is(err, models.ErrUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "unavailable", "store unavailable")
	default:
		slog.ErrorContext(r.Context(), "internal server error", "error", err, "request_id", requestID(r.Context()))
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
	}
}
