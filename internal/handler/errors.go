package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/meety/meety/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error":{...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// requestError answers a request rejected before reaching the service layer
// (e.g. malformed body or path parameter).
func requestError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, "validation_error", message)
}

// writeServiceError maps a service error onto the HTTP status table. notFound
// names what was being looked up, because only the handler knows that.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", notFound)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrInsufficientParticipants):
		writeError(w, http.StatusConflict, "insufficient_participants",
			"at least one participant needs both a location and an activity")
	case errors.Is(err, domain.ErrSessionClosed):
		writeError(w, http.StatusGone, "session_closed", "session has been closed")
	case errors.Is(err, domain.ErrStoreWriteFailed):
		s.logger.ErrorContext(r.Context(), "store write failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "store_write_failed", "could not save changes, please try again")
	default:
		s.logger.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// unwrapMessage extracts the human-readable part from a wrapped validation error.
// e.g. "service.SessionService.SetLocation: validation error: latitude out of range" → "latitude out of range"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	const marker = "validation error: "
	if i := strings.LastIndex(msg, marker); i >= 0 && len(msg) > i+len(marker) {
		return msg[i+len(marker):]
	}
	return msg
}
