package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"burnscope/internal/chart"
	"burnscope/internal/log"
	"burnscope/internal/services"
)

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Status: status})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnknownEvent),
		errors.Is(err, services.ErrInvalidPayload),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, chart.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail logs server-side failures and writes the JSON error body. Client
// errors carry their message; server errors are reported generically.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldOperation, op, log.FieldError, err)
		writeError(w, status, http.StatusText(status))
		return
	}
	logger.DebugContext(r.Context(), "Rejected request", log.FieldOperation, op, log.FieldError, err)
	writeError(w, status, err.Error())
}
