package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pkordes/trip-logbook/internal/domain"
)

const (
	codeValidation   = "validation_error"
	codeNotFound     = "not_found"
	codeNoActiveTrip = "no_active_trip"
	codeEmptyHistory = "empty_history"
	codeTooLarge     = "request_too_large"
	codeInternal     = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v as the response body with the given status.
// Non-ASCII text is written as-is.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	//nolint:errcheck // the status line is already sent; nothing left to report to.
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeServiceError maps a service error onto the HTTP error contract.
// Unknown errors are logged and reported as a bare 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, codeValidation, domain.Message(err))
	case errors.Is(err, domain.ErrNoActiveTrip):
		writeError(w, http.StatusConflict, codeNoActiveTrip, domain.Message(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, domain.Message(err))
	case errors.Is(err, domain.ErrEmptyHistory):
		writeError(w, http.StatusNotFound, codeEmptyHistory, domain.Message(err))
	default:
		s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

// decodeBody decodes the JSON request body into dst, rejecting unknown
// fields and trailing data. Failures are written to w; ok is false then.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) (ok bool) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil && dec.More() {
		err = errors.New("request body must contain a single JSON value")
	}
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return false
	}
	writeError(w, http.StatusUnprocessableEntity, codeValidation, "invalid request body: "+err.Error())
	return false
}
