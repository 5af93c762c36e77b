package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"invoicing/internal/invoice"
	"invoicing/internal/logger"
	"invoicing/internal/report"
)

// ErrBadRequest marks malformed query parameters, path values and bodies.
var ErrBadRequest = errors.New("bad request")

// ErrorResponse is the JSON envelope of every failed request.
type ErrorResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Details   string            `json:"details"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// paramError describes one rejected request parameter.
type paramError struct {
	Param string
	Value string
	Err   error
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %v", e.Value, e.Param, e.Err)
}

func (e *paramError) Unwrap() error {
	return e.Err
}

func (e *paramError) Is(target error) bool {
	return target == ErrBadRequest
}

func badParam(param, value string, err error) error {
	return &paramError{Param: param, Value: value, Err: err}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, invoice.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, invoice.ErrDuplicateNumber):
		return http.StatusConflict
	case errors.Is(err, invoice.ErrValidation),
		errors.Is(err, invoice.ErrInvalidState),
		errors.Is(err, invoice.ErrInvalidTransition),
		errors.Is(err, report.ErrUnsupportedFormat),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(status int, err error) string {
	switch {
	case status == http.StatusNotFound:
		return "Resource not found"
	case status == http.StatusConflict:
		return "Duplicate invoice number"
	case errors.Is(err, invoice.ErrValidation):
		return "Validation failed"
	case errors.Is(err, invoice.ErrInvalidState), errors.Is(err, invoice.ErrInvalidTransition):
		return "Invalid invoice state"
	case status == http.StatusBadRequest:
		return "Bad request"
	default:
		return "Internal server error"
	}
}

// writeError renders err as an ErrorResponse. Server faults are logged with the
// cause and reported without internal details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{
		Timestamp: time.Now().UTC(),
		Message:   messageFor(status, err),
		Details:   err.Error(),
	}

	var verr *invoice.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = verr.Fields
	}

	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		resp.Details = "an unexpected error occurred"
	} else {
		log.Warn().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("Request rejected")
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
