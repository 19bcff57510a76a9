package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//
//	{"error": "not_found", "message": "project not found with id abc123"}
//
// Validation errors add "field". In development, unexpected errors add
// "detail" with the internal error text.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/repository"
)

// maxBodyBytes caps request bodies. Projects and contractors are small.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`            // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`          // Human-readable description
	Field   string `json:"field,omitempty"`  // Offending input field, validation errors only
	Detail  string `json:"detail,omitempty"` // Internal error text, development only
}

// Responder writes errors. It carries the logger and whether internal error
// detail may be shown to clients.
type Responder struct {
	logger      *slog.Logger
	exposeError bool
}

// NewResponder creates a Responder. exposeError should only be true in
// development.
func NewResponder(logger *slog.Logger, exposeError bool) *Responder {
	return &Responder{logger: logger, exposeError: exposeError}
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body is written. Once Encode
// writes, the headers are sent and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// If encoding fails, the headers are already sent; we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// WriteError maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
// The service layer returns apperror values and never HTTP codes. This is the
// one place they are translated:
//
//	ErrUnauthenticated → 401    ErrValidation → 400
//	ErrForbidden       → 403    ErrNotFound   → 404
//	ErrConflict        → 409    anything else → 500
//
// errors.Is walks the whole chain, so a service wrapping the store's error
// with fmt.Errorf("...: %w", err) still maps correctly.
func (rs *Responder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError

	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{
				Error:   errorType,
				Message: appErr.Message,
				Field:   appErr.Field,
			})
			return
		}
	}

	// Unexpected error. The raw text may contain SQL or hostnames, so it is
	// only echoed back in development.
	rs.logger.Error("unexpected error",
		slog.String("request_id", chimw.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)

	resp := ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	}
	if rs.exposeError {
		resp.Detail = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

// decodeJSON reads a single JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", "request body is too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		default:
			return apperror.ValidationFailed("body", "request body must be valid JSON: "+err.Error())
		}
	}
	if dec.More() {
		return apperror.ValidationFailed("body", "request body must contain a single JSON object")
	}
	return nil
}

// listOptions reads ?limit= and ?offset=. Missing values are zero.
func listOptions(r *http.Request) (repository.ListOptions, error) {
	var opts repository.ListOptions
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &opts.Limit},
		{"offset", &opts.Offset},
	} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return opts, apperror.ValidationFailed(p.name, p.name+" must be an integer")
		}
		*p.dst = n
	}
	return opts, nil
}

// deleteAck is the body returned by successful DELETEs.
type deleteAck struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}
