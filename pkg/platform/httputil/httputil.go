// Package httputil provides JSON request/response helpers shared by all
// HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "urbanclear/pkg/domain-errors"
)

// errorResponse is the wire shape for all error bodies.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to an HTTP status and JSON error body.
// Internal errors omit the description so implementation details never
// reach clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorResponse{Error: string(code)}
	var domainErr *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &domainErr) {
		body.Description = domainErr.Message
	}
	WriteJSON(w, statusFor(code), body)
}

// Decode parses the request body into T, writing a 400 response on failure.
// The second return value reports whether decoding succeeded.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON request body"))
		return v, false
	}
	return v, true
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
