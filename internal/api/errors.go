package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches 404 responses from the service.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized matches 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCircuitOpen is returned without touching the network while the
	// client's circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// APIError is a structured error response from the runtime service.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("runtime API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("runtime API error %d: %s", e.StatusCode, e.Message)
}

// Is maps status codes onto the package sentinels so callers can use
// errors.Is without inspecting codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// retryable reports whether a response status is worth retrying.
func retryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}
