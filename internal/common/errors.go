package common

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound        = errors.New("requested resource not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden access")
	ErrBadRequest      = errors.New("bad request")
	ErrConflict        = errors.New("resource conflict") // e.g., username already exists
	ErrServer          = errors.New("server error")
	ErrUnexpected      = errors.New("unexpected response")
)

// APIError is a non-2xx response from the judge backend.
type APIError struct {
	Status int
	Detail string // server-supplied "detail" string, may be empty
	Err    error  // sentinel chosen from Status
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error %d: %v", e.Status, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError builds an APIError for a response status.
func NewAPIError(status int, detail string) *APIError {
	return &APIError{Status: status, Detail: detail, Err: SentinelForStatus(status)}
}

// SentinelForStatus maps an HTTP status code back to a domain error.
func SentinelForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthenticated
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrBadRequest
	case status >= 500:
		return ErrServer
	}
	return ErrUnexpected
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthenticated) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// IsUnauthenticated reports whether err came from a 401 response.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// Message returns the human-readable text for err: the server detail when
// the backend supplied one, otherwise fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
