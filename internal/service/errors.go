package service

import (
	"errors"
	"net/http"
)

// DefaultErrorDetail is used when neither the server nor the transport
// supplied a message.
const DefaultErrorDetail = "An unexpected error occurred"

// APIError is the single normalized error shape for backend calls.
// Status is 0 when no response was received.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return DefaultErrorDetail
	}
	return e.Detail
}

// NewAPIError builds an APIError, preferring the server detail over the
// transport message.
func NewAPIError(status int, serverDetail, transportMsg string) *APIError {
	detail := serverDetail
	if detail == "" {
		detail = transportMsg
	}
	if detail == "" {
		detail = DefaultErrorDetail
	}
	return &APIError{Status: status, Detail: detail}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsTransport reports whether err carries no HTTP response.
func IsTransport(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 0
}
