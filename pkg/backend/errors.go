package backend

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL       = errors.New("backend: invalid base URL")
	ErrUnexpectedStatus = errors.New("backend: unexpected response status")
	ErrDecodeResponse   = errors.New("backend: failed to decode response")
	ErrRequestFailed    = errors.New("backend: request failed")
)

// APIError describes a non-2xx response. It matches ErrUnexpectedStatus.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend: status %d: %s: %s", e.Status, e.Code, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend: status %d", e.Status)
}

func (e *APIError) Unwrap() error { return ErrUnexpectedStatus }

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
