package engine

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when the retry budget is exhausted or a single request
// times out at the transport layer.
var ErrTimeout = errors.New("request timed out")

// ConfigurationError reports a client that cannot build a valid request.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// TransportError wraps a non-timeout failure of the HTTP transport.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Body)
}

// QuotaExceededError is a 429 response surfaced to the caller.
type QuotaExceededError struct {
	APIError
}

func (e *QuotaExceededError) Error() string {
	return "quota exceeded: " + e.APIError.Error()
}

// retriableError marks a response that sends the loop into another attempt.
type retriableError struct {
	statusCode int
}

func (e *retriableError) Error() string {
	return fmt.Sprintf("retriable status %d", e.statusCode)
}

// StatusCode extracts the HTTP status from an APIError or QuotaExceededError.
func StatusCode(err error) (int, bool) {
	var quota *QuotaExceededError
	if errors.As(err, &quota) {
		return quota.StatusCode, true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}
