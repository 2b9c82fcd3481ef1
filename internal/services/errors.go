package services

import (
	"errors"
	"fmt"
)

// ErrTimeout marks a generation call that ran past its deadline.
var ErrTimeout = errors.New("text generation timed out")

// TransportError covers everything that goes wrong before a response body can
// be trusted: dial failures, deadlines and non-2xx statuses.
type TransportError struct {
	StatusCode int
	Status     string
	Body       string
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return "transport error: request timed out"
	case e.StatusCode != 0:
		return fmt.Sprintf("transport error: %s", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("transport error: %v", e.Err)
	default:
		return "transport error"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	return target == ErrTimeout && e.Timeout
}

// PayloadFormatError means the service answered successfully but the body
// did not have the candidates[0].content.parts[0].text shape.
type PayloadFormatError struct {
	Reason string
}

func (e *PayloadFormatError) Error() string {
	return "invalid response format: " + e.Reason
}

// ChatErrorKind classifies a generation error for logs and metrics.
func ChatErrorKind(err error) string {
	var transportErr *TransportError
	var payloadErr *PayloadFormatError

	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &payloadErr):
		return "payload"
	default:
		return "unknown"
	}
}

// Service errors mapped to HTTP statuses by the handlers.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }
