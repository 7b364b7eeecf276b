package inference

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoToken is returned when the client has no credential to send.
var ErrNoToken = errors.New("HF_TOKEN not configured")

// LoadingError means the upstream model is not loaded yet (HTTP 503).
// Callers should wait and retry; the client never retries on its own.
type LoadingError struct {
	// EstimatedTime is the upstream's own guess, zero if it gave none.
	EstimatedTime time.Duration
	Body          string
}

func (e *LoadingError) Error() string {
	if e.EstimatedTime > 0 {
		return fmt.Sprintf("model is loading, estimated time %s", e.EstimatedTime)
	}
	return "model is loading"
}

// StatusError is any other non-200 answer from the upstream.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Body)
}

// TransportError wraps failures where no complete response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inference request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
