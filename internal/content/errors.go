package content

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNoMoreProblems signals that the session's problem set is exhausted.
	ErrNoMoreProblems = errors.New("end of problem set reached")

	// ErrNotFound is returned when a problem id does not exist.
	ErrNotFound = errors.New("problem not found")

	// ErrUnauthorized is returned when the service rejects the bearer token.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is a non-2xx response that has no more specific mapping.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
}

// InvalidPayloadError indicates the service returned data that does not
// conform to the expected schema.
type InvalidPayloadError struct {
	Op      string
	Content json.RawMessage
	Err     error
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("%s: invalid payload: %v", e.Op, e.Err)
}

func (e *InvalidPayloadError) Unwrap() error { return e.Err }
