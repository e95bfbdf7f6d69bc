package persist

import "fmt"

// RateLimitError indicates the persistence service asked the client to
// slow down (HTTP 429). It is the only error the Coordinator retries.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rate limited: %v", e.Err)
	}
	return "rate limited"
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// PersistenceError is a terminal save failure. The session stays unsaved.
type PersistenceError struct {
	SessionID string
	Attempts  int
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save session %s failed after %d attempt(s): %v", e.SessionID, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
