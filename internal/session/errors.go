package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfirmed is returned when the learner declines a restart.
	ErrNotConfirmed = errors.New("session: not confirmed")

	// ErrSuperseded is returned by Start when a quit or another start
	// replaced the session while it was initializing.
	ErrSuperseded = errors.New("session: superseded")

	// ErrNotRunning is returned by Finish when there is no session.
	ErrNotRunning = errors.New("session: not running")
)

// InitializationError is returned when a session cannot start: the
// configuration is invalid or the first call to the content service
// failed. The controller stays Idle.
type InitializationError struct {
	Reason string
	Err    error
}

func (e *InitializationError) Error() string {
	if e.Err == nil {
		return "start session: " + e.Reason
	}
	return fmt.Sprintf("start session: %s: %v", e.Reason, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// FetchError is returned by Advance when the next problem could not be
// loaded for a reason other than the end of the set. The session remains
// active so the call can be retried.
type FetchError struct {
	SessionID string
	Index     int // ordinal that was being fetched
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch problem %d of session %s: %v", e.Index, e.SessionID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
