package session

import (
	"github.com/abhisek/amcdrill/internal/content"
	"github.com/abhisek/amcdrill/internal/grading"
)

// Outcome is the result of an Advance call.
type Outcome int

const (
	// OutcomeIgnored means the call was dropped: the session was not
	// active, a fetch was in flight or the previous one was too recent.
	OutcomeIgnored Outcome = iota
	// OutcomeAdvanced means the next problem is now current.
	OutcomeAdvanced
	// OutcomeCompleted means the session reached its end.
	OutcomeCompleted
	// OutcomeFailed means the fetch failed; see the returned *FetchError.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeAdvanced:
		return "advanced"
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// EventKind identifies a controller event.
type EventKind int

const (
	EventProblem EventKind = iota
	EventGraded
	EventComplete
	EventSaved
	EventSaveFailed
	EventFetchFailed
)

func (k EventKind) String() string {
	switch k {
	case EventProblem:
		return "problem"
	case EventGraded:
		return "graded"
	case EventComplete:
		return "complete"
	case EventSaved:
		return "saved"
	case EventSaveFailed:
		return "save-failed"
	case EventFetchFailed:
		return "fetch-failed"
	}
	return "unknown"
}

// Event notifies listeners of a transition, including ones driven by
// timers or the persistence worker rather than by a caller.
type Event struct {
	Kind    EventKind
	State   State
	Problem *content.Problem      // EventProblem
	Attempt grading.AttemptRecord // EventGraded
	Err     error                 // EventSaveFailed, EventFetchFailed
}

// Action names a destructive operation that needs confirmation.
type Action string

const (
	ActionRestart Action = "restart"
	ActionQuit    Action = "quit"
)

// Confirmer asks the learner to confirm a destructive action.
type Confirmer interface {
	Confirm(a Action) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(a Action) bool

func (f ConfirmFunc) Confirm(a Action) bool { return f(a) }

// AlwaysConfirm is used when the caller has already asked.
var AlwaysConfirm Confirmer = ConfirmFunc(func(Action) bool { return true })
