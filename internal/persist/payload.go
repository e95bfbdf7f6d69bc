// Package persist saves finished sessions exactly once. Saves are
// debounced, coalesced and retried on rate limiting; a successful save also
// updates the local statistics mirror.
package persist

import (
	"context"
	"time"

	"github.com/abhisek/amcdrill/internal/grading"
	"github.com/abhisek/amcdrill/internal/logging"
)

// Payload is the snapshot of a finished session sent to the persistence
// service.
type Payload struct {
	SessionID         string                  `json:"session_id"`
	Score             int                     `json:"score"`
	Attempted         int                     `json:"attempted"`
	TotalTimeMs       int64                   `json:"totalTime"`
	Year              int                     `json:"year,omitempty"`
	Contest           string                  `json:"contest"`
	Mode              string                  `json:"mode"`
	CompletedAt       time.Time               `json:"completed_at"`
	ProblemsAttempted []grading.AttemptRecord `json:"problems_attempted"`
}

// Request asks the Coordinator to persist one session.
type Request struct {
	SessionID string
	User      string
	Payload   Payload
}

// Saver is the persistence collaborator.
type Saver interface {
	SaveSession(ctx context.Context, user string, p Payload) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, user string, p Payload) error

func (f SaverFunc) SaveSession(ctx context.Context, user string, p Payload) error {
	return f(ctx, user, p)
}

// Tee returns a Saver that saves to primary and then, best effort, to each
// of the others. Only the primary's error is returned.
func Tee(primary Saver, others ...Saver) Saver {
	return SaverFunc(func(ctx context.Context, user string, p Payload) error {
		if err := primary.SaveSession(ctx, user, p); err != nil {
			return err
		}
		for _, s := range others {
			if err := s.SaveSession(ctx, user, p); err != nil {
				logging.Warn("secondary save of session %s: %v", p.SessionID, err)
			}
		}
		return nil
	})
}
