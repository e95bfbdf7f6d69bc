// Package content talks to the remote problem service: it opens practice
// sessions, serves problems in session order and looks problems up by id.
package content

import (
	"context"
	"fmt"
	"strings"
)

// Problem is a single multiple-choice problem as served to a session.
type Problem struct {
	ID            string
	Number        int
	Statement     string
	Choices       []string
	CorrectAnswer string
	Difficulty    string
	Topics        []string
	Contest       string
	Year          int
	Solution      string
}

// ChoiceLabel returns the letter shown next to the i-th choice ("A", "B", ...).
func ChoiceLabel(i int) string {
	if i < 0 || i >= 26 {
		return ""
	}
	return string(rune('A' + i))
}

// ChoiceIndex maps a choice label or choice text to its position in
// Choices. Returns -1 when nothing matches.
func (p *Problem) ChoiceIndex(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1
	}
	for i, c := range p.Choices {
		if strings.EqualFold(strings.TrimSpace(c), s) {
			return i
		}
	}
	if len(s) == 1 {
		i := int(strings.ToUpper(s)[0] - 'A')
		if i >= 0 && i < len(p.Choices) {
			return i
		}
	}
	return -1
}

// Source returns a short label for where the problem came from, e.g. "AMC 10A 2022 #7".
func (p *Problem) Source() string {
	switch {
	case p.Contest != "" && p.Year > 0:
		return fmt.Sprintf("%s %d #%d", p.Contest, p.Year, p.Number)
	case p.Contest != "":
		return fmt.Sprintf("%s #%d", p.Contest, p.Number)
	default:
		return fmt.Sprintf("#%d", p.Number)
	}
}

// SessionRequest selects the problem set for a new session.
type SessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Contest   string `json:"contest"`
	Year      int    `json:"year,omitempty"`
	Shuffle   bool   `json:"shuffle"`
}

// SessionInfo describes a session opened on the content service.
type SessionInfo struct {
	SessionID     string
	TotalProblems int
	Shuffle       bool
}

// Source is the content collaborator used by the session controller.
type Source interface {
	// InitializeSession opens a session and returns its id and problem count.
	InitializeSession(ctx context.Context, req SessionRequest) (SessionInfo, error)

	// NextProblem returns the next problem in session order, or
	// ErrNoMoreProblems once the set is exhausted.
	NextProblem(ctx context.Context, sessionID string) (*Problem, error)

	// ProblemByID fetches a single problem, or ErrNotFound.
	ProblemByID(ctx context.Context, id string) (*Problem, error)
}

// Resetter is implemented by sources that keep server-side session state
// which should be cleared when a session is restarted.
type Resetter interface {
	Reset(ctx context.Context, req SessionRequest) error
}
