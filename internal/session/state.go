package session

import (
	"fmt"
	"strings"
)

// Mode selects how a session behaves after an answer.
type Mode string

const (
	// ModePractice waits for the learner to move on.
	ModePractice Mode = "practice"
	// ModeContest locks input after an answer and advances automatically.
	ModeContest Mode = "contest"
)

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePractice, ModeContest:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want practice or contest)", s)
}

// DefaultMaxProblems caps the number of problems in a session.
const DefaultMaxProblems = 25

// Config is fixed for the lifetime of a session.
type Config struct {
	Contest string
	Year    int // 0 means any year
	Mode    Mode
	Shuffle bool

	// Skin names the practice theme. Ignored in contest mode.
	Skin string

	// User keys persistence. Sessions of an empty user are not saved.
	User string

	// MaxProblems caps the session length. Non-positive means DefaultMaxProblems.
	MaxProblems int
}

// Phase is the lifecycle phase of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhasePaused
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhasePaused:
		return "paused"
	case PhaseComplete:
		return "complete"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// State is a snapshot of the session's progress.
type State struct {
	Phase     Phase
	SessionID string

	// Index is the 1-based ordinal of the current problem.
	Index int

	Score     int
	Attempted int

	// ElapsedMs is the active session time, excluding pauses.
	ElapsedMs int64

	// Total is the number of problems the session will serve at most.
	Total int

	ResultsSaved bool

	// Answered is set once the current problem has been answered.
	Answered bool

	// AnswersDisabled is set while input is locked (contest mode, after an
	// answer and until the next problem).
	AnswersDisabled bool

	// LastError describes the most recent fetch or save failure.
	LastError string
}

// Running reports whether the session is active or paused.
func (s State) Running() bool {
	return s.Phase == PhaseActive || s.Phase == PhasePaused
}
