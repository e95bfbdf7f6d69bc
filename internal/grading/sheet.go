package grading

import (
	"time"

	"github.com/abhisek/amcdrill/internal/content"
)

// ReviewItem is a missed problem kept for the end-of-session review.
type ReviewItem struct {
	Problem   content.Problem
	Choice    string
	TimeSpent time.Duration
}

// Sheet holds the scoreboard and per-problem answer flags for a session.
// It is not safe for concurrent use; the session controller serialises
// access.
type Sheet struct {
	lockOnAnswer bool

	score     int
	attempted int
	answered  bool
	disabled  bool

	ledger Ledger
	review []ReviewItem
}

// NewSheet creates an empty sheet. When lockOnAnswer is set (contest mode)
// input is disabled after each answer until the next problem.
func NewSheet(lockOnAnswer bool) *Sheet {
	return &Sheet{lockOnAnswer: lockOnAnswer}
}

// Submit grades choice against p and records the attempt. It is a no-op
// returning false if the current problem is already answered or input is
// disabled.
func (s *Sheet) Submit(p *content.Problem, ordinal int, choice string, spent time.Duration, now time.Time) (AttemptRecord, bool) {
	if p == nil || s.answered || s.disabled {
		return AttemptRecord{}, false
	}

	correct := Grade(p, choice)
	s.attempted++
	if correct {
		s.score++
	}

	rec := AttemptRecord{
		Ordinal:     ordinal,
		ProblemID:   p.ID,
		Choice:      choice,
		Correct:     correct,
		TimeSpentMs: spent.Milliseconds(),
		Timestamp:   now,
		Difficulty:  p.Difficulty,
		Topics:      p.Topics,
	}
	s.ledger.Append(rec)
	rec = s.ledger.records[len(s.ledger.records)-1]

	if !correct {
		s.review = append(s.review, ReviewItem{
			Problem:   *p,
			Choice:    choice,
			TimeSpent: time.Duration(rec.TimeSpentMs) * time.Millisecond,
		})
	}

	s.answered = true
	if s.lockOnAnswer {
		s.disabled = true
	}
	return rec, true
}

// NextProblem clears the per-problem answer flags.
func (s *Sheet) NextProblem() {
	s.answered = false
	s.disabled = false
}

// Disable blocks further answers until NextProblem.
func (s *Sheet) Disable() { s.disabled = true }

func (s *Sheet) Score() int           { return s.score }
func (s *Sheet) Attempted() int       { return s.attempted }
func (s *Sheet) Answered() bool       { return s.answered }
func (s *Sheet) Disabled() bool       { return s.disabled }
func (s *Sheet) Ledger() *Ledger      { return &s.ledger }
func (s *Sheet) Review() []ReviewItem { return append([]ReviewItem(nil), s.review...) }

// Accuracy returns score/attempted in [0, 1], or 0 with no attempts.
func (s *Sheet) Accuracy() float64 {
	if s.attempted == 0 {
		return 0
	}
	return float64(s.score) / float64(s.attempted)
}
