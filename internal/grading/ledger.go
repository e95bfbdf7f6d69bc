package grading

import (
	"time"

	"github.com/abhisek/amcdrill/internal/clock"
)

// AttemptRecord is one graded answer. Records are never modified after
// they are appended to a Ledger.
type AttemptRecord struct {
	Ordinal     int       `json:"problem_number"`
	ProblemID   string    `json:"problem_id"`
	Choice      string    `json:"choice"`
	Correct     bool      `json:"correct"`
	TimeSpentMs int64     `json:"timeSpent"`
	Timestamp   time.Time `json:"timestamp"`
	Difficulty  string    `json:"difficulty,omitempty"`
	Topics      []string  `json:"topics,omitempty"`
}

// Ledger is the ordered, append-only list of attempts for one session.
type Ledger struct {
	records []AttemptRecord
}

// Append adds a record. Time spent below the measurement floor is raised
// to it.
func (l *Ledger) Append(r AttemptRecord) {
	if floor := clock.MinTimeSpent.Milliseconds(); r.TimeSpentMs < floor {
		r.TimeSpentMs = floor
	}
	if r.Topics != nil {
		r.Topics = append([]string(nil), r.Topics...)
	}
	l.records = append(l.records, r)
}

// Len returns the number of attempts recorded.
func (l *Ledger) Len() int { return len(l.records) }

// Records returns a deep copy of all attempts in order.
func (l *Ledger) Records() []AttemptRecord {
	out := make([]AttemptRecord, len(l.records))
	copy(out, l.records)
	for i := range out {
		if out[i].Topics != nil {
			out[i].Topics = append([]string(nil), out[i].Topics...)
		}
	}
	return out
}

// Correct returns the number of correct attempts.
func (l *Ledger) Correct() int {
	n := 0
	for _, r := range l.records {
		if r.Correct {
			n++
		}
	}
	return n
}

// TotalTime returns the sum of time spent across all attempts.
func (l *Ledger) TotalTime() time.Duration {
	var ms int64
	for _, r := range l.records {
		ms += r.TimeSpentMs
	}
	return time.Duration(ms) * time.Millisecond
}

// AverageTime returns the mean time per attempt, or 0 with no attempts.
func (l *Ledger) AverageTime() time.Duration {
	if len(l.records) == 0 {
		return 0
	}
	return l.TotalTime() / time.Duration(len(l.records))
}
