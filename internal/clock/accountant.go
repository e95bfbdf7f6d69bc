package clock

import "time"

// MinTimeSpent is the floor applied to every measured answer time. Timer
// granularity and rapid re-entry can otherwise produce zero or negative
// durations.
const MinTimeSpent = 100 * time.Millisecond

// Accountant measures time spent on the current problem, excluding paused
// intervals.
type Accountant struct {
	floor        time.Duration
	problemStart time.Time
	paused       time.Duration
	pausedAt     time.Time
	isPaused     bool
}

// NewAccountant creates an Accountant with the given floor. A non-positive
// floor falls back to MinTimeSpent.
func NewAccountant(floor time.Duration) *Accountant {
	if floor <= 0 {
		floor = MinTimeSpent
	}
	return &Accountant{floor: floor}
}

// StartProblem starts timing a new problem at now and clears the paused
// accumulator. If the session is paused, the pause is re-anchored to now so
// time spent before the problem appeared is never credited to it.
func (a *Accountant) StartProblem(now time.Time) {
	a.problemStart = now
	a.paused = 0
	if a.isPaused {
		a.pausedAt = now
	}
}

// ProblemStart returns when the current problem started.
func (a *Accountant) ProblemStart() time.Time {
	return a.problemStart
}

// Pause freezes the clock at now. No-op if already paused.
func (a *Accountant) Pause(now time.Time) {
	if a.isPaused {
		return
	}
	a.isPaused = true
	a.pausedAt = now
}

// Resume ends the current pause and returns its duration, which has been
// added to the accumulator. No-op (returns 0) if not paused.
func (a *Accountant) Resume(now time.Time) time.Duration {
	if !a.isPaused {
		return 0
	}
	a.isPaused = false
	d := now.Sub(a.pausedAt)
	if d < 0 {
		d = 0
	}
	a.AddPause(d)
	return d
}

// AddPause credits d of paused time to the current problem.
func (a *Accountant) AddPause(d time.Duration) {
	if d > 0 {
		a.paused += d
	}
}

// Paused reports whether the clock is currently frozen.
func (a *Accountant) Paused() bool {
	return a.isPaused
}

// TimeSpent returns the active time on the current problem as of now,
// floored, and consumes the paused accumulator.
func (a *Accountant) TimeSpent(now time.Time) time.Duration {
	end := now
	if a.isPaused {
		end = a.pausedAt
	}
	d := end.Sub(a.problemStart) - a.paused
	a.paused = 0
	if a.isPaused {
		a.pausedAt = now
	}
	if d < a.floor {
		d = a.floor
	}
	return d
}

// Display returns the elapsed active time on the current problem for
// display. While paused the value is frozen at the pause instant.
func (a *Accountant) Display(now time.Time) time.Duration {
	if a.problemStart.IsZero() {
		return 0
	}
	end := now
	if a.isPaused {
		end = a.pausedAt
	}
	d := end.Sub(a.problemStart) - a.paused
	if d < 0 {
		return 0
	}
	return d
}
