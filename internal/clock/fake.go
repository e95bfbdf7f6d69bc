package clock

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Fake is a manually driven Clock for tests.
//
// Time only moves when Advance is called, unless AutoAdvance is set, in
// which case every Sleep moves the clock forward by its duration and
// returns immediately. Every requested sleep is recorded so tests can assert
// on backoff schedules.
type Fake struct {
	mu       sync.Mutex
	cond     *sync.Cond
	now      time.Time
	auto     bool
	sleepers []*fakeWaiter
	timers   []*fakeTimer
	slept    []time.Duration
}

type fakeWaiter struct {
	until time.Time
	done  chan struct{}
}

type fakeTimer struct {
	clock   *Fake
	until   time.Time
	f       func()
	stopped bool
	fired   bool
}

var _ Clock = (*Fake)(nil)

// NewFake returns a Fake clock set to start.
func NewFake(start time.Time) *Fake {
	f := &Fake{now: start}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// SetAutoAdvance toggles auto-advancing sleeps.
func (f *Fake) SetAutoAdvance(auto bool) {
	f.mu.Lock()
	f.auto = auto
	f.mu.Unlock()
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.slept = append(f.slept, d)
	if f.auto {
		f.mu.Unlock()
		f.Advance(d)
		return ctx.Err()
	}
	if d <= 0 {
		f.mu.Unlock()
		return ctx.Err()
	}
	w := &fakeWaiter{until: f.now.Add(d), done: make(chan struct{})}
	f.sleepers = append(f.sleepers, w)
	f.cond.Broadcast()
	f.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		f.mu.Lock()
		f.removeSleeper(w)
		f.mu.Unlock()
		return ctx.Err()
	}
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	t := &fakeTimer{clock: f, until: f.now.Add(d), f: fn}
	f.timers = append(f.timers, t)
	f.cond.Broadcast()
	f.mu.Unlock()
	return t
}

// Advance moves the clock forward by d, waking sleepers and firing timers
// whose deadline has passed. Timer callbacks run synchronously, in deadline
// order, after the clock has moved.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now

	var remaining []*fakeWaiter
	for _, w := range f.sleepers {
		if !w.until.After(now) {
			close(w.done)
			continue
		}
		remaining = append(remaining, w)
	}
	f.sleepers = remaining

	var due []*fakeTimer
	var pending []*fakeTimer
	for _, t := range f.timers {
		if t.stopped {
			continue
		}
		if !t.until.After(now) {
			t.fired = true
			due = append(due, t)
			continue
		}
		pending = append(pending, t)
	}
	f.timers = pending
	f.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].until.Before(due[j].until) })
	for _, t := range due {
		t.f()
	}
}

// BlockUntil waits until at least n sleepers or timers are pending.
func (f *Fake) BlockUntil(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.sleepers)+len(f.activeTimers()) < n {
		f.cond.Wait()
	}
}

// Slept returns every duration passed to Sleep, in call order.
func (f *Fake) Slept() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.slept))
	copy(out, f.slept)
	return out
}

// PendingTimers returns the number of timers that have not fired or been stopped.
func (f *Fake) PendingTimers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.activeTimers())
}

func (f *Fake) activeTimers() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range f.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func (f *Fake) removeSleeper(w *fakeWaiter) {
	for i, s := range f.sleepers {
		if s == w {
			f.sleepers = append(f.sleepers[:i], f.sleepers[i+1:]...)
			return
		}
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
