// Package throttle guards outbound "next problem" calls so rapid user input
// cannot dispatch duplicate fetches.
package throttle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abhisek/amcdrill/internal/clock"
)

// DefaultMinInterval is the minimum spacing between accepted dispatches.
const DefaultMinInterval = 500 * time.Millisecond

// ErrRejected is returned by Do when the gate refuses a call.
var ErrRejected = errors.New("throttle: call rejected (in flight or too soon)")

// Gate enforces single-flight plus a minimum interval between dispatches.
// Both guards must pass for a call to be accepted.
type Gate struct {
	mu           sync.Mutex
	clock        clock.Clock
	minInterval  time.Duration
	inFlight     bool
	lastDispatch time.Time
}

// New creates a Gate. A non-positive interval falls back to DefaultMinInterval.
func New(c clock.Clock, minInterval time.Duration) *Gate {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Gate{clock: c, minInterval: minInterval}
}

// TryAcquire reports whether a call may be dispatched now. On success it
// records the dispatch time and marks a call in flight; the caller must
// call Release when the call completes or fails.
func (g *Gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if g.inFlight {
		return false
	}
	if !g.lastDispatch.IsZero() && now.Sub(g.lastDispatch) < g.minInterval {
		return false
	}
	g.inFlight = true
	g.lastDispatch = now
	return true
}

// Release clears the in-flight flag.
func (g *Gate) Release() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

// InFlight reports whether a call is currently outstanding.
func (g *Gate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Do runs fn if the gate accepts the call, releasing it afterwards.
// Returns ErrRejected without calling fn otherwise.
func (g *Gate) Do(ctx context.Context, fn func(context.Context) error) error {
	if !g.TryAcquire() {
		return ErrRejected
	}
	defer g.Release()
	return fn(ctx)
}
