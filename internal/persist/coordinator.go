package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abhisek/amcdrill/internal/clock"
	"github.com/abhisek/amcdrill/internal/logging"
)

// Config tunes the Coordinator.
type Config struct {
	// Debounce is how long the worker waits before the first dispatch.
	Debounce time.Duration

	// MaxAttempts bounds dispatches per request, including the first.
	MaxAttempts int

	// BackoffStep is the linear backoff unit: the n-th retry waits n*BackoffStep.
	BackoffStep time.Duration
}

// DefaultConfig returns the standard save tuning.
func DefaultConfig() Config {
	return Config{
		Debounce:    time.Second,
		MaxAttempts: 3,
		BackoffStep: time.Second,
	}
}

// Status is the immediate outcome of Submit.
type Status int

const (
	// StatusScheduled means a worker was started for the request.
	StatusScheduled Status = iota
	// StatusQueued means the request joined the pending queue of a running
	// worker, replacing any older snapshot of the same session.
	StatusQueued
	// StatusAlreadySaved means the session was saved before; nothing happens.
	StatusAlreadySaved
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusQueued:
		return "queued"
	case StatusAlreadySaved:
		return "already-saved"
	}
	return "unknown"
}

// Result reports the final outcome for one dispatched request.
type Result struct {
	SessionID string
	Attempts  int
	Err       error // nil on success, *PersistenceError otherwise
}

// Coordinator serialises session saves. At most one save is in flight.
// Requests arriving meanwhile wait in submission order, one slot per
// session, where the newest snapshot of that session wins.
type Coordinator struct {
	saver  Saver
	mirror StatsMirror
	clock  clock.Clock
	cfg    Config

	mu        sync.Mutex
	saved     map[string]bool
	pending   []Request
	running   bool
	idle      chan struct{}
	listeners []func(Result)
}

// NewCoordinator creates a Coordinator. mirror may be nil.
func NewCoordinator(saver Saver, mirror StatsMirror, c clock.Clock, cfg Config) *Coordinator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	idle := make(chan struct{})
	close(idle)
	return &Coordinator{
		saver:  saver,
		mirror: mirror,
		clock:  c,
		cfg:    cfg,
		saved:  make(map[string]bool),
		idle:   idle,
	}
}

// OnResult registers fn to be called after every dispatched request
// resolves. fn runs on the worker goroutine.
func (c *Coordinator) OnResult(fn func(Result)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Submit schedules req for saving and returns immediately. The worker
// outlives ctx's cancellation so a save is never abandoned midway.
func (c *Coordinator) Submit(ctx context.Context, req Request) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.saved[req.SessionID] {
		logging.Debug("session %s already saved, skipping", req.SessionID)
		return StatusAlreadySaved
	}
	c.enqueueLocked(req)
	if c.running {
		return StatusQueued
	}
	c.running = true
	c.idle = make(chan struct{})
	go c.run(context.WithoutCancel(ctx))
	return StatusScheduled
}

// enqueueLocked replaces the pending snapshot of req's session, or appends
// req when that session has none. The caller holds c.mu.
func (c *Coordinator) enqueueLocked(req Request) {
	for i := range c.pending {
		if c.pending[i].SessionID == req.SessionID {
			c.pending[i] = req
			return
		}
	}
	c.pending = append(c.pending, req)
}

// Saved reports whether sessionID has been saved.
func (c *Coordinator) Saved(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved[sessionID]
}

// Busy reports whether a save is in flight or pending.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Wait blocks until the worker is idle.
func (c *Coordinator) Wait() {
	c.mu.Lock()
	ch := c.idle
	c.mu.Unlock()
	<-ch
}

// WaitContext is Wait bounded by ctx.
func (c *Coordinator) WaitContext(ctx context.Context) error {
	c.mu.Lock()
	ch := c.idle
	c.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) run(ctx context.Context) {
	if c.cfg.Debounce > 0 {
		_ = c.clock.Sleep(ctx, c.cfg.Debounce)
	}

	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.running = false
			close(c.idle)
			c.mu.Unlock()
			return
		}
		req := c.pending[0]
		c.pending = c.pending[1:]
		if c.saved[req.SessionID] {
			c.mu.Unlock()
			continue
		}
		c.mu.Unlock()

		attempts, err := c.dispatch(ctx, req)

		c.mu.Lock()
		if err == nil {
			c.saved[req.SessionID] = true
		}
		listeners := append([]func(Result){}, c.listeners...)
		c.mu.Unlock()

		if err == nil {
			logging.Debug("session %s saved after %d attempt(s)", req.SessionID, attempts)
			c.updateMirror(ctx, req)
		} else {
			logging.Error("%v", err)
		}

		res := Result{SessionID: req.SessionID, Attempts: attempts, Err: err}
		for _, fn := range listeners {
			fn(res)
		}
	}
}

// dispatch saves req, retrying rate-limit failures with linear backoff.
func (c *Coordinator) dispatch(ctx context.Context, req Request) (int, error) {
	for attempt := 1; ; attempt++ {
		err := c.saver.SaveSession(ctx, req.User, req.Payload)
		if err == nil {
			return attempt, nil
		}

		var rl *RateLimitError
		if !errors.As(err, &rl) || attempt >= c.cfg.MaxAttempts {
			return attempt, &PersistenceError{SessionID: req.SessionID, Attempts: attempt, Err: err}
		}

		wait := c.cfg.BackoffStep * time.Duration(attempt)
		logging.Warn("save session %s rate limited, retrying in %s", req.SessionID, wait)
		if err := c.clock.Sleep(ctx, wait); err != nil {
			return attempt, &PersistenceError{SessionID: req.SessionID, Attempts: attempt, Err: err}
		}
	}
}

func (c *Coordinator) updateMirror(ctx context.Context, req Request) {
	if c.mirror == nil || req.User == "" {
		return
	}
	stats, err := c.mirror.Get(ctx, req.User)
	if err != nil {
		logging.Warn("read stats mirror for %s: %v", req.User, err)
		return
	}
	if err := c.mirror.Set(ctx, req.User, stats.WithSession(req.Payload)); err != nil {
		logging.Warn("update stats mirror for %s: %v", req.User, err)
	}
}
