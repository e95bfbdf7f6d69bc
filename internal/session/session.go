// Package session drives a timed practice session: it sequences problems
// from the content service, times and grades answers, and hands the
// finished session to the persistence coordinator exactly once.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/amcdrill/internal/clock"
	"github.com/abhisek/amcdrill/internal/content"
	"github.com/abhisek/amcdrill/internal/cue"
	"github.com/abhisek/amcdrill/internal/grading"
	"github.com/abhisek/amcdrill/internal/logging"
	"github.com/abhisek/amcdrill/internal/persist"
	"github.com/abhisek/amcdrill/internal/throttle"
)

// DefaultAutoAdvanceDelay is how long a graded problem stays on screen in
// contest mode before the next one is fetched.
const DefaultAutoAdvanceDelay = 1500 * time.Millisecond

// Timings tunes the controller. Zero values fall back to the defaults.
type Timings struct {
	FetchInterval    time.Duration
	AutoAdvanceDelay time.Duration
	TimeFloor        time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock. Default: the wall clock.
func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithCue sets the correctness cue player. Default: silent.
func WithCue(p cue.Player) Option {
	return func(ctl *Controller) { ctl.cue = p }
}

// WithConfirmer sets who confirms restart and quit. Default: AlwaysConfirm.
func WithConfirmer(cf Confirmer) Option {
	return func(ctl *Controller) { ctl.confirm = cf }
}

// WithListener registers fn for every Event. fn must not call back into
// the controller synchronously.
func WithListener(fn func(Event)) Option {
	return func(ctl *Controller) { ctl.listeners = append(ctl.listeners, fn) }
}

// WithTimings overrides the session timings.
func WithTimings(t Timings) Option {
	return func(ctl *Controller) {
		if t.FetchInterval > 0 {
			ctl.fetchInterval = t.FetchInterval
		}
		if t.AutoAdvanceDelay > 0 {
			ctl.autoAdvanceDelay = t.AutoAdvanceDelay
		}
		if t.TimeFloor > 0 {
			ctl.timeFloor = t.TimeFloor
		}
	}
}

// Controller owns one session at a time. It is safe for concurrent use:
// collaborator calls are made without holding the lock, and a generation
// counter drops results that arrive after a quit or restart.
type Controller struct {
	source content.Source
	saves  *persist.Coordinator

	clock            clock.Clock
	cue              cue.Player
	confirm          Confirmer
	listeners        []func(Event)
	fetchInterval    time.Duration
	autoAdvanceDelay time.Duration
	timeFloor        time.Duration

	mu         sync.Mutex
	gen        uint64
	cfg        Config
	configured bool
	state      State
	problem    *content.Problem
	gate       *throttle.Gate
	problemClk *clock.Accountant // time on the current problem
	sessionClk *clock.Accountant // active time since start
	sheet      *grading.Sheet

	autoTimer   clock.Timer
	autoPending bool

	completion *persist.Request
	saveErr    string
}

// New creates a Controller. saves may be nil, in which case finished
// sessions are not persisted.
func New(source content.Source, saves *persist.Coordinator, opts ...Option) *Controller {
	c := &Controller{
		source:           source,
		saves:            saves,
		clock:            clock.New(),
		cue:              cue.Silent{},
		confirm:          AlwaysConfirm,
		fetchInterval:    throttle.DefaultMinInterval,
		autoAdvanceDelay: DefaultAutoAdvanceDelay,
		timeFloor:        clock.MinTimeSpent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if saves != nil {
		saves.OnResult(c.onSaveResult)
	}
	return c
}

// Start opens a session and loads its first problem. On failure the
// controller stays Idle and an *InitializationError is returned.
func (c *Controller) Start(ctx context.Context, cfg Config) error {
	cfg.Contest = strings.TrimSpace(cfg.Contest)
	switch {
	case cfg.Mode == "":
		return &InitializationError{Reason: "mode is not set"}
	case cfg.Mode != ModePractice && cfg.Mode != ModeContest:
		return &InitializationError{Reason: "invalid mode " + string(cfg.Mode)}
	case cfg.Contest == "":
		return &InitializationError{Reason: "contest is not set"}
	}
	if cfg.MaxProblems <= 0 {
		cfg.MaxProblems = DefaultMaxProblems
	}

	c.mu.Lock()
	if c.state.Running() {
		c.mu.Unlock()
		return &InitializationError{Reason: "a session is already running"}
	}
	c.discardLocked()
	c.cfg = cfg
	c.configured = true
	gen := c.gen
	gate := throttle.New(c.clock, c.fetchInterval)
	c.mu.Unlock()

	info, err := c.source.InitializeSession(ctx, content.SessionRequest{
		Contest: cfg.Contest,
		Year:    cfg.Year,
		Shuffle: cfg.Shuffle,
	})
	if err != nil {
		return &InitializationError{Reason: "initialize session", Err: err}
	}
	if info.SessionID == "" {
		return &InitializationError{Reason: "content service returned no session id"}
	}

	total := cfg.MaxProblems
	if info.TotalProblems > 0 && info.TotalProblems < total {
		total = info.TotalProblems
	}

	var first *content.Problem
	err = gate.Do(ctx, func(ctx context.Context) error {
		var err error
		first, err = c.source.NextProblem(ctx, info.SessionID)
		return err
	})
	if err != nil {
		return &InitializationError{Reason: "load first problem", Err: err}
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	now := c.clock.Now()
	c.gate = gate
	c.problem = first
	c.sheet = grading.NewSheet(cfg.Mode == ModeContest)
	c.problemClk = clock.NewAccountant(c.timeFloor)
	c.problemClk.StartProblem(now)
	c.sessionClk = clock.NewAccountant(c.timeFloor)
	c.sessionClk.StartProblem(now)
	c.state = State{
		Phase:     PhaseActive,
		SessionID: info.SessionID,
		Index:     1,
		Total:     total,
	}
	ev := Event{Kind: EventProblem, State: c.snapshotLocked(), Problem: first}
	c.mu.Unlock()

	logging.Debug("session %s started: %s %d, %d problem(s), mode %s",
		info.SessionID, cfg.Contest, cfg.Year, total, cfg.Mode)
	c.emit(ev)
	return nil
}

// Pause freezes the session clock. No-op unless Active.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != PhaseActive {
		return
	}
	now := c.clock.Now()
	c.problemClk.Pause(now)
	c.sessionClk.Pause(now)
	c.state.Phase = PhasePaused

	// A pending auto-advance is re-armed on resume.
	if c.autoTimer != nil {
		c.autoTimer.Stop()
		c.autoTimer = nil
	}
}

// Resume restarts the session clock and returns how long the session was
// paused. No-op unless Paused.
func (c *Controller) Resume() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != PhasePaused {
		return 0
	}
	now := c.clock.Now()
	d := c.problemClk.Resume(now)
	c.sessionClk.Resume(now)
	c.state.Phase = PhaseActive
	if c.autoPending {
		c.armAutoAdvanceLocked()
	}
	return d
}

// Restart discards the current session, after confirmation, and starts a
// new one with the same configuration. The content service is asked to
// reset its cursor when it supports it.
func (c *Controller) Restart(ctx context.Context) error {
	if !c.confirm.Confirm(ActionRestart) {
		return ErrNotConfirmed
	}

	c.mu.Lock()
	if !c.configured {
		c.mu.Unlock()
		return &InitializationError{Reason: "no session to restart"}
	}
	cfg := c.cfg
	prevID := c.state.SessionID
	c.discardLocked()
	c.mu.Unlock()

	if r, ok := c.source.(content.Resetter); ok && prevID != "" {
		err := r.Reset(ctx, content.SessionRequest{
			SessionID: prevID,
			Contest:   cfg.Contest,
			Year:      cfg.Year,
			Shuffle:   cfg.Shuffle,
		})
		if err != nil {
			logging.Warn("reset session %s: %v", prevID, err)
		}
	}
	return c.Start(ctx, cfg)
}

// Quit discards the session without saving it, after confirmation. A save
// already handed to the coordinator is left to finish.
func (c *Controller) Quit() bool {
	if !c.confirm.Confirm(ActionQuit) {
		return false
	}
	c.mu.Lock()
	c.discardLocked()
	c.mu.Unlock()
	return true
}

// Advance moves to the next problem, or completes the session when the
// problem cap is reached or the content service has no more problems.
func (c *Controller) Advance(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.state.Phase != PhaseActive {
		c.mu.Unlock()
		return OutcomeIgnored, nil
	}
	if c.state.Index >= c.state.Total {
		ev := c.completeLocked()
		c.mu.Unlock()
		c.finishCompletion(ctx, ev)
		return OutcomeCompleted, nil
	}
	if !c.gate.TryAcquire() {
		c.mu.Unlock()
		logging.Debug("next problem ignored: fetch in flight or too soon")
		return OutcomeIgnored, nil
	}
	c.stopAutoAdvanceLocked()
	gen := c.gen
	gate := c.gate
	sessionID := c.state.SessionID
	next := c.state.Index + 1
	c.mu.Unlock()

	p, err := c.source.NextProblem(ctx, sessionID)
	gate.Release()

	c.mu.Lock()
	if gen != c.gen || !c.state.Running() {
		c.mu.Unlock()
		return OutcomeIgnored, nil
	}

	switch {
	case errors.Is(err, content.ErrNoMoreProblems):
		c.state.Total = c.state.Index
		ev := c.completeLocked()
		c.mu.Unlock()
		c.finishCompletion(ctx, ev)
		return OutcomeCompleted, nil

	case err != nil:
		ferr := &FetchError{SessionID: sessionID, Index: next, Err: err}
		c.state.LastError = ferr.Error()
		ev := Event{Kind: EventFetchFailed, State: c.snapshotLocked(), Err: ferr}
		c.mu.Unlock()
		logging.Warn("%v", ferr)
		c.emit(ev)
		return OutcomeFailed, ferr
	}

	now := c.clock.Now()
	c.problem = p
	c.state.Index = next
	c.state.LastError = ""
	c.sheet.NextProblem()
	c.problemClk.StartProblem(now)
	ev := Event{Kind: EventProblem, State: c.snapshotLocked(), Problem: p}
	c.mu.Unlock()

	c.emit(ev)
	return OutcomeAdvanced, nil
}

// Submit grades choice against the current problem. It returns false
// without recording anything when the session is not active or the
// problem was already answered. In contest mode the next problem is
// fetched automatically after the auto-advance delay.
func (c *Controller) Submit(choice string) (grading.AttemptRecord, bool) {
	c.mu.Lock()
	if c.state.Phase != PhaseActive || c.problem == nil || c.sheet.Answered() || c.sheet.Disabled() {
		c.mu.Unlock()
		return grading.AttemptRecord{}, false
	}
	now := c.clock.Now()
	spent := c.problemClk.TimeSpent(now)
	rec, ok := c.sheet.Submit(c.problem, c.state.Index, choice, spent, now)
	if !ok {
		c.mu.Unlock()
		return grading.AttemptRecord{}, false
	}
	c.state.Score = c.sheet.Score()
	c.state.Attempted = c.sheet.Attempted()
	if c.cfg.Mode == ModeContest {
		c.autoPending = true
		c.armAutoAdvanceLocked()
	}
	ev := Event{Kind: EventGraded, State: c.snapshotLocked(), Attempt: rec}
	player := c.cue
	c.mu.Unlock()

	player.Play(rec.Correct)
	c.emit(ev)
	return rec, true
}

// Finish ends a running session early and hands it to persistence.
// Finishing a completed session is a no-op.
func (c *Controller) Finish(ctx context.Context) error {
	c.mu.Lock()
	switch c.state.Phase {
	case PhaseComplete:
		c.mu.Unlock()
		return nil
	case PhaseIdle:
		c.mu.Unlock()
		return ErrNotRunning
	}
	ev := c.completeLocked()
	c.mu.Unlock()
	c.finishCompletion(ctx, ev)
	return nil
}

// RetrySave re-submits a completed session whose save failed. It reports
// whether a save was scheduled.
func (c *Controller) RetrySave(ctx context.Context) bool {
	c.mu.Lock()
	if c.state.Phase != PhaseComplete || c.state.ResultsSaved || c.completion == nil || c.saves == nil {
		c.mu.Unlock()
		return false
	}
	req := *c.completion
	c.saveErr = ""
	c.mu.Unlock()

	c.submitSave(ctx, req)
	return true
}

// State returns a snapshot of the session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Config returns the configuration of the current or last session.
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Problem returns the current problem, or nil when Idle.
func (c *Controller) Problem() *content.Problem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.problem
}

// DisplayElapsed returns the active session time for display. It is
// frozen while paused and after completion.
func (c *Controller) DisplayElapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(c.snapshotLocked().ElapsedMs) * time.Millisecond
}

// ProblemElapsed returns the active time on the current problem.
func (c *Controller) ProblemElapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.problemClk == nil || !c.state.Running() {
		return 0
	}
	return c.problemClk.Display(c.clock.Now())
}

// Summary returns the session summary.
func (c *Controller) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildSummary()
}

// snapshotLocked copies the state, bringing the elapsed time up to date.
func (c *Controller) snapshotLocked() State {
	st := c.state
	if st.Running() && c.sessionClk != nil {
		st.ElapsedMs = c.sessionClk.Display(c.clock.Now()).Milliseconds()
	}
	if c.sheet != nil {
		st.Answered = c.sheet.Answered()
		st.AnswersDisabled = c.sheet.Disabled()
	}
	return st
}

// discardLocked drops the current session and invalidates in-flight calls.
func (c *Controller) discardLocked() {
	c.stopAutoAdvanceLocked()
	c.gen++
	c.state = State{Phase: PhaseIdle}
	c.problem = nil
	c.gate = nil
	c.problemClk = nil
	c.sessionClk = nil
	c.sheet = nil
	c.completion = nil
	c.saveErr = ""
}

// completeLocked moves a running session to Complete and snapshots the
// save request. The returned event must be passed to finishCompletion.
func (c *Controller) completeLocked() Event {
	c.stopAutoAdvanceLocked()
	st := c.snapshotLocked()
	c.state.ElapsedMs = st.ElapsedMs
	c.state.Phase = PhaseComplete
	c.sheet.Disable()

	req := persist.Request{
		SessionID: c.state.SessionID,
		User:      c.cfg.User,
		Payload: persist.Payload{
			SessionID:         c.state.SessionID,
			Score:             c.sheet.Score(),
			Attempted:         c.sheet.Attempted(),
			TotalTimeMs:       st.ElapsedMs,
			Year:              c.cfg.Year,
			Contest:           c.cfg.Contest,
			Mode:              string(c.cfg.Mode),
			CompletedAt:       c.clock.Now(),
			ProblemsAttempted: c.sheet.Ledger().Records(),
		},
	}
	c.completion = &req
	return Event{Kind: EventComplete, State: c.snapshotLocked()}
}

func (c *Controller) finishCompletion(ctx context.Context, ev Event) {
	logging.Debug("session %s complete: %d/%d correct", ev.State.SessionID, ev.State.Score, ev.State.Attempted)
	c.emit(ev)

	c.mu.Lock()
	req := c.completion
	c.mu.Unlock()
	if req == nil || req.SessionID != ev.State.SessionID {
		return
	}
	if c.saves == nil {
		return
	}
	if req.User == "" {
		logging.Warn("no user set, session %s will not be saved", req.SessionID)
		return
	}
	c.submitSave(ctx, *req)
}

func (c *Controller) submitSave(ctx context.Context, req persist.Request) {
	if c.saves.Submit(ctx, req) == persist.StatusAlreadySaved {
		c.mu.Lock()
		if c.state.SessionID == req.SessionID {
			c.state.ResultsSaved = true
		}
		c.mu.Unlock()
	}
}

func (c *Controller) onSaveResult(res persist.Result) {
	c.mu.Lock()
	if c.state.SessionID != res.SessionID || c.state.Phase != PhaseComplete {
		c.mu.Unlock()
		return
	}
	ev := Event{Kind: EventSaved, Err: res.Err}
	if res.Err == nil {
		c.state.ResultsSaved = true
		c.saveErr = ""
	} else {
		ev.Kind = EventSaveFailed
		c.saveErr = res.Err.Error()
		c.state.LastError = c.saveErr
	}
	ev.State = c.snapshotLocked()
	c.mu.Unlock()

	c.emit(ev)
}

func (c *Controller) armAutoAdvanceLocked() {
	if c.autoTimer != nil {
		c.autoTimer.Stop()
	}
	gen := c.gen
	c.autoTimer = c.clock.AfterFunc(c.autoAdvanceDelay, func() { c.autoAdvance(gen) })
}

func (c *Controller) stopAutoAdvanceLocked() {
	if c.autoTimer != nil {
		c.autoTimer.Stop()
		c.autoTimer = nil
	}
	c.autoPending = false
}

func (c *Controller) autoAdvance(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.autoPending || c.state.Phase != PhaseActive {
		c.mu.Unlock()
		return
	}
	c.autoPending = false
	c.autoTimer = nil
	c.mu.Unlock()

	if _, err := c.Advance(context.Background()); err != nil {
		logging.Debug("auto-advance: %v", err)
	}
}

func (c *Controller) emit(ev Event) {
	for _, fn := range c.listeners {
		fn(ev)
	}
}
