// Package practice renders a running session: the current problem, the
// answer choices and the session clock.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/amcdrill/internal/content"
	"github.com/abhisek/amcdrill/internal/logging"
	"github.com/abhisek/amcdrill/internal/router"
	"github.com/abhisek/amcdrill/internal/screen"
	"github.com/abhisek/amcdrill/internal/screens/summary"
	"github.com/abhisek/amcdrill/internal/session"
	"github.com/abhisek/amcdrill/internal/ui/components"
	"github.com/abhisek/amcdrill/internal/ui/layout"
	"github.com/abhisek/amcdrill/internal/ui/theme"
)

// startedMsg reports the result of Start or Restart.
type startedMsg struct {
	err error
}

// advancedMsg reports the result of an Advance call.
type advancedMsg struct {
	outcome session.Outcome
	err     error
}

// finishedMsg reports the result of Finish.
type finishedMsg struct {
	err error
}

// clockTickMsg refreshes the clock display.
type clockTickMsg time.Time

// PracticeScreen drives a session.Controller from the keyboard.
type PracticeScreen struct {
	ctx  context.Context
	ctrl *session.Controller
	cfg  session.Config

	problem *content.Problem
	choices components.MultiChoice
	state   session.State

	loading      bool
	errMsg       string
	confirming   session.Action
	showSolution bool
	done         bool
	spinner      spinner.Model
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)
var _ screen.StatusProvider = (*PracticeScreen)(nil)

// New creates a screen that starts a session with cfg when initialised.
func New(ctx context.Context, ctrl *session.Controller, cfg session.Config) *PracticeScreen {
	if ctx == nil {
		ctx = context.Background()
	}
	return &PracticeScreen{
		ctx:     ctx,
		ctrl:    ctrl,
		cfg:     cfg,
		loading: true,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Accent)),
		),
	}
}

func (s *PracticeScreen) Init() tea.Cmd {
	ctx, ctrl, cfg := s.ctx, s.ctrl, s.cfg
	return tea.Batch(
		func() tea.Msg { return startedMsg{err: ctrl.Start(ctx, cfg)} },
		s.spinner.Tick,
		clockTick(),
	)
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

func (s *PracticeScreen) Title() string {
	if s.cfg.Mode == session.ModeContest {
		return "Contest"
	}
	return "Practice"
}

// Status shows progress, score and the session clock in the header.
func (s *PracticeScreen) Status() string {
	st := s.state
	if st.Phase == session.PhaseIdle {
		return ""
	}
	clk := layout.FormatClock(int64(s.ctrl.DisplayElapsed() / time.Second))
	if st.Phase == session.PhasePaused {
		clk += " (paused)"
	}
	return fmt.Sprintf("%d/%d · score %d · %s  ", st.Index, st.Total, st.Score, clk)
}

func (s *PracticeScreen) KeyHints() []layout.KeyHint {
	if s.confirming != "" {
		return []layout.KeyHint{
			{Key: "y", Description: "Confirm"},
			{Key: "n", Description: "Cancel"},
		}
	}
	if s.state.Phase == session.PhasePaused {
		return []layout.KeyHint{
			{Key: "p", Description: "Resume"},
			{Key: "q", Description: "Quit"},
		}
	}
	if s.canShowSolution() {
		return []layout.KeyHint{
			{Key: "s", Description: "Solution"},
			{Key: "n", Description: "Next"},
			{Key: "p", Description: "Pause"},
			{Key: "f", Description: "Finish"},
			{Key: "r", Description: "Restart"},
			{Key: "q", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "A-E", Description: "Answer"},
		{Key: "n", Description: "Next"},
		{Key: "p", Description: "Pause"},
		{Key: "f", Description: "Finish"},
		{Key: "r", Description: "Restart"},
		{Key: "q", Description: "Quit"},
	}
}

func (s *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		return s.handleStarted(msg)

	case advancedMsg:
		s.loading = false
		if msg.err != nil {
			s.errMsg = msg.err.Error()
		}
		logging.Debug("advance: %s", msg.outcome)
		if msg.outcome == session.OutcomeCompleted {
			return s, s.toSummary()
		}
		return s, nil

	case finishedMsg:
		if msg.err != nil && !errors.Is(msg.err, session.ErrNotRunning) {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		return s, s.toSummary()

	case screen.SessionEventMsg:
		return s.handleEvent(msg.Event)

	case clockTickMsg:
		if s.state.Phase == session.PhaseComplete {
			return s, nil
		}
		return s, clockTick()

	case spinner.TickMsg:
		if !s.loading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *PracticeScreen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	s.loading = false
	if msg.err != nil {
		if errors.Is(msg.err, session.ErrSuperseded) {
			return s, nil
		}
		logging.Error("start session: %v", msg.err)
		s.errMsg = msg.err.Error()
		return s, nil
	}
	// The problem event may still be queued; take the current problem now.
	if p := s.ctrl.Problem(); p != nil && p != s.problem {
		s.showProblem(p, s.ctrl.State())
	}
	return s, nil
}

func (s *PracticeScreen) handleEvent(ev session.Event) (screen.Screen, tea.Cmd) {
	// Any event from a finished session is enough to leave; EventComplete
	// itself may have been dropped by a full event pump.
	if ev.Kind == session.EventComplete || ev.State.Phase == session.PhaseComplete {
		s.state = ev.State
		return s, s.toSummary()
	}
	switch ev.Kind {
	case session.EventProblem:
		s.loading = false
		if ev.Problem != s.problem {
			s.showProblem(ev.Problem, ev.State)
		}
	case session.EventGraded:
		s.state = ev.State
		s.reveal()
	case session.EventFetchFailed:
		s.loading = false
		s.state = ev.State
		if ev.Err != nil {
			s.errMsg = ev.Err.Error()
		}
	default:
		s.state = ev.State
	}
	return s, nil
}

// toSummary replaces this screen with the session summary, once.
func (s *PracticeScreen) toSummary() tea.Cmd {
	if s.done {
		return nil
	}
	s.done = true
	next := summary.New(s.ctx, s.ctrl)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *PracticeScreen) showProblem(p *content.Problem, st session.State) {
	s.problem = p
	s.state = st
	s.errMsg = ""
	s.showSolution = false
	s.choices = components.NewMultiChoice(p.Choices)
}

// reveal shows the correct answer in practice mode. Contest mode only
// locks the chosen option.
func (s *PracticeScreen) reveal() {
	if s.problem == nil {
		return
	}
	if s.cfg.Mode == session.ModeContest {
		s.choices.Locked = true
		return
	}
	s.choices.Reveal(s.problem.ChoiceIndex(s.problem.CorrectAnswer))
}

// canShowSolution reports whether the worked solution may be opened: only
// in practice mode, after the answer has been revealed.
func (s *PracticeScreen) canShowSolution() bool {
	return s.cfg.Mode != session.ModeContest && s.problem != nil &&
		s.problem.Solution != "" && s.choices.Revealed
}

func (s *PracticeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.confirming != "" {
		action := s.confirming
		switch key {
		case "y", "Y", "enter":
			s.confirming = ""
			return s.confirm(action)
		case "n", "N", "esc":
			s.confirming = ""
		}
		return s, nil
	}

	switch key {
	case "q", "esc":
		if s.state.Phase == session.PhaseIdle {
			s.ctrl.Quit()
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		s.confirming = session.ActionQuit
		return s, nil
	case "p":
		switch s.state.Phase {
		case session.PhaseActive:
			s.ctrl.Pause()
		case session.PhasePaused:
			s.ctrl.Resume()
		}
		s.state = s.ctrl.State()
		return s, nil
	}

	if s.state.Phase != session.PhaseActive {
		return s, nil
	}

	switch key {
	case "s":
		if s.canShowSolution() {
			s.showSolution = !s.showSolution
		}
		return s, nil
	case "r":
		s.confirming = session.ActionRestart
		return s, nil
	case "f":
		ctx, ctrl := s.ctx, s.ctrl
		return s, func() tea.Msg { return finishedMsg{err: ctrl.Finish(ctx)} }
	case "n", "right":
		if s.loading {
			return s, nil
		}
		s.loading = true
		s.errMsg = ""
		ctx, ctrl := s.ctx, s.ctrl
		return s, tea.Batch(
			func() tea.Msg {
				out, err := ctrl.Advance(ctx)
				return advancedMsg{outcome: out, err: err}
			},
			s.spinner.Tick,
		)
	}

	if s.problem == nil {
		return s, nil
	}
	wasSubmitted := s.choices.Submitted()
	s.choices, _ = s.choices.Update(msg)
	if !wasSubmitted && s.choices.Submitted() {
		_, ok := s.ctrl.Submit(s.choices.ChosenLabel())
		if !ok {
			// Already answered or locked; undo the local selection.
			s.choices.Chosen = -1
			return s, nil
		}
		s.state = s.ctrl.State()
		s.reveal()
	}
	return s, nil
}

func (s *PracticeScreen) confirm(action session.Action) (screen.Screen, tea.Cmd) {
	switch action {
	case session.ActionQuit:
		s.ctrl.Quit()
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case session.ActionRestart:
		s.loading = true
		s.problem = nil
		s.showSolution = false
		s.errMsg = ""
		ctx, ctrl := s.ctx, s.ctrl
		return s, tea.Batch(
			func() tea.Msg { return startedMsg{err: ctrl.Restart(ctx)} },
			s.spinner.Tick,
		)
	}
	return s, nil
}

func (s *PracticeScreen) View(width, height int) string {
	cw := min(width-4, 80)
	var b strings.Builder

	switch {
	case s.confirming != "":
		b.WriteString(components.ArcadeCard(
			fmt.Sprintf("%s this session? Progress will be lost.\n\n[y] yes   [n] no",
				capitalize(string(s.confirming))), cw))

	case s.problem == nil && s.loading:
		b.WriteString(s.spinner.View() + " Loading problem...")

	case s.state.Phase == session.PhasePaused:
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("Paused"))
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("Press p to resume"))

	case s.problem != nil:
		b.WriteString(s.renderProblem(cw))
	}

	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Incorrect.Render(s.errMsg))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, b.String())
}

func (s *PracticeScreen) renderProblem(cw int) string {
	p := s.problem
	var b strings.Builder

	src := theme.Hint.Render(p.Source())
	if p.Difficulty != "" {
		src += lipgloss.NewStyle().Foreground(theme.Secondary).Render("  " + p.Difficulty)
	}
	b.WriteString(src)
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(cw).Render(p.Statement))
	b.WriteString("\n\n")
	b.WriteString(s.choices.View())

	if bar := renderProgress(s.state, cw); bar != "" {
		b.WriteString("\n")
		b.WriteString(bar)
	}

	if s.state.Answered {
		b.WriteString("\n\n")
		hint := "Press n for the next problem"
		if s.cfg.Mode == session.ModeContest {
			hint = "Next problem coming up..."
		}
		if s.loading {
			hint = s.spinner.View() + " Loading..."
		}
		b.WriteString(theme.Hint.Render(hint))
	}

	if s.showSolution && s.canShowSolution() {
		b.WriteString("\n\n")
		b.WriteString(components.ArcadeCard(theme.Title.Render("Solution")+"\n\n"+
			theme.Body.Width(cw-6).Render(p.Solution), cw))
	} else if s.canShowSolution() {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("Press s to see the solution"))
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
