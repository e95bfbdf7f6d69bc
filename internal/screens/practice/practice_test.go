package practice

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/amcdrill/internal/clock"
	"github.com/abhisek/amcdrill/internal/content"
	"github.com/abhisek/amcdrill/internal/router"
	"github.com/abhisek/amcdrill/internal/screen"
	"github.com/abhisek/amcdrill/internal/screens/summary"
	"github.com/abhisek/amcdrill/internal/session"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func problem(n int, correct string) *content.Problem {
	return &content.Problem{
		ID:            fmt.Sprintf("p%d", n),
		Number:        n,
		Statement:     fmt.Sprintf("What is %d + %d?", n, n),
		Choices:       []string{"1", "2", "3", "4", "5"},
		CorrectAnswer: correct,
		Contest:       "AMC 10A",
		Year:          2022,
	}
}

// startedScreen returns a practice screen whose session has been started.
func startedScreen(t *testing.T, mode session.Mode, problems ...*content.Problem) (*PracticeScreen, *session.Controller, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(epoch)
	src := content.NewMockSource(content.SessionInfo{SessionID: "s1", TotalProblems: len(problems)}, problems...)
	ctrl := session.New(src, nil, session.WithClock(clk))
	cfg := session.Config{Contest: "AMC 10A", Year: 2022, Mode: mode}

	s := New(context.Background(), ctrl, cfg)
	if err := ctrl.Start(context.Background(), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Update(startedMsg{})
	if s.problem == nil {
		t.Fatal("expected a problem after start")
	}
	return s, ctrl, clk
}

func TestPracticeScreen_Title(t *testing.T) {
	s := New(context.Background(), nil, session.Config{Mode: session.ModePractice})
	if s.Title() != "Practice" {
		t.Errorf("Title = %q, want Practice", s.Title())
	}
	s = New(context.Background(), nil, session.Config{Mode: session.ModeContest})
	if s.Title() != "Contest" {
		t.Errorf("Title = %q, want Contest", s.Title())
	}
}

func TestPracticeScreen_AnswerRevealsInPractice(t *testing.T) {
	s, ctrl, clk := startedScreen(t, session.ModePractice, problem(1, "B"), problem(2, "C"))

	clk.Advance(3 * time.Second)
	s.Update(key('a'))

	st := ctrl.State()
	if st.Attempted != 1 || st.Score != 0 {
		t.Fatalf("state = %+v, want one wrong attempt", st)
	}
	if !s.choices.Revealed || s.choices.Correct != 1 {
		t.Errorf("expected correct answer B revealed, got %+v", s.choices)
	}
	if !strings.Contains(s.View(100, 30), "Press n") {
		t.Error("expected next-problem hint after answering")
	}

	// A second answer on the same problem is ignored.
	s.Update(key('b'))
	if ctrl.State().Attempted != 1 {
		t.Error("second answer was graded")
	}
}

func TestPracticeScreen_ContestLocksWithoutReveal(t *testing.T) {
	s, _, _ := startedScreen(t, session.ModeContest, problem(1, "B"), problem(2, "C"))

	s.Update(key('b'))
	if s.choices.Revealed {
		t.Error("contest mode should not reveal the answer")
	}
	if !s.choices.Locked {
		t.Error("contest mode should lock the choices")
	}
}

func TestPracticeScreen_PauseAndResume(t *testing.T) {
	s, ctrl, _ := startedScreen(t, session.ModePractice, problem(1, "B"))

	s.Update(key('p'))
	if ctrl.State().Phase != session.PhasePaused {
		t.Fatalf("phase = %v, want paused", ctrl.State().Phase)
	}
	if !strings.Contains(s.Status(), "paused") {
		t.Errorf("status = %q, want paused marker", s.Status())
	}

	// Answers are ignored while paused.
	s.Update(key('b'))
	if ctrl.State().Attempted != 0 {
		t.Error("answer accepted while paused")
	}

	s.Update(key('p'))
	if ctrl.State().Phase != session.PhaseActive {
		t.Errorf("phase = %v, want active", ctrl.State().Phase)
	}
}

func TestPracticeScreen_QuitNeedsConfirmation(t *testing.T) {
	s, ctrl, _ := startedScreen(t, session.ModePractice, problem(1, "B"))

	_, cmd := s.Update(key('q'))
	if cmd != nil {
		t.Fatal("quit should ask first")
	}
	if s.confirming != session.ActionQuit {
		t.Fatalf("confirming = %q", s.confirming)
	}

	s.Update(key('n'))
	if s.confirming != "" || !ctrl.State().Running() {
		t.Fatal("declined quit should keep the session")
	}

	s.Update(key('q'))
	_, cmd = s.Update(key('y'))
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
	if ctrl.State().Phase != session.PhaseIdle {
		t.Errorf("phase = %v, want idle after quit", ctrl.State().Phase)
	}
}

func TestPracticeScreen_NextIssuesAdvance(t *testing.T) {
	s, _, _ := startedScreen(t, session.ModePractice, problem(1, "B"), problem(2, "C"))

	_, cmd := s.Update(key('n'))
	if cmd == nil || !s.loading {
		t.Fatal("expected an advance command")
	}

	// A second press while loading is ignored.
	if _, cmd := s.Update(key('n')); cmd != nil {
		t.Error("expected no command while loading")
	}
}

func TestPracticeScreen_ProblemEventShowsNewProblem(t *testing.T) {
	s, ctrl, _ := startedScreen(t, session.ModePractice, problem(1, "B"), problem(2, "C"))
	s.Update(key('b'))

	next := problem(2, "C")
	st := ctrl.State()
	st.Index = 2
	s.Update(screen.SessionEventMsg{Event: session.Event{Kind: session.EventProblem, State: st, Problem: next}})

	if s.problem != next {
		t.Fatal("expected the new problem")
	}
	if s.choices.Submitted() || s.choices.Revealed {
		t.Error("choices should reset for the new problem")
	}
}

func TestPracticeScreen_CompleteSwitchesToSummary(t *testing.T) {
	s, ctrl, _ := startedScreen(t, session.ModePractice, problem(1, "B"))
	s.Update(key('b'))
	if err := ctrl.Finish(context.Background()); err != nil {
		t.Fatalf("finish: %v", err)
	}

	_, cmd := s.Update(screen.SessionEventMsg{Event: session.Event{Kind: session.EventComplete, State: ctrl.State()}})
	if cmd == nil {
		t.Fatal("expected a replace command")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("got %T, want ReplaceScreenMsg", cmd())
	}
	if _, ok := msg.Screen.(*summary.SummaryScreen); !ok {
		t.Errorf("replacement is %T, want summary screen", msg.Screen)
	}
}

func TestPracticeScreen_StartErrorShown(t *testing.T) {
	s := New(context.Background(), nil, session.Config{Mode: session.ModePractice})
	s.Update(startedMsg{err: &session.InitializationError{Reason: "contest is not set"}})
	if !strings.Contains(s.View(100, 30), "contest is not set") {
		t.Error("expected start error in view")
	}
}

func TestPracticeScreen_KeyHints(t *testing.T) {
	s, _, _ := startedScreen(t, session.ModePractice, problem(1, "B"))
	if len(s.KeyHints()) != 6 {
		t.Errorf("KeyHints length = %d, want 6", len(s.KeyHints()))
	}
	s.Update(key('r'))
	if len(s.KeyHints()) != 2 {
		t.Errorf("confirm KeyHints length = %d, want 2", len(s.KeyHints()))
	}
}

func TestPracticeScreen_SolutionAfterReveal(t *testing.T) {
	p := problem(1, "B")
	p.Solution = "Add them: 1 + 1 = 2."
	s, _, _ := startedScreen(t, session.ModePractice, p, problem(2, "C"))

	s.Update(key('s'))
	if s.showSolution {
		t.Fatal("solution opened before answering")
	}

	s.Update(key('a'))
	if s.KeyHints()[0].Key != "s" {
		t.Errorf("KeyHints = %+v, want solution hint first", s.KeyHints())
	}
	s.Update(key('s'))
	if !s.showSolution || !strings.Contains(s.View(100, 40), "Add them: 1 + 1 = 2.") {
		t.Fatal("expected solution in view")
	}
	s.Update(key('s'))
	if s.showSolution {
		t.Error("second s should hide the solution")
	}

	s.Update(key('s'))
	st := s.state
	st.Index = 2
	s.Update(screen.SessionEventMsg{Event: session.Event{Kind: session.EventProblem, State: st, Problem: problem(2, "C")}})
	if s.showSolution {
		t.Error("solution should close on the next problem")
	}
}

func TestPracticeScreen_NoSolutionInContest(t *testing.T) {
	p := problem(1, "B")
	p.Solution = "Add them."
	s, _, _ := startedScreen(t, session.ModeContest, p, problem(2, "C"))

	s.Update(key('b'))
	s.Update(key('s'))
	if s.showSolution || strings.Contains(s.View(100, 40), "Add them.") {
		t.Error("contest mode must not show solutions")
	}
}

func TestPracticeScreen_SummaryWithoutCompleteEvent(t *testing.T) {
	isSummary := func(t *testing.T, cmd tea.Cmd) {
		t.Helper()
		if cmd == nil {
			t.Fatal("expected a replace command")
		}
		msg, ok := cmd().(router.ReplaceScreenMsg)
		if !ok {
			t.Fatalf("got %T, want ReplaceScreenMsg", cmd())
		}
		if _, ok := msg.Screen.(*summary.SummaryScreen); !ok {
			t.Errorf("replacement is %T, want summary screen", msg.Screen)
		}
	}

	t.Run("advance completed", func(t *testing.T) {
		s, _, _ := startedScreen(t, session.ModePractice, problem(1, "B"))
		_, cmd := s.Update(advancedMsg{outcome: session.OutcomeCompleted})
		isSummary(t, cmd)

		// Only one replacement per session.
		if _, cmd := s.Update(advancedMsg{outcome: session.OutcomeCompleted}); cmd != nil {
			t.Error("expected no second replacement")
		}
	})

	t.Run("finish", func(t *testing.T) {
		s, _, _ := startedScreen(t, session.ModePractice, problem(1, "B"))
		_, cmd := s.Update(finishedMsg{})
		isSummary(t, cmd)
	})

	t.Run("event from a finished session", func(t *testing.T) {
		s, ctrl, _ := startedScreen(t, session.ModePractice, problem(1, "B"))
		s.Update(key('b'))
		if err := ctrl.Finish(context.Background()); err != nil {
			t.Fatalf("finish: %v", err)
		}
		_, cmd := s.Update(screen.SessionEventMsg{Event: session.Event{Kind: session.EventSaveFailed, State: ctrl.State()}})
		isSummary(t, cmd)
	})
}

func TestRenderProgress(t *testing.T) {
	tests := []struct {
		st   session.State
		want string
	}{
		{session.State{Index: 1, Total: 5}, "0/5"},
		{session.State{Index: 1, Total: 5, Answered: true}, "1/5"},
		{session.State{Index: 5, Total: 5, Answered: true}, "5/5"},
	}
	for _, tt := range tests {
		if got := renderProgress(tt.st, 40); !strings.Contains(got, tt.want) {
			t.Errorf("renderProgress(%+v) = %q, want counter %q", tt.st, got, tt.want)
		}
	}
	if renderProgress(session.State{}, 40) != "" {
		t.Error("expected no bar without a total")
	}
}
