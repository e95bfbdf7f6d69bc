package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/amcdrill/internal/router"
	"github.com/abhisek/amcdrill/internal/screen"
	"github.com/abhisek/amcdrill/internal/session"
	"github.com/abhisek/amcdrill/internal/ui/layout"
	"github.com/abhisek/amcdrill/internal/ui/theme"
)

// Source provides the summary of the finished session. *session.Controller
// implements it.
type Source interface {
	Summary() session.Summary
	RetrySave(ctx context.Context) bool
}

// SummaryScreen displays the session summary.
type SummaryScreen struct {
	ctx     context.Context
	src     Source
	summary session.Summary
	saving  bool
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(ctx context.Context, src Source) *SummaryScreen {
	if ctx == nil {
		ctx = context.Background()
	}
	sum := src.Summary()
	return &SummaryScreen{ctx: ctx, src: src, summary: sum, saving: sum.SavePending}
}

func (s *SummaryScreen) Init() tea.Cmd {
	// A save result may have landed between completion and the screen swap.
	s.summary = s.src.Summary()
	s.saving = s.summary.SavePending
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Home"},
	}
	if s.canRetry() {
		hints = append(hints, layout.KeyHint{Key: "s", Description: "Retry save"})
	}
	return hints
}

func (s *SummaryScreen) canRetry() bool {
	return !s.saving && !s.summary.ResultsSaved && s.summary.SaveError != ""
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.SessionEventMsg:
		switch msg.Event.Kind {
		case session.EventSaved, session.EventSaveFailed:
			s.summary = s.src.Summary()
			s.saving = s.summary.SavePending
		}
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "s":
			if s.canRetry() && s.src.RetrySave(s.ctx) {
				s.saving = true
			}
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	center := func(str string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, str)
	}

	var b strings.Builder

	b.WriteString(center(theme.Title.Render("Session complete!")))
	b.WriteString("\n\n")

	if sum.Contest != "" {
		set := sum.Contest
		if sum.Year > 0 {
			set = fmt.Sprintf("%s %d", sum.Contest, sum.Year)
		}
		b.WriteString(center(theme.Hint.Render(fmt.Sprintf("%s · %s", set, sum.Mode))))
		b.WriteString("\n\n")
	}

	statsLine := fmt.Sprintf("Score: %d/%d        Accuracy: %.0f%%        Time: %s        Avg: %s",
		sum.Score, sum.Attempted, sum.Accuracy*100,
		formatDuration(sum.Elapsed), formatDuration(sum.AverageTime))
	b.WriteString(center(theme.Body.Render(statsLine)))
	b.WriteString("\n\n")

	b.WriteString(center(s.saveStatus()))
	b.WriteString("\n\n")

	if len(sum.Review) > 0 {
		divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
			strings.Repeat("─", min(width-8, 60)))
		b.WriteString(center(theme.Hint.Render("Review")))
		b.WriteString("\n")
		b.WriteString(center(divider))
		b.WriteString("\n\n")

		for _, item := range sum.Review {
			line := fmt.Sprintf("  %s    answered %s, correct %s    %s",
				item.Problem.Source(), item.Choice, item.Problem.CorrectAnswer,
				formatDuration(item.TimeSpent))
			b.WriteString(center(theme.Incorrect.Render(line)))
			b.WriteString("\n")
		}
	} else if sum.Attempted > 0 {
		b.WriteString(center(theme.Correct.Render("No misses. Nice work!")))
		b.WriteString("\n")
	}

	return b.String()
}

func (s *SummaryScreen) saveStatus() string {
	sum := s.summary
	switch {
	case sum.ResultsSaved:
		return theme.Correct.Render("✓ Results saved")
	case s.saving:
		return theme.Hint.Render("Saving...")
	case sum.SaveError != "":
		return theme.Incorrect.Render("✗ Save failed: " + sum.SaveError)
	default:
		return theme.Hint.Render("Results not saved")
	}
}

func formatDuration(d time.Duration) string {
	return layout.FormatClock(int64(d / time.Second))
}
