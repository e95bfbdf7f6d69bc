package practice

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/amcdrill/internal/session"
	"github.com/abhisek/amcdrill/internal/ui/theme"
)

// answeredCount is how many problems of the session are behind the player.
func answeredCount(st session.State) int {
	n := st.Index - 1
	if st.Answered {
		n = st.Index
	}
	return max(0, min(n, st.Total))
}

// renderProgress draws the session bar: one cell per answered share of
// the set, followed by an "answered/total" counter.
func renderProgress(st session.State, width int) string {
	if st.Total <= 0 {
		return ""
	}
	done := answeredCount(st)
	counter := fmt.Sprintf("  %d/%d", done, st.Total)

	barWidth := max(4, width-lipgloss.Width(counter))
	filled := barWidth * done / st.Total

	bar := lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled)) +
		lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))
	return bar + theme.Hint.Render(counter)
}
