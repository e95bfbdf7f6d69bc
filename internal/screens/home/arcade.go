package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/amcdrill/internal/ui/theme"
)

const titleFull = ` █████╗ ███╗   ███╗ ██████╗██████╗ ██████╗ ██╗██╗     ██╗
██╔══██╗████╗ ████║██╔════╝██╔══██╗██╔══██╗██║██║     ██║
███████║██╔████╔██║██║     ██║  ██║██████╔╝██║██║     ██║
██╔══██║██║╚██╔╝██║██║     ██║  ██║██╔══██╗██║██║     ██║
██║  ██║██║ ╚═╝ ██║╚██████╗██████╔╝██║  ██║██║███████╗███████╗
╚═╝  ╚═╝╚═╝     ╚═╝ ╚═════╝╚═════╝ ╚═╝  ╚═╝╚═╝╚══════╝╚══════╝`

const titleCompact = "A · M · C · D · R · I · L · L"

// renderTitle returns the styled title block or compact fallback.
func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Accent).
		Bold(true)

	title := titleFull
	if compact || lipgloss.Width(titleFull) > cw+4 {
		title = titleCompact
	}
	w := max(cw, lipgloss.Width(title))
	return lipgloss.PlaceHorizontal(w, lipgloss.Center, style.Render(title))
}

// renderStatsBar renders the learner's history in a bordered box matching
// content width.
func renderStatsBar(st Stats, user string, cw int) string {
	label := lipgloss.NewStyle().Foreground(theme.TextDim)
	value := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)

	var stats string
	switch {
	case user == "":
		stats = label.Render("playing anonymously · results are not saved")
	case st.Sessions == 0:
		stats = label.Render(user+" · no sessions yet")
	default:
		best := "-"
		if st.BestScore != nil {
			best = fmt.Sprintf("%d", *st.BestScore)
		}
		stats = strings.Join([]string{
			label.Render(user),
			value.Render(fmt.Sprintf("%d sessions", st.Sessions)),
			value.Render("best " + best),
		}, label.Render("  ·  "))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw).
		Align(lipgloss.Center).
		Render(stats)
}
