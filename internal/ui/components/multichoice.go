package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/amcdrill/internal/ui/theme"
)

// MultiChoice is a lettered multiple-choice selector. The correct answer
// is not known up front; the owner calls Reveal once the choice has been
// graded.
type MultiChoice struct {
	Options  []string
	Selected int

	// Chosen is the submitted option, or -1.
	Chosen int
	// Correct is the revealed correct option, or -1.
	Correct  int
	Revealed bool
	Locked   bool
}

// NewMultiChoice creates a selector over options.
func NewMultiChoice(options []string) MultiChoice {
	return MultiChoice{
		Options: options,
		Chosen:  -1,
		Correct: -1,
	}
}

// Label returns the letter for option i.
func Label(i int) string {
	return string(rune('A' + i))
}

// Submitted reports whether an option has been chosen.
func (m MultiChoice) Submitted() bool {
	return m.Chosen >= 0
}

// ChosenLabel returns the letter of the chosen option, or "".
func (m MultiChoice) ChosenLabel() string {
	if m.Chosen < 0 {
		return ""
	}
	return Label(m.Chosen)
}

// Reveal marks the graded result. correct may be -1 when the answer key
// does not match any option.
func (m *MultiChoice) Reveal(correct int) {
	m.Correct = correct
	m.Revealed = true
}

// Init returns nil.
func (m MultiChoice) Init() tea.Cmd {
	return nil
}

// Update handles navigation and selection. Letters a-e and digits 1-5
// choose directly; enter chooses the highlighted option.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted() || m.Locked {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := strings.ToLower(kmsg.String())
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		if len(m.Options) > 0 {
			m.Chosen = m.Selected
		}
	default:
		if len(key) == 1 {
			i := -1
			switch c := key[0]; {
			case c >= 'a' && c <= 'z':
				i = int(c - 'a')
			case c >= '1' && c <= '9':
				i = int(c - '1')
			}
			if i >= 0 && i < len(m.Options) {
				m.Selected = i
				m.Chosen = i
			}
		}
	}

	return m, nil
}

// View renders the options.
func (m MultiChoice) View() string {
	var b strings.Builder
	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted() && !m.Locked {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, Label(i), opt)

		style := theme.Body
		switch {
		case m.Revealed && i == m.Correct:
			style = theme.Correct
			line += "  ✓"
		case m.Revealed && i == m.Chosen:
			style = theme.Incorrect
			line += "  ✗"
		case m.Submitted() && i == m.Chosen:
			style = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
		case m.Submitted() || m.Locked:
			style = theme.Hint
		case i == m.Selected:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
