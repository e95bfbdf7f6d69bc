package home

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/amcdrill/internal/ui/components"
)

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 28

// menuItem is one home menu entry. The label is computed on every render
// so it always reflects the current session selection.
type menuItem struct {
	label  func() string
	action func() tea.Cmd
}

// menu is the vertical home menu. Selection stops at both ends.
type menu struct {
	items    []menuItem
	selected int
}

func (m *menu) label(i int) string {
	if i < 0 || i >= len(m.items) || m.items[i].label == nil {
		return ""
	}
	return m.items[i].label()
}

// update moves the selection or runs the selected action.
func (m *menu) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.items)-1 {
			m.selected++
		}
	case "enter":
		if m.selected >= 0 && m.selected < len(m.items) && m.items[m.selected].action != nil {
			return m.items[m.selected].action()
		}
	}
	return nil
}

// view renders each item as a fixed-width arcade button.
func (m *menu) view(cw int) string {
	buttons := make([]string, 0, len(m.items))
	for i := range m.items {
		buttons = append(buttons, components.ArcadeButton(m.label(i), i == m.selected, buttonWidth))
	}
	return lipgloss.PlaceHorizontal(cw, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, buttons...))
}
