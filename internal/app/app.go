package app

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/amcdrill/internal/logging"
	"github.com/abhisek/amcdrill/internal/router"
	"github.com/abhisek/amcdrill/internal/screen"
	"github.com/abhisek/amcdrill/internal/session"
	"github.com/abhisek/amcdrill/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	start  screen.Screen
	events <-chan session.Event
	width  int
	height int
}

// newAppModel creates a new AppModel rooted at initial, with start (if
// any) pushed on top. Controller events read from events are forwarded to
// the active screen.
func newAppModel(initial, start screen.Screen, events <-chan session.Event) AppModel {
	return AppModel{
		router: router.New(initial),
		start:  start,
		events: events,
	}
}

// waitEvent blocks until the next controller event.
func waitEvent(events <-chan session.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return screen.SessionEventMsg{Event: ev}
	}
}

func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.router.Active().Init(), waitEvent(m.events)}
	if m.start != nil {
		cmds = append(cmds, m.router.Push(m.start))
	}
	return tea.Batch(cmds...)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case screen.SessionEventMsg:
		cmd := m.router.Update(msg)
		return m, tea.Batch(cmd, waitEvent(m.events))
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render composes header, active screen and footer for the current size.
func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title, status := "", ""
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.Status()
		}
	}

	header := layout.RenderHeader(title, status, m.width)

	var footerHints []layout.KeyHint
	if kp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = kp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// EventPump buffers controller events for the program. Send never blocks:
// when the buffer is full the event is dropped, since screens re-read the
// controller state on the next event anyway.
type EventPump struct {
	ch chan session.Event
}

// NewEventPump creates a pump buffering up to size events.
func NewEventPump(size int) *EventPump {
	if size <= 0 {
		size = 64
	}
	return &EventPump{ch: make(chan session.Event, size)}
}

// Send queues ev. It is meant to be passed to session.WithListener.
func (p *EventPump) Send(ev session.Event) {
	select {
	case p.ch <- ev:
	default:
		logging.Debug("event queue full, dropping %v event", ev.Kind)
	}
}

// Events returns the receive side of the pump.
func (p *EventPump) Events() <-chan session.Event {
	return p.ch
}

// Options configures Run.
type Options struct {
	// Home is the root screen.
	Home screen.Screen
	// Start, if set, is opened over Home right away.
	Start screen.Screen
	// Events feeds controller events to the screens. May be nil.
	Events <-chan session.Event
	// LogFile receives log output while the program owns the terminal.
	// Empty discards logs.
	LogFile string
	Output  io.Writer
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	// Log lines would corrupt the alt screen.
	if opts.LogFile != "" {
		closeLog, err := logging.OpenFile(opts.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()
	} else {
		prev := logging.SetOutput(io.Discard)
		defer logging.SetOutput(prev)
	}

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	p := tea.NewProgram(newAppModel(opts.Home, opts.Start, opts.Events), progOpts...)
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
