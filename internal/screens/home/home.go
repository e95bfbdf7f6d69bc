package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/amcdrill/internal/content"
	"github.com/abhisek/amcdrill/internal/logging"
	"github.com/abhisek/amcdrill/internal/router"
	"github.com/abhisek/amcdrill/internal/screen"
	"github.com/abhisek/amcdrill/internal/screens/practice"
	"github.com/abhisek/amcdrill/internal/session"
	"github.com/abhisek/amcdrill/internal/ui/components"
	"github.com/abhisek/amcdrill/internal/ui/layout"
	"github.com/abhisek/amcdrill/internal/ui/theme"
)

// Stats is the learner history shown on the home screen.
type Stats struct {
	Sessions  int
	BestScore *int
}

// StatsLoader fetches the current learner's stats.
type StatsLoader func(ctx context.Context) (Stats, error)

// Deps wires the home screen to the rest of the application.
type Deps struct {
	Ctx        context.Context
	Controller *session.Controller
	Defaults   session.Config
	Stats      StatsLoader
}

// statsMsg delivers loaded stats.
type statsMsg struct {
	stats Stats
}

const (
	itemPractice = iota
	itemContest
	itemSet
	itemShuffle
	itemSkin
	itemExit
)

// HomeScreen is the main menu: it picks the problem set and mode and
// starts a session.
type HomeScreen struct {
	deps  Deps
	cfg   session.Config
	menu  menu
	stats Stats

	editing bool
	input   components.TextInput
	err     string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps Deps) *HomeScreen {
	if deps.Ctx == nil {
		deps.Ctx = context.Background()
	}
	h := &HomeScreen{deps: deps, cfg: deps.Defaults}
	if h.cfg.Skin == "" {
		h.cfg.Skin = theme.Active()
	}
	if h.cfg.Mode == "" {
		h.cfg.Mode = session.ModePractice
	}

	h.menu = menu{items: []menuItem{
		itemPractice: {
			label:  func() string { return "PRACTICE" },
			action: func() tea.Cmd { return h.start(session.ModePractice) },
		},
		itemContest: {
			label:  func() string { return "CONTEST" },
			action: func() tea.Cmd { return h.start(session.ModeContest) },
		},
		itemSet: {
			label:  func() string { return "SET: " + setLabel(h.cfg) },
			action: h.beginEdit,
		},
		itemShuffle: {
			label: func() string {
				if h.cfg.Shuffle {
					return "SHUFFLE: ON"
				}
				return "SHUFFLE: OFF"
			},
			action: func() tea.Cmd {
				h.cfg.Shuffle = !h.cfg.Shuffle
				return nil
			},
		},
		itemSkin: {
			label:  func() string { return "SKIN: " + strings.ToUpper(theme.DisplayName(h.cfg.Skin)) },
			action: h.cycleSkin,
		},
		itemExit: {
			label:  func() string { return "EXIT" },
			action: func() tea.Cmd { return tea.Quit },
		},
	}}
	return h
}

// Config returns the session configuration currently selected.
func (h *HomeScreen) Config() session.Config {
	return h.cfg
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadStats()
}

func (h *HomeScreen) loadStats() tea.Cmd {
	if h.deps.Stats == nil || h.cfg.User == "" {
		return nil
	}
	load, ctx := h.deps.Stats, h.deps.Ctx
	return func() tea.Msg {
		st, err := load(ctx)
		if err != nil {
			logging.Warn("load stats: %v", err)
		}
		return statsMsg{stats: st}
	}
}

func (h *HomeScreen) start(mode session.Mode) tea.Cmd {
	if strings.TrimSpace(h.cfg.Contest) == "" {
		h.err = "Pick a problem set first"
		return nil
	}
	if h.deps.Controller == nil {
		h.err = "No content service configured"
		return nil
	}
	h.err = ""
	cfg := h.cfg
	cfg.Mode = mode
	p := practice.New(h.deps.Ctx, h.deps.Controller, cfg)
	return func() tea.Msg { return router.PushScreenMsg{Screen: p} }
}

func (h *HomeScreen) beginEdit() tea.Cmd {
	h.editing = true
	h.err = ""
	h.input = components.NewTextInput("AMC10A_2022", 32)
	if h.cfg.Contest != "" {
		h.input.Model.SetValue(contestID(h.cfg))
	}
	return h.input.Init()
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsMsg:
		h.stats = msg.stats
		return h, nil
	case screen.SessionEventMsg:
		if msg.Event.Kind == session.EventSaved {
			return h, h.loadStats()
		}
		return h, nil
	}

	if h.editing {
		if kmsg, ok := msg.(tea.KeyMsg); ok {
			switch kmsg.String() {
			case "enter":
				h.cfg.Contest, h.cfg.Year = content.ParseContestID(h.input.Value())
				h.editing = false
				return h, nil
			case "esc":
				h.editing = false
				return h, nil
			}
		}
		var cmd tea.Cmd
		h.input, cmd = h.input.Update(msg)
		return h, cmd
	}

	if kmsg, ok := msg.(tea.KeyMsg); ok {
		return h, h.menu.update(kmsg)
	}
	return h, nil
}

func (h *HomeScreen) cycleSkin() tea.Cmd {
	next := theme.Next(h.cfg.Skin)
	if err := theme.Use(next); err != nil {
		logging.Warn("switch skin: %v", err)
		return nil
	}
	h.cfg.Skin = next
	return nil
}

// setLabel names the selected problem set.
func setLabel(cfg session.Config) string {
	switch {
	case cfg.Contest != "" && cfg.Year > 0:
		return fmt.Sprintf("%s %d", cfg.Contest, cfg.Year)
	case cfg.Contest != "":
		return cfg.Contest
	}
	return "(none)"
}

// contestID renders the selection as the service's contest id.
func contestID(cfg session.Config) string {
	if cfg.Year == 0 {
		return strings.ReplaceAll(cfg.Contest, " ", "")
	}
	return content.ContestID(cfg.Contest, cfg.Year)
}

func (h *HomeScreen) View(width, height int) string {
	compact := layout.IsCompactHeight(height+layout.HeaderHeight+layout.FooterHeight) || layout.IsCompactWidth(width)
	cw := components.ContentWidth(width)

	sections := []string{
		renderTitle(cw, compact),
		renderStatsBar(h.stats, h.cfg.User, cw),
	}

	if h.editing {
		prompt := theme.Hint.Render("Problem set id, e.g. AMC10A_2022:")
		sections = append(sections, components.ArcadeCard(prompt+"\n\n"+h.input.View(), cw))
	} else {
		sections = append(sections, h.menu.view(cw))
	}

	if h.err != "" {
		sections = append(sections, theme.Incorrect.Render(h.err))
	}

	return components.CabinetFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	if h.editing {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Save"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
