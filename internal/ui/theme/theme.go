package theme

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"
)

// Palette is the set of colors a skin provides.
type Palette struct {
	Name      string
	Primary   color.Color
	Secondary color.Color
	Accent    color.Color
	Success   color.Color
	Error     color.Color
	Text      color.Color
	TextDim   color.Color
	BgDark    color.Color
	BgCard    color.Color
	Border    color.Color
}

var palettes = map[string]Palette{
	"classic": {
		Name:      "Classic",
		Primary:   lipgloss.Color("#8B5CF6"), // Vivid Purple
		Secondary: lipgloss.Color("#14B8A6"), // Teal
		Accent:    lipgloss.Color("#F97316"), // Orange
		Success:   lipgloss.Color("#22C55E"),
		Error:     lipgloss.Color("#F43F5E"),
		Text:      lipgloss.Color("#F8FAFC"),
		TextDim:   lipgloss.Color("#94A3B8"),
		BgDark:    lipgloss.Color("#0F172A"),
		BgCard:    lipgloss.Color("#1E293B"),
		Border:    lipgloss.Color("#334155"),
	},
	"minecraft": {
		Name:      "Minecraft",
		Primary:   lipgloss.Color("#5D9C3F"), // Grass
		Secondary: lipgloss.Color("#8B5A2B"), // Dirt
		Accent:    lipgloss.Color("#F2C14E"), // Gold
		Success:   lipgloss.Color("#7CFC00"),
		Error:     lipgloss.Color("#D7263D"), // Redstone
		Text:      lipgloss.Color("#F0F0F0"),
		TextDim:   lipgloss.Color("#A0A0A0"),
		BgDark:    lipgloss.Color("#1B1B1B"),
		BgCard:    lipgloss.Color("#2E2E2E"), // Stone
		Border:    lipgloss.Color("#555555"),
	},
	"ocean": {
		Name:      "Ocean",
		Primary:   lipgloss.Color("#0EA5E9"), // Sky
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Accent:    lipgloss.Color("#FCD34D"), // Sand
		Success:   lipgloss.Color("#34D399"),
		Error:     lipgloss.Color("#FB7185"), // Coral
		Text:      lipgloss.Color("#F0F9FF"),
		TextDim:   lipgloss.Color("#7DD3FC"),
		BgDark:    lipgloss.Color("#082F49"),
		BgCard:    lipgloss.Color("#0C4A6E"),
		Border:    lipgloss.Color("#075985"),
	},
}

// DefaultSkin is used when no skin is selected.
const DefaultSkin = "classic"

// Color palette of the active skin.
var (
	Primary   color.Color
	Secondary color.Color
	Accent    color.Color
	Success   color.Color
	Error     color.Color
	Text      color.Color
	TextDim   color.Color
	BgDark    color.Color
	BgCard    color.Color
	Border    color.Color

	active string
)

// Styles derived from the active palette.
var (
	Title     lipgloss.Style
	Body      lipgloss.Style
	Hint      lipgloss.Style
	Selected  lipgloss.Style
	Correct   lipgloss.Style
	Incorrect lipgloss.Style
)

func init() {
	apply(palettes[DefaultSkin])
	active = DefaultSkin
}

// Skins returns the available skin names, sorted.
func Skins() []string {
	names := make([]string, 0, len(palettes))
	for k := range palettes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Active returns the name of the skin in use.
func Active() string { return active }

// DisplayName returns the human name of a skin, or the input if unknown.
func DisplayName(skin string) string {
	if p, ok := palettes[strings.ToLower(skin)]; ok {
		return p.Name
	}
	return skin
}

// Use switches every color and style to the named skin. An empty name
// selects DefaultSkin. Not safe to call while a frame is rendering.
func Use(skin string) error {
	skin = strings.ToLower(strings.TrimSpace(skin))
	if skin == "" {
		skin = DefaultSkin
	}
	p, ok := palettes[skin]
	if !ok {
		return fmt.Errorf("unknown skin %q (available: %s)", skin, strings.Join(Skins(), ", "))
	}
	apply(p)
	active = skin
	return nil
}

// Next returns the skin after the given one, wrapping around.
func Next(skin string) string {
	names := Skins()
	for i, n := range names {
		if n == strings.ToLower(skin) {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

func apply(p Palette) {
	Primary, Secondary, Accent = p.Primary, p.Secondary, p.Accent
	Success, Error = p.Success, p.Error
	Text, TextDim = p.Text, p.TextDim
	BgDark, BgCard, Border = p.BgDark, p.BgCard, p.Border

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim)

	Selected = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
}
