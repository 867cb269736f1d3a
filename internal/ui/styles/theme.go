package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/models"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	// Base colors
	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// UI element colors
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Name: "Tokyo Night",

	Background:    lipgloss.Color("#1a1b26"),
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),
	Accent:    lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#7aa2f7"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
}

// Dracula is an alternate color theme
var Dracula = Theme{
	Name: "Dracula",

	Background:    lipgloss.Color("#282a36"),
	Foreground:    lipgloss.Color("#f8f8f2"),
	ForegroundDim: lipgloss.Color("#6272a4"),

	Primary:   lipgloss.Color("#bd93f9"),
	Secondary: lipgloss.Color("#ff79c6"),
	Accent:    lipgloss.Color("#8be9fd"),

	Success: lipgloss.Color("#50fa7b"),
	Warning: lipgloss.Color("#f1fa8c"),
	Error:   lipgloss.Color("#ff5555"),
	Info:    lipgloss.Color("#8be9fd"),

	Border:      lipgloss.Color("#44475a"),
	BorderFocus: lipgloss.Color("#bd93f9"),
	Selection:   lipgloss.Color("#44475a"),
}

// Current holds the active theme
var Current = TokyoNight

var themes = map[string]Theme{
	"tokyonight": TokyoNight,
	"dracula":    Dracula,
}

// SetTheme switches the active theme by its config name. Unknown names leave
// the current theme untouched and report false. Call before NewStyles.
func SetTheme(name string) bool {
	t, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return false
	}
	Current = t
	return true
}

// MaxWidth is the maximum content width; four lanes side by side need more
// room than a classic 80-column view.
const MaxWidth = 120

// ContentWidth returns the actual content width to use (min of terminal width and MaxWidth)
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView wraps content and centers it horizontally if terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// StatusColor returns the accent color for a board lane.
func StatusColor(s models.Status) lipgloss.Color {
	t := Current
	switch s {
	case models.StatusTodo:
		return t.ForegroundDim
	case models.StatusInProgress:
		return t.Info
	case models.StatusInReview:
		return t.Secondary
	case models.StatusCompleted:
		return t.Success
	}
	return t.Foreground
}

// PriorityColor returns the accent color for a task priority.
func PriorityColor(p models.Priority) lipgloss.Color {
	t := Current
	switch p {
	case models.PriorityLow:
		return t.Success
	case models.PriorityMedium:
		return t.Warning
	case models.PriorityHigh:
		return lipgloss.Color("#ff9e64")
	case models.PriorityUrgent:
		return t.Error
	}
	return t.Foreground
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	// Title bar
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	// Lists
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	// Board lanes
	Lane        lipgloss.Style
	LaneFocused lipgloss.Style
	LaneDrop    lipgloss.Style
	LaneHeader  lipgloss.Style

	// Task cards
	Card        lipgloss.Style
	CardCursor  lipgloss.Style
	CardGrabbed lipgloss.Style

	// Buttons
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	// Input fields
	Input        lipgloss.Style
	InputFocused lipgloss.Style

	// Toast notifications
	ToastError   lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastInfo    lipgloss.Style

	// Chat transcript
	ChatUser      lipgloss.Style
	ChatAssistant lipgloss.Style
	ChatError     lipgloss.Style
	ChatSuccess   lipgloss.Style
	ChatPanel     lipgloss.Style

	// Overlays
	Popup lipgloss.Style

	// Help text
	Help    lipgloss.Style
	HelpKey lipgloss.Style
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),

		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		Lane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		LaneFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		LaneDrop: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(t.Accent).
			Padding(0, 1),

		LaneHeader: lipgloss.NewStyle().
			Bold(true),

		Card: lipgloss.NewStyle().
			Foreground(t.Foreground),

		CardCursor: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Bold(true),

		CardGrabbed: lipgloss.NewStyle().
			Foreground(t.Accent).
			Italic(true).
			Bold(true),

		Button: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		ButtonFocused: lipgloss.NewStyle().
			Foreground(t.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 2).
			Bold(true),

		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		Input: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		ToastError: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),

		ToastSuccess: lipgloss.NewStyle().
			Foreground(t.Success).
			Bold(true),

		ToastInfo: lipgloss.NewStyle().
			Foreground(t.Info),

		ChatUser: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true),

		ChatAssistant: lipgloss.NewStyle().
			Foreground(t.Foreground),

		ChatError: lipgloss.NewStyle().
			Foreground(t.Error),

		ChatSuccess: lipgloss.NewStyle().
			Foreground(t.Success),

		ChatPanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		Popup: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(1, 2),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),
	}
}
