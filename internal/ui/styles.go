package ui

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents the current color scheme
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

var currentTheme Theme = ThemeDark

type palette struct {
	Bg, Surface, Border, Text, TextDim  lipgloss.Color
	Accent, Purple, Cyan, Green, Yellow lipgloss.Color
	Orange, Red, Comment                lipgloss.Color
}

// Dark palette built around the terraform purple.
var darkColors = palette{
	Bg:      lipgloss.Color("#16161e"),
	Surface: lipgloss.Color("#222231"),
	Border:  lipgloss.Color("#3d3b57"),
	Text:    lipgloss.Color("#d4d2e8"),
	TextDim: lipgloss.Color("#7c7a96"),
	Accent:  lipgloss.Color("#9b6ef3"),
	Purple:  lipgloss.Color("#c3a6ff"),
	Cyan:    lipgloss.Color("#62d0e6"),
	Green:   lipgloss.Color("#8fd18b"),
	Yellow:  lipgloss.Color("#e6c06a"),
	Orange:  lipgloss.Color("#f29b5c"),
	Red:     lipgloss.Color("#f2707f"),
	Comment: lipgloss.Color("#6e6c88"),
}

var lightColors = palette{
	Bg:      lipgloss.Color("#f4f3f8"),
	Surface: lipgloss.Color("#e8e6f0"),
	Border:  lipgloss.Color("#a9a5bd"),
	Text:    lipgloss.Color("#2b2840"),
	TextDim: lipgloss.Color("#67647d"),
	Accent:  lipgloss.Color("#5c2fb0"),
	Purple:  lipgloss.Color("#7b42bc"),
	Cyan:    lipgloss.Color("#0f6f80"),
	Green:   lipgloss.Color("#3d6b2c"),
	Yellow:  lipgloss.Color("#8a6300"),
	Orange:  lipgloss.Color("#a3521d"),
	Red:     lipgloss.Color("#a33a4c"),
	Comment: lipgloss.Color("#77748c"),
}

// Active colors, set by InitTheme.
var (
	ColorBg      lipgloss.Color
	ColorSurface lipgloss.Color
	ColorBorder  lipgloss.Color
	ColorText    lipgloss.Color
	ColorTextDim lipgloss.Color
	ColorAccent  lipgloss.Color
	ColorPurple  lipgloss.Color
	ColorCyan    lipgloss.Color
	ColorGreen   lipgloss.Color
	ColorYellow  lipgloss.Color
	ColorOrange  lipgloss.Color
	ColorRed     lipgloss.Color
	ColorComment lipgloss.Color
)

// themeMu protects the color and style globals during live theme switches.
var themeMu sync.RWMutex

// InitTheme sets the active palette. Anything but "light" selects dark.
// Must be called before rendering.
func InitTheme(theme string) {
	themeMu.Lock()
	defer themeMu.Unlock()

	p := darkColors
	currentTheme = ThemeDark
	if theme == "light" {
		p = lightColors
		currentTheme = ThemeLight
	}
	ColorBg = p.Bg
	ColorSurface = p.Surface
	ColorBorder = p.Border
	ColorText = p.Text
	ColorTextDim = p.TextDim
	ColorAccent = p.Accent
	ColorPurple = p.Purple
	ColorCyan = p.Cyan
	ColorGreen = p.Green
	ColorYellow = p.Yellow
	ColorOrange = p.Orange
	ColorRed = p.Red
	ColorComment = p.Comment
	initStyles()
}

// GetCurrentTheme returns the active theme
func GetCurrentTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

func init() {
	InitTheme("dark")
}

var (
	TitleStyle     lipgloss.Style
	HighlightStyle lipgloss.Style
	DimStyle       lipgloss.Style
	ErrorStyle     lipgloss.Style
	SuccessStyle   lipgloss.Style
	WarningStyle   lipgloss.Style
	InfoStyle      lipgloss.Style
)

// Menu bar
var (
	MenuBarStyle       lipgloss.Style
	MenuKeyStyle       lipgloss.Style
	MenuDescStyle      lipgloss.Style
	MenuSeparatorStyle lipgloss.Style
)

// Overlays
var (
	SearchBoxStyle    lipgloss.Style
	SearchPromptStyle lipgloss.Style
	DialogBoxStyle    lipgloss.Style
	DialogTitleStyle  lipgloss.Style
)

// Panes
var (
	PanelTitleStyle   lipgloss.Style
	PanelRuleStyle    lipgloss.Style
	FolderStyle       lipgloss.Style
	FileStyle         lipgloss.Style
	SelectedStyle     lipgloss.Style
	TabStyle          lipgloss.Style
	TabActiveStyle    lipgloss.Style
	TimestampStyle    lipgloss.Style
	CommandStyle      lipgloss.Style
	WorkspaceActive   lipgloss.Style
	ModalCommandTag   lipgloss.Style
	HistoryErrorStyle lipgloss.Style
	OutputPromptStyle lipgloss.Style
	SpinnerStyle      lipgloss.Style
	StatusBarStyle    lipgloss.Style
)

func initStyles() {
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorAccent).
		Background(ColorSurface).
		Padding(0, 1)

	HighlightStyle = lipgloss.NewStyle().
		Foreground(ColorBg).
		Background(ColorAccent).
		Bold(true)

	DimStyle = lipgloss.NewStyle().Foreground(ColorComment)
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	InfoStyle = lipgloss.NewStyle().Foreground(ColorCyan)

	MenuBarStyle = lipgloss.NewStyle().
		Background(ColorSurface).
		Foreground(ColorText).
		Padding(0, 1)
	MenuKeyStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	MenuDescStyle = lipgloss.NewStyle().Foreground(ColorText)
	MenuSeparatorStyle = lipgloss.NewStyle().Foreground(ColorBorder)

	SearchBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(0, 1).
		Foreground(ColorText)
	SearchPromptStyle = lipgloss.NewStyle().Foreground(ColorPurple).Bold(true)

	DialogBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPurple).
		Padding(0, 1).
		Background(ColorSurface)
	DialogTitleStyle = lipgloss.NewStyle().Foreground(ColorPurple).Bold(true)

	PanelTitleStyle = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)
	PanelRuleStyle = lipgloss.NewStyle().Foreground(ColorBorder)
	FolderStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	FileStyle = lipgloss.NewStyle().Foreground(ColorText)
	SelectedStyle = lipgloss.NewStyle().Foreground(ColorBg).Background(ColorAccent).Bold(true)

	TabStyle = lipgloss.NewStyle().Foreground(ColorTextDim).Padding(0, 1)
	TabActiveStyle = lipgloss.NewStyle().
		Foreground(ColorBg).
		Background(ColorPurple).
		Bold(true).
		Padding(0, 1)

	TimestampStyle = lipgloss.NewStyle().Foreground(ColorComment).Italic(true)
	CommandStyle = lipgloss.NewStyle().Foreground(ColorText)
	WorkspaceActive = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	ModalCommandTag = lipgloss.NewStyle().Foreground(ColorOrange)
	HistoryErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)
	OutputPromptStyle = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	SpinnerStyle = lipgloss.NewStyle().Foreground(ColorPurple)
	StatusBarStyle = lipgloss.NewStyle().Foreground(ColorTextDim)
}

// MenuKey creates a formatted menu item with key and description
func MenuKey(key, description string) string {
	return fmt.Sprintf("%s %s %s",
		MenuKeyStyle.Render(key),
		MenuSeparatorStyle.Render("•"),
		MenuDescStyle.Render(description),
	)
}

// OutcomeIndicator returns a styled marker for a command outcome.
// ● running, ✓ success, ✕ failed, ⏱ timeout, ○ canceled
func OutcomeIndicator(outcome string) string {
	themeMu.RLock()
	defer themeMu.RUnlock()
	switch outcome {
	case "running":
		return WarningStyle.Render("●")
	case "success":
		return SuccessStyle.Render("✓")
	case "failed":
		return ErrorStyle.Render("✕")
	case "timeout":
		return ErrorStyle.Render("⏱")
	default:
		return DimStyle.Render("○")
	}
}
