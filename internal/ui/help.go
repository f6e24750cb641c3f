package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	keys  [][2]string
}

var helpSections = []helpSection{
	{"Terraform", [][2]string{
		{"i", "init"},
		{"p", "plan"},
		{"a", "apply (answer prompts in the output window)"},
		{"v", "validate"},
		{"f", "fmt -diff"},
		{"w", "switch to the next workspace"},
	}},
	{"Navigation", [][2]string{
		{"↑/k ↓/j", "move in the focused pane"},
		{"enter", "open file / replay history entry"},
		{"tab", "next open file"},
		{"x", "close file"},
		{"/", "find file"},
		{"h", "toggle history"},
		{"y", "copy history command"},
		{"r", "refresh"},
	}},
	{"Output window", [][2]string{
		{"enter", "send the input line to the command"},
		{"pgup/pgdn", "scroll"},
		{"esc", "cancel the command and close"},
	}},
	{"General", [][2]string{
		{"?", "this help"},
		{"q / ctrl+c", "quit"},
	}},
}

// HelpOverlay shows keyboard shortcuts in a modal
type HelpOverlay struct {
	visible bool
	width   int
	height  int
}

// NewHelpOverlay creates a new help overlay
func NewHelpOverlay() *HelpOverlay {
	return &HelpOverlay{}
}

func (h *HelpOverlay) Show()           { h.visible = true }
func (h *HelpOverlay) Hide()           { h.visible = false }
func (h *HelpOverlay) IsVisible() bool { return h.visible }

// SetSize sets the dimensions for centering
func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// Update closes the overlay on any key.
func (h *HelpOverlay) Update(msg tea.Msg) (*HelpOverlay, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok && h.visible {
		h.Hide()
	}
	return h, nil
}

// View renders the overlay centered on screen.
func (h *HelpOverlay) View() string {
	if !h.visible {
		return ""
	}
	keyStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Width(12)

	var b strings.Builder
	b.WriteString(DialogTitleStyle.Render("tfdeck keys"))
	for _, s := range helpSections {
		b.WriteString("\n\n" + PanelTitleStyle.Render(s.title))
		for _, kv := range s.keys {
			b.WriteString("\n" + keyStyle.Render(kv[0]) + MenuDescStyle.Render(kv[1]))
		}
	}
	b.WriteString("\n\n" + DimStyle.Render("press any key to close"))
	return centerOverlay(DialogBoxStyle.Render(b.String()), h.width, h.height)
}
