package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

const maxSearchResults = 10

// fileSelectedMsg is sent when a search result is picked.
type fileSelectedMsg struct{ path string }

// Search is the fuzzy file finder overlay.
type Search struct {
	input   textinput.Model
	items   []string
	results []fuzzy.Match
	cursor  int
	width   int
	height  int
	visible bool
}

// NewSearch creates a hidden search overlay
func NewSearch() *Search {
	ti := textinput.New()
	ti.Placeholder = "Search files..."
	ti.CharLimit = 200
	ti.Width = 50
	return &Search{input: ti}
}

// SetItems replaces the searchable paths.
func (s *Search) SetItems(items []string) {
	s.items = items
	s.updateResults()
}

// SetSize sets the screen size the overlay centers in.
func (s *Search) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Show makes the overlay visible with an empty query.
func (s *Search) Show() {
	s.visible = true
	s.input.SetValue("")
	s.input.Focus()
	s.updateResults()
}

// Hide hides the overlay
func (s *Search) Hide() {
	s.visible = false
	s.input.Blur()
}

// IsVisible reports whether the overlay is showing.
func (s *Search) IsVisible() bool { return s.visible }

// Selected returns the highlighted path, or "".
func (s *Search) Selected() string {
	if len(s.results) == 0 {
		return ""
	}
	return s.results[min(s.cursor, len(s.results)-1)].Str
}

// Update handles keys while the overlay is visible.
func (s *Search) Update(msg tea.Msg) (*Search, tea.Cmd) {
	if !s.visible {
		return s, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch key.String() {
	case "esc":
		s.Hide()
		return s, nil
	case "enter":
		selected := s.Selected()
		s.Hide()
		if selected == "" {
			return s, nil
		}
		return s, func() tea.Msg { return fileSelectedMsg{path: selected} }
	case "up", "ctrl+k":
		if s.cursor > 0 {
			s.cursor--
		}
		return s, nil
	case "down", "ctrl+j":
		if s.cursor < len(s.results)-1 {
			s.cursor++
		}
		return s, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	s.updateResults()
	return s, cmd
}

// updateResults ranks items against the query. An empty query lists
// everything in order.
func (s *Search) updateResults() {
	s.cursor = 0
	query := strings.TrimSpace(s.input.Value())
	if query == "" {
		s.results = make([]fuzzy.Match, len(s.items))
		for i, item := range s.items {
			s.results[i] = fuzzy.Match{Str: item, Index: i}
		}
		return
	}
	s.results = fuzzy.Find(query, s.items)
}

// View renders the overlay centered on screen.
func (s *Search) View() string {
	if !s.visible {
		return ""
	}

	header := SearchPromptStyle.Render("Find file")
	box := SearchBoxStyle.Render(s.input.View())

	var list strings.Builder
	shown := s.results
	if len(shown) > maxSearchResults {
		shown = shown[:maxSearchResults]
	}
	for i, m := range shown {
		line := "  " + highlightMatch(m)
		if i == s.cursor {
			line = SelectedStyle.Render("› " + m.Str)
		}
		list.WriteString(line)
		if i < len(shown)-1 {
			list.WriteString("\n")
		}
	}

	count := DimStyle.Render("  " + formatCount(len(s.results)))
	keys := DimStyle.Render("  [Enter] Open  [↑↓] Navigate  [Esc] Cancel")
	content := header + "\n\n" + box + "\n\n" + list.String() + "\n" + count + "\n" + keys

	width := 64
	if s.width > 0 && s.width < width+10 {
		width = max(s.width-10, 30)
	}
	return centerOverlay(DialogBoxStyle.Width(width).Render(content), s.width, s.height)
}

// highlightMatch renders the matched characters of m in the accent color.
func highlightMatch(m fuzzy.Match) string {
	if len(m.MatchedIndexes) == 0 {
		return FileStyle.Render(m.Str)
	}
	matched := make(map[int]bool, len(m.MatchedIndexes))
	for _, i := range m.MatchedIndexes {
		matched[i] = true
	}
	hit := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	var b strings.Builder
	for i, r := range m.Str {
		if matched[i] {
			b.WriteString(hit.Render(string(r)))
		} else {
			b.WriteString(FileStyle.Render(string(r)))
		}
	}
	return b.String()
}

func formatCount(count int) string {
	switch count {
	case 0:
		return "No results"
	case 1:
		return "1 result"
	default:
		return fmt.Sprintf("%d results", count)
	}
}
