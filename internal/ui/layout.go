package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/asheshgoplani/tfdeck/internal/process"
)

// ensureExactHeight pads or cuts content to n lines.
func ensureExactHeight(content string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// ensureExactWidth gives every line the same visual width so panes line up
// in lipgloss.JoinHorizontal. Lines that are too wide lose their styling.
func ensureExactWidth(content string, width int) string {
	if width <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		plain := process.StripANSI(line)
		w := runewidth.StringWidth(plain)
		switch {
		case w < width:
			lines[i] = line + strings.Repeat(" ", width-w)
		case w > width:
			lines[i] = runewidth.FillRight(runewidth.Truncate(plain, width, "…"), width)
		}
	}
	return strings.Join(lines, "\n")
}

// renderPanelTitle renders a title with a rule underneath. Always two lines.
func renderPanelTitle(title string, width int) string {
	title = runewidth.Truncate(title, max(width, 0), "…")
	return PanelTitleStyle.Width(max(width, 0)).Render(title) + "\n" +
		PanelRuleStyle.Render(strings.Repeat("─", max(0, width)))
}

// truncatePath keeps the start and the end of a long path.
func truncatePath(path string, maxLen int) string {
	if runewidth.StringWidth(path) <= maxLen {
		return path
	}
	if maxLen < 10 {
		maxLen = 10
	}
	runes := []rune(path)
	startLen := maxLen / 3
	endLen := maxLen*2/3 - 3
	if startLen+endLen+3 > len(runes) {
		return runewidth.Truncate(path, maxLen, "...")
	}
	return string(runes[:startLen]) + "..." + string(runes[len(runes)-endLen:])
}

// formatRelativeTime renders "just now", "5m ago", "2h ago", "3d ago".
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// formatDuration rounds for the commands log.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// centerOverlay places box in the middle of a width x height screen.
func centerOverlay(box string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
