package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

// maxOverlayLines bounds the output kept for one modal command.
const maxOverlayLines = 5000

// OutputOverlay shows the live output of a command run in a modal, with an
// input line whose text is sent to the command's stdin.
type OutputOverlay struct {
	execID   string
	command  string
	lines    []string
	started  time.Time
	outcome  string // "" while running
	errText  string
	duration time.Duration

	view    viewport.Model
	input   textinput.Model
	visible bool
	width   int
	height  int
}

// NewOutputOverlay creates a hidden overlay
func NewOutputOverlay() *OutputOverlay {
	ti := textinput.New()
	ti.Placeholder = "type an answer and press enter"
	ti.Prompt = "› "
	ti.CharLimit = 500
	return &OutputOverlay{
		view:  viewport.New(0, 0),
		input: ti,
	}
}

// Open resets the overlay for a new command.
func (o *OutputOverlay) Open(execID, command string, at time.Time) {
	o.execID = execID
	o.command = command
	o.lines = nil
	o.started = at
	o.outcome = ""
	o.errText = ""
	o.duration = 0
	o.visible = true
	o.input.SetValue("")
	o.input.Focus()
	o.refresh()
}

// Close hides the overlay.
func (o *OutputOverlay) Close() {
	o.visible = false
	o.execID = ""
	o.input.Blur()
}

// IsVisible reports whether the overlay is showing.
func (o *OutputOverlay) IsVisible() bool { return o.visible }

// Owns reports whether execID's output belongs here.
func (o *OutputOverlay) Owns(execID string) bool {
	return o.visible && execID != "" && o.execID == execID
}

// Running reports whether the command is still going.
func (o *OutputOverlay) Running() bool { return o.visible && o.outcome == "" }

// Append adds one output line and follows the tail.
func (o *OutputOverlay) Append(line string) {
	o.lines = append(o.lines, line)
	if len(o.lines) > maxOverlayLines {
		o.lines = o.lines[len(o.lines)-maxOverlayLines:]
	}
	o.refresh()
}

// Finish records the outcome.
func (o *OutputOverlay) Finish(outcome string, err error, d time.Duration) {
	o.outcome = outcome
	o.duration = d
	if err != nil {
		o.errText = err.Error()
	}
	o.input.Blur()
	o.refresh()
}

// TakeInput returns the typed text and clears the field.
func (o *OutputOverlay) TakeInput() string {
	v := o.input.Value()
	o.input.SetValue("")
	return v
}

// SetSize sets the screen size; the overlay uses most of it.
func (o *OutputOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
	o.view.Width = max(o.boxWidth()-4, 10)
	o.view.Height = max(height-10, 3)
	o.input.Width = max(o.view.Width-4, 10)
	o.refresh()
}

func (o *OutputOverlay) boxWidth() int {
	return max(o.width*9/10, 40)
}

func (o *OutputOverlay) refresh() {
	o.view.SetContent(strings.Join(o.lines, "\n"))
	o.view.GotoBottom()
}

// Update forwards scrolling keys to the viewport and everything else to the
// input line.
func (o *OutputOverlay) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			o.view, cmd = o.view.Update(msg)
			return cmd
		}
	}
	if o.outcome != "" {
		return nil
	}
	var cmd tea.Cmd
	o.input, cmd = o.input.Update(msg)
	return cmd
}

// View renders the overlay box.
func (o *OutputOverlay) View() string {
	if !o.visible {
		return ""
	}
	width := o.boxWidth()

	status := OutcomeIndicator("running") + " " + DimStyle.Render("running "+formatRelativeTime(o.started))
	if o.outcome != "" {
		status = OutcomeIndicator(o.outcome) + " " + o.outcome + " " + DimStyle.Render("in "+formatDuration(o.duration))
	}
	title := DialogTitleStyle.Render(runewidth.Truncate("$ "+o.command, width-6, "…"))

	var footer string
	if o.outcome == "" {
		footer = o.input.View() + "\n" + DimStyle.Render("[Enter] Send  [PgUp/PgDn] Scroll  [Esc] Cancel")
	} else {
		if o.errText != "" {
			footer = HistoryErrorStyle.Render(runewidth.Truncate(firstLine(o.errText), width-6, "…")) + "\n"
		}
		footer += DimStyle.Render("[Esc/Enter] Close  [PgUp/PgDn] Scroll")
	}

	content := title + "\n" + status + "\n\n" + o.view.View() + "\n\n" + footer
	return centerOverlay(DialogBoxStyle.Width(width).Render(content), o.width, o.height)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
