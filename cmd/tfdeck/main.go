// Command tfdeck is a terminal dashboard for terraform projects.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// initColorProfile configures the lipgloss color profile. TFDECK_COLOR
// (truecolor, 256, 16, none) forces a profile; otherwise TrueColor is used
// when the terminal advertises it and ANSI256 everywhere else.
func initColorProfile() {
	if colorEnv := os.Getenv("TFDECK_COLOR"); colorEnv != "" {
		if p, ok := parseColorProfile(colorEnv); ok {
			lipgloss.SetColorProfile(p)
			return
		}
	}
	lipgloss.SetColorProfile(detectColorProfile(os.Getenv))
}

func parseColorProfile(s string) (termenv.Profile, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "truecolor", "true", "24bit":
		return termenv.TrueColor, true
	case "256", "ansi256":
		return termenv.ANSI256, true
	case "16", "ansi", "basic":
		return termenv.ANSI, true
	case "none", "off", "ascii":
		return termenv.Ascii, true
	}
	return termenv.Ascii, false
}

var trueColorTerms = []string{
	"xterm-256color",
	"screen-256color",
	"tmux-256color",
	"xterm-direct",
	"alacritty",
	"kitty",
	"wezterm",
}

func detectColorProfile(getenv func(string) string) termenv.Profile {
	if ct := getenv("COLORTERM"); ct == "truecolor" || ct == "24bit" {
		return termenv.TrueColor
	}
	term := getenv("TERM")
	for _, t := range trueColorTerms {
		if strings.Contains(term, t) {
			return termenv.TrueColor
		}
	}
	// Windows Terminal, iTerm2, JetBrains and Konsole
	for _, key := range []string{"WT_SESSION", "ITERM_SESSION_ID", "TERMINAL_EMULATOR", "KONSOLE_VERSION"} {
		if getenv(key) != "" {
			return termenv.TrueColor
		}
	}
	return termenv.ANSI256
}
