package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asheshgoplani/tfdeck/internal/process"
)

func TestInitThemeSwitchesPalette(t *testing.T) {
	defer InitTheme("dark")

	InitTheme("light")
	assert.Equal(t, ThemeLight, GetCurrentTheme())
	assert.Equal(t, lightColors.Accent, ColorAccent)

	InitTheme("anything")
	assert.Equal(t, ThemeDark, GetCurrentTheme())
	assert.Equal(t, darkColors.Bg, ColorBg)
}

func TestOutcomeIndicator(t *testing.T) {
	tests := map[string]string{
		"running":  "●",
		"success":  "✓",
		"failed":   "✕",
		"timeout":  "⏱",
		"canceled": "○",
		"":         "○",
	}
	for outcome, want := range tests {
		assert.Equal(t, want, process.StripANSI(OutcomeIndicator(outcome)), outcome)
	}
}

func TestMenuKey(t *testing.T) {
	assert.Equal(t, "p • plan", process.StripANSI(MenuKey("p", "plan")))
}
