package ui

import (
	"context"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	dark "github.com/thiagokokada/dark-mode-go"

	"github.com/asheshgoplani/tfdeck/internal/logging"
)

var uiLog = logging.ForComponent(logging.CompUI)

// themeChangedMsg carries an OS dark mode switch.
type themeChangedMsg struct{ dark bool }

// ThemeWatcher follows the OS dark mode setting for theme = "system".
type ThemeWatcher struct {
	changeCh  chan bool
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewThemeWatcher starts watching. It returns nil when the platform cannot
// report changes.
func NewThemeWatcher(parent context.Context) *ThemeWatcher {
	ctx, cancel := context.WithCancel(parent)
	changes, errs, err := dark.WatchDarkMode(ctx)
	if err != nil {
		cancel()
		uiLog.Warn("theme_watcher_init_failed", slog.String("error", err.Error()))
		return nil
	}

	tw := &ThemeWatcher{
		changeCh: make(chan bool, 1),
		closeCh:  make(chan struct{}),
	}
	go func() {
		defer cancel()
		for {
			select {
			case <-tw.closeCh:
				return
			case isDark, ok := <-changes:
				if !ok {
					return
				}
				select {
				case tw.changeCh <- isDark:
				default:
				}
			case err, ok := <-errs:
				if ok && err != nil {
					uiLog.Warn("theme_watcher_error", slog.String("error", err.Error()))
				}
			}
		}
	}()
	return tw
}

// listen waits for the next change.
func (tw *ThemeWatcher) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case isDark := <-tw.changeCh:
			return themeChangedMsg{dark: isDark}
		case <-tw.closeCh:
			return nil
		}
	}
}

// Close stops the watcher. Safe to call multiple times.
func (tw *ThemeWatcher) Close() {
	tw.closeOnce.Do(func() { close(tw.closeCh) })
}
