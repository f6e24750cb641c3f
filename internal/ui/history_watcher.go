package ui

import (
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// historyChangedMsg asks the dashboard to re-read the history.
type historyChangedMsg struct{}

// LastModifier reports when the state database was last written.
type LastModifier interface {
	LastModified() (int64, error)
}

// historyPollInterval is how often the state database is checked for writes
// from other tfdeck processes, such as `tfdeck run` in another terminal.
const historyPollInterval = 2 * time.Second

// HistoryWatcher polls the state database's last_modified stamp so history
// written by other processes shows up.
type HistoryWatcher struct {
	db        LastModifier
	interval  time.Duration
	reloadCh  chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once

	mu           sync.Mutex
	lastModified int64
}

// NewHistoryWatcher returns a watcher for db, or nil when db is nil.
func NewHistoryWatcher(db LastModifier) *HistoryWatcher {
	if db == nil {
		return nil
	}
	last, _ := db.LastModified()
	return &HistoryWatcher{
		db:           db,
		interval:     historyPollInterval,
		lastModified: last,
		reloadCh:     make(chan struct{}, 1),
		closeCh:      make(chan struct{}),
	}
}

// Start begins polling in the background.
func (w *HistoryWatcher) Start() {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.closeCh:
				return
			case <-ticker.C:
				w.check()
			}
		}
	}()
}

func (w *HistoryWatcher) check() {
	ts, err := w.db.LastModified()
	if err != nil {
		uiLog.Debug("history_poll_failed", slog.String("error", err.Error()))
		return
	}
	w.mu.Lock()
	changed := ts > w.lastModified
	if changed {
		w.lastModified = ts
	}
	w.mu.Unlock()
	if !changed {
		return
	}
	select {
	case w.reloadCh <- struct{}{}:
	default:
	}
}

// Changes signals once per observed write.
func (w *HistoryWatcher) Changes() <-chan struct{} { return w.reloadCh }

func (w *HistoryWatcher) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-w.reloadCh:
			return historyChangedMsg{}
		case <-w.closeCh:
			return nil
		}
	}
}

// Close stops polling. Safe to call multiple times.
func (w *HistoryWatcher) Close() {
	w.closeOnce.Do(func() { close(w.closeCh) })
}
