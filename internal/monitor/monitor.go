// Package monitor watches a project tree and turns file-system activity into
// two kinds of signals: immediate reactions for files open in the UI, and at
// most one coalesced refresh request per interval.
package monitor

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/asheshgoplani/tfdeck/internal/events"
	"github.com/asheshgoplani/tfdeck/internal/logging"
)

var monLog = logging.ForComponent(logging.CompMonitor)

// DefaultInterval is how often accumulated changes are folded into a refresh.
const DefaultInterval = 5 * time.Second

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the debounce interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithMinRefreshGap enforces a minimum time between two refresh requests on
// top of the interval. Zero disables the extra limit.
func WithMinRefreshGap(d time.Duration) Option {
	return func(m *Monitor) { m.minGap = d }
}

// WithExcludeDirs replaces DefaultExcludeDirs.
func WithExcludeDirs(dirs ...string) Option {
	return func(m *Monitor) { m.excludeDirs = dirs }
}

// WithGitignore toggles honoring the root .gitignore.
func WithGitignore(enabled bool) Option {
	return func(m *Monitor) { m.useGitignore = enabled }
}

// Monitor watches root recursively. Publishing to the bus happens on the
// monitor's goroutines; the bus must never block.
type Monitor struct {
	root         string
	bus          events.Publisher
	interval     time.Duration
	minGap       time.Duration
	excludeDirs  []string
	useGitignore bool

	filter  *filter
	limiter *rate.Limiter
	state   State

	trackedMu sync.RWMutex
	tracked   map[string]struct{}

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	started  bool
	stopped  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New prepares a monitor for root. Nothing is watched until Start.
func New(root string, bus events.Publisher, opts ...Option) (*Monitor, error) {
	if bus == nil {
		return nil, errors.New("monitor: nil publisher")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("monitor: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("monitor: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("monitor: %s is not a directory", abs)
	}

	m := &Monitor{
		root:         abs,
		bus:          bus,
		interval:     DefaultInterval,
		excludeDirs:  DefaultExcludeDirs,
		useGitignore: true,
		tracked:      make(map[string]struct{}),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.filter = newFilter(abs, m.excludeDirs, m.useGitignore)
	if m.minGap > 0 {
		m.limiter = rate.NewLimiter(rate.Every(m.minGap), 1)
	} else {
		m.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return m, nil
}

// Root is the absolute watched directory.
func (m *Monitor) Root() string { return m.root }

// Start registers the tree with the watcher and launches the watch and
// debounce loops.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return errors.New("monitor: already stopped")
	}
	if m.started {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("monitor: new watcher: %w", err)
	}
	m.watcher = w
	if err := m.addTree(m.root); err != nil {
		_ = w.Close()
		m.watcher = nil
		return err
	}

	m.started = true
	m.wg.Add(2)
	go m.watchLoop(w)
	go m.debounceLoop()

	monLog.Info("monitor_started",
		slog.String("root", m.root),
		slog.Duration("interval", m.interval))
	return nil
}

// Stop closes the watcher and waits for both loops to exit. It is safe to
// call more than once and before Start.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.stopped = true
		w := m.watcher
		m.mu.Unlock()

		close(m.stopCh)
		if w != nil {
			_ = w.Close()
		}
		m.wg.Wait()
		monLog.Info("monitor_stopped", slog.String("root", m.root))
	})
}

// Pause suppresses refresh requests until the returned resume func is
// called. Pauses nest; calling resume more than once has no extra effect.
// Changes keep being counted while paused.
func (m *Monitor) Pause() (resume func()) {
	m.state.pause()
	monLog.Debug("monitor_paused")
	var once sync.Once
	return func() { once.Do(m.Resume) }
}

// Resume drops one pause level.
func (m *Monitor) Resume() {
	m.state.resume()
	monLog.Debug("monitor_resumed", slog.Bool("still_paused", m.state.Paused()))
}

// Paused reports whether refreshes are currently suppressed.
func (m *Monitor) Paused() bool { return m.state.Paused() }

// Pending is the number of changes waiting for the next refresh.
func (m *Monitor) Pending() int64 { return m.state.Pending() }

// Track marks a path (relative to root) as open, so its changes are pushed
// immediately.
func (m *Monitor) Track(path string) {
	m.trackedMu.Lock()
	m.tracked[m.rel(path)] = struct{}{}
	m.trackedMu.Unlock()
}

// Untrack forgets a path registered with Track.
func (m *Monitor) Untrack(path string) {
	m.trackedMu.Lock()
	delete(m.tracked, m.rel(path))
	m.trackedMu.Unlock()
}

// Tracked reports whether path is registered with Track.
func (m *Monitor) Tracked(path string) bool {
	m.trackedMu.RLock()
	defer m.trackedMu.RUnlock()
	_, ok := m.tracked[m.rel(path)]
	return ok
}

// rel normalizes an absolute or root-relative path to slash form relative
// to root.
func (m *Monitor) rel(path string) string {
	if filepath.IsAbs(path) {
		if r, err := filepath.Rel(m.root, path); err == nil {
			path = r
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}

func (m *Monitor) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("monitor: walk %s: %w", path, err)
			}
			monLog.Debug("monitor_walk_error", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != m.root && m.filter.skip(m.rel(path)) {
			return filepath.SkipDir
		}
		if err := m.watcher.Add(path); err != nil {
			monLog.Warn("monitor_watch_failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		return nil
	})
}

func (m *Monitor) watchLoop(w *fsnotify.Watcher) {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			m.handle(ev)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			monLog.Warn("monitor_watch_error", slog.String("error", err.Error()))
		}
	}
}

// handle translates one watcher event and reacts to it.
func (m *Monitor) handle(ev fsnotify.Event) {
	ce, ok := changeFromFsnotify(ev)
	if !ok {
		return
	}
	m.react(ce)
}

// react pushes content or removal for tracked paths, then counts the change.
// The reaction is published before the count so the debounce loop never
// sees a change whose reaction is still pending.
func (m *Monitor) react(ce ChangeEvent) {
	rel := m.rel(ce.Path)
	if m.filter.skip(rel) {
		return
	}

	if ce.Kind == KindCreated && ce.IsDir {
		m.mu.Lock()
		if m.watcher != nil && !m.stopped {
			_ = m.addTree(ce.Path)
		}
		m.mu.Unlock()
	}

	// A tracked path reacts to moved like deleted, since nothing is left at
	// the open path, and to created like modified, which is how editors that
	// save through a rename show up.
	if m.Tracked(rel) {
		switch {
		case ce.Gone():
			m.Untrack(rel)
			m.bus.Publish(events.FileRemoved{Path: rel})
		case !ce.IsDir:
			content, err := os.ReadFile(ce.Path)
			if err != nil {
				monLog.Debug("monitor_read_failed", slog.String("path", rel), slog.String("error", err.Error()))
				break
			}
			m.bus.Publish(events.FileChanged{Path: rel, Content: string(content)})
		}
	}

	m.state.Add(1)
	logging.Count(logging.CompMonitor, "fs_event", slog.String("kind", string(ce.Kind)))
}

func (m *Monitor) debounceLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.flush()
		}
	}
}

// flush publishes one refresh request covering every change counted so far,
// unless monitoring is paused, nothing changed or the limiter says wait.
func (m *Monitor) flush() {
	if m.state.Paused() || m.state.Pending() == 0 {
		return
	}
	if !m.limiter.Allow() {
		return
	}
	n := m.state.Take()
	if n == 0 {
		return
	}
	monLog.Debug("monitor_refresh", slog.Int64("events", n))
	m.bus.Publish(events.RefreshRequested{Events: n})
}
