package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Component names used as the "component" attribute.
const (
	CompProcess   = "process"
	CompRunner    = "runner"
	CompMonitor   = "monitor"
	CompHistory   = "history"
	CompStorage   = "storage"
	CompTerraform = "terraform"
	CompUI        = "ui"
	CompConfig    = "config"
)

// LogFileName is the rotated log file written inside Config.Dir.
const LogFileName = "tfdeck.log"

// Config controls where and how logs are written.
type Config struct {
	// Dir receives tfdeck.log. Empty with Debug off means logs are discarded.
	Dir string

	// Level is one of "debug", "info", "warn", "error". Defaults to info.
	Level string

	// Format is "json" (default) or "text".
	Format string

	// MaxSizeMB, MaxBackups and MaxAgeDays configure rotation.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// RingLines is how many recent records are kept in memory for dumps.
	RingLines int

	// SummaryInterval is how often batched events are flushed.
	SummaryInterval time.Duration

	Debug bool
}

func (c *Config) applyDefaults() {
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 7
	}
	if c.RingLines <= 0 {
		c.RingLines = 2000
	}
	if c.SummaryInterval <= 0 {
		c.SummaryInterval = 30 * time.Second
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var (
	mu       sync.RWMutex
	root     *slog.Logger
	ring     *Ring
	summary  *Summarizer
	rotating *lumberjack.Logger
)

var discard = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Init installs the global logger. Calling it again replaces the previous
// setup after flushing it.
func Init(cfg Config) {
	Shutdown()

	cfg.applyDefaults()

	mu.Lock()
	defer mu.Unlock()

	if !cfg.Debug && cfg.Dir == "" {
		root = discard
		ring = NewRing(16)
		summary = NewSummarizer(nil, cfg.SummaryInterval)
		return
	}

	rotating = &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, LogFileName),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	ring = NewRing(cfg.RingLines)

	out := io.MultiWriter(rotating, ring)
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}
	root = slog.New(h)

	summary = NewSummarizer(root, cfg.SummaryInterval)
	summary.Start()
}

// Logger returns the global logger, or a discarding one before Init.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if root == nil {
		return discard
	}
	return root
}

// ForComponent returns a logger tagged with component. It resolves the
// global handler on every record, so it may be created before Init.
func ForComponent(component string) *slog.Logger {
	return slog.New(&lazyHandler{component: component})
}

// Count records one occurrence of a high-frequency event. Occurrences are
// logged as a single summary line per interval.
func Count(component, event string, attrs ...slog.Attr) {
	mu.RLock()
	s := summary
	mu.RUnlock()
	if s != nil {
		s.Count(component, event, attrs...)
	}
}

// DumpRecent writes the in-memory tail of the log to path.
func DumpRecent(path string) error {
	mu.RLock()
	r := ring
	mu.RUnlock()
	if r == nil {
		return nil
	}
	return r.WriteFile(path)
}

// Shutdown flushes pending summaries and closes the log file.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()

	if summary != nil {
		summary.Stop()
		summary = nil
	}
	if rotating != nil {
		_ = rotating.Close()
		rotating = nil
	}
	root = nil
	ring = nil
}
