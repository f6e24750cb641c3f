package logging

import (
	"log/slog"
	"sync"
	"time"
)

type summaryKey struct {
	component string
	event     string
}

type summaryEntry struct {
	count int64
	attrs []slog.Attr
}

// Summarizer turns bursts of identical events into one "event_summary" line
// per interval. File-system churn is the main producer.
type Summarizer struct {
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	entries map[summaryKey]*summaryEntry

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSummarizer creates a summarizer. A nil logger drops everything.
func NewSummarizer(logger *slog.Logger, interval time.Duration) *Summarizer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Summarizer{
		logger:   logger,
		interval: interval,
		entries:  make(map[summaryKey]*summaryEntry),
		stop:     make(chan struct{}),
	}
}

// Start launches the flush loop.
func (s *Summarizer) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.Flush()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop ends the flush loop and writes whatever is pending.
func (s *Summarizer) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	s.Flush()
}

// Count adds one occurrence. The attrs of the latest call are kept.
func (s *Summarizer) Count(component, event string, attrs ...slog.Attr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := summaryKey{component: component, event: event}
	e := s.entries[k]
	if e == nil {
		e = &summaryEntry{}
		s.entries[k] = e
	}
	e.count++
	if len(attrs) > 0 {
		e.attrs = attrs
	}
}

// Flush logs and resets all pending counts.
func (s *Summarizer) Flush() {
	s.mu.Lock()
	pending := s.entries
	s.entries = make(map[summaryKey]*summaryEntry)
	s.mu.Unlock()

	if s.logger == nil {
		return
	}
	for k, e := range pending {
		args := []any{
			slog.String("component", k.component),
			slog.String("event", k.event),
			slog.Int64("count", e.count),
			slog.Duration("window", s.interval),
		}
		for _, a := range e.attrs {
			args = append(args, a)
		}
		s.logger.Info("event_summary", args...)
	}
}
