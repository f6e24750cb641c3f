// Package runner executes one terraform invocation at a time on a worker
// goroutine, streaming its output to the event bus and recording every
// terminal outcome in the command history.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asheshgoplani/tfdeck/internal/events"
	"github.com/asheshgoplani/tfdeck/internal/history"
	"github.com/asheshgoplani/tfdeck/internal/logging"
	"github.com/asheshgoplani/tfdeck/internal/process"
)

var runLog = logging.ForComponent(logging.CompRunner)

func slogID(id string) slog.Attr { return slog.String("exec_id", id) }

// Invocation is one command to run.
type Invocation struct {
	Argv []string
	Dir  string
	Env  map[string]string
	PTY  bool
	// Timeout is the ceiling for this command category. Zero means none.
	Timeout time.Duration
	// RunInModal marks commands shown in the output overlay.
	RunInModal bool
}

// Recorder stores terminal outcomes. *history.Commands implements it.
type Recorder interface {
	Add(history.Record)
}

// Pauser suppresses coalesced refreshes while a command runs.
// *monitor.Monitor implements it.
type Pauser interface {
	Pause() (resume func())
}

// Option configures a Runner.
type Option func(*Runner)

// WithHistory records every terminal outcome in rec.
func WithHistory(rec Recorder) Option {
	return func(r *Runner) { r.history = rec }
}

// WithPauser pauses p for the lifetime of each invocation.
func WithPauser(p Pauser) Option {
	return func(r *Runner) { r.pauser = p }
}

// WithPromptMarkers overrides the demuxer's prompt markers.
func WithPromptMarkers(markers ...string) Option {
	return func(r *Runner) { r.markers = markers }
}

// WithGracePeriod overrides the session's termination grace period.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Runner) { r.grace = d }
}

// Runner keeps at most one invocation live: starting a new one cancels the
// previous one first.
type Runner struct {
	bus     events.Publisher
	history Recorder
	pauser  Pauser
	markers []string
	grace   time.Duration

	mu      sync.Mutex
	current *Executor
	wg      sync.WaitGroup
}

// New returns a Runner publishing to bus.
func New(bus events.Publisher, opts ...Option) *Runner {
	r := &Runner{
		bus:   bus,
		grace: process.DefaultGracePeriod,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start cancels the live invocation, if any, and runs inv on a new worker.
func (r *Runner) Start(ctx context.Context, inv Invocation) *Executor {
	ctx, cancel := context.WithCancel(ctx)
	e := &Executor{
		id:       uuid.NewString(),
		inv:      inv,
		cancelFn: cancel,
		done:     make(chan struct{}),
		session: process.NewSession(process.Request{
			Argv:    inv.Argv,
			Dir:     inv.Dir,
			Env:     inv.Env,
			PTY:     inv.PTY,
			Timeout: inv.Timeout,
		}, process.WithGracePeriod(r.grace)),
	}

	r.mu.Lock()
	prev := r.current
	r.current = e
	r.mu.Unlock()

	if prev != nil {
		runLog.Info("executor_superseded", slogID(prev.id), slog.String("by", e.id))
		prev.Cancel()
	}

	resume := func() {}
	if r.pauser != nil {
		resume = r.pauser.Pause()
	}

	r.wg.Add(1)
	go r.work(ctx, e, resume)
	return e
}

// Current is the live executor, or nil.
func (r *Runner) Current() *Executor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Cancel stops the live invocation, if any.
func (r *Runner) Cancel() {
	if e := r.Current(); e != nil {
		e.Cancel()
	}
}

// WriteInput sends line, followed by a newline, to the live invocation.
func (r *Runner) WriteInput(line string) error {
	e := r.Current()
	if e == nil {
		return process.ErrNotRunning
	}
	return e.writeInput(line)
}

// Wait blocks until every worker has finished.
func (r *Runner) Wait() { r.wg.Wait() }

// Close cancels the live invocation and waits for all workers.
func (r *Runner) Close() {
	r.Cancel()
	r.Wait()
}

// work is the single catch point for an invocation: whatever happens, one
// CommandFinished is published and one history record is written.
func (r *Runner) work(ctx context.Context, e *Executor, resume func()) {
	defer r.wg.Done()
	defer close(e.done)
	defer resume()

	start := time.Now()
	cmdline := strings.Join(e.inv.Argv, " ")
	runLog.Info("command_started", slogID(e.id), slog.String("argv", cmdline))
	r.bus.Publish(events.CommandStarted{
		ExecID:     e.id,
		Argv:       e.inv.Argv,
		RunInModal: e.inv.RunInModal,
		At:         start,
	})

	e.mu.Lock()
	session := e.session
	e.mu.Unlock()

	var (
		res process.Result
		err error
	)
	if session == nil {
		// Canceled before the worker got going.
		err = process.ErrCanceled
	} else {
		res, err = r.run(ctx, e, session)
	}

	outcome := classify(err)
	e.finish(outcome, err)

	attrs := []any{
		slogID(e.id),
		slog.String("argv", cmdline),
		slog.String("outcome", string(outcome)),
		slog.Duration("duration", time.Since(start)),
	}
	switch outcome {
	case OutcomeSuccess, OutcomeCanceled:
		runLog.Info("command_finished", attrs...)
	default:
		runLog.Warn("command_finished", append(attrs, slog.String("error", err.Error()))...)
	}

	r.bus.Publish(events.CommandFinished{
		ExecID:     e.id,
		Argv:       e.inv.Argv,
		RunInModal: e.inv.RunInModal,
		Outcome:    string(outcome),
		Err:        err,
		Output:     res.Lines,
		Duration:   time.Since(start),
	})

	if r.history != nil {
		rec := history.Record{
			Argv:       e.inv.Argv,
			ExecutedAt: start,
			RunInModal: e.inv.RunInModal,
			Outcome:    string(outcome),
		}
		if outcome == OutcomeFailed || outcome == OutcomeTimeout {
			rec.ErrorMessage = err.Error()
		}
		r.history.Add(rec)
	}

	r.mu.Lock()
	if r.current == e {
		r.current = nil
	}
	r.mu.Unlock()
}

func (r *Runner) run(ctx context.Context, e *Executor, session *process.Session) (res process.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			runLog.Error("worker_panic", slogID(e.id), slog.Any("panic", p))
			err = fmt.Errorf("worker panic: %v", p)
		}
	}()

	var opts []process.DemuxOption
	if len(r.markers) > 0 {
		opts = append(opts, process.WithPromptMarkers(r.markers...))
	}
	return process.Run(ctx, session, func(line string) {
		r.bus.Publish(events.OutputLine{ExecID: e.id, Text: line})
	}, opts...)
}

func classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, process.ErrCanceled):
		return OutcomeCanceled
	case process.IsTimeout(err):
		return OutcomeTimeout
	default:
		return OutcomeFailed
	}
}
