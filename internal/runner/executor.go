package runner

import (
	"context"
	"sync"

	"github.com/asheshgoplani/tfdeck/internal/process"
)

// Outcome is how an invocation ended.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeTimeout  Outcome = "timeout"
	OutcomeCanceled Outcome = "canceled"
)

// Executor is one in-flight invocation: the worker goroutine running it and
// the process session it owns.
type Executor struct {
	id  string
	inv Invocation

	mu       sync.Mutex
	session  *process.Session
	cancelFn context.CancelFunc
	outcome  Outcome
	err      error
	done     chan struct{}
}

// ID identifies the executor in published events.
func (e *Executor) ID() string { return e.id }

// Argv is the command being run. It stays set after Cancel and finish so
// the finished command can still be shown and recorded.
func (e *Executor) Argv() []string { return e.inv.Argv }

// Invocation returns what was started.
func (e *Executor) Invocation() Invocation { return e.inv }

// Done is closed after the terminal outcome has been published and recorded.
func (e *Executor) Done() <-chan struct{} { return e.done }

// Outcome is valid once Done is closed.
func (e *Executor) Outcome() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outcome
}

// Err is the failure behind a non-success outcome. Valid once Done is closed.
func (e *Executor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Cancel stops the invocation: the worker context is canceled and the bound
// session released and cleared, which unblocks a worker waiting on output
// and makes later input fail with process.ErrNotRunning. A session released
// before the worker reaches it never spawns. Safe to call from any goroutine
// and more than once.
func (e *Executor) Cancel() {
	e.mu.Lock()
	session, cancel := e.session, e.cancelFn
	e.session, e.cancelFn = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	// Cancel the context first so the worker classifies the ending as a
	// cancellation rather than a failed exit.
	cancel()
	session.Release()
	runLog.Debug("executor_canceled", slogID(e.id))
}

// writeInput forwards one line to the process stdin.
func (e *Executor) writeInput(line string) error {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()
	if session == nil {
		return process.ErrNotRunning
	}
	_, err := session.WriteInput([]byte(line + "\n"))
	return err
}

func (e *Executor) finish(outcome Outcome, err error) {
	e.mu.Lock()
	e.outcome = outcome
	e.err = err
	cancel := e.cancelFn
	e.session, e.cancelFn = nil, nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
