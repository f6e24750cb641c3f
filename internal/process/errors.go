package process

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCanceled is the outcome of a command stopped on request. It is an
// expected result, not a failure.
var ErrCanceled = errors.New("command canceled")

// ErrNotRunning is returned when input is sent to a session that is not
// running.
var ErrNotRunning = errors.New("process not running")

// SpawnError means the process could not be created at all.
type SpawnError struct {
	Argv []string
	Err  error
}

func (e *SpawnError) Error() string {
	name := ""
	if len(e.Argv) > 0 {
		name = e.Argv[0]
	}
	return fmt.Sprintf("spawn %s: %v", name, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExecutionError is a command that ran and failed: it wrote to stderr or
// exited non-zero. Detail holds the cleaned stderr lines joined by newlines.
// ExitCode is 0 when the exit status was not observed.
type ExecutionError struct {
	Detail   string
	ExitCode int
}

func (e *ExecutionError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("exit status %d", e.ExitCode)
}

// TimeoutError means the command exceeded its ceiling.
type TimeoutError struct {
	Argv  []string
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	cmd := strings.Join(e.Argv, " ")
	if e.Limit > 0 {
		return fmt.Sprintf("%s timed out after %s", cmd, e.Limit)
	}
	return fmt.Sprintf("%s timed out", cmd)
}

// IsTimeout reports whether err is or wraps a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
