// Package process owns one external command at a time: spawning it with
// merged environment, exposing its streams, demultiplexing its output into
// cleaned lines and tearing it down gracefully.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/asheshgoplani/tfdeck/internal/logging"
)

var procLog = logging.ForComponent(logging.CompProcess)

// DefaultGracePeriod is how long Release waits after a graceful termination
// request before it kills the process.
const DefaultGracePeriod = 5 * time.Second

// Request describes one command to run.
type Request struct {
	Argv []string
	Dir  string
	// Env entries are merged with the inherited environment; see MergeEnv.
	Env map[string]string
	// PTY runs the command on a pseudo-terminal. Stdout and stderr share the
	// terminal and Stderr is always empty.
	PTY bool
	// Timeout bounds Run. Zero means no ceiling.
	Timeout time.Duration
}

// Streams are the three standard streams of a running command.
type Streams struct {
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Stderr io.ReadCloser
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithGracePeriod overrides DefaultGracePeriod.
func WithGracePeriod(d time.Duration) SessionOption {
	return func(s *Session) { s.grace = d }
}

// WithEnviron replaces os.Environ as the inherited environment source.
func WithEnviron(fn func() []string) SessionOption {
	return func(s *Session) { s.environ = fn }
}

// Session is a scoped owner of one external process. Acquire spawns it,
// Release tears it down. Release is idempotent and safe from any goroutine,
// including while another goroutine is blocked reading the streams.
type Session struct {
	req     Request
	grace   time.Duration
	environ func() []string

	mu       sync.Mutex
	cmd      *exec.Cmd
	streams  Streams
	acquired bool
	released bool
	spawnErr error
	lastErr  error
	exited   chan struct{}
	exitErr  error
}

// NewSession returns an unstarted session for req.
func NewSession(req Request, opts ...SessionOption) *Session {
	s := &Session{
		req:     req,
		grace:   DefaultGracePeriod,
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request returns the request the session was built for.
func (s *Session) Request() Request { return s.req }

// Acquire spawns the process and returns its streams. It never fails: if the
// process cannot be created the streams are stand-ins whose stdout is empty
// and whose stderr carries the spawn error text, and SpawnErr reports the
// cause. A second call returns the same streams.
func (s *Session) Acquire() Streams {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.acquired {
		return s.streams
	}
	s.acquired = true
	s.exited = make(chan struct{})

	if s.released {
		s.standIn(ErrCanceled)
		procLog.Debug("process_released_before_start",
			slog.String("argv", strings.Join(s.req.Argv, " ")))
		return s.streams
	}
	if len(s.req.Argv) == 0 {
		s.failSpawn(errors.New("empty command"))
		return s.streams
	}

	cmd := exec.Command(s.req.Argv[0], s.req.Argv[1:]...)
	cmd.Dir = s.req.Dir
	cmd.Env = MergeEnv(s.req.Env, s.environ())

	var (
		streams Streams
		err     error
	)
	if s.req.PTY {
		streams, err = startPTY(cmd)
	} else {
		streams, err = startPipes(cmd)
	}
	if err != nil {
		s.failSpawn(err)
		return s.streams
	}

	s.cmd = cmd
	s.streams = streams
	go s.reap(cmd, s.exited)

	procLog.Debug("process_started",
		slog.String("argv", strings.Join(s.req.Argv, " ")),
		slog.Int("pid", cmd.Process.Pid),
		slog.Bool("pty", s.req.PTY))
	return s.streams
}

// failSpawn installs stand-in streams and logs why. Caller holds s.mu.
func (s *Session) failSpawn(err error) {
	s.standIn(err)
	procLog.Warn("process_spawn_failed",
		slog.String("argv", strings.Join(s.req.Argv, " ")),
		slog.String("error", err.Error()))
}

func (s *Session) standIn(err error) {
	s.spawnErr = &SpawnError{Argv: s.req.Argv, Err: err}
	s.streams = Streams{
		Stdin:  nopWriteCloser{io.Discard},
		Stdout: io.NopCloser(strings.NewReader("")),
		Stderr: io.NopCloser(strings.NewReader(err.Error())),
	}
	close(s.exited)
}

func (s *Session) reap(cmd *exec.Cmd, exited chan struct{}) {
	err := cmd.Wait()
	s.mu.Lock()
	s.exitErr = err
	s.mu.Unlock()
	close(exited)
}

// startPipes wires the child to pipes we own. exec.Cmd's own pipe helpers
// close the read ends inside Wait, which would lose output still buffered
// when the child exits, so the pipes are created by hand.
func startPipes(cmd *exec.Cmd) (Streams, error) {
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return Streams{}, fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		closeAll(stdinR, stdinW)
		return Streams{}, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdinR, stdinW, stdoutR, stdoutW)
		return Streams{}, fmt.Errorf("stderr pipe: %w", err)
	}

	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	configureProcAttr(cmd)

	startErr := cmd.Start()
	// The child holds its own copies now.
	closeAll(stdinR, stdoutW, stderrW)
	if startErr != nil {
		closeAll(stdinW, stdoutR, stderrR)
		return Streams{}, startErr
	}
	return Streams{Stdin: stdinW, Stdout: stdoutR, Stderr: stderrR}, nil
}

// Release closes the streams, asks the process to terminate and kills it if
// it is still alive after the grace period. The escalation runs in the
// background so Release returns promptly. Calling Release more than once is
// a no-op. Releasing before Acquire means Acquire never spawns anything; the
// stand-in streams report ErrCanceled instead.
func (s *Session) Release() {
	s.mu.Lock()
	s.released = true
	cmd := s.cmd
	streams := s.streams
	exited := s.exited
	s.cmd = nil
	s.streams = Streams{}
	s.mu.Unlock()

	closeAll(streams.Stdin, streams.Stdout, streams.Stderr)
	if cmd == nil || cmd.Process == nil {
		return
	}

	select {
	case <-exited:
		return
	default:
	}

	if err := terminate(cmd); err != nil {
		procLog.Debug("process_terminate_failed",
			slog.Int("pid", cmd.Process.Pid),
			slog.String("error", err.Error()))
	}

	grace := s.grace
	go func() {
		select {
		case <-exited:
		case <-time.After(grace):
			procLog.Warn("process_kill_after_grace",
				slog.Int("pid", cmd.Process.Pid),
				slog.Duration("grace", grace))
			_ = kill(cmd)
		}
	}()
}

// Do runs fn against the session's streams and always releases the session
// afterwards, even when fn panics. A failure inside fn is captured rather
// than propagated as a panic; it is returned and kept in LastError.
func (s *Session) Do(fn func(Streams) error) (err error) {
	streams := s.Acquire()
	defer func() {
		if r := recover(); r != nil {
			procLog.Error("process_scope_panic", slog.Any("panic", r))
			s.setLastErr(fmt.Errorf("panic: %v", r))
		}
		s.Release()
		err = s.LastError()
	}()
	if ferr := fn(streams); ferr != nil {
		s.setLastErr(ferr)
	}
	return nil
}

func (s *Session) setLastErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// WriteInput sends p to the process's stdin. It fails with ErrNotRunning
// once the session has been released.
func (s *Session) WriteInput(p []byte) (int, error) {
	s.mu.Lock()
	w := s.streams.Stdin
	s.mu.Unlock()
	if w == nil {
		return 0, ErrNotRunning
	}
	return w.Write(p)
}

// LastError is the failure captured by Do, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SpawnErr reports why Acquire could not create the process.
func (s *Session) SpawnErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawnErr
}

// Exited is closed once the process has been reaped, or immediately after a
// failed spawn. It is nil before Acquire.
func (s *Session) Exited() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exited
}

// Wait blocks until the process exits and returns its exit code.
func (s *Session) Wait(ctx context.Context) (int, error) {
	s.mu.Lock()
	exited := s.exited
	s.mu.Unlock()
	if exited == nil {
		return -1, errors.New("process not started")
	}

	select {
	case <-exited:
	case <-ctx.Done():
		return -1, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spawnErr != nil {
		return -1, s.spawnErr
	}
	if s.exitErr == nil {
		return 0, nil
	}
	var ee *exec.ExitError
	if errors.As(s.exitErr, &ee) {
		return ee.ExitCode(), nil
	}
	return -1, s.exitErr
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func closeAll(closers ...io.Closer) {
	for _, c := range closers {
		if c != nil {
			_ = c.Close()
		}
	}
}
