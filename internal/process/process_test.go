//go:build !windows

package process

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(script string) Request {
	return Request{Argv: []string{"sh", "-c", script}}
}

func TestRunStdoutBeforeStderr(t *testing.T) {
	s := NewSession(shell(`printf 'one\ntwo\n'; printf 'bad\nworse\n' >&2`))
	res, err := Run(context.Background(), s, nil)

	assert.Equal(t, []string{"one", "two", "bad", "worse"}, res.Lines)
	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "bad\nworse", ee.Detail)
	assert.Equal(t, err, s.LastError())
}

func TestRunCleansLines(t *testing.T) {
	s := NewSession(shell(`printf '\033[1;32mApply complete!\033[0m  \n\n'`))
	res, err := Run(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apply complete!", ""}, res.Lines)
}

func TestRunStreamsToCallback(t *testing.T) {
	var seen []string
	s := NewSession(shell(`echo a; echo b`))
	_, err := Run(context.Background(), s, func(line string) { seen = append(seen, line) })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestRunNonZeroExitWithoutStderr(t *testing.T) {
	s := NewSession(shell(`echo partial; exit 3`))
	res, err := Run(context.Background(), s, nil)

	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 3, ee.ExitCode)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, []string{"partial"}, res.Lines)
}

func TestRunSpawnFailure(t *testing.T) {
	s := NewSession(Request{Argv: []string{"/nonexistent/tfdeck-test-binary", "plan"}})
	_, err := Run(context.Background(), s, nil)

	var se *SpawnError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "/nonexistent/tfdeck-test-binary", se.Argv[0])
}

func TestAcquireSpawnFailureStreams(t *testing.T) {
	s := NewSession(Request{Argv: []string{"/nonexistent/tfdeck-test-binary"}})
	streams := s.Acquire()
	defer s.Release()

	require.Error(t, s.SpawnErr())
	lines, err := Collect(NewDemuxer(streams.Stdout, streams.Stderr))
	require.Len(t, lines, 1)
	assert.NotEmpty(t, lines[0])
	assert.Error(t, err)

	_, werr := streams.Stdin.Write([]byte("ignored"))
	assert.NoError(t, werr)
}

func TestRunTimeout(t *testing.T) {
	req := shell(`sleep 5`)
	req.Timeout = 100 * time.Millisecond
	s := NewSession(req, WithGracePeriod(200*time.Millisecond))

	start := time.Now()
	_, err := Run(context.Background(), s, nil)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Less(t, time.Since(start), 3*time.Second)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 100*time.Millisecond, te.Limit)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession(shell(`echo started; sleep 5`))

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	res, err := Run(ctx, s, nil)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Equal(t, []string{"started"}, res.Lines)
}

func TestRunAlreadyCanceledSpawnsNothing(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	s := NewSession(shell("touch " + marker))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, s, nil)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, s.LastError(), ErrCanceled)
	assert.Empty(t, res.Lines)

	time.Sleep(100 * time.Millisecond)
	assert.NoFileExists(t, marker)
}

func TestAcquireAfterReleaseSpawnsNothing(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	s := NewSession(shell("touch " + marker))
	s.Release()

	s.Acquire()
	assert.ErrorIs(t, s.SpawnErr(), ErrCanceled)
	select {
	case <-s.Exited():
	default:
		t.Fatal("exited should be closed when nothing was spawned")
	}
	time.Sleep(100 * time.Millisecond)
	assert.NoFileExists(t, marker)
}

func TestPromptSurfacesWithoutNewline(t *testing.T) {
	s := NewSession(shell(`printf 'Do you want to perform these actions?\n  Enter a value: '; read answer; echo "got $answer"`))
	streams := s.Acquire()
	defer s.Release()

	d := NewDemuxer(streams.Stdout, streams.Stderr)
	require.True(t, d.Next())
	assert.Equal(t, "Do you want to perform these actions?", d.Line())
	require.True(t, d.Next())
	assert.Equal(t, "Enter a value:", d.Line())

	_, err := streams.Stdin.Write([]byte("yes\n"))
	require.NoError(t, err)

	require.True(t, d.Next())
	assert.Equal(t, "got yes", d.Line())
	assert.False(t, d.Next())
	assert.NoError(t, d.Err())
}

func TestReleaseUnblocksReader(t *testing.T) {
	s := NewSession(shell(`echo ready; sleep 30`), WithGracePeriod(100*time.Millisecond))
	streams := s.Acquire()
	d := NewDemuxer(streams.Stdout, streams.Stderr)
	require.True(t, d.Next())

	done := make(chan struct{})
	go func() {
		for d.Next() {
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	s.Release()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("reader still blocked after Release")
	}
	select {
	case <-s.Exited():
	case <-time.After(3 * time.Second):
		t.Fatal("process not reaped")
	}
}

func TestReleaseKillsAfterGrace(t *testing.T) {
	s := NewSession(shell(`trap '' TERM; echo ready; sleep 30`), WithGracePeriod(100*time.Millisecond))
	streams := s.Acquire()
	d := NewDemuxer(streams.Stdout, nil)
	require.True(t, d.Next())

	s.Release()
	select {
	case <-s.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("process survived kill")
	}
}

func TestReleaseIdempotent(t *testing.T) {
	s := NewSession(shell(`true`))
	s.Release()

	s.Acquire()
	s.Release()
	s.Release()
	assert.Nil(t, s.LastError())
}

func TestDoCapturesPanic(t *testing.T) {
	s := NewSession(shell(`sleep 5`), WithGracePeriod(100*time.Millisecond))
	err := s.Do(func(Streams) error {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	select {
	case <-s.Exited():
	case <-time.After(3 * time.Second):
		t.Fatal("session not released after panic")
	}
}

func TestDoCapturesError(t *testing.T) {
	s := NewSession(shell(`true`))
	want := errors.New("parse failed")
	err := s.Do(func(Streams) error { return want })
	assert.ErrorIs(t, err, want)
	assert.ErrorIs(t, s.LastError(), want)
}

func TestRunWithEnvOverride(t *testing.T) {
	req := shell(`echo "$TFDECK_TEST_ONLY|$HOME_OVERRIDE_CHECK"`)
	req.Env = map[string]string{"TFDECK_TEST_ONLY": "set", "HOME_OVERRIDE_CHECK": "override"}
	s := NewSession(req, WithEnviron(func() []string {
		return []string{"PATH=/usr/bin:/bin", "HOME_OVERRIDE_CHECK=inherited"}
	}))

	res, err := Run(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"set|inherited"}, res.Lines)
}

func TestRunPTY(t *testing.T) {
	req := shell(`printf 'hello from tty\n'`)
	req.PTY = true
	s := NewSession(req)
	res, err := Run(context.Background(), s, nil)
	if se := s.SpawnErr(); se != nil {
		t.Skipf("pty unavailable: %v", se)
	}
	require.NoError(t, err)
	assert.Contains(t, strings.Join(res.Lines, "\n"), "hello from tty")
}
