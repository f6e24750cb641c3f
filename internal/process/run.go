package process

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Result is what a finished command produced.
type Result struct {
	Lines    []string
	ExitCode int
	Duration time.Duration
}

// Run drives s to completion: it acquires the process, streams every cleaned
// line to onLine (which may be nil), and classifies the ending.
//
// The returned error is nil on success, ErrCanceled when ctx was canceled, a
// *TimeoutError when the request's timeout or ctx's deadline fired, a
// *SpawnError when nothing could be started and an *ExecutionError when the
// command wrote to stderr or exited non-zero. The session is released on
// every path, and the same error is kept in s.LastError.
func Run(ctx context.Context, s *Session, onLine func(string), opts ...DemuxOption) (Result, error) {
	req := s.Request()
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var res Result
	if err := ctxErr(ctx, req); err != nil {
		// Already over: make sure nothing is spawned.
		s.Release()
		s.setLastErr(err)
		return res, err
	}
	start := time.Now()
	err := s.Do(func(streams Streams) error {
		// Releasing closes the streams, which unblocks the reads below.
		stop := context.AfterFunc(ctx, s.Release)
		defer stop()

		d := NewDemuxer(streams.Stdout, streams.Stderr, opts...)
		for d.Next() {
			res.Lines = append(res.Lines, d.Line())
			if onLine != nil {
				onLine(d.Line())
			}
		}

		if err := ctxErr(ctx, req); err != nil {
			return err
		}
		if err := s.SpawnErr(); err != nil {
			return err
		}

		code, werr := s.Wait(ctx)
		if werr != nil {
			if err := ctxErr(ctx, req); err != nil {
				return err
			}
			return werr
		}
		res.ExitCode = code

		if derr := d.Err(); derr != nil {
			var ee *ExecutionError
			if errors.As(derr, &ee) {
				ee.ExitCode = code
			}
			return derr
		}
		if code != 0 {
			return &ExecutionError{ExitCode: code}
		}
		return nil
	})
	res.Duration = time.Since(start)

	procLog.Debug("process_finished",
		slog.String("argv", strings.Join(req.Argv, " ")),
		slog.Int("exit_code", res.ExitCode),
		slog.Int("lines", len(res.Lines)),
		slog.Duration("duration", res.Duration),
		slog.Bool("ok", err == nil))
	return res, err
}

func ctxErr(ctx context.Context, req Request) error {
	switch {
	case ctx.Err() == nil:
		return nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &TimeoutError{Argv: req.Argv, Limit: req.Timeout}
	default:
		return ErrCanceled
	}
}
