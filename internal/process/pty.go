//go:build !windows
// +build !windows

package process

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/creack/pty"
)

// startPTY runs cmd on a pseudo-terminal so tools that only prompt when
// attached to a terminal still do. pty.Start makes the child a session
// leader, which also gives it its own process group.
func startPTY(cmd *exec.Cmd) (Streams, error) {
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 50, Cols: 200})
	if err != nil {
		return Streams{}, err
	}
	return Streams{
		Stdin:  ptyWriter{ptmx},
		Stdout: ptyReader{ptmx},
		Stderr: io.NopCloser(strings.NewReader("")),
	}, nil
}

// ptyReader reports EIO, which Linux returns once the child side closes, as
// a clean end of stream.
type ptyReader struct{ f *os.File }

func (r ptyReader) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	if err != nil && errors.Is(err, syscall.EIO) {
		err = io.EOF
	}
	return n, err
}

func (r ptyReader) Close() error { return r.f.Close() }

// ptyWriter shares the terminal with ptyReader. Closing it is a no-op; the
// terminal is closed once, through Stdout.
type ptyWriter struct{ f *os.File }

func (w ptyWriter) Write(p []byte) (int, error) { return w.f.Write(p) }

func (ptyWriter) Close() error { return nil }
