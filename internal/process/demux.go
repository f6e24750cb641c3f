package process

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// DefaultPromptMarker is the text terraform prints when it waits for input.
const DefaultPromptMarker = "Enter a value:"

// DemuxOption configures a Demuxer.
type DemuxOption func(*Demuxer)

// WithPromptMarkers replaces the prompt markers. A partial stdout line that
// ends with any marker is emitted without waiting for a newline.
func WithPromptMarkers(markers ...string) DemuxOption {
	return func(d *Demuxer) {
		d.markers = d.markers[:0]
		for _, m := range markers {
			if m != "" {
				d.markers = append(d.markers, m)
			}
		}
	}
}

// Demuxer turns a command's stdout and stderr into one ordered sequence of
// cleaned lines: every stdout line first, then every stderr line. It follows
// the bufio.Scanner shape:
//
//	d := process.NewDemuxer(stdout, stderr)
//	for d.Next() {
//		show(d.Line())
//	}
//	if err := d.Err(); err != nil { ... }
//
// Err is an *ExecutionError carrying the stderr lines when any were produced.
type Demuxer struct {
	stdout  *bufio.Reader
	stderr  *bufio.Reader
	markers []string

	acc        bytes.Buffer
	stdoutDone bool
	stderrDone bool
	line       string
	errLines   []string
	err        error
}

// NewDemuxer reads from stdout and stderr. Either may be nil.
func NewDemuxer(stdout, stderr io.Reader, opts ...DemuxOption) *Demuxer {
	d := &Demuxer{
		markers:    []string{DefaultPromptMarker},
		stdoutDone: stdout == nil,
		stderrDone: stderr == nil,
	}
	if stdout != nil {
		d.stdout = bufio.NewReader(stdout)
	}
	if stderr != nil {
		d.stderr = bufio.NewReader(stderr)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next advances to the next line. It returns false when both streams are
// exhausted.
func (d *Demuxer) Next() bool {
	if !d.stdoutDone {
		if d.nextStdout() {
			return true
		}
		d.stdoutDone = true
	}
	if !d.stderrDone {
		if d.nextStderr() {
			return true
		}
		d.stderrDone = true
	}
	if d.err == nil && len(d.errLines) > 0 {
		d.err = &ExecutionError{Detail: strings.Join(d.errLines, "\n")}
	}
	return false
}

// Line is the current cleaned line.
func (d *Demuxer) Line() string { return d.line }

// Err reports the stderr failure once Next has returned false.
func (d *Demuxer) Err() error { return d.err }

// nextStdout reads one byte at a time so an interactive prompt, which has no
// trailing newline, is surfaced while the command waits for input.
func (d *Demuxer) nextStdout() bool {
	for {
		c, err := d.stdout.ReadByte()
		if err != nil {
			logReadErr("stdout", err)
			if d.acc.Len() > 0 {
				d.emit()
				return true
			}
			return false
		}
		d.acc.WriteByte(c)
		if c == '\n' || d.atPrompt() {
			d.emit()
			return true
		}
	}
}

func (d *Demuxer) nextStderr() bool {
	s, err := d.stderr.ReadString('\n')
	if err != nil {
		logReadErr("stderr", err)
		// A final line without a newline still counts.
		d.stderrDone = true
		if s == "" {
			return false
		}
	}
	d.line = CleanLine(s)
	d.errLines = append(d.errLines, d.line)
	return true
}

func (d *Demuxer) atPrompt() bool {
	for _, m := range d.markers {
		if bytes.HasSuffix(d.acc.Bytes(), []byte(m)) {
			return true
		}
	}
	return false
}

func (d *Demuxer) emit() {
	d.line = CleanLine(d.acc.String())
	d.acc.Reset()
}

// logReadErr records read errors other than a normal end of stream. A read
// on a stream closed by Release ends the stream the same way.
func logReadErr(stream string, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
		return
	}
	procLog.Debug("stream_read_error",
		slog.String("stream", stream),
		slog.String("error", err.Error()))
}

// Collect drains d and returns every line.
func Collect(d *Demuxer) ([]string, error) {
	var lines []string
	for d.Next() {
		lines = append(lines, d.Line())
	}
	return lines, d.Err()
}
