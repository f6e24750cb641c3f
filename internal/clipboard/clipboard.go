// Package clipboard copies history commands to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"

	"github.com/asheshgoplani/tfdeck/internal/platform"
)

// ErrEmpty is returned when there is nothing to copy.
var ErrEmpty = errors.New("no content to copy")

// CopyResult describes a successful copy.
type CopyResult struct {
	Method    string // "native", "clip.exe" or "osc52"
	ByteSize  int
	LineCount int
}

// Copy puts text on the clipboard. It tries the native clipboard tools
// first and falls back to an OSC 52 escape sequence written to the
// controlling terminal when allowOSC52 is set.
func Copy(text string, allowOSC52 bool) (*CopyResult, error) {
	if text == "" {
		return nil, ErrEmpty
	}
	result := &CopyResult{ByteSize: len(text), LineCount: countLines(text)}

	method, err := copyNative(text)
	if err == nil {
		result.Method = method
		return result, nil
	}
	if !allowOSC52 {
		return nil, fmt.Errorf("no clipboard method available (install pbcopy, xclip, xsel, or wl-copy): %w", err)
	}

	tty, terr := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if terr != nil {
		return nil, fmt.Errorf("cannot open /dev/tty: %w", terr)
	}
	defer tty.Close()
	if err := writeOSC52(tty, text, os.Getenv("TMUX") != ""); err != nil {
		return nil, fmt.Errorf("OSC 52 clipboard failed: %w", err)
	}
	result.Method = "osc52"
	return result, nil
}

func copyNative(text string) (string, error) {
	if platform.IsWSL() {
		cmd := exec.Command("clip.exe")
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			return "clip.exe", nil
		}
	}
	if clipboard.Unsupported {
		return "", errors.New("no native clipboard tool found")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return "", err
	}
	return "native", nil
}

// writeOSC52 writes the escape sequence, wrapped in a DCS passthrough
// inside tmux.
func writeOSC52(w io.Writer, text string, inTmux bool) error {
	seq := osc52.New(text)
	if inTmux {
		seq = seq.Tmux()
	}
	_, err := seq.WriteTo(w)
	return err
}

// countLines counts lines; a trailing newline does not add one.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
