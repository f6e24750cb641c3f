// Package terraform knows how to talk to the terraform CLI: it builds
// command lines, runs quick queries to completion and parses their output.
// Long-running commands are handed to the runner as Invocations.
package terraform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/asheshgoplani/tfdeck/internal/logging"
	"github.com/asheshgoplani/tfdeck/internal/process"
	"github.com/asheshgoplani/tfdeck/internal/runner"
)

var tfLog = logging.ForComponent(logging.CompTerraform)

// DefaultBinary is used when no binary is configured.
const DefaultBinary = "terraform"

const notFoundMessage = "Terraform command not found. Is it installed and in PATH?"

// CommandError is a failed terraform query. Message is what to show the user.
type CommandError struct {
	Command string
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Client runs terraform in one working directory.
type Client struct {
	Binary   string
	Dir      string
	Env      map[string]string
	PTY      bool
	Timeouts Timeouts

	group singleflight.Group
}

// New returns a client for dir. An empty binary means DefaultBinary.
func New(binary, dir string) *Client {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Client{Binary: binary, Dir: dir, Timeouts: DefaultTimeouts()}
}

// Invocation prepares argv for the runner with this client's directory,
// environment and the ceiling for cat.
func (c *Client) Invocation(cat Category, argv []string, modal bool) runner.Invocation {
	return runner.Invocation{
		Argv:       argv,
		Dir:        c.Dir,
		Env:        c.Env,
		PTY:        c.PTY,
		Timeout:    c.Timeouts.For(cat),
		RunInModal: modal,
	}
}

// Command builds argv for an arbitrary terraform subcommand.
func (c *Client) Command(args ...string) []string {
	return append([]string{c.Binary}, args...)
}

// Capture runs argv to completion and returns its cleaned output lines.
// Quick queries never use a PTY.
func (c *Client) Capture(ctx context.Context, cat Category, argv []string) ([]string, error) {
	s := process.NewSession(process.Request{
		Argv:    argv,
		Dir:     c.Dir,
		Env:     c.Env,
		Timeout: c.Timeouts.For(cat),
	})
	res, err := process.Run(ctx, s, nil)
	if err != nil {
		return res.Lines, c.wrap(argv, err)
	}
	return res.Lines, nil
}

func (c *Client) wrap(argv []string, err error) error {
	cmd := strings.Join(argv, " ")
	msg := err.Error()

	var se *process.SpawnError
	var te *process.TimeoutError
	switch {
	case errors.As(err, &se) && errors.Is(se.Err, exec.ErrNotFound):
		msg = notFoundMessage
	case errors.As(err, &te):
		msg = fmt.Sprintf("timed out after %s", te.Limit)
	}
	tfLog.Debug("terraform_query_failed", slog.String("command", cmd), slog.String("error", err.Error()))
	return &CommandError{Command: cmd, Message: msg, Err: err}
}

// Version is the parsed output of terraform version -json.
type Version struct {
	Command            string            `json:"-"`
	TerraformVersion   string            `json:"terraform_version"`
	Platform           string            `json:"platform"`
	ProviderSelections map[string]string `json:"provider_selections"`
	Outdated           bool              `json:"terraform_outdated"`
}

// Version asks terraform for its version.
func (c *Client) Version(ctx context.Context) (Version, error) {
	argv := c.Command("version", "-json")
	lines, err := c.Capture(ctx, CategoryVersion, argv)
	if err != nil {
		return Version{}, err
	}
	var v Version
	if err := json.Unmarshal([]byte(strings.Join(lines, "\n")), &v); err != nil {
		return Version{}, &CommandError{
			Command: strings.Join(argv, " "),
			Message: fmt.Sprintf("invalid version output format: %v", err),
			Err:     err,
		}
	}
	v.Command = strings.Join(argv, " ")
	return v, nil
}

// Fmt runs terraform fmt -diff on path (the whole directory when empty) and
// returns the diff lines.
func (c *Client) Fmt(ctx context.Context, path string) ([]string, error) {
	return c.Capture(ctx, CategoryFmt, FormatSettings{Diff: true, Path: path}.Argv(c.Binary))
}

// Validate runs terraform validate.
func (c *Client) Validate(ctx context.Context, settings ValidateSettings) ([]string, error) {
	return c.Capture(ctx, CategoryValidate, settings.Argv(c.Binary))
}
