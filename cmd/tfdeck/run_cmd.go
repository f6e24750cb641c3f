package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/asheshgoplani/tfdeck/internal/config"
	"github.com/asheshgoplani/tfdeck/internal/events"
	"github.com/asheshgoplani/tfdeck/internal/process"
	"github.com/asheshgoplani/tfdeck/internal/runner"
	"github.com/asheshgoplani/tfdeck/internal/terraform"
)

type runOptions struct {
	dir       string
	pty       bool
	timeout   time.Duration
	noHistory bool
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [flags] [--] <terraform args>",
		Short: "Run one terraform command without the dashboard",
		Long: `Run a single terraform command in the project directory, streaming
its cleaned output to stdout. Lines typed on stdin are forwarded to the
command, so interactive prompts can be answered.

The command is recorded in the history shown by the dashboard.

Examples:
  tfdeck run plan
  tfdeck run -C infra/prod -- apply -auto-approve plan.out`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeadless(cmd, args, opts, flags)
		},
	}
	// Everything after the terraform subcommand belongs to terraform.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVarP(&opts.dir, "dir", "C", ".", "project directory")
	cmd.Flags().BoolVar(&opts.pty, "pty", false, "run on a pseudo-terminal (overrides terraform.use_pty)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "override the category timeout (e.g. 30m)")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record the command in history")
	return cmd
}

// categoryFor maps the terraform subcommand onto its timeout category.
func categoryFor(args []string) terraform.Category {
	if len(args) == 0 {
		return terraform.Category("")
	}
	return terraform.Category(args[0])
}

func runHeadless(cmd *cobra.Command, args []string, opts *runOptions, flags *globalFlags) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", err)
	}
	defer setupLogging(cfg, flags)()

	dir, err := projectDir([]string{opts.dir})
	if err != nil {
		return err
	}

	client := cfg.NewClient(dir)
	if cmd.Flags().Changed("pty") {
		client.PTY = opts.pty
	}
	inv := client.Invocation(categoryFor(args), client.Command(args...), false)
	if opts.timeout > 0 {
		inv.Timeout = opts.timeout
	}

	var runOpts []runner.Option
	if len(cfg.Terraform.PromptMarkers) > 0 {
		runOpts = append(runOpts, runner.WithPromptMarkers(cfg.Terraform.PromptMarkers...))
	}
	if !opts.noHistory {
		db, records, err := openHistory()
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Warning: history unavailable:", err)
		} else {
			defer db.Close()
			runOpts = append(runOpts, runner.WithHistory(records))
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	defer bus.Close()
	r := runner.New(bus, runOpts...)
	defer r.Close()

	e := r.Start(ctx, inv)
	go forwardInput(cmd.InOrStdin(), r, e.Done())

	fin := streamOutput(bus, e.ID(), cmd.OutOrStdout())
	return finishError(fin)
}

// forwardInput sends each stdin line to the running command until it exits
// or stdin is exhausted.
func forwardInput(in io.Reader, r *runner.Runner, done <-chan struct{}) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case <-done:
			return
		default:
		}
		if err := r.WriteInput(scanner.Text()); err != nil {
			return
		}
	}
}

// streamOutput writes the output lines of execID to w until its
// CommandFinished arrives. The runner always publishes one.
func streamOutput(bus *events.Bus, execID string, w io.Writer) events.CommandFinished {
	for {
		batch := bus.Next(context.Background())
		if batch == nil {
			return events.CommandFinished{ExecID: execID, Outcome: string(runner.OutcomeCanceled), Err: process.ErrCanceled}
		}
		for _, ev := range batch {
			switch ev := ev.(type) {
			case events.OutputLine:
				if ev.ExecID == execID {
					fmt.Fprintln(w, ev.Text)
				}
			case events.CommandFinished:
				if ev.ExecID == execID {
					return ev
				}
			}
		}
	}
}

// finishError turns a terminal outcome into the command's error, carrying
// terraform's exit code when there is one.
func finishError(fin events.CommandFinished) error {
	if fin.Err == nil {
		return nil
	}
	var ee *process.ExecutionError
	if errors.As(fin.Err, &ee) {
		return &exitError{code: ee.ExitCode, err: fmt.Errorf("%s: %w", fin.Outcome, fin.Err)}
	}
	if errors.Is(fin.Err, process.ErrCanceled) {
		return &exitError{code: 130, err: errors.New("canceled")}
	}
	return &exitError{code: 1, err: fin.Err}
}
