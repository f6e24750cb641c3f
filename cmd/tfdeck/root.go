package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/asheshgoplani/tfdeck/internal/config"
	"github.com/asheshgoplani/tfdeck/internal/events"
	"github.com/asheshgoplani/tfdeck/internal/history"
	"github.com/asheshgoplani/tfdeck/internal/logging"
	"github.com/asheshgoplani/tfdeck/internal/monitor"
	"github.com/asheshgoplani/tfdeck/internal/platform"
	"github.com/asheshgoplani/tfdeck/internal/runner"
	"github.com/asheshgoplani/tfdeck/internal/statedb"
	"github.com/asheshgoplani/tfdeck/internal/ui"
)

// exitError carries a process exit code out of a subcommand.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) && ee.code > 0 {
		return ee.code
	}
	return 1
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	debug bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "tfdeck [dir]",
		Short: "Terminal dashboard for terraform projects",
		Long: `tfdeck watches a terraform project directory and runs terraform
commands against it from a keyboard-driven dashboard.

Without a subcommand it opens the dashboard for dir (default: the
current directory).`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(args)
			if err != nil {
				return err
			}
			return runDashboard(cmd.Context(), dir, flags)
		},
	}
	cmd.SetVersionTemplate("tfdeck {{.Version}}\n")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "write debug logs to ~/.tfdeck/logs")

	cmd.AddCommand(
		newRunCmd(flags),
		newHistoryCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

// projectDir resolves the optional directory argument to an absolute path.
func projectDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 && args[0] != "" {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project directory: %s is not a directory", abs)
	}
	return abs, nil
}

// setupLogging starts logging for the process. The returned func flushes and
// closes the log and must be deferred by the caller.
func setupLogging(cfg *config.Config, flags *globalFlags) func() {
	debug := flags.debug || cfg.DebugEnabled()
	dir := ""
	if debug {
		if d, err := config.LogDir(); err == nil {
			dir = d
		}
	}
	logging.Init(cfg.LoggingConfig(dir, flags.debug))
	if debug && dir != "" {
		stopDumps := handleDumpSignal(dir)
		return func() {
			stopDumps()
			logging.Shutdown()
		}
	}
	return logging.Shutdown
}

// openHistory opens the state database and its command history.
func openHistory() (*statedb.StateDB, *history.Commands, error) {
	path, err := config.StatePath()
	if err != nil {
		return nil, nil, err
	}
	db, err := statedb.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, history.Records(db), nil
}

func runDashboard(ctx context.Context, dir string, flags *globalFlags) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the dashboard needs a terminal; use 'tfdeck run' for scripts")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		// A broken config file still yields defaults; report and carry on.
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}
	initColorProfile()
	ui.InitTheme(cfg.ResolveTheme())

	defer setupLogging(cfg, flags)()
	uiLog := logging.ForComponent(logging.CompUI)
	uiLog.Info("dashboard_started",
		slog.String("dir", dir),
		slog.Int("pid", os.Getpid()),
		slog.String("version", Version))

	db, records, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	bus := events.NewBus()
	defer bus.Close()

	mon, err := monitor.New(dir, bus,
		monitor.WithInterval(cfg.Monitor.Interval()),
		monitor.WithMinRefreshGap(cfg.Monitor.MinRefreshGap()),
		monitor.WithExcludeDirs(cfg.Monitor.Excludes()...),
		monitor.WithGitignore(cfg.Monitor.GitignoreEnabled()),
	)
	if err != nil {
		return err
	}
	if err := mon.Start(); err != nil {
		return err
	}
	defer mon.Stop()

	opts := []runner.Option{runner.WithHistory(records), runner.WithPauser(mon)}
	if len(cfg.Terraform.PromptMarkers) > 0 {
		opts = append(opts, runner.WithPromptMarkers(cfg.Terraform.PromptMarkers...))
	}
	run := runner.New(bus, opts...)
	defer run.Close()

	notice := platform.WatchWarning(dir)
	if notice != "" {
		uiLog.Warn("watch_unreliable", slog.String("dir", dir), slog.String("platform", platform.Detect().String()))
	}

	watcher := ui.NewHistoryWatcher(db)
	watcher.Start()

	home := ui.NewHome(ui.Options{
		Dir:            dir,
		Client:         cfg.NewClient(dir),
		Runner:         run,
		Bus:            bus,
		Files:          mon,
		History:        records,
		HistoryWatcher: watcher,
		ExcludeDirs:    cfg.Monitor.Excludes(),
		EnvPrefixes:    cfg.EnvPrefixes(),
		WatchTheme:     cfg.ThemeName() == "system",
		AllowOSC52:     true,
		Notice:         notice,
	})

	p := tea.NewProgram(home,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
