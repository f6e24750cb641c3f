// Package ui is the tfdeck dashboard: workspaces, project tree, open files,
// the commands log, command history and a live output window for commands
// that need interaction.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/sync/errgroup"

	"github.com/asheshgoplani/tfdeck/internal/clipboard"
	"github.com/asheshgoplani/tfdeck/internal/events"
	"github.com/asheshgoplani/tfdeck/internal/git"
	"github.com/asheshgoplani/tfdeck/internal/history"
	"github.com/asheshgoplani/tfdeck/internal/runner"
	"github.com/asheshgoplani/tfdeck/internal/terraform"
)

const (
	maxLogLines  = 500
	historyWidth = 44
	maxEnvShown  = 6
)

// Runner is the part of runner.Runner the dashboard drives.
type Runner interface {
	Start(ctx context.Context, inv runner.Invocation) *runner.Executor
	Cancel()
	WriteInput(line string) error
}

// FileTracker is told which files are open so their changes get pushed.
type FileTracker interface {
	Track(path string)
	Untrack(path string)
}

// HistoryLister reads command history, oldest first.
type HistoryLister interface {
	List() []history.Record
}

// Options wires the dashboard to the rest of tfdeck.
type Options struct {
	Dir    string
	Client *terraform.Client
	Runner Runner
	Bus    *events.Bus

	Files          FileTracker     // optional
	History        HistoryLister   // optional
	HistoryWatcher *HistoryWatcher // optional, started by the caller

	ExcludeDirs []string
	EnvPrefixes []string
	WatchTheme  bool
	AllowOSC52  bool

	// Notice is shown in the status bar until the first message replaces it.
	Notice string
}

type pane int

const (
	paneTree pane = iota
	paneHistory
)

type openFile struct {
	path    string
	content string
}

// Messages
type (
	eventsMsg struct{ batch []events.Event }

	refreshedMsg struct {
		workspaces []terraform.Workspace
		wsErr      error
		stateFiles []string
		files      []string
		env        []terraform.EnvVar
		repo       git.Status
		repoErr    error
		err        error
	}

	fileOpenedMsg struct {
		path    string
		content string
		err     error
	}

	workspaceSwitchedMsg struct {
		name string
		err  error
	}

	copiedMsg struct {
		result *clipboard.CopyResult
		err    error
	}
)

// Home is the dashboard model.
type Home struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	width  int
	height int

	workspaces []terraform.Workspace
	wsErr      error
	stateFiles []string
	envVars    []terraform.EnvVar
	repo       *git.Status
	files      []string
	rows       []treeRow
	treeCursor int

	tabs      []openFile
	activeTab int
	fileView  viewport.Model

	log []string

	records       []history.Record // newest first
	showHistory   bool
	historyCursor int
	focus         pane

	search  *Search
	overlay *OutputOverlay
	help    *HelpOverlay
	spinner spinner.Model

	runningID string
	modal     map[string]bool

	themeWatcher *ThemeWatcher

	status   string
	err      error
	loading  bool
	quitting bool
}

// NewHome builds the dashboard. Options.Client and Options.Bus are required.
func NewHome(opts Options) *Home {
	ctx, cancel := context.WithCancel(context.Background())
	if opts.ExcludeDirs == nil {
		opts.ExcludeDirs = []string{".git", ".terraform"}
	}
	if len(opts.EnvPrefixes) == 0 {
		opts.EnvPrefixes = terraform.DefaultEnvPrefixes
	}

	h := &Home{
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts,
		fileView: viewport.New(0, 0),
		search:   NewSearch(),
		overlay:  NewOutputOverlay(),
		help:     NewHelpOverlay(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
		modal:    make(map[string]bool),
		status:   opts.Notice,
		loading:  true,
	}
	if opts.WatchTheme {
		h.themeWatcher = NewThemeWatcher(ctx)
	}
	h.reloadHistory()
	return h
}

func (h *Home) Init() tea.Cmd {
	cmds := []tea.Cmd{h.refresh(), listenForEvents(h.ctx, h.opts.Bus)}
	if h.themeWatcher != nil {
		cmds = append(cmds, h.themeWatcher.listen())
	}
	if h.opts.HistoryWatcher != nil {
		cmds = append(cmds, h.opts.HistoryWatcher.listen())
	}
	return tea.Batch(cmds...)
}

// listenForEvents waits for the next batch from the bus.
func listenForEvents(ctx context.Context, bus *events.Bus) tea.Cmd {
	return func() tea.Msg {
		if bus == nil {
			return nil
		}
		batch := bus.Next(ctx)
		if batch == nil {
			return nil
		}
		return eventsMsg{batch: batch}
	}
}

// refresh re-lists workspaces, state files and the project tree
// concurrently. A workspace failure is shown but does not fail the refresh:
// uninitialized directories still have a tree.
func (h *Home) refresh() tea.Cmd {
	ctx, client, dir := h.ctx, h.opts.Client, h.opts.Dir
	excludes, prefixes := h.opts.ExcludeDirs, h.opts.EnvPrefixes
	return func() tea.Msg {
		var msg refreshedMsg
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			msg.workspaces, msg.wsErr = client.Workspaces(gctx)
			return nil
		})
		g.Go(func() error {
			var err error
			msg.files, err = listProjectFiles(gctx, dir, excludes)
			return err
		})
		g.Go(func() error {
			var err error
			msg.stateFiles, err = terraform.StateFiles(dir)
			return err
		})
		g.Go(func() error {
			msg.repo, msg.repoErr = git.ReadStatus(gctx, dir)
			return nil
		})
		msg.env = terraform.EnvVars(terraform.EnvFilter{Prefixes: prefixes})
		msg.err = g.Wait()
		return msg
	}
}

func (h *Home) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.width = msg.Width
		h.height = msg.Height
		h.updateSizes()
		return h, nil

	case eventsMsg:
		cmds := h.applyEvents(msg.batch)
		cmds = append(cmds, listenForEvents(h.ctx, h.opts.Bus))
		return h, tea.Batch(cmds...)

	case refreshedMsg:
		h.loading = false
		if msg.err != nil {
			h.setError(msg.err)
			return h, nil
		}
		h.workspaces = msg.workspaces
		h.wsErr = msg.wsErr
		h.stateFiles = msg.stateFiles
		h.envVars = msg.env
		h.repo = nil
		if msg.repoErr == nil {
			h.repo = &msg.repo
		}
		h.setFiles(msg.files)
		return h, nil

	case fileSelectedMsg:
		return h, h.openFile(msg.path)

	case fileOpenedMsg:
		if msg.err != nil {
			h.setError(msg.err)
			return h, nil
		}
		h.showFile(msg.path, msg.content)
		return h, nil

	case workspaceSwitchedMsg:
		if msg.err != nil {
			h.setError(msg.err)
			return h, nil
		}
		h.status = "switched to workspace " + msg.name
		h.appendLog(InfoStyle.Render("⇄ workspace " + msg.name))
		return h, h.refresh()

	case copiedMsg:
		if msg.err != nil {
			h.setError(msg.err)
		} else {
			h.status = fmt.Sprintf("copied %d bytes (%s)", msg.result.ByteSize, msg.result.Method)
		}
		return h, nil

	case themeChangedMsg:
		if msg.dark {
			InitTheme("dark")
		} else {
			InitTheme("light")
		}
		return h, h.themeWatcher.listen()

	case historyChangedMsg:
		h.reloadHistory()
		return h, h.opts.HistoryWatcher.listen()

	case spinner.TickMsg:
		if h.runningID == "" {
			return h, nil
		}
		var cmd tea.Cmd
		h.spinner, cmd = h.spinner.Update(msg)
		return h, cmd

	case tea.KeyMsg:
		return h.handleKey(msg)
	}

	// Cursor blink and the like.
	if h.overlay.IsVisible() {
		return h, h.overlay.Update(msg)
	}
	if h.search.IsVisible() {
		var cmd tea.Cmd
		h.search, cmd = h.search.Update(msg)
		return h, cmd
	}
	return h, nil
}

// applyEvents folds one batch from the bus into the model.
func (h *Home) applyEvents(batch []events.Event) []tea.Cmd {
	var cmds []tea.Cmd
	for _, ev := range batch {
		switch ev := ev.(type) {
		case events.CommandStarted:
			if h.runningID == "" {
				cmds = append(cmds, h.spinner.Tick)
			}
			h.runningID = ev.ExecID
			command := strings.Join(ev.Argv, " ")
			h.appendLog(CommandStyle.Render("$ " + command))
			if ev.RunInModal {
				h.modal[ev.ExecID] = true
				h.overlay.Open(ev.ExecID, command, ev.At)
			}

		case events.OutputLine:
			switch {
			case h.overlay.Owns(ev.ExecID):
				h.overlay.Append(ev.Text)
			case h.modal[ev.ExecID]:
				// output window was dismissed
			default:
				h.appendLog("  " + ev.Text)
			}

		case events.CommandFinished:
			if h.runningID == ev.ExecID {
				h.runningID = ""
			}
			delete(h.modal, ev.ExecID)
			if h.overlay.Owns(ev.ExecID) {
				h.overlay.Finish(ev.Outcome, ev.Err, ev.Duration)
			}
			line := OutcomeIndicator(ev.Outcome) + " " + strings.Join(ev.Argv, " ") +
				DimStyle.Render(" "+ev.Outcome+" in "+formatDuration(ev.Duration))
			h.appendLog(line)
			if ev.Err != nil && ev.Outcome != string(runner.OutcomeCanceled) {
				h.appendLog("  " + HistoryErrorStyle.Render(firstLine(ev.Err.Error())))
			}
			h.reloadHistory()
			if changesState(ev.Argv) {
				cmds = append(cmds, h.refresh())
			}

		case events.FileChanged:
			idx := h.tabIndex(ev.Path)
			if idx < 0 {
				continue
			}
			summary := changeSummary(h.tabs[idx].content, ev.Content)
			h.tabs[idx].content = ev.Content
			if idx == h.activeTab {
				h.syncFileView()
			}
			h.appendLog(WarningStyle.Render("~ ") + ev.Path + " " + DimStyle.Render(summary))

		case events.FileRemoved:
			if idx := h.tabIndex(ev.Path); idx >= 0 {
				h.removeTab(idx)
			}
			h.appendLog(ErrorStyle.Render("- ") + ev.Path + DimStyle.Render(" removed"))

		case events.RefreshRequested:
			uiLog.Debug("refresh_requested", slog.Int64("events", ev.Events))
			cmds = append(cmds, h.refresh())
		}
	}
	return cmds
}

// changesState reports whether a finished command may have changed
// workspaces or state files the monitor does not watch.
func changesState(argv []string) bool {
	if len(argv) < 2 {
		return false
	}
	switch terraform.Category(argv[1]) {
	case terraform.CategoryInit, terraform.CategoryApply, terraform.CategoryDestroy, terraform.CategoryWorkspace:
		return true
	}
	return false
}

func (h *Home) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return h, h.quit()
	}
	if h.help.IsVisible() {
		h.help, _ = h.help.Update(msg)
		return h, nil
	}
	if h.overlay.IsVisible() {
		return h.handleOverlayKey(msg)
	}
	if h.search.IsVisible() {
		var cmd tea.Cmd
		h.search, cmd = h.search.Update(msg)
		return h, cmd
	}

	h.err = nil
	bin := h.opts.Client.Binary
	switch msg.String() {
	case "q":
		return h, h.quit()
	case "?":
		h.help.Show()
	case "i":
		h.startCommand(terraform.CategoryInit, terraform.InitSettings{}.Argv(bin), true)
	case "p":
		h.startCommand(terraform.CategoryPlan, terraform.PlanSettings{}.Argv(bin), true)
	case "a":
		h.startCommand(terraform.CategoryApply, terraform.ApplySettings{}.Argv(bin), true)
	case "v":
		h.startCommand(terraform.CategoryValidate, terraform.ValidateSettings{}.Argv(bin), false)
	case "f":
		h.startCommand(terraform.CategoryFmt, terraform.FormatSettings{Diff: true, Recursive: true}.Argv(bin), false)
	case "w":
		return h, h.nextWorkspace()
	case "r":
		return h, h.refresh()
	case "/":
		h.search.SetItems(h.files)
		h.search.Show()
		return h, textinput.Blink
	case "h":
		h.showHistory = !h.showHistory
		h.focus = paneTree
		if h.showHistory {
			h.focus = paneHistory
			h.historyCursor = 0
			h.reloadHistory()
		}
		h.updateSizes()
	case "esc":
		if h.showHistory {
			h.showHistory = false
			h.focus = paneTree
			h.updateSizes()
		}
	case "tab":
		if len(h.tabs) > 0 {
			h.activeTab = (h.activeTab + 1) % len(h.tabs)
			h.syncFileView()
		}
	case "x":
		if len(h.tabs) > 0 {
			h.removeTab(h.activeTab)
		}
	case "up", "k":
		h.moveCursor(-1)
	case "down", "j":
		h.moveCursor(1)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		h.fileView, cmd = h.fileView.Update(msg)
		return h, cmd
	case "enter":
		if h.focus == paneHistory {
			h.replaySelected()
			return h, nil
		}
		if row, ok := h.selectedRow(); ok && !row.Dir {
			return h, h.openFile(row.Path)
		}
	case "y":
		if h.focus == paneHistory {
			return h, h.copySelected()
		}
	}
	return h, nil
}

func (h *Home) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	running := h.overlay.Running()
	switch msg.String() {
	case "esc":
		if running && h.opts.Runner != nil {
			h.opts.Runner.Cancel()
		}
		h.overlay.Close()
		return h, nil
	case "enter":
		if !running {
			h.overlay.Close()
			return h, nil
		}
		line := h.overlay.TakeInput()
		if h.opts.Runner != nil {
			if err := h.opts.Runner.WriteInput(line); err != nil {
				h.setError(fmt.Errorf("send input: %w", err))
			}
		}
		return h, nil
	}
	return h, h.overlay.Update(msg)
}

func (h *Home) startCommand(cat terraform.Category, argv []string, modal bool) {
	if h.opts.Runner == nil {
		h.setError(fmt.Errorf("no command runner"))
		return
	}
	h.opts.Runner.Start(h.ctx, h.opts.Client.Invocation(cat, argv, modal))
}

func (h *Home) replaySelected() {
	if h.historyCursor >= len(h.records) {
		return
	}
	rec := h.records[h.historyCursor]
	if len(rec.Argv) == 0 {
		return
	}
	cat := terraform.Category("")
	if len(rec.Argv) > 1 {
		cat = terraform.Category(rec.Argv[1])
	}
	h.startCommand(cat, slices.Clone(rec.Argv), rec.RunInModal)
}

func (h *Home) copySelected() tea.Cmd {
	if h.historyCursor >= len(h.records) {
		return nil
	}
	text := h.records[h.historyCursor].Command()
	allow := h.opts.AllowOSC52
	return func() tea.Msg {
		res, err := clipboard.Copy(text, allow)
		return copiedMsg{result: res, err: err}
	}
}

func (h *Home) nextWorkspace() tea.Cmd {
	if len(h.workspaces) < 2 {
		h.status = "no other workspace"
		return nil
	}
	next := 0
	for i, ws := range h.workspaces {
		if ws.Active {
			next = (i + 1) % len(h.workspaces)
			break
		}
	}
	name := h.workspaces[next].Name
	ctx, client := h.ctx, h.opts.Client
	return func() tea.Msg {
		return workspaceSwitchedMsg{name: name, err: client.SelectWorkspace(ctx, name)}
	}
}

func (h *Home) openFile(rel string) tea.Cmd {
	full := filepath.Join(h.opts.Dir, filepath.FromSlash(rel))
	return func() tea.Msg {
		data, err := os.ReadFile(full)
		return fileOpenedMsg{path: rel, content: string(data), err: err}
	}
}

func (h *Home) showFile(rel, content string) {
	if idx := h.tabIndex(rel); idx >= 0 {
		h.tabs[idx].content = content
		h.activeTab = idx
	} else {
		h.tabs = append(h.tabs, openFile{path: rel, content: content})
		h.activeTab = len(h.tabs) - 1
		if h.opts.Files != nil {
			h.opts.Files.Track(rel)
		}
	}
	h.syncFileView()
}

func (h *Home) tabIndex(rel string) int {
	return slices.IndexFunc(h.tabs, func(f openFile) bool { return f.path == rel })
}

func (h *Home) removeTab(idx int) {
	if h.opts.Files != nil {
		h.opts.Files.Untrack(h.tabs[idx].path)
	}
	h.tabs = slices.Delete(h.tabs, idx, idx+1)
	if h.activeTab >= len(h.tabs) {
		h.activeTab = max(len(h.tabs)-1, 0)
	}
	h.syncFileView()
}

func (h *Home) syncFileView() {
	if len(h.tabs) == 0 {
		h.fileView.SetContent("")
		return
	}
	h.fileView.SetContent(h.tabs[h.activeTab].content)
	h.fileView.GotoTop()
}

func (h *Home) setFiles(files []string) {
	var selected string
	if row, ok := h.selectedRow(); ok {
		selected = row.Path
	}
	h.files = files
	h.rows = buildTree(files)
	h.treeCursor = 0
	for i, r := range h.rows {
		if r.Path == selected {
			h.treeCursor = i
			break
		}
	}
}

func (h *Home) selectedRow() (treeRow, bool) {
	if h.treeCursor < 0 || h.treeCursor >= len(h.rows) {
		return treeRow{}, false
	}
	return h.rows[h.treeCursor], true
}

func (h *Home) moveCursor(delta int) {
	if h.focus == paneHistory {
		h.historyCursor = clamp(h.historyCursor+delta, 0, len(h.records)-1)
		return
	}
	h.treeCursor = clamp(h.treeCursor+delta, 0, len(h.rows)-1)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

func (h *Home) reloadHistory() {
	if h.opts.History == nil {
		return
	}
	records := slices.Clone(h.opts.History.List())
	slices.Reverse(records)
	h.records = records
	h.historyCursor = clamp(h.historyCursor, 0, len(records)-1)
}

func (h *Home) appendLog(line string) {
	h.log = append(h.log, line)
	if len(h.log) > maxLogLines {
		h.log = h.log[len(h.log)-maxLogLines:]
	}
}

func (h *Home) setError(err error) {
	h.err = err
	if err != nil {
		uiLog.Debug("ui_error", slog.String("error", err.Error()))
	}
}

func (h *Home) quit() tea.Cmd {
	h.quitting = true
	if h.opts.Runner != nil {
		h.opts.Runner.Cancel()
	}
	if h.themeWatcher != nil {
		h.themeWatcher.Close()
	}
	if h.opts.HistoryWatcher != nil {
		h.opts.HistoryWatcher.Close()
	}
	h.cancel()
	return tea.Quit
}

// Layout

func (h *Home) columns() (left, right, hist int) {
	left = max(h.width*30/100, 24)
	if h.showHistory {
		hist = historyWidth
	}
	right = h.width - left - hist - 1
	if hist > 0 {
		right--
	}
	return left, max(right, 10), hist
}

func (h *Home) bodyHeight() int { return max(h.height-3, 4) }

func (h *Home) logHeight() int { return max(h.bodyHeight()/3, 5) }

func (h *Home) updateSizes() {
	_, right, _ := h.columns()
	h.fileView.Width = right
	h.fileView.Height = max(h.bodyHeight()-h.logHeight()-1, 1)
	h.search.SetSize(h.width, h.height)
	h.overlay.SetSize(h.width, h.height)
	h.help.SetSize(h.width, h.height)
}

func (h *Home) View() string {
	if h.quitting {
		return ""
	}
	if h.width == 0 {
		return "Loading..."
	}
	switch {
	case h.help.IsVisible():
		return h.help.View()
	case h.overlay.IsVisible():
		return h.overlay.View()
	case h.search.IsVisible():
		return h.search.View()
	}

	body := h.bodyHeight()
	left, right, hist := h.columns()
	sep := PanelRuleStyle.Render(strings.TrimSuffix(strings.Repeat("│\n", body), "\n"))

	parts := []string{
		ensureExactWidth(ensureExactHeight(h.renderSidebar(left, body), body), left),
		sep,
		ensureExactWidth(ensureExactHeight(h.renderMain(right, body), body), right),
	}
	if hist > 0 {
		parts = append(parts, sep,
			ensureExactWidth(ensureExactHeight(h.renderHistory(hist, body), body), hist))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		h.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, parts...),
		h.renderStatus(),
		h.renderHelpBar(),
	)
}

func (h *Home) renderHeader() string {
	title := TitleStyle.Render("tfdeck")
	ws := DimStyle.Render("no workspace")
	for _, w := range h.workspaces {
		if w.Active {
			ws = WorkspaceActive.Render("⎇ " + w.Name)
		}
	}
	dir := DimStyle.Render(truncatePath(h.opts.Dir, max(h.width/3, 10)))
	line := title + " " + ws + "  " + dir
	if h.repo != nil {
		line += "  " + InfoStyle.Render(" "+h.repo.Label())
	}
	if h.runningID != "" {
		line += "  " + h.spinner.View() + WarningStyle.Render("running")
	}
	return ensureExactWidth(line, h.width)
}

func (h *Home) renderSidebar(width, height int) string {
	var b strings.Builder

	b.WriteString(renderPanelTitle("Workspaces", width))
	switch {
	case h.loading:
		b.WriteString("\n" + DimStyle.Render("loading…"))
	case h.wsErr != nil:
		b.WriteString("\n" + HistoryErrorStyle.Render(runewidth.Truncate(firstLine(h.wsErr.Error()), width, "…")))
	case len(h.workspaces) == 0:
		b.WriteString("\n" + DimStyle.Render("none"))
	}
	for _, ws := range h.workspaces {
		if ws.Active {
			b.WriteString("\n" + WorkspaceActive.Render("* "+ws.Name))
		} else {
			b.WriteString("\n  " + ws.Name)
		}
	}

	if len(h.stateFiles) > 0 {
		b.WriteString("\n\n" + renderPanelTitle("State", width))
		for _, f := range h.stateFiles {
			b.WriteString("\n" + DimStyle.Render(truncatePath(f, width)))
		}
	}

	if len(h.envVars) > 0 {
		b.WriteString("\n\n" + renderPanelTitle("Environment", width))
		for i, v := range h.envVars {
			if i == maxEnvShown {
				b.WriteString("\n" + DimStyle.Render(fmt.Sprintf("+%d more", len(h.envVars)-maxEnvShown)))
				break
			}
			b.WriteString("\n" + v.Name + DimStyle.Render("="+v.Value))
		}
	}

	b.WriteString("\n\n" + renderPanelTitle("Files", width))
	used := strings.Count(b.String(), "\n") + 1
	b.WriteString(h.renderTree(width, max(height-used, 1)))
	return b.String()
}

func (h *Home) renderTree(width, height int) string {
	if len(h.rows) == 0 {
		return "\n" + DimStyle.Render("empty")
	}
	start := 0
	if h.treeCursor >= height {
		start = h.treeCursor - height + 1
	}
	end := min(start+height, len(h.rows))

	var b strings.Builder
	for i := start; i < end; i++ {
		r := h.rows[i]
		text := strings.Repeat("  ", r.Depth) + r.Name
		if r.Dir {
			text += "/"
		}
		text = runewidth.Truncate(text, width, "…")
		switch {
		case i == h.treeCursor && h.focus == paneTree:
			text = SelectedStyle.Render(runewidth.FillRight(text, width))
		case r.Dir:
			text = FolderStyle.Render(text)
		case h.tabIndex(r.Path) >= 0:
			text = InfoStyle.Render(text)
		default:
			text = FileStyle.Render(text)
		}
		b.WriteString("\n" + text)
	}
	return b.String()
}

func (h *Home) renderMain(width, height int) string {
	var tabs strings.Builder
	if len(h.tabs) == 0 {
		tabs.WriteString(DimStyle.Render("no open files, press enter on a file"))
	}
	for i, t := range h.tabs {
		name := filepath.Base(t.path)
		if i == h.activeTab {
			tabs.WriteString(TabActiveStyle.Render(name))
		} else {
			tabs.WriteString(TabStyle.Render(name))
		}
	}

	logH := h.logHeight()
	viewH := max(height-logH-1, 1)
	fileArea := ensureExactHeight(h.fileView.View(), viewH)

	logLines := h.log
	if keep := logH - 2; len(logLines) > keep {
		logLines = logLines[len(logLines)-keep:]
	}
	logArea := renderPanelTitle("Commands", width) + "\n" + strings.Join(logLines, "\n")

	return ensureExactWidth(tabs.String(), width) + "\n" + fileArea + "\n" + logArea
}

func (h *Home) renderHistory(width, height int) string {
	var b strings.Builder
	b.WriteString(renderPanelTitle("History", width))
	if len(h.records) == 0 {
		b.WriteString("\n" + DimStyle.Render("no commands yet"))
		return b.String()
	}
	perRecord := 3
	visible := max((height-2)/perRecord, 1)
	start := 0
	if h.historyCursor >= visible {
		start = h.historyCursor - visible + 1
	}
	for i := start; i < len(h.records) && i < start+visible; i++ {
		rec := h.records[i]
		cmd := runewidth.Truncate(rec.Command(), width-2, "…")
		line := OutcomeIndicator(rec.Outcome) + " " + cmd
		if i == h.historyCursor && h.focus == paneHistory {
			line = SelectedStyle.Render(runewidth.FillRight("› "+cmd, width))
		}
		meta := TimestampStyle.Render(formatRelativeTime(rec.ExecutedAt))
		if rec.RunInModal {
			meta += " " + ModalCommandTag.Render("window")
		}
		b.WriteString("\n" + line + "\n  " + meta)
		if rec.ErrorMessage != "" {
			b.WriteString("\n  " + HistoryErrorStyle.Render(runewidth.Truncate(firstLine(rec.ErrorMessage), width-2, "…")))
		} else {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (h *Home) renderStatus() string {
	if h.err != nil {
		return ensureExactWidth(ErrorStyle.Render("✕ "+firstLine(h.err.Error())), h.width)
	}
	return ensureExactWidth(StatusBarStyle.Render(h.status), h.width)
}

func (h *Home) renderHelpBar() string {
	keys := []string{
		MenuKey("i", "init"), MenuKey("p", "plan"), MenuKey("a", "apply"),
		MenuKey("v", "validate"), MenuKey("f", "fmt"), MenuKey("w", "workspace"),
		MenuKey("/", "find"), MenuKey("h", "history"), MenuKey("?", "help"), MenuKey("q", "quit"),
	}
	if h.width < 100 {
		keys = []string{MenuKey("p", "plan"), MenuKey("a", "apply"), MenuKey("?", "help"), MenuKey("q", "quit")}
	}
	return MenuBarStyle.Width(max(h.width, 0)).Render(strings.Join(keys, "  "))
}
