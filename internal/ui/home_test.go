package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheshgoplani/tfdeck/internal/events"
	"github.com/asheshgoplani/tfdeck/internal/git"
	"github.com/asheshgoplani/tfdeck/internal/history"
	"github.com/asheshgoplani/tfdeck/internal/process"
	"github.com/asheshgoplani/tfdeck/internal/runner"
	"github.com/asheshgoplani/tfdeck/internal/terraform"
)

type fakeRunner struct {
	mu       sync.Mutex
	started  []runner.Invocation
	inputs   []string
	canceled int
	inputErr error
}

func (f *fakeRunner) Start(_ context.Context, inv runner.Invocation) *runner.Executor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, inv)
	return nil
}

func (f *fakeRunner) Cancel() {
	f.mu.Lock()
	f.canceled++
	f.mu.Unlock()
}

func (f *fakeRunner) WriteInput(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, line)
	return f.inputErr
}

type fakeTracker struct {
	tracked map[string]bool
}

func (f *fakeTracker) Track(p string)   { f.tracked[p] = true }
func (f *fakeTracker) Untrack(p string) { delete(f.tracked, p) }

type fakeHistory struct{ records []history.Record }

func (f *fakeHistory) List() []history.Record { return f.records }

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

type fixture struct {
	home    *Home
	runner  *fakeRunner
	tracker *fakeTracker
	history *fakeHistory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		runner:  &fakeRunner{},
		tracker: &fakeTracker{tracked: map[string]bool{}},
		history: &fakeHistory{},
	}
	dir := t.TempDir()
	f.home = NewHome(Options{
		Dir:     dir,
		Client:  terraform.New("terraform", dir),
		Runner:  f.runner,
		Bus:     events.NewBus(),
		Files:   f.tracker,
		History: f.history,
	})
	t.Cleanup(f.home.cancel)
	f.home.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return f
}

func (f *fixture) send(evs ...events.Event) tea.Cmd {
	_, cmd := f.home.Update(eventsMsg{batch: evs})
	return cmd
}

func (f *fixture) logText() string {
	return process.StripANSI(strings.Join(f.home.log, "\n"))
}

func TestCommandKeysStartInvocations(t *testing.T) {
	f := newFixture(t)
	for _, k := range []string{"i", "p", "a", "v", "f"} {
		f.home.Update(key(k))
	}

	require.Len(t, f.runner.started, 5)
	plan := f.runner.started[1]
	assert.Equal(t, []string{"terraform", "plan"}, plan.Argv)
	assert.True(t, plan.RunInModal)
	assert.Equal(t, 15*time.Minute, plan.Timeout)
	assert.Equal(t, f.home.opts.Dir, plan.Dir)

	assert.Equal(t, []string{"terraform", "apply"}, f.runner.started[2].Argv)
	assert.False(t, f.runner.started[3].RunInModal, "validate logs inline")
	assert.Equal(t, []string{"terraform", "fmt", "-diff", "-recursive"}, f.runner.started[4].Argv)
}

func TestModalCommandStreamsIntoOverlay(t *testing.T) {
	f := newFixture(t)
	cmd := f.send(
		events.CommandStarted{ExecID: "e1", Argv: []string{"terraform", "plan"}, RunInModal: true, At: time.Now()},
		events.OutputLine{ExecID: "e1", Text: "Plan: 1 to add, 0 to change, 0 to destroy."},
	)
	require.NotNil(t, cmd)

	assert.True(t, f.home.overlay.IsVisible())
	assert.True(t, f.home.overlay.Running())
	assert.Equal(t, []string{"Plan: 1 to add, 0 to change, 0 to destroy."}, f.home.overlay.lines)
	assert.Equal(t, "e1", f.home.runningID)
	assert.NotContains(t, f.logText(), "Plan: 1 to add")

	f.send(events.CommandFinished{ExecID: "e1", Argv: []string{"terraform", "plan"}, RunInModal: true, Outcome: "success", Duration: 2 * time.Second})
	assert.True(t, f.home.overlay.IsVisible(), "finished output stays until dismissed")
	assert.False(t, f.home.overlay.Running())
	assert.Empty(t, f.home.runningID)
	assert.Contains(t, f.logText(), "✓ terraform plan success in 2s")

	f.home.Update(key("enter"))
	assert.False(t, f.home.overlay.IsVisible())
}

func TestInlineCommandOutputGoesToLog(t *testing.T) {
	f := newFixture(t)
	f.send(
		events.CommandStarted{ExecID: "e2", Argv: []string{"terraform", "validate"}},
		events.OutputLine{ExecID: "e2", Text: "Success! The configuration is valid."},
		events.CommandFinished{
			ExecID: "e2", Argv: []string{"terraform", "validate"}, Outcome: "failed",
			Err: errors.New("Error: Missing required argument\nmore detail"),
		},
	)
	assert.False(t, f.home.overlay.IsVisible())
	log := f.logText()
	assert.Contains(t, log, "$ terraform validate")
	assert.Contains(t, log, "  Success! The configuration is valid.")
	assert.Contains(t, log, "✕ terraform validate failed")
	assert.Contains(t, log, "Error: Missing required argument")
	assert.NotContains(t, log, "more detail")
}

func TestEscCancelsAndDropsLateOutput(t *testing.T) {
	f := newFixture(t)
	f.send(events.CommandStarted{ExecID: "e3", Argv: []string{"terraform", "apply"}, RunInModal: true})

	f.home.Update(key("esc"))
	assert.Equal(t, 1, f.runner.canceled)
	assert.False(t, f.home.overlay.IsVisible())

	f.send(events.OutputLine{ExecID: "e3", Text: "late line"})
	assert.NotContains(t, f.logText(), "late line")

	f.send(events.CommandFinished{ExecID: "e3", Argv: []string{"terraform", "apply"}, Outcome: "canceled", Err: process.ErrCanceled})
	assert.Contains(t, f.logText(), "terraform apply canceled")
	assert.NotContains(t, f.logText(), process.ErrCanceled.Error())
}

func TestEnterSendsInputLine(t *testing.T) {
	f := newFixture(t)
	f.send(events.CommandStarted{ExecID: "e4", Argv: []string{"terraform", "apply"}, RunInModal: true})
	f.send(events.OutputLine{ExecID: "e4", Text: "Enter a value:"})

	f.home.Update(key("yes"))
	f.home.Update(key("enter"))

	assert.Equal(t, []string{"yes"}, f.runner.inputs)
	assert.True(t, f.home.overlay.IsVisible())
	assert.Empty(t, f.home.overlay.input.Value())
}

func TestSendInputFailureShowsError(t *testing.T) {
	f := newFixture(t)
	f.runner.inputErr = process.ErrNotRunning
	f.send(events.CommandStarted{ExecID: "e5", Argv: []string{"terraform", "apply"}, RunInModal: true})
	f.home.Update(key("enter"))
	require.Error(t, f.home.err)
	assert.ErrorIs(t, f.home.err, process.ErrNotRunning)
}

func TestOpenFileTracksAndFollowsChanges(t *testing.T) {
	f := newFixture(t)
	f.home.Update(fileOpenedMsg{path: "main.tf", content: "a\nb\n"})
	require.Len(t, f.home.tabs, 1)
	assert.True(t, f.tracker.tracked["main.tf"])

	f.send(events.FileChanged{Path: "main.tf", Content: "a\nc\nd\n"})
	assert.Equal(t, "a\nc\nd\n", f.home.tabs[0].content)
	assert.Contains(t, f.logText(), "~ main.tf +2 -1")

	f.send(events.FileChanged{Path: "other.tf", Content: "x"})
	assert.NotContains(t, f.logText(), "other.tf")

	f.send(events.FileRemoved{Path: "main.tf"})
	assert.Empty(t, f.home.tabs)
	assert.False(t, f.tracker.tracked["main.tf"])
	assert.Contains(t, f.logText(), "- main.tf removed")
}

func TestTabsCycleAndClose(t *testing.T) {
	f := newFixture(t)
	f.home.Update(fileOpenedMsg{path: "main.tf", content: "main"})
	f.home.Update(fileOpenedMsg{path: "vars.tf", content: "vars"})
	assert.Equal(t, 1, f.home.activeTab)

	f.home.Update(key("tab"))
	assert.Equal(t, 0, f.home.activeTab)

	f.home.Update(key("x"))
	require.Len(t, f.home.tabs, 1)
	assert.Equal(t, "vars.tf", f.home.tabs[0].path)
	assert.False(t, f.tracker.tracked["main.tf"])
}

func TestRefreshRequestedReturnsCommand(t *testing.T) {
	f := newFixture(t)
	assert.NotNil(t, f.send(events.RefreshRequested{Events: 3}))
}

func TestRefreshListsTreeWithoutTerraform(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"main.tf", "modules/vpc/main.tf", ".terraform/providers/x", "terraform.tfstate"} {
		full := filepath.Join(dir, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}
	h := NewHome(Options{
		Dir:    dir,
		Client: terraform.New("tfdeck-missing-terraform", dir),
		Bus:    events.NewBus(),
	})
	defer h.cancel()

	msg, ok := h.refresh()().(refreshedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	assert.Error(t, msg.wsErr)
	assert.Equal(t, []string{"main.tf", "modules/vpc/main.tf", "terraform.tfstate"}, msg.files)
	assert.Equal(t, []string{"terraform.tfstate"}, msg.stateFiles)

	h.Update(msg)
	assert.False(t, h.loading)
	assert.Len(t, h.rows, 5)
}

func TestHeaderShowsRepoStatus(t *testing.T) {
	f := newFixture(t)
	f.home.Update(refreshedMsg{repo: git.Status{Branch: "main", Dirty: true}})
	assert.Contains(t, process.StripANSI(f.home.renderHeader()), "main*")

	f.home.Update(refreshedMsg{repoErr: git.ErrNotRepo})
	assert.NotContains(t, process.StripANSI(f.home.renderHeader()), "main*")
}

func TestNoticeShownInStatusBar(t *testing.T) {
	dir := t.TempDir()
	h := NewHome(Options{
		Dir:    dir,
		Client: terraform.New("terraform", dir),
		Bus:    events.NewBus(),
		Notice: "project on an NFS mount",
	})
	defer h.cancel()
	h.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	assert.Contains(t, process.StripANSI(h.renderStatus()), "project on an NFS mount")
}

func TestEnterOnTreeOpensFile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.home.opts.Dir, "main.tf"), []byte("resource {}"), 0o644))
	f.home.Update(refreshedMsg{files: []string{"main.tf"}})

	_, cmd := f.home.Update(key("enter"))
	require.NotNil(t, cmd)
	opened, ok := cmd().(fileOpenedMsg)
	require.True(t, ok)
	assert.Equal(t, "resource {}", opened.content)
}

func TestHistoryReplayNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.history.records = []history.Record{
		{Argv: []string{"terraform", "plan"}, RunInModal: true, Outcome: "success"},
		{Argv: []string{"terraform", "validate"}, Outcome: "failed", ErrorMessage: "Error: boom"},
	}

	f.home.Update(key("h"))
	require.True(t, f.home.showHistory)
	require.Len(t, f.home.records, 2)
	assert.Equal(t, "terraform validate", f.home.records[0].Command())

	f.home.Update(key("j"))
	f.home.Update(key("enter"))
	require.Len(t, f.runner.started, 1)
	assert.Equal(t, []string{"terraform", "plan"}, f.runner.started[0].Argv)
	assert.True(t, f.runner.started[0].RunInModal)
	assert.Equal(t, 15*time.Minute, f.runner.started[0].Timeout)

	assert.Equal(t, "terraform plan", f.history.records[0].Command(), "the store is not reordered")
}

func TestFinishedCommandReloadsHistory(t *testing.T) {
	f := newFixture(t)
	f.history.records = []history.Record{{Argv: []string{"terraform", "init"}, Outcome: "success"}}
	f.send(events.CommandFinished{ExecID: "e6", Argv: []string{"terraform", "init"}, Outcome: "success"})
	assert.Len(t, f.home.records, 1)
}

func TestWorkspaceSwitchNeedsAnotherWorkspace(t *testing.T) {
	f := newFixture(t)
	f.home.Update(refreshedMsg{workspaces: []terraform.Workspace{{Name: "default", Active: true}}})
	_, cmd := f.home.Update(key("w"))
	assert.Nil(t, cmd)
	assert.Equal(t, "no other workspace", f.home.status)
}

func TestSearchSelectionOpensFile(t *testing.T) {
	f := newFixture(t)
	f.home.Update(refreshedMsg{files: []string{"main.tf", "modules/vpc/outputs.tf"}})
	f.home.Update(key("/"))
	require.True(t, f.home.search.IsVisible())

	f.home.Update(key("outp"))
	_, cmd := f.home.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, fileSelectedMsg{path: "modules/vpc/outputs.tf"}, cmd())
}

func TestQuitCancelsRunner(t *testing.T) {
	f := newFixture(t)
	_, cmd := f.home.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, f.runner.canceled)
	assert.Error(t, f.home.ctx.Err())
}

func TestViewRendersPanes(t *testing.T) {
	f := newFixture(t)
	f.home.Update(refreshedMsg{
		workspaces: []terraform.Workspace{{Name: "default"}, {Name: "prod", Active: true}},
		files:      []string{"main.tf", "modules/vpc/main.tf"},
		env:        []terraform.EnvVar{{Name: "TF_VAR_region", Value: "eu-west-1"}},
	})
	f.home.Update(key("h"))

	view := process.StripANSI(f.home.View())
	assert.Contains(t, view, "Workspaces")
	assert.Contains(t, view, "* prod")
	assert.Contains(t, view, "TF_VAR_region=eu-west-1")
	assert.Contains(t, view, "modules/")
	assert.Contains(t, view, "History")
	assert.Contains(t, view, "Commands")
	assert.Equal(t, 40, strings.Count(view, "\n")+1)
}

func TestListenForEventsStopsOnClosedBus(t *testing.T) {
	bus := events.NewBus()
	bus.Publish(events.RefreshRequested{Events: 1})
	msg := listenForEvents(context.Background(), bus)()
	assert.Equal(t, eventsMsg{batch: []events.Event{events.RefreshRequested{Events: 1}}}, msg)

	bus.Close()
	assert.Nil(t, listenForEvents(context.Background(), bus)())
}
