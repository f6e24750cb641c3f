package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/asheshgoplani/tfdeck/internal/config"
	"github.com/asheshgoplani/tfdeck/internal/events"
	"github.com/asheshgoplani/tfdeck/internal/history"
	"github.com/asheshgoplani/tfdeck/internal/process"
	"github.com/asheshgoplani/tfdeck/internal/terraform"
)

// withHome points tfdeck at a fresh home directory.
func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.HomeEnv, home)
	t.Setenv(config.DebugEnv, "")
	config.ClearCache()
	t.Cleanup(config.ClearCache)
	return home
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseColorProfile(t *testing.T) {
	tests := []struct {
		in   string
		want termenv.Profile
		ok   bool
	}{
		{"truecolor", termenv.TrueColor, true},
		{"24BIT", termenv.TrueColor, true},
		{"256", termenv.ANSI256, true},
		{"basic", termenv.ANSI, true},
		{"none", termenv.Ascii, true},
		{"sparkly", termenv.Ascii, false},
	}
	for _, tt := range tests {
		got, ok := parseColorProfile(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestDetectColorProfile(t *testing.T) {
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}
	assert.Equal(t, termenv.TrueColor, detectColorProfile(env(map[string]string{"COLORTERM": "truecolor"})))
	assert.Equal(t, termenv.TrueColor, detectColorProfile(env(map[string]string{"TERM": "xterm-kitty"})))
	assert.Equal(t, termenv.TrueColor, detectColorProfile(env(map[string]string{"TERM": "dumb", "WT_SESSION": "1"})))
	assert.Equal(t, termenv.ANSI256, detectColorProfile(env(map[string]string{"TERM": "vt100"})))
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, terraform.CategoryPlan, categoryFor([]string{"plan", "-out", "x"}))
	assert.Equal(t, terraform.CategoryWorkspace, categoryFor([]string{"workspace", "list"}))
	assert.Equal(t, terraform.Category(""), categoryFor(nil))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 2, exitCode(&exitError{code: 2, err: errors.New("plan failed")}))
	assert.Equal(t, 1, exitCode(&exitError{err: errors.New("no code")}))
}

func TestFinishError(t *testing.T) {
	assert.NoError(t, finishError(events.CommandFinished{Outcome: "success"}))

	err := finishError(events.CommandFinished{Outcome: "failed", Err: &process.ExecutionError{ExitCode: 3}})
	assert.Equal(t, 3, exitCode(err))
	assert.Contains(t, err.Error(), "exit status 3")

	err = finishError(events.CommandFinished{Outcome: "canceled", Err: process.ErrCanceled})
	assert.Equal(t, 130, exitCode(err))
}

func TestStreamOutputStopsAtOwnFinish(t *testing.T) {
	bus := events.NewBus()
	bus.Publish(events.CommandStarted{ExecID: "a"})
	bus.Publish(events.OutputLine{ExecID: "a", Text: "Initializing..."})
	bus.Publish(events.OutputLine{ExecID: "other", Text: "not mine"})
	bus.Publish(events.CommandFinished{ExecID: "other", Outcome: "success"})
	bus.Publish(events.OutputLine{ExecID: "a", Text: "done"})
	bus.Publish(events.CommandFinished{ExecID: "a", Outcome: "success"})

	var out bytes.Buffer
	fin := streamOutput(bus, "a", &out)
	assert.Equal(t, "a", fin.ExecID)
	assert.Equal(t, "Initializing...\ndone\n", out.String())
}

func TestStreamOutputClosedBus(t *testing.T) {
	bus := events.NewBus()
	bus.Close()
	fin := streamOutput(bus, "a", &bytes.Buffer{})
	assert.ErrorIs(t, fin.Err, process.ErrCanceled)
}

func sampleRecords() []history.Record {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []history.Record{
		{Argv: []string{"terraform", "init"}, ExecutedAt: at, RunInModal: true, Outcome: "success"},
		{Argv: []string{"terraform", "plan"}, ExecutedAt: at.Add(time.Minute), Outcome: "failed", ErrorMessage: "Error: Invalid block\nmore"},
		{Argv: []string{"terraform", "validate"}, ExecutedAt: at.Add(2 * time.Minute), Outcome: "success"},
	}
}

func TestNewestFirst(t *testing.T) {
	records := sampleRecords()
	got := newestFirst(records, 0)
	require.Len(t, got, 3)
	assert.Equal(t, "terraform validate", got[0].Command())
	assert.Equal(t, "terraform init", records[0].Command())

	assert.Len(t, newestFirst(records, 2), 2)
}

func TestWriteHistoryFormats(t *testing.T) {
	records := sampleRecords()

	var table bytes.Buffer
	require.NoError(t, writeHistory(&table, records, "table"))
	lines := strings.Split(strings.TrimSpace(table.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "EXECUTED"))
	assert.Contains(t, lines[2], "Error: Invalid block")
	assert.NotContains(t, table.String(), "more")

	var js bytes.Buffer
	require.NoError(t, writeHistory(&js, records, "json"))
	var decoded []history.Record
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Len(t, decoded, 3)
	assert.Equal(t, "failed", decoded[1].Outcome)

	var ym bytes.Buffer
	require.NoError(t, writeHistory(&ym, records, "yaml"))
	var generic []map[string]any
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &generic))
	require.Len(t, generic, 3)
	assert.Equal(t, true, generic[0]["run_in_modal"])

	assert.Error(t, writeHistory(&bytes.Buffer{}, records, "xml"))
}

func TestFormatHistoryTableEmpty(t *testing.T) {
	assert.Equal(t, "No commands recorded.\n", formatHistoryTable(nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
}

func TestProjectDir(t *testing.T) {
	dir := t.TempDir()
	got, err := projectDir([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = projectDir([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)

	file := filepath.Join(dir, "main.tf")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = projectDir([]string{file})
	assert.Error(t, err)
}

func TestConfigInitAndPath(t *testing.T) {
	home := withHome(t)

	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
	assert.FileExists(t, filepath.Join(home, config.FileName))

	out, err = execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, config.FileName)+"\n", out)
}

func TestHistoryCommand(t *testing.T) {
	withHome(t)

	db, records, err := openHistory()
	require.NoError(t, err)
	for _, r := range sampleRecords() {
		records.Add(r)
	}
	require.NoError(t, db.Close())

	out, err := execute(t, "history", "--output", "json", "--limit", "1")
	require.NoError(t, err)
	var decoded []history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, []string{"terraform", "validate"}, decoded[0].Argv)

	_, err = execute(t, "history", "clear")
	require.NoError(t, err)
	out, err = execute(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "No commands recorded.\n", out)
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "tfdeck "+Version+"\n", out)
}

func TestRootRejectsExtraArgs(t *testing.T) {
	_, err := execute(t, "a", "b")
	assert.Error(t, err)
}
