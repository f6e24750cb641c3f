package events

import "time"

// CommandStarted is published when a worker begins running argv.
type CommandStarted struct {
	ExecID     string
	Argv       []string
	RunInModal bool
	At         time.Time
}

// OutputLine is one cleaned display line produced by a running command.
type OutputLine struct {
	ExecID string
	Text   string
}

// CommandFinished is the terminal outcome of one invocation. Err is nil on
// success; Outcome is one of the runner outcome names.
type CommandFinished struct {
	ExecID     string
	Argv       []string
	RunInModal bool
	Outcome    string
	Err        error
	Output     []string
	Duration   time.Duration
}

// FileChanged carries the new content of a file that is open in the UI.
type FileChanged struct {
	Path    string
	Content string
}

// FileRemoved tells the UI to close the view of a deleted file.
type FileRemoved struct {
	Path string
}

// RefreshRequested asks for one coalesced full refresh. Events is how many
// file-system events were folded into it.
type RefreshRequested struct {
	Events int64
}
