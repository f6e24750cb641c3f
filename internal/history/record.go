package history

import (
	"slices"
	"strings"
	"time"
)

// CommandsKey is where command history lives.
const CommandsKey = "commands"

// Record is one executed command as shown in the history sidebar.
type Record struct {
	Argv         []string  `json:"argv" yaml:"argv"`
	ExecutedAt   time.Time `json:"executed_at" yaml:"executed_at"`
	RunInModal   bool      `json:"run_in_modal" yaml:"run_in_modal"`
	ErrorMessage string    `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	Outcome      string    `json:"outcome" yaml:"outcome"`
}

// Command is the argv joined for display.
func (r Record) Command() string { return strings.Join(r.Argv, " ") }

// SameCommand reports whether two records describe the same invocation,
// ignoring when it ran and how it ended.
func SameCommand(a, b Record) bool {
	return a.RunInModal == b.RunInModal && slices.Equal(a.Argv, b.Argv)
}

// Commands is the command history view of a store.
type Commands struct {
	cache *Cache[Record]
}

// Records returns the command history backed by store.
func Records(store Store) *Commands {
	return &Commands{cache: New(store, WithEqual(SameCommand))}
}

// List returns the records oldest first.
func (c *Commands) List() []Record {
	return c.cache.Get(CommandsKey, []Record{})
}

// Add appends r, moving an earlier identical command to the end.
func (c *Commands) Add(r Record) {
	c.cache.Extend(CommandsKey, r)
}

// Clear drops all records.
func (c *Commands) Clear() {
	c.cache.Set(CommandsKey, nil)
}
