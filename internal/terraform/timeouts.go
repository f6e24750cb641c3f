package terraform

import "time"

// Category groups commands that share a time ceiling.
type Category string

const (
	CategoryVersion  Category = "version"
	CategoryFmt      Category = "fmt"
	CategoryInit     Category = "init"
	CategoryValidate Category = "validate"
	CategoryPlan     Category = "plan"
	CategoryApply    Category = "apply"
	CategoryDestroy  Category = "destroy"
	CategoryConsole  Category = "console"
	// CategoryWorkspace covers workspace list/select/new.
	CategoryWorkspace Category = "workspace"
)

// Timeouts are the per-category ceilings.
type Timeouts struct {
	Version   time.Duration
	Fmt       time.Duration
	Init      time.Duration
	Validate  time.Duration
	Plan      time.Duration
	Apply     time.Duration
	Destroy   time.Duration
	Console   time.Duration
	Workspace time.Duration
}

// DefaultTimeouts returns the stock ceilings.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Version:   30 * time.Second,
		Fmt:       5 * time.Minute,
		Init:      10 * time.Minute,
		Validate:  10 * time.Minute,
		Plan:      15 * time.Minute,
		Apply:     20 * time.Minute,
		Destroy:   20 * time.Minute,
		Console:   10 * time.Minute,
		Workspace: 30 * time.Second,
	}
}

// For returns the ceiling for cat. Unknown categories and unset fields fall
// back to the defaults.
func (t Timeouts) For(cat Category) time.Duration {
	d := t.lookup(cat)
	if d <= 0 {
		d = DefaultTimeouts().lookup(cat)
	}
	return d
}

func (t Timeouts) lookup(cat Category) time.Duration {
	switch cat {
	case CategoryVersion:
		return t.Version
	case CategoryFmt:
		return t.Fmt
	case CategoryInit:
		return t.Init
	case CategoryValidate:
		return t.Validate
	case CategoryPlan:
		return t.Plan
	case CategoryApply:
		return t.Apply
	case CategoryDestroy:
		return t.Destroy
	case CategoryConsole:
		return t.Console
	case CategoryWorkspace:
		return t.Workspace
	}
	return 0
}
