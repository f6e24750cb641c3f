package terraform

import "sort"

// Var is one -var name=value pair. Pairs with an empty name or value are
// skipped.
type Var struct {
	Name  string
	Value string
}

func appendVars(argv []string, vars []Var, files []string) []string {
	for _, v := range vars {
		if v.Name == "" || v.Value == "" {
			continue
		}
		argv = append(argv, "-var", v.Name+"="+v.Value)
	}
	for _, f := range files {
		argv = append(argv, "-var-file", f)
	}
	return argv
}

// InitSettings are the options of terraform init.
type InitSettings struct {
	DisableBackend      bool
	BackendConfig       map[string]string
	BackendConfigPaths  []string
	ForceCopy           bool
	DisableDownload     bool
	DisableInput        bool
	DisableLock         bool
	PluginDirs          []string
	Reconfigure         bool
	MigrateState        bool
	Upgrade             bool
	IgnoreRemoteVersion bool
	TestDirectories     []string
}

// Argv builds the command line.
func (s InitSettings) Argv(binary string) []string {
	argv := []string{binary, "init"}
	if s.DisableBackend {
		argv = append(argv, "-backend=false")
	}
	keys := make([]string, 0, len(s.BackendConfig))
	for k := range s.BackendConfig {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		argv = append(argv, "-backend-config", k+"="+s.BackendConfig[k])
	}
	for _, p := range s.BackendConfigPaths {
		argv = append(argv, "-backend-config", p)
	}
	if s.ForceCopy {
		argv = append(argv, "-force-copy")
	}
	if s.DisableDownload {
		argv = append(argv, "-get=false")
	}
	if s.DisableInput {
		argv = append(argv, "-input=false")
	}
	if s.DisableLock {
		argv = append(argv, "-lock=false")
	}
	for _, d := range s.PluginDirs {
		argv = append(argv, "-plugin-dir", d)
	}
	if s.Reconfigure {
		argv = append(argv, "-reconfigure")
	}
	if s.MigrateState {
		argv = append(argv, "-migrate-state")
	}
	if s.Upgrade {
		argv = append(argv, "-upgrade")
	}
	if s.IgnoreRemoteVersion {
		argv = append(argv, "-ignore-remote-version")
	}
	for _, d := range s.TestDirectories {
		argv = append(argv, "-test-directory", d)
	}
	return argv
}

// PlanSettings are the options of terraform plan.
type PlanSettings struct {
	RefreshOnly bool
	Destroy     bool
	NoRefresh   bool
	Vars        []Var
	VarFiles    []string
	Out         string
}

// Argv builds the command line.
func (s PlanSettings) Argv(binary string) []string {
	argv := []string{binary, "plan"}
	if s.RefreshOnly {
		argv = append(argv, "-refresh-only")
	}
	if s.Destroy {
		argv = append(argv, "-destroy")
	}
	if s.NoRefresh {
		argv = append(argv, "-refresh=false")
	}
	argv = appendVars(argv, s.Vars, s.VarFiles)
	if s.Out != "" {
		argv = append(argv, "-out", s.Out)
	}
	return argv
}

// ApplySettings are the options of terraform apply.
type ApplySettings struct {
	AutoApprove   bool
	Backup        string
	DisableBackup bool
	Destroy       bool
	DisableLock   bool
	Input         bool
	State         string
	StateOut      string
	Vars          []Var
	VarFiles      []string
	// PlanFile, when set, is applied instead of a fresh plan.
	PlanFile string
}

// Argv builds the command line.
func (s ApplySettings) Argv(binary string) []string {
	argv := []string{binary, "apply"}
	if s.AutoApprove {
		argv = append(argv, "-auto-approve")
	}
	if s.Backup != "" {
		argv = append(argv, "-backup", s.Backup)
	}
	if s.DisableBackup {
		argv = append(argv, "-backup=-")
	}
	if s.Destroy {
		argv = append(argv, "-destroy")
	}
	if s.DisableLock {
		argv = append(argv, "-lock=false")
	}
	if s.Input {
		argv = append(argv, "-input")
	}
	if s.State != "" {
		argv = append(argv, "-state", s.State)
	}
	if s.StateOut != "" {
		argv = append(argv, "-state-out", s.StateOut)
	}
	argv = appendVars(argv, s.Vars, s.VarFiles)
	if s.PlanFile != "" {
		argv = append(argv, s.PlanFile)
	}
	return argv
}

// ValidateSettings are the options of terraform validate.
type ValidateSettings struct {
	NoTests         bool
	TestDirectories []string
}

// Argv builds the command line.
func (s ValidateSettings) Argv(binary string) []string {
	argv := []string{binary, "validate"}
	if s.NoTests {
		argv = append(argv, "-no-tests")
	}
	for _, d := range s.TestDirectories {
		argv = append(argv, "-test-directory", d)
	}
	return argv
}

// FormatSettings are the options of terraform fmt.
type FormatSettings struct {
	Diff      bool
	Recursive bool
	Path      string
}

// Argv builds the command line.
func (s FormatSettings) Argv(binary string) []string {
	argv := []string{binary, "fmt"}
	if s.Diff {
		argv = append(argv, "-diff")
	}
	if s.Recursive {
		argv = append(argv, "-recursive")
	}
	if s.Path != "" {
		argv = append(argv, s.Path)
	}
	return argv
}
