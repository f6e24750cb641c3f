// Package config loads the user's tfdeck settings from ~/.tfdeck/config.toml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	dark "github.com/thiagokokada/dark-mode-go"

	"github.com/asheshgoplani/tfdeck/internal/logging"
	"github.com/asheshgoplani/tfdeck/internal/terraform"
)

var cfgLog = logging.ForComponent(logging.CompConfig)

const (
	// FileName is the TOML config file inside the tfdeck directory.
	FileName = "config.toml"
	// StateFileName is the SQLite database inside the tfdeck directory.
	StateFileName = "state.db"
	// HomeEnv overrides the tfdeck directory.
	HomeEnv = "TFDECK_HOME"
	// DebugEnv enables debug logging when set to anything but "" or "0".
	DebugEnv = "TFDECK_DEBUG"
)

// Config is the user-facing configuration.
type Config struct {
	// Theme sets the color scheme: "dark" (default), "light", or "system"
	Theme string `toml:"theme"`

	Terraform TerraformSettings `toml:"terraform"`
	Timeouts  TimeoutSettings   `toml:"timeouts"`
	Monitor   MonitorSettings   `toml:"monitor"`
	Logs      LogSettings       `toml:"logs"`
}

// TerraformSettings control how terraform is invoked.
type TerraformSettings struct {
	// Binary is the terraform executable. Default: "terraform"
	Binary string `toml:"binary"`

	// UsePTY runs long commands on a pseudo-terminal. Default: false
	UsePTY bool `toml:"use_pty"`

	// Env is merged into the environment of every terraform process.
	// Variables already set in tfdeck's own environment win.
	Env map[string]string `toml:"env"`

	// EnvPrefixes select the variables shown in the environment pane.
	// Default: ["TF_VAR", "AWS", "ARM"]
	EnvPrefixes []string `toml:"env_prefixes"`

	// PromptMarkers end a partial output line early so prompts show up.
	// Default: ["Enter a value:"]
	PromptMarkers []string `toml:"prompt_markers"`
}

// TimeoutSettings are per-category ceilings in seconds. Zero keeps the
// default.
type TimeoutSettings struct {
	VersionSecs   int `toml:"version_secs"`
	FmtSecs       int `toml:"fmt_secs"`
	InitSecs      int `toml:"init_secs"`
	ValidateSecs  int `toml:"validate_secs"`
	PlanSecs      int `toml:"plan_secs"`
	ApplySecs     int `toml:"apply_secs"`
	DestroySecs   int `toml:"destroy_secs"`
	ConsoleSecs   int `toml:"console_secs"`
	WorkspaceSecs int `toml:"workspace_secs"`
}

// MonitorSettings tune the file-system monitor.
type MonitorSettings struct {
	// IntervalSecs is how often changes are folded into a refresh. Default: 5
	IntervalSecs int `toml:"interval_secs"`

	// MinRefreshGapMS adds a minimum gap between refreshes. Default: 0
	MinRefreshGapMS int `toml:"min_refresh_gap_ms"`

	// RespectGitignore skips paths matched by the project .gitignore.
	// Default: true
	RespectGitignore *bool `toml:"respect_gitignore"`

	// ExcludeDirs are directory names never watched.
	// Default: [".git", ".terraform"]
	ExcludeDirs []string `toml:"exclude_dirs"`
}

// LogSettings control tfdeck's own log file.
type LogSettings struct {
	// Level: "debug", "info" (default), "warn", "error"
	Level string `toml:"level"`

	// Format: "json" (default) or "text"
	Format string `toml:"format"`

	// MaxSizeMB before rotation. Default: 10
	MaxSizeMB int `toml:"max_size_mb"`

	// MaxBackups is the number of rotated files to keep. Default: 3
	MaxBackups int `toml:"max_backups"`

	// MaxAgeDays is how long rotated files are kept. Default: 7
	MaxAgeDays int `toml:"max_age_days"`

	// Compress gzips rotated files. Default: false
	Compress bool `toml:"compress"`

	// RingLines is how many recent records a crash dump holds. Default: 2000
	RingLines int `toml:"ring_lines"`

	// AggregateIntervalSecs is the event summary flush interval. Default: 30
	AggregateIntervalSecs int `toml:"aggregate_interval_secs"`

	// Debug writes logs even without --debug.
	Debug bool `toml:"debug"`
}

var defaultConfig = Config{}

// Cache for the loaded config
var (
	cache   *Config
	cacheMu sync.RWMutex
)

// Dir returns the tfdeck directory, honoring TFDECK_HOME.
func Dir() (string, error) {
	if d := os.Getenv(HomeEnv); d != "" {
		return d, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tfdeck"), nil
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// StatePath returns the history database location.
func StatePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, StateFileName), nil
}

// LogDir returns where tfdeck.log is written.
func LogDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// Load reads the config file, returning a cached copy after the first call.
// A missing file yields the defaults. A parse error is returned alongside
// the defaults so the caller can show it and keep going.
func Load() (*Config, error) {
	cacheMu.RLock()
	if cache != nil {
		defer cacheMu.RUnlock()
		return cache, nil
	}
	cacheMu.RUnlock()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cache != nil {
		return cache, nil
	}

	path, err := Path()
	if err != nil {
		cache = &defaultConfig
		return cache, nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cache = &defaultConfig
		return cache, nil
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		// Cache the defaults so a broken file is not parsed again
		cache = &defaultConfig
		return cache, fmt.Errorf("config.toml parse error: %w", err)
	}

	cache = &cfg
	cfgLog.Debug("config_loaded", slog.String("path", path))
	return cache, nil
}

// Reload drops the cache and reads the file again.
func Reload() (*Config, error) {
	ClearCache()
	return Load()
}

// ClearCache forgets the loaded config. The next Load reads from disk.
func ClearCache() {
	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
}

// Save writes cfg to config.toml atomically and clears the cache.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# tfdeck configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return err
	}
	ClearCache()
	return nil
}

// writeAtomic writes to a temp file, syncs it and renames it over path.
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if f, err := os.Open(tmpPath); err == nil {
		_ = f.Sync()
		f.Close()
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize config save: %w", err)
	}
	return nil
}

// WriteExample creates a commented example config unless one exists.
// It reports whether a file was written.
func WriteExample() (bool, error) {
	path, err := Path()
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := writeAtomic(path, []byte(exampleConfig)); err != nil {
		return false, err
	}
	return true, nil
}

// DebugEnabled reports whether debug logging was requested through the
// environment or the config file.
func (c *Config) DebugEnabled() bool {
	if v := os.Getenv(DebugEnv); v != "" && v != "0" {
		return true
	}
	return c.Logs.Debug
}

// ThemeName returns the configured theme, defaulting to "dark".
func (c *Config) ThemeName() string {
	switch c.Theme {
	case "dark", "light", "system":
		return c.Theme
	default:
		return "dark"
	}
}

// ResolveTheme resolves the configured theme to "dark" or "light".
// "system" asks the OS and falls back to "dark" when detection fails.
func (c *Config) ResolveTheme() string {
	theme := c.ThemeName()
	if theme != "system" {
		return theme
	}
	isDark, err := dark.IsDarkMode()
	if err != nil {
		cfgLog.Debug("theme_detect_failed", slog.String("error", err.Error()))
		return "dark"
	}
	if isDark {
		return "dark"
	}
	return "light"
}

// TerraformBinary returns the configured binary or the default.
func (c *Config) TerraformBinary() string {
	if c.Terraform.Binary == "" {
		return terraform.DefaultBinary
	}
	return c.Terraform.Binary
}

// EnvPrefixes returns the environment pane prefixes.
func (c *Config) EnvPrefixes() []string {
	if len(c.Terraform.EnvPrefixes) == 0 {
		return terraform.DefaultEnvPrefixes
	}
	return c.Terraform.EnvPrefixes
}

// TerraformTimeouts converts the configured seconds, keeping defaults for
// unset categories.
func (c *Config) TerraformTimeouts() terraform.Timeouts {
	t := terraform.DefaultTimeouts()
	set := func(dst *time.Duration, secs int) {
		if secs > 0 {
			*dst = time.Duration(secs) * time.Second
		}
	}
	set(&t.Version, c.Timeouts.VersionSecs)
	set(&t.Fmt, c.Timeouts.FmtSecs)
	set(&t.Init, c.Timeouts.InitSecs)
	set(&t.Validate, c.Timeouts.ValidateSecs)
	set(&t.Plan, c.Timeouts.PlanSecs)
	set(&t.Apply, c.Timeouts.ApplySecs)
	set(&t.Destroy, c.Timeouts.DestroySecs)
	set(&t.Console, c.Timeouts.ConsoleSecs)
	set(&t.Workspace, c.Timeouts.WorkspaceSecs)
	return t
}

// NewClient builds a terraform client for dir from the settings.
func (c *Config) NewClient(dir string) *terraform.Client {
	client := terraform.New(c.TerraformBinary(), dir)
	client.Env = c.Terraform.Env
	client.PTY = c.Terraform.UsePTY
	client.Timeouts = c.TerraformTimeouts()
	return client
}

// Interval is the monitor debounce interval.
func (m MonitorSettings) Interval() time.Duration {
	if m.IntervalSecs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(m.IntervalSecs) * time.Second
}

// MinRefreshGap is the extra gap between refreshes.
func (m MonitorSettings) MinRefreshGap() time.Duration {
	if m.MinRefreshGapMS <= 0 {
		return 0
	}
	return time.Duration(m.MinRefreshGapMS) * time.Millisecond
}

// GitignoreEnabled defaults to true.
func (m MonitorSettings) GitignoreEnabled() bool {
	return m.RespectGitignore == nil || *m.RespectGitignore
}

// Excludes returns the excluded directory names.
func (m MonitorSettings) Excludes() []string {
	if m.ExcludeDirs == nil {
		return []string{".git", ".terraform"}
	}
	return m.ExcludeDirs
}

// LoggingConfig maps the log settings onto logging.Config.
func (c *Config) LoggingConfig(dir string, debug bool) logging.Config {
	l := c.Logs
	return logging.Config{
		Dir:             dir,
		Level:           l.Level,
		Format:          l.Format,
		MaxSizeMB:       l.MaxSizeMB,
		MaxBackups:      l.MaxBackups,
		MaxAgeDays:      l.MaxAgeDays,
		Compress:        l.Compress,
		RingLines:       l.RingLines,
		SummaryInterval: time.Duration(l.AggregateIntervalSecs) * time.Second,
		Debug:           debug || c.DebugEnabled(),
	}
}
