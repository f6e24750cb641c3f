package config

const exampleConfig = `# tfdeck configuration
# Loaded on startup. Every setting is optional.

# Color scheme: "dark" (default), "light" or "system"
# theme = "dark"

[terraform]
# Executable to run. Point this at tofu to drive OpenTofu instead.
# binary = "terraform"

# Run init/plan/apply on a pseudo-terminal.
# use_pty = false

# Extra environment for every terraform process. Variables already set in
# the environment tfdeck was started from take precedence.
# env = { TF_IN_AUTOMATION = "1" }

# Prefixes of the variables listed in the environment pane.
# env_prefixes = ["TF_VAR", "AWS", "ARM"]

# Output that marks an interactive prompt.
# prompt_markers = ["Enter a value:"]

[timeouts]
# Ceilings in seconds per command category.
# version_secs = 30
# fmt_secs = 300
# init_secs = 600
# validate_secs = 600
# plan_secs = 900
# apply_secs = 1200
# destroy_secs = 1200
# console_secs = 600
# workspace_secs = 30

[monitor]
# Changes are folded into one refresh every interval_secs.
# interval_secs = 5
# min_refresh_gap_ms = 0
# respect_gitignore = true
# exclude_dirs = [".git", ".terraform"]

[logs]
# Written to ~/.tfdeck/logs/tfdeck.log when debug is on (--debug or TFDECK_DEBUG=1).
# level = "info"
# format = "json"
# max_size_mb = 10
# max_backups = 3
# max_age_days = 7
# compress = false
# ring_lines = 2000
# aggregate_interval_secs = 30
# debug = false
`
