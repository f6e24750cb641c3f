// Package git reads the repository state of a terraform project directory
// for the dashboard header.
package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotRepo is returned when dir is not inside a git work tree.
var ErrNotRepo = errors.New("not a git repository")

// Status is the part of the repository state tfdeck shows.
type Status struct {
	Root   string // top-level directory of the work tree
	Branch string // branch name, or "@<short sha>" when detached
	Dirty  bool   // uncommitted changes below Root
}

// Label renders the status as "branch" or "branch*" when dirty.
func (s Status) Label() string {
	if s.Dirty {
		return s.Branch + "*"
	}
	return s.Branch
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(output)), nil
}

// IsRepo checks if dir is inside a git work tree.
func IsRepo(ctx context.Context, dir string) bool {
	out, err := run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// RepoRoot returns the top-level directory of the repository containing dir.
func RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotRepo, err)
	}
	return filepath.Clean(out), nil
}

// CurrentBranch returns the checked-out branch. A detached HEAD is reported
// as "@" followed by the abbreviated commit.
func CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		// A fresh repository has no commits yet; HEAD still names a branch.
		if ref, serr := run(ctx, dir, "symbolic-ref", "--short", "HEAD"); serr == nil {
			return ref, nil
		}
		return "", err
	}
	if out != "HEAD" {
		return out, nil
	}
	sha, err := run(ctx, dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return "@" + sha, nil
}

// HasUncommittedChanges checks for staged, unstaged or untracked changes.
func HasUncommittedChanges(ctx context.Context, dir string) (bool, error) {
	out, err := run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// ReadStatus collects the Status for dir. It returns ErrNotRepo outside a
// work tree.
func ReadStatus(ctx context.Context, dir string) (Status, error) {
	root, err := RepoRoot(ctx, dir)
	if err != nil {
		return Status{}, err
	}
	branch, err := CurrentBranch(ctx, dir)
	if err != nil {
		return Status{}, err
	}
	dirty, err := HasUncommittedChanges(ctx, dir)
	if err != nil {
		return Status{}, err
	}
	return Status{Root: root, Branch: branch, Dirty: dirty}, nil
}
