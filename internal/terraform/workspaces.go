package terraform

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyWorkspaceName rejects blank workspace names.
var ErrEmptyWorkspaceName = errors.New("workspace name cannot be empty")

// Workspace is one terraform workspace.
type Workspace struct {
	// ID is stable for a given name, usable as a widget id.
	ID     string
	Name   string
	Active bool
}

// WorkspaceID derives the stable id for a workspace name.
func WorkspaceID(name string) string {
	return "id-" + uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}

// ParseWorkspaces reads terraform workspace list output. The active
// workspace is marked with a leading asterisk.
func ParseWorkspaces(lines []string) []Workspace {
	var out []Workspace
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		name := strings.TrimLeft(trimmed, "* ")
		if name == "" {
			continue
		}
		out = append(out, Workspace{
			ID:     WorkspaceID(name),
			Name:   name,
			Active: strings.HasPrefix(trimmed, "*"),
		})
	}
	return out
}

// Workspaces lists the workspaces. Concurrent callers share one terraform
// invocation.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	v, err, _ := c.group.Do("workspace-list", func() (any, error) {
		lines, err := c.Capture(ctx, CategoryWorkspace, c.Command("workspace", "list"))
		if err != nil {
			return nil, err
		}
		return ParseWorkspaces(lines), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Workspace), nil
}

// SelectWorkspace switches to an existing workspace.
func (c *Client) SelectWorkspace(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyWorkspaceName
	}
	_, err := c.Capture(ctx, CategoryWorkspace, c.Command("workspace", "select", name))
	return err
}

// NewWorkspace creates a workspace and switches to it.
func (c *Client) NewWorkspace(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyWorkspaceName
	}
	_, err := c.Capture(ctx, CategoryWorkspace, c.Command("workspace", "new", name))
	return err
}
