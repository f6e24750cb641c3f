package ui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheshgoplani/tfdeck/internal/process"
)

func TestBuildTree(t *testing.T) {
	rows := buildTree([]string{
		"modules/vpc/variables.tf",
		"main.tf",
		"modules/vpc/main.tf",
		"modules/README.md",
		"variables.tf",
	})

	var got []string
	for _, r := range rows {
		s := strings.Repeat(".", r.Depth) + r.Name
		if r.Dir {
			s += "/"
		}
		got = append(got, s)
	}
	assert.Equal(t, []string{
		"main.tf",
		"variables.tf",
		"modules/",
		".README.md",
		".vpc/",
		"..main.tf",
		"..variables.tf",
	}, got)
	assert.Equal(t, "modules/vpc", rows[4].Path)
}

func TestListProjectFilesSkipsExcluded(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"main.tf", ".git/HEAD", ".terraform/modules/m.json", "env/prod.tfvars"} {
		full := filepath.Join(dir, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, nil, 0o644))
	}

	files, err := listProjectFiles(context.Background(), dir, []string{".git", ".terraform"})
	require.NoError(t, err)
	assert.Equal(t, []string{"env/prod.tfvars", "main.tf"}, files)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = listProjectFiles(ctx, dir, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChangeSummary(t *testing.T) {
	assert.Equal(t, "+0 -0", changeSummary("a\nb\n", "a\nb\n"))
	assert.Equal(t, "+2 -1", changeSummary("a\nb\n", "a\nc\nd\n"))
	assert.Equal(t, "+1 -0", changeSummary("", "new"))
	assert.Equal(t, "+0 -2", changeSummary("x\ny\n", ""))
}

func TestEnsureExactSize(t *testing.T) {
	assert.Equal(t, "a\n\n", ensureExactHeight("a", 3))
	assert.Equal(t, "a\nb", ensureExactHeight("a\nb\nc", 2))
	assert.Empty(t, ensureExactHeight("a", 0))

	out := ensureExactWidth("ab\n"+SuccessStyle.Render("abcdefgh"), 5)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "ab   ", lines[0])
	assert.Equal(t, "abcd…", process.StripANSI(lines[1]))
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "main.tf", truncatePath("main.tf", 20))
	long := "/home/user/projects/infrastructure/modules/network/vpc"
	got := truncatePath(long, 20)
	assert.Contains(t, got, "...")
	assert.LessOrEqual(t, len(got), 20)
}

func TestFormatRelativeTime(t *testing.T) {
	assert.Equal(t, "unknown", formatRelativeTime(time.Time{}))
	assert.Equal(t, "just now", formatRelativeTime(time.Now()))
	assert.Equal(t, "5m ago", formatRelativeTime(time.Now().Add(-5*time.Minute)))
	assert.Equal(t, "2h ago", formatRelativeTime(time.Now().Add(-2*time.Hour)))
	assert.Equal(t, "3d ago", formatRelativeTime(time.Now().Add(-72*time.Hour)))
}

func TestOverlayLifecycle(t *testing.T) {
	o := NewOutputOverlay()
	o.SetSize(100, 30)
	o.Open("x1", "terraform apply", time.Now())
	assert.True(t, o.Owns("x1"))
	assert.False(t, o.Owns("x2"))
	assert.True(t, o.Running())

	for i := 0; i < maxOverlayLines+10; i++ {
		o.Append("line")
	}
	assert.Len(t, o.lines, maxOverlayLines)

	o.Finish("failed", assertErr("Error: boom"), time.Second)
	assert.False(t, o.Running())
	assert.Contains(t, process.StripANSI(o.View()), "Error: boom")

	o.Close()
	assert.False(t, o.IsVisible())
	assert.False(t, o.Owns("x1"))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
