package ui

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// treeRow is one line of the project tree.
type treeRow struct {
	Path  string // relative, slash separated
	Name  string
	Depth int
	Dir   bool
}

// listProjectFiles returns every file under root, relative and sorted,
// skipping directories named in exclude.
func listProjectFiles(ctx context.Context, root string, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if p != root && slices.Contains(exclude, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// buildTree turns sorted relative file paths into rows, emitting each
// directory once before its first entry.
func buildTree(files []string) []treeRow {
	sorted := slices.Clone(files)
	slices.SortFunc(sorted, compareTreePaths)

	seen := make(map[string]bool)
	rows := make([]treeRow, 0, len(sorted))
	for _, f := range sorted {
		parts := strings.Split(f, "/")
		for i := 1; i < len(parts); i++ {
			dir := strings.Join(parts[:i], "/")
			if seen[dir] {
				continue
			}
			seen[dir] = true
			rows = append(rows, treeRow{Path: dir, Name: parts[i-1], Depth: i - 1, Dir: true})
		}
		rows = append(rows, treeRow{Path: f, Name: path.Base(f), Depth: len(parts) - 1})
	}
	return rows
}

// compareTreePaths orders files in a directory before its subdirectories.
func compareTreePaths(a, b string) int {
	da, db := path.Dir(a), path.Dir(b)
	if da == db {
		return strings.Compare(a, b)
	}
	if strings.HasPrefix(db, da+"/") || da == "." {
		return -1
	}
	if strings.HasPrefix(da, db+"/") || db == "." {
		return 1
	}
	return strings.Compare(a, b)
}
