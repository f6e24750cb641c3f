package monitor

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultExcludeDirs are never watched.
var DefaultExcludeDirs = []string{".git", ".terraform"}

// filter decides which paths under root the monitor ignores.
type filter struct {
	dirs  map[string]struct{}
	rules *ignore.GitIgnore
}

func newFilter(root string, excludeDirs []string, useGitignore bool) *filter {
	f := &filter{dirs: make(map[string]struct{}, len(excludeDirs))}
	for _, d := range excludeDirs {
		d = strings.Trim(filepath.ToSlash(d), "/")
		if d != "" {
			f.dirs[d] = struct{}{}
		}
	}
	if useGitignore {
		if lines, err := readIgnoreFile(filepath.Join(root, ".gitignore")); err == nil && len(lines) > 0 {
			f.rules = ignore.CompileIgnoreLines(lines...)
		}
	}
	return f
}

// skip reports whether rel (slash separated, relative to root) is excluded.
func (f *filter) skip(rel string) bool {
	if rel == "." || rel == "" {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if _, ok := f.dirs[part]; ok {
			return true
		}
	}
	return f.rules != nil && f.rules.MatchesPath(rel)
}

func readIgnoreFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
