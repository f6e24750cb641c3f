package terraform

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// StateFiles returns the paths of every *.tfstate file under dir, relative
// to dir, in walk order. Unreadable subdirectories are skipped.
func StateFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".tfstate" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	return out, err
}

// DefaultEnvPrefixes select the variables terraform and the common cloud
// providers read.
var DefaultEnvPrefixes = []string{"TF_VAR", "AWS", "ARM"}

// EnvFilter selects environment variables by name. Every non-empty
// criterion must match.
type EnvFilter struct {
	Prefixes []string
	Suffix   string
	Contains string
}

// Match reports whether name passes the filter.
func (f EnvFilter) Match(name string) bool {
	if len(f.Prefixes) > 0 {
		ok := false
		for _, p := range f.Prefixes {
			if strings.HasPrefix(name, p) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Suffix != "" && !strings.HasSuffix(name, f.Suffix) {
		return false
	}
	if f.Contains != "" && !strings.Contains(name, f.Contains) {
		return false
	}
	return true
}

// EnvVar is one environment variable.
type EnvVar struct {
	Name  string
	Value string
}

// EnvVars lists the process environment filtered by f, sorted by name.
func EnvVars(f EnvFilter) []EnvVar {
	return filterEnv(os.Environ(), f)
}

func filterEnv(environ []string, f EnvFilter) []EnvVar {
	var out []EnvVar
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" || !f.Match(name) {
			continue
		}
		out = append(out, EnvVar{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
