package process

import (
	"sort"
	"strings"
)

// MergeEnv builds the child environment for a request with overrides.
//
// The override map is the base and the inherited environment is layered on
// top of it, so a variable that already exists in the caller's environment
// keeps its inherited value and the override is dropped. Returns nil when
// there are no overrides, which makes exec inherit the environment unchanged.
func MergeEnv(overrides map[string]string, inherited []string) []string {
	if len(overrides) == 0 {
		return nil
	}

	merged := make(map[string]string, len(overrides)+len(inherited))
	for k, v := range overrides {
		merged[k] = v
	}
	for _, kv := range inherited {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		merged[k] = v
	}

	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
