package pack

import (
	"path"
	"path/filepath"
	"strings"
)

// Excludes matches paths that must not be copied into a build
type Excludes struct {
	patterns []string
}

// NewExcludes builds a matcher from glob patterns. Blank patterns are ignored.
func NewExcludes(patterns []string) Excludes {
	var ps []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ps = append(ps, filepath.ToSlash(p))
	}
	return Excludes{patterns: ps}
}

// Patterns returns the normalized patterns
func (e Excludes) Patterns() []string {
	return e.patterns
}

// Match reports whether rel (relative to the tree root) is excluded, the way
// rsync treats --exclude patterns. A pattern without a slash matches the name
// of any path component. A pattern with a slash matches any run of whole
// components, so docs/*.md also excludes x/docs/a.md and everything below a
// matched directory. A leading slash anchors the pattern at the root.
func (e Excludes) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if rel == "" || rel == "." {
		return false
	}

	parts := strings.Split(rel, "/")
	for _, pattern := range e.patterns {
		anchored := strings.HasPrefix(pattern, "/")
		pattern = strings.Trim(pattern, "/")
		if pattern == "" {
			continue
		}
		if matchRun(pattern, parts, anchored) {
			return true
		}
	}
	return false
}

func matchRun(pattern string, parts []string, anchored bool) bool {
	width := strings.Count(pattern, "/") + 1
	for start := 0; start+width <= len(parts); start++ {
		if anchored && start > 0 {
			break
		}
		if ok, _ := path.Match(pattern, strings.Join(parts[start:start+width], "/")); ok {
			return true
		}
	}
	return false
}
