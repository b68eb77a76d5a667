package scanner

import (
	"fmt"
	"path"
	"strings"
)

// ReservedPrefix hides the interpreter's own family of distributions.
const ReservedPrefix = "python"

var coreTooling = []string{"pip", "setuptools", "pywin32", "py", "wheel"}

// Exclusions is the set of packages that are never offered for removal.
// Built-in names cannot be removed from it; callers may only add patterns.
type Exclusions struct {
	names    map[string]struct{}
	patterns []string
}

// DefaultExclusions returns the built-in core tooling set.
func DefaultExclusions() Exclusions {
	names := make(map[string]struct{}, len(coreTooling))
	for _, n := range coreTooling {
		names[n] = struct{}{}
	}
	return Exclusions{names: names}
}

// With returns a copy extended with extra glob patterns (matched against the
// lower-cased package name). A malformed pattern is rejected.
func (e Exclusions) With(patterns ...string) (Exclusions, error) {
	out := Exclusions{names: e.names, patterns: append([]string(nil), e.patterns...)}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, err := path.Match(p, ""); err != nil {
			return Exclusions{}, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		out.patterns = append(out.patterns, p)
	}
	return out, nil
}

// Excludes reports whether name must be hidden from scan output.
func (e Exclusions) Excludes(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, ReservedPrefix) {
		return true
	}
	if _, ok := e.names[lower]; ok {
		return true
	}
	for _, p := range e.patterns {
		if p == lower {
			return true
		}
		if ok, _ := path.Match(p, lower); ok {
			return true
		}
	}
	return false
}
