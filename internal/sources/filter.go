package sources

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides which item paths of a source are indexed.
// A path passes when it matches any include pattern, or there are none,
// and matches no exclude pattern. Patterns support "**".
type Filter struct {
	include []string
	exclude []string
}

// NewFilter builds the Filter of a source from the "include" and "exclude" lists in its config.
func NewFilter(cfg map[string]any) (*Filter, error) {
	include, err := configStrings(cfg, "include")
	if err != nil {
		return nil, err
	}
	exclude, err := configStrings(cfg, "exclude")
	if err != nil {
		return nil, err
	}

	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}

	return &Filter{include: include, exclude: exclude}, nil
}

// Match reports whether p passes the filter. A nil Filter passes everything.
// Website items are absolute URLs; patterns match either the whole URL or its path,
// so "docs/**" selects https://example.com/docs/start.
func (f *Filter) Match(p string) bool {
	if f == nil {
		return true
	}
	candidates := matchCandidates(p)

	if len(f.include) > 0 && !matchAny(f.include, candidates) {
		return false
	}
	return !matchAny(f.exclude, candidates)
}

func matchCandidates(p string) []string {
	if u, err := url.Parse(p); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return []string{p, strings.TrimPrefix(u.Path, "/")}
	}
	return []string{strings.TrimPrefix(p, "/")}
}

func matchAny(patterns []string, candidates []string) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(pattern, "/")
		for _, c := range candidates {
			if ok, _ := doublestar.Match(pattern, c); ok {
				return true
			}
		}
	}
	return false
}
