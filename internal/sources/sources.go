// Package sources turns registered content sources into lazily resolved item sets.
package sources

import (
	"context"
	"fmt"
	"path"
	"strings"

	"docprompt/internal/crawler"
	"docprompt/internal/storage"
)

// Source types.
const (
	TypeGitHub    = "github"
	TypeWebsite   = "website"
	TypeFiles     = "files"
	TypeBucket    = "bucket"
	TypeConnector = "connector"
)

// ValidType reports whether t is a known source type.
func ValidType(t string) bool {
	switch t {
	case TypeGitHub, TypeWebsite, TypeFiles, TypeBucket, TypeConnector:
		return true
	}
	return false
}

// Content is a resolved item.
type Content struct {
	Name     string
	Content  string
	Metadata map[string]any
}

// ItemSet is the item index space of a source. Paths are cheap; content is resolved on demand.
// Resolve returns nil content for items that should be skipped.
type ItemSet struct {
	Count   int
	PathOf  func(i int) string
	Resolve func(ctx context.Context, i int) (*Content, error)
}

// Resolver lists the items of one source type.
type Resolver interface {
	Items(ctx context.Context, src storage.SourceRecord) (*ItemSet, error)
}

// Registry dispatches to the resolver registered for a source type.
type Registry struct {
	resolvers map[string]Resolver
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[string]Resolver)}
}

// Register sets the resolver of a source type.
func (r *Registry) Register(sourceType string, resolver Resolver) {
	r.resolvers[sourceType] = resolver
}

// Items lists the items of src with the resolver of its type.
func (r *Registry) Items(ctx context.Context, src storage.SourceRecord) (*ItemSet, error) {
	resolver, ok := r.resolvers[src.Type]
	if !ok {
		return nil, fmt.Errorf("no resolver for source type %q", src.Type)
	}
	return resolver.Items(ctx, src)
}

var textExtensions = map[string]bool{
	".md":      true,
	".mdx":     true,
	".markdoc": true,
	".txt":     true,
	".rst":     true,
	".html":    true,
	".htm":     true,
}

// IsTextFile reports whether a path has an extension worth indexing.
func IsTextFile(p string) bool {
	return textExtensions[strings.ToLower(path.Ext(p))]
}

// toText converts file bytes to indexable text, flattening HTML.
func toText(p string, data []byte) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".html", ".htm":
		return crawler.HTMLToText(data)
	}
	return string(data)
}

func configString(cfg map[string]any, key string) string {
	v, _ := cfg[key].(string)
	return strings.TrimSpace(v)
}

func configStrings(cfg map[string]any, key string) ([]string, error) {
	raw, ok := cfg[key]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be a list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []string{v}, nil
	}
	return nil, fmt.Errorf("%s must be a list of strings", key)
}
