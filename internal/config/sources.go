package config

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"docprompt/internal/contextutil"
	"docprompt/internal/sources"
	"docprompt/internal/storage"
)

// SourceEntry is one source declared in the registry file.
type SourceEntry struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

// SourcesFile is the YAML registry of sources seeded at startup.
type SourcesFile struct {
	Sources []SourceEntry `yaml:"sources"`
}

// ReadSources parses and validates a registry file.
func ReadSources(path string) (*SourcesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file SourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	seen := make(map[string]bool, len(file.Sources))
	for i, s := range file.Sources {
		if s.Name == "" {
			return nil, fmt.Errorf("sources[%d]: name is required", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("sources[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
		if !sources.ValidType(s.Type) {
			return nil, fmt.Errorf("sources[%d]: unknown type %q", i, s.Type)
		}
		if _, err := sources.NewFilter(s.Config); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
	}
	return &file, nil
}

// LoadSources upserts every source of the registry file into the store by name.
func LoadSources(ctx context.Context, path, projectID string, store storage.SourceStore) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	file, err := ReadSources(path)
	if err != nil {
		return 0, err
	}

	for _, s := range file.Sources {
		cfg := s.Config
		if cfg == nil {
			cfg = map[string]any{}
		}
		rec := &storage.SourceRecord{
			ProjectID: projectID,
			Type:      s.Type,
			Name:      s.Name,
			Config:    cfg,
		}
		if err := store.UpsertByName(ctx, rec); err != nil {
			return 0, fmt.Errorf("failed to register source %q: %w", s.Name, err)
		}
		logger.DebugContext(ctx, "registered source", "name", s.Name, "type", s.Type, "id", rec.ID)
	}

	logger.InfoContext(ctx, "loaded sources file", "path", path, "count", len(file.Sources))
	return len(file.Sources), nil
}
