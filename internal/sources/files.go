package sources

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"docprompt/internal/storage"
)

// FilesResolver exposes the text files below a local directory. Source config: "root".
type FilesResolver struct{}

// NewFilesResolver creates a FilesResolver.
func NewFilesResolver() *FilesResolver {
	return &FilesResolver{}
}

// Items walks the root directory, skipping hidden directories and files.
func (r *FilesResolver) Items(ctx context.Context, src storage.SourceRecord) (*ItemSet, error) {
	root := configString(src.Config, "root")
	if root == "" {
		return nil, fmt.Errorf("files source %s has no root", src.Name)
	}

	paths, err := listTextFiles(root)
	if err != nil {
		return nil, err
	}

	return &ItemSet{
		Count:  len(paths),
		PathOf: func(i int) string { return paths[i] },
		Resolve: func(ctx context.Context, i int) (*Content, error) {
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(paths[i])))
			if err != nil {
				if os.IsNotExist(err) {
					return nil, nil
				}
				return nil, fmt.Errorf("failed to read %s: %w", paths[i], err)
			}

			return &Content{
				Name:     path.Base(paths[i]),
				Content:  toText(paths[i], data),
				Metadata: map[string]any{"root": root},
			}, nil
		},
	}, nil
}

// listTextFiles returns the slash-separated paths of text files below root.
func listTextFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !IsTextFile(name) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return paths, nil
}
