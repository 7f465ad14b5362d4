package sources

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"docprompt/internal/contextutil"
)

// Watcher watches the roots of files sources and reports changed sources after
// a quiet period, so a burst of writes triggers one retrain.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(ctx context.Context, sourceID string)

	mu     sync.Mutex
	roots  map[string]string // root -> source ID
	timers map[string]*time.Timer
}

// NewWatcher creates a Watcher calling onChange with the ID of a changed source.
func NewWatcher(debounce time.Duration, onChange func(ctx context.Context, sourceID string)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		watcher:  w,
		debounce: debounce,
		onChange: onChange,
		roots:    make(map[string]string),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Add watches root and its non-hidden subdirectories for sourceID.
func (w *Watcher) Add(sourceID, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	w.mu.Lock()
	w.roots[abs] = sourceID
	w.mu.Unlock()

	return w.addTree(abs)
}

// addTree adds dir and its subdirectories; fsnotify watches are not recursive.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	defer func() {
		w.mu.Lock()
		for _, t := range w.timers {
			t.Stop()
		}
		w.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	logger := contextutil.LoggerFromContext(ctx)

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logger.WarnContext(ctx, "failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}
	if !IsTextFile(event.Name) {
		return
	}

	sourceID, ok := w.sourceFor(event.Name)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[sourceID]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[sourceID] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, sourceID)
		w.mu.Unlock()

		logger.InfoContext(ctx, "files source changed", "source_id", sourceID)
		w.onChange(ctx, sourceID)
	})
}

// sourceFor returns the source whose root contains p, preferring the deepest root.
func (w *Watcher) sourceFor(p string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	best := ""
	for root := range w.roots {
		if (p == root || strings.HasPrefix(p, root+string(filepath.Separator))) && len(root) > len(best) {
			best = root
		}
	}
	if best == "" {
		return "", false
	}
	return w.roots[best], true
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
