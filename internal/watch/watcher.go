// SPDX-License-Identifier: MPL-2.0

// Package watch reports debounced changes to translation files.
//
// A Watcher registers every non-ignored directory under a root with fsnotify,
// filters events through doublestar globs and, once events stop arriving for
// the debounce period, calls OnChange once with every path that changed.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultIgnores are always excluded: VCS metadata, dependency trees,
// build output and editor or OS noise.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/dist/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

// Watcher monitors a translation root. Run must be called exactly once.
type Watcher struct {
	root     string
	patterns []string
	ignores  []string
	debounce time.Duration
	onChange func(ctx context.Context, changed []string) error
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
	started  atomic.Bool
}

// New validates cfg, resolves Root and registers its directory tree.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: root %s is not a directory", root)
	}

	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		patterns: slices.Clone(patterns),
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: debounce,
		onChange: cfg.OnChange,
		logger:   logger.With("component", "watch"),
		fsw:      fsw,
	}

	if _, err := w.addTree(root); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			w.logger.Debug("close after init failure", "error", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when fsnotify fails irrecoverably.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		busy    atomic.Bool
	)

	// flush runs on the timer goroutine. A flush that overlaps a slow
	// OnChange reschedules itself instead of running concurrently.
	flush := func() {
		if ctx.Err() != nil {
			return
		}
		if !busy.CompareAndSwap(false, true) {
			w.logger.Debug("change handler still running, deferring batch")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer busy.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.onChange == nil {
			return
		}
		if err := w.onChange(ctx, changed); err != nil {
			w.logger.Warn("change handler failed", "files", len(changed), "error", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Debug("close fsnotify", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Op == fsnotify.Chmod {
				continue
			}
			changed := []string{evt.Name}
			if evt.Has(fsnotify.Create) {
				// Files written into a new directory before its watch was
				// registered produce no events of their own.
				changed = append(changed, w.maybeAddTree(evt.Name)...)
			}
			changed = slices.DeleteFunc(changed, func(p string) bool { return !w.selected(p) })
			if len(changed) == 0 {
				continue
			}

			mu.Lock()
			for _, p := range changed {
				pending[p] = struct{}{}
			}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, flush)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// selected reports whether an absolute event path is inside the root, not
// ignored and matched by a pattern.
func (w *Watcher) selected(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	return !matchAny(w.ignores, rel) && matchAny(w.patterns, rel)
}

// addTree registers dir and every non-ignored directory below it and returns
// the files found on the way. Unreadable subdirectories are skipped and
// logged.
func (w *Watcher) addTree(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			w.logger.Warn("skipping inaccessible path", "path", path, "error", walkErr)
			return nil
		}
		if !d.IsDir() {
			files = append(files, path)
			return nil
		}
		if path != w.root && w.ignoredDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("watch: walk directory tree: %w", err)
	}
	return files, nil
}

// maybeAddTree extends the watch to a directory created after startup and
// returns the files it already contains.
func (w *Watcher) maybeAddTree(path string) []string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.ignoredDir(path) {
		return nil
	}
	files, err := w.addTree(path)
	if err != nil {
		w.logger.Warn("failed to watch new directory", "path", path, "error", err)
	}
	return files
}

func (w *Watcher) ignoredDir(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	return matchAny(w.ignores, rel) || matchAny(w.ignores, rel+"/")
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}
