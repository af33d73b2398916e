// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/dvcol/i18nbundle/internal/testutil"
)

// collector records OnChange batches.
type collector struct {
	mu      sync.Mutex
	batches [][]string
	notify  chan struct{}
}

func newCollector() *collector {
	return &collector{notify: make(chan struct{}, 16)}
}

func (c *collector) onChange(_ context.Context, changed []string) error {
	c.mu.Lock()
	c.batches = append(c.batches, changed)
	c.mu.Unlock()
	c.notify <- struct{}{}
	return nil
}

func (c *collector) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-c.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batches[len(c.batches)-1]
}

func (c *collector) expectNone(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case <-c.notify:
		c.mu.Lock()
		defer c.mu.Unlock()
		t.Fatalf("unexpected change batch: %v", c.batches[len(c.batches)-1])
	case <-time.After(within):
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatcher(t *testing.T, cfg Config) *Watcher {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("Run() error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run() did not return after cancellation")
		}
	})
	return w
}

func TestWatcherDebouncesTranslationChanges(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, t.TempDir(), map[string]string{"en/home.en.json": `{}`})
	c := newCollector()
	startWatcher(t, Config{Root: root, Debounce: 100 * time.Millisecond, OnChange: c.onChange})

	files := []string{
		filepath.Join(root, "en", "home.en.json"),
		filepath.Join(root, "en", "about.en.json"),
		filepath.Join(root, "fr.fr.json"),
	}
	for _, f := range files {
		testutil.MustWriteFile(t, f, `{"x": "y"}`)
		time.Sleep(10 * time.Millisecond)
	}

	got := c.wait(t)
	slices.Sort(files)
	for _, f := range files {
		if !slices.Contains(got, f) {
			t.Errorf("batch %v is missing %s", got, f)
		}
	}
	c.expectNone(t, 300*time.Millisecond)
}

func TestWatcherFiltersNonTranslationFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	c := newCollector()
	startWatcher(t, Config{Root: root, Debounce: 50 * time.Millisecond, OnChange: c.onChange})

	testutil.MustWriteFile(t, filepath.Join(root, "notes.txt"), "x")
	testutil.MustWriteFile(t, filepath.Join(root, "node_modules", "pkg", "x.en.json"), "{}")
	c.expectNone(t, 300*time.Millisecond)

	testutil.MustWriteFile(t, filepath.Join(root, "home.en.json"), "{}")
	got := c.wait(t)
	if !slices.Equal(got, []string{filepath.Join(root, "home.en.json")}) {
		t.Errorf("batch = %v, want only home.en.json", got)
	}
}

func TestWatcherUserIgnores(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	c := newCollector()
	startWatcher(t, Config{
		Root:     root,
		Debounce: 50 * time.Millisecond,
		Ignore:   []string{"drafts/**"},
		OnChange: c.onChange,
	})

	testutil.MustWriteFile(t, filepath.Join(root, "drafts", "home.en.json"), "{}")
	c.expectNone(t, 300*time.Millisecond)
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	c := newCollector()
	startWatcher(t, Config{Root: root, Debounce: 100 * time.Millisecond, OnChange: c.onChange})

	file := filepath.Join(root, "de", "nested", "home.de.json")
	testutil.MustWriteFile(t, file, "{}")

	got := c.wait(t)
	if !slices.Contains(got, file) {
		t.Errorf("batch %v does not contain file created in a new directory", got)
	}
}

func TestWatcherSkipsOverlappingBatches(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	release := make(chan struct{})
	var (
		mu      sync.Mutex
		calls   int
		running int
		maxSeen int
	)
	done := make(chan struct{}, 4)

	startWatcher(t, Config{
		Root:     root,
		Debounce: 30 * time.Millisecond,
		OnChange: func(context.Context, []string) error {
			mu.Lock()
			calls++
			running++
			maxSeen = max(maxSeen, running)
			first := calls == 1
			mu.Unlock()

			if first {
				<-release
			}

			mu.Lock()
			running--
			mu.Unlock()
			done <- struct{}{}
			return nil
		},
	})

	testutil.MustWriteFile(t, filepath.Join(root, "a.en.json"), "{}")
	time.Sleep(150 * time.Millisecond)
	testutil.MustWriteFile(t, filepath.Join(root, "b.en.json"), "{}")
	time.Sleep(150 * time.Millisecond)
	close(release)

	for range 2 {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for callbacks")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if maxSeen != 1 {
		t.Errorf("callbacks overlapped: max concurrency %d", maxSeen)
	}
}

func TestWatcherCallbackErrorIsNotFatal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	calls := make(chan struct{}, 4)
	startWatcher(t, Config{
		Root:     root,
		Debounce: 30 * time.Millisecond,
		OnChange: func(context.Context, []string) error {
			calls <- struct{}{}
			return errors.New("rescan failed")
		},
	})

	for _, name := range []string{"a.en.json", "b.en.json"} {
		testutil.MustWriteFile(t, filepath.Join(root, name), "{}")
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("no callback for %s", name)
		}
	}
}

func TestWatcherRunTwice(t *testing.T) {
	t.Parallel()

	w := startWatcher(t, Config{Root: t.TempDir()})
	// Let the first Run start.
	time.Sleep(20 * time.Millisecond)
	if err := w.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Root: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("expected error for missing root")
	}

	file := filepath.Join(t.TempDir(), "file.json")
	testutil.MustWriteFile(t, file, "{}")
	if _, err := New(Config{Root: file}); err == nil {
		t.Error("expected error when root is a file")
	}

	if _, err := New(Config{Root: t.TempDir(), Patterns: []string{"[unclosed"}}); !errors.Is(err, ErrInvalidWatchConfig) {
		t.Errorf("invalid pattern error = %v, want ErrInvalidWatchConfig", err)
	}
}

func TestWatcherRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w, err := New(Config{Root: root, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Errorf("Run() on cancelled context = %v", err)
	}
	if w.Root() != root {
		t.Errorf("Root() = %q, want %q", w.Root(), root)
	}
}

func TestDefaultIgnoresIsCopy(t *testing.T) {
	t.Parallel()

	got := DefaultIgnores()
	got[0] = "mutated"
	if DefaultIgnores()[0] == "mutated" {
		t.Error("DefaultIgnores() exposes the internal slice")
	}
}
