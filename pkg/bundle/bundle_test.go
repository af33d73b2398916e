// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"

	"github.com/dvcol/i18nbundle/internal/testutil"
	"github.com/dvcol/i18nbundle/pkg/locale"
	"github.com/dvcol/i18nbundle/pkg/outpath"
)

func quietWriter(opts ...Option) *Writer {
	return NewWriter(append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)...)
}

func sampleMap() locale.Map {
	return locale.Map{
		"en": locale.Sections{
			"home":   map[string]any{"title": "Home"},
			"common": map[string]any{"count": json.Number("3")},
		},
		"fr": locale.Sections{
			"home": map[string]any{"title": "Accueil"},
		},
	}
}

func TestWriteOneFilePerLocale(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	resolver, _ := outpath.NewResolver(outpath.Dir(dir))

	var buf bytes.Buffer
	w := NewWriter(WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	batch := w.Write(context.Background(), sampleMap(), resolver)
	if batch.Len() != 2 {
		t.Errorf("Len() = %d, want 2", batch.Len())
	}
	results, errs := batch.Wait()
	if len(errs) != 0 {
		t.Fatalf("unexpected write errors: %v", errs)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	var en map[string]any
	if err := json.Unmarshal([]byte(testutil.MustReadFile(t, filepath.Join(dir, "en.json"))), &en); err != nil {
		t.Fatalf("en.json is not valid JSON: %v", err)
	}
	if !reflect.DeepEqual(en["home"], map[string]any{"title": "Home"}) {
		t.Errorf("en.json home = %#v", en["home"])
	}
	if got := testutil.MustReadFile(t, filepath.Join(dir, "fr.json")); got != `{"home":{"title":"Accueil"}}` {
		t.Errorf("fr.json = %s", got)
	}

	logs := buf.String()
	if !strings.Contains(logs, "Writing 2 locales") {
		t.Errorf("missing progress log, got:\n%s", logs)
	}
	if !strings.Contains(logs, filepath.Join(dir, "fr.json")) {
		t.Errorf("missing per-file debug log, got:\n%s", logs)
	}
}

func TestWriteOverwritesExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "en.json")
	testutil.MustWriteFile(t, target, strings.Repeat("stale content ", 100))

	resolver, _ := outpath.NewResolver(outpath.Dir(dir))
	_, errs := quietWriter().Write(context.Background(), locale.Map{"en": {"a": "b"}}, resolver).Wait()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := testutil.MustReadFile(t, target); got != `{"a":"b"}` {
		t.Errorf("file not fully overwritten: %q", got)
	}
}

func TestWriteIndent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	resolver, _ := outpath.NewResolver(outpath.Dir(dir))
	_, errs := quietWriter(WithIndent("  ")).Write(context.Background(), locale.Map{"en": {"a": "b"}}, resolver).Wait()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dir, "en.json")); got != "{\n  \"a\": \"b\"\n}" {
		t.Errorf("indented output = %q", got)
	}
}

func TestWriteEmptyMapWritesNothing(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "never-created")
	resolver, _ := outpath.NewResolver(outpath.Dir(dir))

	batch := quietWriter().Write(context.Background(), locale.Map{}, resolver)
	results, errs := batch.Wait()
	if len(results) != 0 || len(errs) != 0 {
		t.Errorf("Wait() = %v, %v; want nothing", results, errs)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output directory should not be created, stat error: %v", err)
	}
}

// Changes the working directory, so it must not run in parallel.
func TestWriteDisabledWritesNothing(t *testing.T) {
	cwd := t.TempDir()
	t.Chdir(cwd)

	resolver, ok := outpath.NewResolver(outpath.Disabled{})
	if ok {
		t.Fatal("Disabled must not produce a resolver")
	}

	var calls atomic.Int32
	batch := quietWriter(WithAfterWrite(func(Result, *WriteError) { calls.Add(1) })).
		Write(context.Background(), sampleMap(), resolver)
	results, errs := batch.Wait()

	if len(results) != 0 || len(errs) != 0 || calls.Load() != 0 {
		t.Errorf("disabled output performed writes: %v %v (%d calls)", results, errs, calls.Load())
	}
	entries, err := os.ReadDir(cwd)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("working directory is not empty: %v", entries)
	}
	if _, err := os.Stat(filepath.Join(cwd, outpath.DefaultDir)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("default directory should not exist, stat error: %v", err)
	}
}

func TestWriteFailureIsIsolated(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	// A regular file where the "bad" locale needs a directory.
	blocker := filepath.Join(root, "blocked")
	testutil.MustWriteFile(t, blocker, "not a directory")

	resolver := outpath.ResolverFunc(func(lang string, _ locale.Sections) string {
		if lang == "bad" {
			return filepath.Join(blocker, "bad.json")
		}
		return filepath.Join(root, "ok", lang+".json")
	})

	m := locale.Map{
		"bad": {"a": "b"},
		"en":  {"a": "b"},
		"fr":  {"a": "b"},
	}

	var buf bytes.Buffer
	w := NewWriter(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	results, errs := w.Write(context.Background(), m, resolver).Wait()

	if len(errs) != 1 {
		t.Fatalf("expected exactly one failure, got %v", errs)
	}
	werr := errs[0]
	if werr.Locale != "bad" || werr.Op != OpMkdir {
		t.Errorf("WriteError = %+v, want locale bad, op mkdir", werr)
	}
	if werr.Path != filepath.Join(blocker, "bad.json") {
		t.Errorf("WriteError.Path = %q", werr.Path)
	}
	if werr.Unwrap() == nil {
		t.Error("WriteError should carry the underlying cause")
	}

	var written []string
	for _, r := range results {
		written = append(written, r.Locale)
	}
	slices.Sort(written)
	if !slices.Equal(written, []string{"en", "fr"}) {
		t.Errorf("successful locales = %v, want [en fr]", written)
	}
	for _, lang := range []string{"en", "fr"} {
		if _, err := os.Stat(filepath.Join(root, "ok", lang+".json")); err != nil {
			t.Errorf("%s bundle missing: %v", lang, err)
		}
	}

	logs := buf.String()
	if !strings.Contains(logs, "failed to write locale bundle") || !strings.Contains(logs, "locale=bad") {
		t.Errorf("failure not logged with locale context:\n%s", logs)
	}
}

func TestWriteUsesCapturedMap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	resolver, _ := outpath.NewResolver(outpath.Dir(dir))

	m := locale.Map{"en": {"a": "b"}}
	batch := quietWriter().Write(context.Background(), m, resolver)
	// Adding a language after Write has started must not add a bundle.
	m["de"] = locale.Sections{"x": "y"}

	results, _ := batch.Wait()
	if len(results) != 1 || results[0].Locale != "en" {
		t.Errorf("results = %v, want only en", results)
	}
}

func TestWaitIsRepeatable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	resolver, _ := outpath.NewResolver(outpath.Dir(dir))
	batch := quietWriter(WithMaxGoroutines(1)).Write(context.Background(), sampleMap(), resolver)

	first, _ := batch.Wait()
	second, _ := batch.Wait()
	if len(first) != 2 || len(second) != 2 {
		t.Errorf("Wait() returned %d then %d results, want 2 both times", len(first), len(second))
	}
}

func TestWriteErrorMessage(t *testing.T) {
	t.Parallel()

	err := &WriteError{Locale: "en", Path: "out/en.json", Op: OpWrite, Err: os.ErrPermission}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("errors.Is should reach the cause")
	}
	want := `write bundle for "en" to out/en.json: write: permission denied`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
