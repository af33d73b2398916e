// SPDX-License-Identifier: MPL-2.0

// Package bundle writes one JSON file per language from a locale map.
//
// Writes are best-effort: each language is written on its own goroutine and a
// failure is logged and recorded without affecting the other languages.
// Write returns immediately; callers that need to observe completion call
// Batch.Wait.
package bundle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/sourcegraph/conc/pool"

	"github.com/dvcol/i18nbundle/pkg/locale"
	"github.com/dvcol/i18nbundle/pkg/outpath"
)

const (
	// DirPerm is the permission used for created output directories.
	DirPerm os.FileMode = 0o755
	// FilePerm is the permission used for written bundle files.
	FilePerm os.FileMode = 0o644

	// OpMkdir, OpEncode and OpWrite name the step a WriteError happened in.
	OpMkdir  = "mkdir"
	OpEncode = "encode"
	OpWrite  = "write"
)

type (
	// Writer writes locale bundles.
	Writer struct {
		logger         *slog.Logger
		indent         string
		maxGoroutines  int
		afterWriteHook func(Result, *WriteError)
	}

	// Option configures a Writer.
	Option func(*Writer)

	// Result describes one successfully written bundle.
	Result struct {
		Locale string
		Path   string
		Bytes  int
	}

	// WriteError reports a failed bundle write for one locale.
	WriteError struct {
		Locale string
		Path   string
		Op     string
		Err    error
	}

	// Batch tracks the writes started by one Writer.Write call.
	Batch struct {
		pool    *pool.Pool
		total   int
		once    sync.Once
		mu      sync.Mutex
		results []Result
		errs    []*WriteError
	}
)

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("write bundle for %q to %s: %s: %v", e.Locale, e.Path, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// WithLogger sets the logger used for progress and failures.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithIndent pretty-prints bundles using indent for each nesting level.
// The default is compact output.
func WithIndent(indent string) Option {
	return func(w *Writer) {
		w.indent = indent
	}
}

// WithMaxGoroutines bounds the number of concurrent writes. Zero or a
// negative value means one goroutine per locale.
func WithMaxGoroutines(n int) Option {
	return func(w *Writer) {
		w.maxGoroutines = n
	}
}

// WithAfterWrite registers a hook called after every locale completes, with
// either a Result or a WriteError. It runs on the writing goroutine.
func WithAfterWrite(fn func(Result, *WriteError)) Option {
	return func(w *Writer) {
		w.afterWriteHook = fn
	}
}

// NewWriter creates a Writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write starts one write per language of m and returns without waiting.
// The map is captured at call time. A nil resolver or an empty map starts
// nothing and touches no directory.
func (w *Writer) Write(ctx context.Context, m locale.Map, resolver outpath.Resolver) *Batch {
	b := &Batch{}
	if resolver == nil || len(m) == 0 {
		return b
	}

	p := pool.New()
	if w.maxGoroutines > 0 {
		p = p.WithMaxGoroutines(w.maxGoroutines)
	}
	b.pool = p

	languages := m.Languages()
	b.total = len(languages)
	w.logger.InfoContext(ctx, fmt.Sprintf("Writing %d locales...", len(languages)), "count", len(languages))

	for _, lang := range languages {
		sections := m[lang]
		p.Go(func() {
			res, werr := w.writeOne(lang, sections, resolver)
			if werr != nil {
				w.logger.ErrorContext(ctx, "failed to write locale bundle",
					"locale", werr.Locale, "path", werr.Path, "op", werr.Op, "error", werr.Err)
			} else {
				w.logger.DebugContext(ctx, "wrote locale bundle", "locale", res.Locale, "path", res.Path, "bytes", res.Bytes)
			}
			b.record(res, werr)
			if w.afterWriteHook != nil {
				w.afterWriteHook(res, werr)
			}
		})
	}

	return b
}

func (w *Writer) writeOne(lang string, sections locale.Sections, resolver outpath.Resolver) (Result, *WriteError) {
	path := resolver.Resolve(lang, sections)

	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return Result{}, &WriteError{Locale: lang, Path: path, Op: OpMkdir, Err: err}
	}

	data, err := w.encode(sections)
	if err != nil {
		return Result{}, &WriteError{Locale: lang, Path: path, Op: OpEncode, Err: err}
	}

	if err := os.WriteFile(path, data, FilePerm); err != nil {
		return Result{}, &WriteError{Locale: lang, Path: path, Op: OpWrite, Err: err}
	}

	return Result{Locale: lang, Path: path, Bytes: len(data)}, nil
}

func (w *Writer) encode(sections locale.Sections) ([]byte, error) {
	if sections == nil {
		sections = locale.Sections{}
	}
	if w.indent != "" {
		return json.MarshalIndent(sections, "", w.indent)
	}
	return json.Marshal(sections)
}

// Len returns the number of locales the batch writes.
func (b *Batch) Len() int {
	return b.total
}

// Wait blocks until every write of the batch has finished and returns the
// successful results and the failures. It may be called more than once.
func (b *Batch) Wait() ([]Result, []*WriteError) {
	b.once.Do(func() {
		if b.pool != nil {
			b.pool.Wait()
		}
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Result(nil), b.results...), append([]*WriteError(nil), b.errs...)
}

func (b *Batch) record(res Result, werr *WriteError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if werr != nil {
		b.errs = append(b.errs, werr)
		return
	}
	b.results = append(b.results, res)
}
