// SPDX-License-Identifier: MPL-2.0

// Package logging builds the application's slog logger: a charmbracelet/log
// console handler, plus an optional JSON handler writing to a rotating file.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Prefix is printed before every console line.
const Prefix = "i18nbundle"

// ErrInvalidLevel is returned by ParseLevel for unknown names.
var ErrInvalidLevel = errors.New("invalid log level")

type (
	// Options configures New.
	Options struct {
		// Level is one of debug, info, warn, warning or error. Empty means info.
		Level string
		// Verbose forces debug level on the console.
		Verbose bool
		// Console receives human-readable output. Defaults to os.Stderr.
		Console io.Writer
		// File enables JSON logging to a rotating file.
		File       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
		Compress   bool
	}

	nopCloser struct{}
)

func (nopCloser) Close() error { return nil }

// ParseLevel maps a level name to slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
}

// New builds the logger. The returned closer flushes and closes the log file;
// it is a no-op when no file is configured.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	consoleHandler := log.NewWithOptions(console, log.Options{
		Prefix: Prefix,
		Level:  log.Level(level),
	})

	file := strings.TrimSpace(opts.File)
	if file == "" {
		return slog.New(consoleHandler), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir failed: %w", err)
	}
	rotating := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	// The file always records debug detail regardless of console level.
	fileHandler := log.NewWithOptions(rotating, log.Options{
		Level:           log.DebugLevel,
		Formatter:       log.JSONFormatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})

	return slog.New(fanout{consoleHandler, fileHandler}), rotating, nil
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
