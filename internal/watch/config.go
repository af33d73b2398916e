// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultDebounce is the quiet period used when Config.Debounce is not set.
// Editors typically write a temp file and rename it within a few
// milliseconds; both events land in one batch.
const DefaultDebounce = 100 * time.Millisecond

// ErrInvalidWatchConfig is the sentinel wrapped by InvalidWatchConfigError.
var ErrInvalidWatchConfig = errors.New("invalid watch config")

// DefaultPatterns selects translation files.
var DefaultPatterns = []string{"**/*.json"}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the directory to watch recursively. Required.
		Root string

		// Patterns are doublestar globs, relative to Root, selecting the
		// files whose changes are reported. Empty means DefaultPatterns.
		Patterns []string

		// Ignore are extra doublestar globs merged with the built-in ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before OnChange
		// fires. Zero or negative means DefaultDebounce.
		Debounce time.Duration

		// OnChange receives the deduplicated absolute paths that changed
		// during the debounce window. A returned error is logged.
		OnChange func(ctx context.Context, changed []string) error

		// Logger defaults to slog.Default().
		Logger *slog.Logger
	}

	// InvalidWatchConfigError lists every problem found by Config.Validate.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *InvalidWatchConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("%s: %d field error(s): %s", ErrInvalidWatchConfig, len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidWatchConfig.
func (e *InvalidWatchConfigError) Unwrap() error {
	return ErrInvalidWatchConfig
}

// Validate checks Root and every glob. All problems are reported at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Root) == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	errs = append(errs, validatePatterns(c.Patterns, "watch")...)
	errs = append(errs, validatePatterns(c.Ignore, "ignore")...)

	if len(errs) > 0 {
		return &InvalidWatchConfigError{FieldErrors: errs}
	}
	return nil
}

func validatePatterns(patterns []string, label string) []error {
	var errs []error
	for _, pat := range patterns {
		if strings.TrimSpace(pat) == "" {
			errs = append(errs, fmt.Errorf("%s pattern must not be empty", label))
			continue
		}
		if !doublestar.ValidatePattern(pat) {
			errs = append(errs, fmt.Errorf("invalid %s pattern %q", label, pat))
		}
	}
	return errs
}
