// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dvcol/i18nbundle/internal/liveupdate"
	"github.com/dvcol/i18nbundle/pkg/outpath"
)

const (
	// DefaultDevAddr is the dev server listen address.
	DefaultDevAddr = "127.0.0.1:5174"
	// DefaultDebounce is the quiet period before a change batch is handled.
	DefaultDebounce = "100ms"
	// DefaultLogLevel is the console log level.
	DefaultLogLevel = "info"
	// DefaultLogMaxSizeMB is the size at which the log file rotates.
	DefaultLogMaxSizeMB = 10
	// DefaultLogMaxBackups is the number of rotated log files kept.
	DefaultLogMaxBackups = 3
	// DefaultLogMaxAgeDays is the age after which rotated files are removed.
	DefaultLogMaxAgeDays = 28
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrMissingPath is reported when no translation root is configured.
	ErrMissingPath = errors.New("path is required")
	// ErrInvalidDebounce is reported when dev.debounce is not a positive duration.
	ErrInvalidDebounce = errors.New("invalid dev.debounce")
	// ErrInvalidLogLevel is reported for an unknown log.level.
	ErrInvalidLogLevel = errors.New("invalid log.level")
	// ErrInvalidDevAddr is reported when dev.addr is blank.
	ErrInvalidDevAddr = errors.New("invalid dev.addr")

	logLevels = []string{"debug", "info", "warn", "warning", "error"}
)

type (
	// Config holds the project configuration.
	Config struct {
		// Path is the translation root directory.
		Path string `json:"path" mapstructure:"path" toml:"path"`
		// Out is the raw bundle output setting: nil, a bool, a directory
		// string or a {dir, name} table. Use OutOptions to interpret it.
		Out any `json:"out,omitempty" mapstructure:"out" toml:"out,omitempty"`
		// Dev configures the dev command.
		Dev DevConfig `json:"dev" mapstructure:"dev" toml:"dev"`
		// Log configures logging.
		Log LogConfig `json:"log" mapstructure:"log" toml:"log"`
	}

	// DevConfig configures the dev server and watcher.
	DevConfig struct {
		Addr         string   `json:"addr" mapstructure:"addr" toml:"addr"`
		Debounce     string   `json:"debounce" mapstructure:"debounce" toml:"debounce"`
		Topic        string   `json:"topic" mapstructure:"topic" toml:"topic"`
		Ignore       []string `json:"ignore,omitempty" mapstructure:"ignore" toml:"ignore,omitempty"`
		AllowOrigins []string `json:"allow_origins,omitempty" mapstructure:"allow_origins" toml:"allow_origins,omitempty"`
	}

	// LogConfig configures the console and optional rotating file log.
	LogConfig struct {
		Level string `json:"level" mapstructure:"level" toml:"level"`
		// File enables JSON logging to a rotating file when set.
		File       string `json:"file,omitempty" mapstructure:"file" toml:"file,omitempty"`
		MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb" toml:"max_size_mb"`
		MaxBackups int    `json:"max_backups" mapstructure:"max_backups" toml:"max_backups"`
		MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days" toml:"max_age_days"`
		Compress   bool   `json:"compress" mapstructure:"compress" toml:"compress"`
	}

	// InvalidConfigError collects field-level validation errors.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the configuration used when no file sets a value.
func DefaultConfig() *Config {
	return &Config{
		Dev: DevConfig{
			Addr:     DefaultDevAddr,
			Debounce: DefaultDebounce,
			Topic:    liveupdate.DefaultTopicURL,
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
	}
}

// OutOptions interprets Out. A string "true" or "false" (as set through the
// environment) is read as the corresponding boolean.
func (c *Config) OutOptions() (outpath.Options, error) {
	if s, ok := c.Out.(string); ok {
		opts, set := outpath.ParseFlag(s)
		if !set {
			return outpath.Disabled{}, nil
		}
		return opts, nil
	}
	return outpath.FromValue(c.Out)
}

// DebounceDuration parses Dev.Debounce. Empty means DefaultDebounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	raw := strings.TrimSpace(c.Dev.Debounce)
	if raw == "" {
		raw = DefaultDebounce
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidDebounce, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s is not positive", ErrInvalidDebounce, raw)
	}
	return d, nil
}

// IsValid returns whether the Config is usable, and a list of validation
// errors if it is not.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.Path) == "" {
		errs = append(errs, ErrMissingPath)
	}
	if _, err := c.OutOptions(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.DebounceDuration(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Dev.Addr) == "" {
		errs = append(errs, ErrInvalidDevAddr)
	}
	if !isLogLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate returns an *InvalidConfigError when IsValid fails.
func (c *Config) Validate() error {
	if ok, errs := c.IsValid(); !ok {
		return errs[0]
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

func isLogLevel(level string) bool {
	return slices.Contains(logLevels, strings.ToLower(strings.TrimSpace(level)))
}
