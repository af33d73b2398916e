// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{" INFO ", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidLevel) {
			t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewConsole(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer closer.Close()

	logger.Debug("hidden detail")
	logger.Info("Writing 2 locales...", "dir", "dist/locales")

	out := buf.String()
	if strings.Contains(out, "hidden detail") {
		t.Error("debug record written at info level")
	}
	for _, want := range []string{Prefix, "Writing 2 locales...", "dist/locales"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
}

func TestNewVerbose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "error", Verbose: true, Console: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("rescan skipped")
	if !strings.Contains(buf.String(), "rescan skipped") {
		t.Errorf("verbose logger dropped debug record: %q", buf.String())
	}
}

func TestNewInvalidLevel(t *testing.T) {
	t.Parallel()

	if _, _, err := New(Options{Level: "loud"}); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("New() error = %v, want ErrInvalidLevel", err)
	}
}

func TestNewFile(t *testing.T) {
	t.Parallel()

	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "i18nbundle.log")
	logger, closer, err := New(Options{
		Level:      "warn",
		Console:    &console,
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.With("locale", "fr").Info("wrote locale bundle")
	logger.Warn("failed to write locale bundle", "op", "mkdir")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	got := string(data)
	for _, want := range []string{`"msg":"wrote locale bundle"`, `"locale":"fr"`, `"op":"mkdir"`} {
		if !strings.Contains(got, want) {
			t.Errorf("log file missing %s:\n%s", want, got)
		}
	}

	// The console keeps its own level.
	if strings.Contains(console.String(), "wrote locale bundle") {
		t.Error("info record reached the warn-level console")
	}
	if !strings.Contains(console.String(), "failed to write locale bundle") {
		t.Error("warn record missing from console")
	}
}
