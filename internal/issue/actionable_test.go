// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "scan translations"},
			expected: "failed to scan translations",
		},
		{
			name:     "with resource",
			err:      &ActionableError{Operation: "scan translations", Resource: "./src/locales"},
			expected: "failed to scan translations: ./src/locales",
		},
		{
			name: "with cause",
			err: &ActionableError{
				Operation: "scan translations",
				Resource:  "./src/locales",
				Cause:     fs.ErrNotExist,
			},
			expected: "failed to scan translations: ./src/locales: file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	err := WrapWithContext(fmt.Errorf("open: %w", fs.ErrPermission), "write bundle", "dist/locales/en.json")
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("errors.Is should see through ActionableError")
	}
	if WrapWithOperation(nil, "anything") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := &ActionableError{
		Operation:   "load configuration",
		Resource:    "i18nbundle.cue",
		Suggestions: []string{"Run 'i18nbundle config init'", "Check the CUE syntax"},
		Cause:       fmt.Errorf("decode: %w", errors.New("unexpected token")),
	}

	short := err.Format(false)
	for _, want := range []string{"failed to load configuration", "• Run 'i18nbundle config init'", "• Check the CUE syntax"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. decode: unexpected token", "2. unexpected token"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}
}

func TestErrorContext(t *testing.T) {
	t.Parallel()

	cause := errors.New("address already in use")
	err := NewErrorContext().
		WithOperation("start dev server").
		WithResource("127.0.0.1:5174").
		WithSuggestion("Use --addr").
		WithSuggestions("Stop the other process", "Use port 0").
		Wrap(cause).
		Build()

	if err == nil {
		t.Fatal("Build() returned nil")
	}
	if len(err.Suggestions) != 3 {
		t.Errorf("Suggestions = %v", err.Suggestions)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not wrapped")
	}
}

func TestErrorContext_NoOperation(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want untyped nil", err)
	}
}
