// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"errors"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        Config
		wantFields int
	}{
		{name: "root only", cfg: Config{Root: "locales"}},
		{name: "patterns and ignores", cfg: Config{Root: "locales", Patterns: []string{"**/*.json"}, Ignore: []string{"drafts/**"}}},
		{name: "empty root", cfg: Config{}, wantFields: 1},
		{name: "whitespace root", cfg: Config{Root: "   "}, wantFields: 1},
		{name: "empty pattern", cfg: Config{Root: "x", Patterns: []string{""}}, wantFields: 1},
		{name: "malformed pattern", cfg: Config{Root: "x", Patterns: []string{"[a-"}}, wantFields: 1},
		{name: "everything wrong", cfg: Config{Patterns: []string{"", "[x"}, Ignore: []string{" "}}, wantFields: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if tt.wantFields == 0 {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, ErrInvalidWatchConfig) {
				t.Fatalf("Validate() error = %v, want ErrInvalidWatchConfig", err)
			}
			var cfgErr *InvalidWatchConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error type = %T", err)
			}
			if len(cfgErr.FieldErrors) != tt.wantFields {
				t.Errorf("got %d field errors, want %d: %v", len(cfgErr.FieldErrors), tt.wantFields, cfgErr.FieldErrors)
			}
			if !strings.Contains(err.Error(), "field error") {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}
