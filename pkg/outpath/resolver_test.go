// SPDX-License-Identifier: MPL-2.0

package outpath

import (
	"path/filepath"
	"testing"

	"github.com/dvcol/i18nbundle/pkg/locale"
)

func TestNewResolver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     Options
		language string
		want     string
	}{
		{name: "default", opts: Default{}, language: "fr", want: "dist/locales/fr.json"},
		{name: "dir", opts: Dir("build/i18n"), language: "de", want: "build/i18n/de.json"},
		{name: "layout with dir and name", opts: Layout{Dir: "out", Name: "bundle"}, language: "es", want: "out/bundle.es.json"},
		{name: "layout with name only", opts: Layout{Name: "bundle"}, language: "it", want: "dist/locales/bundle.it.json"},
		{name: "layout with dir only", opts: Layout{Dir: "out"}, language: "pt", want: "out/pt.json"},
		{name: "empty layout", opts: Layout{}, language: "nl", want: "dist/locales/nl.json"},
		{name: "absolute dir", opts: Dir("/tmp/i18n"), language: "en", want: "/tmp/i18n/en.json"},
		{name: "language with region", opts: Default{}, language: "en-US", want: "dist/locales/en-US.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, ok := NewResolver(tt.opts)
			if !ok {
				t.Fatalf("NewResolver(%#v) disabled, want a resolver", tt.opts)
			}
			got := r.Resolve(tt.language, locale.Sections{"home": map[string]any{}})
			if want := filepath.FromSlash(tt.want); got != want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.language, got, want)
			}
		})
	}
}

func TestNewResolverDisabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts Options
	}{
		{name: "disabled", opts: Disabled{}},
		{name: "nil options", opts: nil},
		{name: "empty dir", opts: Dir("")},
		{name: "nil func", opts: Func(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if r, ok := NewResolver(tt.opts); ok || r != nil {
				t.Errorf("NewResolver(%#v) = %v, %v; want nil, false", tt.opts, r, ok)
			}
			if Enabled(tt.opts) {
				t.Errorf("Enabled(%#v) = true", tt.opts)
			}
		})
	}
}

func TestFuncResolverReceivesSections(t *testing.T) {
	t.Parallel()

	var gotLang string
	var gotSections locale.Sections
	opts := Func(func(language string, sections locale.Sections) string {
		gotLang, gotSections = language, sections
		return "custom/" + language + "-" + sections.SectionNames()[0] + ".json"
	})

	r, ok := NewResolver(opts)
	if !ok {
		t.Fatal("expected Func to produce a resolver")
	}

	sections := locale.Sections{"common": "x"}
	if got := r.Resolve("ja", sections); got != "custom/ja-common.json" {
		t.Errorf("Resolve() = %q", got)
	}
	if gotLang != "ja" || gotSections["common"] != "x" {
		t.Errorf("func called with (%q, %#v)", gotLang, gotSections)
	}
}

func TestResolveIsPure(t *testing.T) {
	t.Parallel()

	r, _ := NewResolver(Layout{Dir: "out", Name: "bundle"})
	sections := locale.Sections{"a": "b"}

	first := r.Resolve("en", sections)
	for range 5 {
		if got := r.Resolve("en", sections); got != first {
			t.Fatalf("Resolve() changed between calls: %q then %q", first, got)
		}
	}
}

func TestPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{name: "disabled", opts: Disabled{}, want: ""},
		{name: "default", opts: Default{}, want: filepath.FromSlash("dist/locales/<language>.json")},
		{name: "layout", opts: Layout{Name: "bundle"}, want: filepath.FromSlash("dist/locales/bundle.<language>.json")},
		{name: "func", opts: Func(func(string, locale.Sections) string { return "x" }), want: "custom"},
	}

	for _, tt := range tests {
		if got := Pattern(tt.opts); got != tt.want {
			t.Errorf("%s: Pattern() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
