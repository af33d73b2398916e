// SPDX-License-Identifier: MPL-2.0

package outpath

import (
	"path/filepath"
	"strings"

	"github.com/dvcol/i18nbundle/pkg/locale"
)

// LanguagePlaceholder is substituted for the language by Pattern.
const LanguagePlaceholder = "<language>"

type (
	// Resolver maps a language and its sections to the file the bundle is
	// written to. Implementations must be pure.
	Resolver interface {
		Resolve(language string, sections locale.Sections) string
	}

	// ResolverFunc adapts a plain function to Resolver.
	ResolverFunc func(language string, sections locale.Sections) string

	layoutResolver struct {
		dir  string
		name string
	}
)

// Resolve calls f.
func (f ResolverFunc) Resolve(language string, sections locale.Sections) string {
	return f(language, sections)
}

// Resolve joins the directory with the dot-joined non-empty parts of
// [name, language, "json"].
func (r layoutResolver) Resolve(language string, _ locale.Sections) string {
	return filepath.Join(r.dir, joinNonEmpty(r.name, language, Extension))
}

// NewResolver dispatches opts once and returns the matching Resolver. The
// boolean is false when opts disables output (Disabled, nil, an empty Dir or
// a nil Func).
func NewResolver(opts Options) (Resolver, bool) {
	switch o := opts.(type) {
	case Default:
		return layoutResolver{dir: DefaultDir}, true
	case Dir:
		if o == "" {
			return nil, false
		}
		return layoutResolver{dir: string(o)}, true
	case Layout:
		dir := o.Dir
		if dir == "" {
			dir = DefaultDir
		}
		return layoutResolver{dir: dir, name: o.Name}, true
	case Func:
		if o == nil {
			return nil, false
		}
		return ResolverFunc(o), true
	default:
		return nil, false
	}
}

// Pattern describes where opts writes bundles, using LanguagePlaceholder for
// the language. It returns "" when output is disabled and "custom" for Func.
func Pattern(opts Options) string {
	r, ok := NewResolver(opts)
	if !ok {
		return ""
	}
	if _, custom := r.(ResolverFunc); custom {
		return "custom"
	}
	return r.Resolve(LanguagePlaceholder, nil)
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}
