// SPDX-License-Identifier: MPL-2.0

package outpath

import "github.com/dvcol/i18nbundle/pkg/locale"

const (
	// DefaultDir is the output directory used when none is configured.
	DefaultDir = "dist/locales"
	// Extension is the file extension of written bundles.
	Extension = "json"
)

type (
	// Options selects how bundle output paths are computed. It is a sealed
	// variant: Disabled, Default, Dir, Layout or Func.
	Options interface {
		isOptions()
	}

	// Disabled turns bundle writing off.
	Disabled struct{}

	// Default writes <DefaultDir>/<language>.json.
	Default struct{}

	// Dir writes <dir>/<language>.json. An empty Dir behaves like Disabled.
	Dir string

	// Layout writes <Dir>/<Name>.<language>.json. Empty fields are dropped
	// from the filename and an empty Dir falls back to DefaultDir.
	Layout struct {
		Dir  string `mapstructure:"dir" json:"dir,omitempty" toml:"dir,omitempty"`
		Name string `mapstructure:"name" json:"name,omitempty" toml:"name,omitempty"`
	}

	// Func computes the full output path itself. A nil Func behaves like
	// Disabled.
	Func func(language string, sections locale.Sections) string
)

func (Disabled) isOptions() {}
func (Default) isOptions()  {}
func (Dir) isOptions()      {}
func (Layout) isOptions()   {}
func (Func) isOptions()     {}

// Enabled reports whether opts produces a resolver.
func Enabled(opts Options) bool {
	_, ok := NewResolver(opts)
	return ok
}
