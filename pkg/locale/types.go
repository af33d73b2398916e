// SPDX-License-Identifier: MPL-2.0

package locale

import (
	"maps"
	"slices"
)

type (
	// Sections maps a section name (taken from the file name) to the decoded
	// JSON content of that file. Values are stored opaquely; numbers are kept
	// as json.Number so that re-encoding is lossless.
	Sections map[string]any

	// Map maps a language identifier to its Sections. It is rebuilt from
	// scratch on every scan and never mutated after it has been handed out.
	Map map[string]Sections

	// ScanResult is the outcome of one scan of a translation root.
	ScanResult struct {
		// Files lists every discovered file with the scanned extension,
		// including files that did not match the filename grammar.
		Files []string
		// Locales is the aggregated locale table.
		Locales Map
	}
)

// Languages returns the language identifiers of m in sorted order.
func (m Map) Languages() []string {
	return slices.Sorted(maps.Keys(m))
}

// SectionNames returns the section names of s in sorted order.
func (s Sections) SectionNames() []string {
	return slices.Sorted(maps.Keys(s))
}

// Contains reports whether path is one of the discovered files.
func (r ScanResult) Contains(path string) bool {
	return slices.Contains(r.Files, path)
}
