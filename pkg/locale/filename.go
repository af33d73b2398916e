// SPDX-License-Identifier: MPL-2.0

package locale

import (
	"path/filepath"
	"strings"
)

// jsonSuffix is matched case-insensitively against the end of a file name.
const jsonSuffix = ".json"

// Filename holds the identifiers encoded in a translation file name.
type Filename struct {
	// Section is everything before the language token.
	Section string
	// Language is the dot-component right before ".json".
	Language string
}

// ParseFilename extracts the section and language from a path whose base
// name has the form <section>.<language>.json. Leading directories are
// ignored and the ".json" suffix is matched case-insensitively. The stem is
// split on its last dot, so "a.b.en.json" yields section "a.b" and language
// "en". Both tokens are returned verbatim.
//
// A name with fewer than three dot-separated components ("foo.json") or an
// empty token (".en.json", "home..json") does not match; ok is false.
func ParseFilename(path string) (name Filename, ok bool) {
	base := filepath.Base(filepath.FromSlash(path))
	if len(base) <= len(jsonSuffix) || !strings.EqualFold(base[len(base)-len(jsonSuffix):], jsonSuffix) {
		return Filename{}, false
	}

	stem := base[:len(base)-len(jsonSuffix)]
	dot := strings.LastIndexByte(stem, '.')
	if dot <= 0 || dot == len(stem)-1 {
		return Filename{}, false
	}

	return Filename{Section: stem[:dot], Language: stem[dot+1:]}, true
}

// lastSegment returns the text after the final dot of name, or name itself
// when it contains no dot.
func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// HasExtension reports whether the last dot-segment of path's base name is
// exactly ext (case-sensitive, no leading dot).
func HasExtension(path, ext string) bool {
	return lastSegment(filepath.Base(filepath.FromSlash(path))) == ext
}
