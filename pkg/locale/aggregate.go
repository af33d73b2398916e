// SPDX-License-Identifier: MPL-2.0

package locale

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// AddFile folds one translation file into m and returns the map. Paths that
// do not match the filename grammar leave m untouched. Otherwise the file is
// read and decoded, and its content replaces m[language][section]; nested
// keys of a previous value are not merged.
//
// A read or decode failure returns a *ParseError. A nil m is allocated on
// first insertion.
func AddFile(m Map, path string) (Map, error) {
	name, ok := ParseFilename(path)
	if !ok {
		return m, nil
	}

	content, err := readJSON(path)
	if err != nil {
		return m, &ParseError{Path: path, Err: err}
	}

	if m == nil {
		m = make(Map)
	}
	sections, ok := m[name.Language]
	if !ok {
		sections = make(Sections)
		m[name.Language] = sections
	}
	sections[name.Section] = content

	return m, nil
}

// Aggregate folds AddFile over paths, in order, into a fresh Map. The first
// failing file aborts the aggregation and no map is returned.
func Aggregate(paths []string) (Map, error) {
	m := make(Map)
	for _, path := range paths {
		var err error
		if m, err = AddFile(m, path); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Load scans root for JSON files and aggregates them. It fails with a
// *DiscoveryError when root cannot be listed and with a *ParseError when a
// translation file is unreadable or malformed.
func Load(root string) (ScanResult, error) {
	files, err := Scan(root, DefaultExtension)
	if err != nil {
		return ScanResult{}, err
	}

	locales, err := Aggregate(files)
	if err != nil {
		return ScanResult{}, err
	}

	return ScanResult{Files: files, Locales: locales}, nil
}

// readJSON reads path and decodes exactly one JSON value from it.
func readJSON(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("unexpected end of JSON input")
		}
		return nil, err
	}

	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid character after top-level value")
	}

	return value, nil
}
