// SPDX-License-Identifier: MPL-2.0

package locale

import (
	"os"
	"path/filepath"
)

// DefaultExtension is the extension scanned for translation files.
const DefaultExtension = "json"

// Scan recursively lists the files under root whose last dot-segment equals
// ext (for example "json"). Returned paths are root-joined. Within a
// directory, files are listed before the contents of its subdirectories;
// callers must not depend on the order for anything but display.
//
// Any directory that cannot be read aborts the scan with a *DiscoveryError;
// no partial result is returned. Symbolic links are not followed into
// directories.
func Scan(root, ext string) ([]string, error) {
	files, err := scanDir(root, ext, nil)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}
	return files, nil
}

// scanDir appends the matching files of dir and its subdirectories to acc.
func scanDir(dir, ext string, acc []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, filepath.Join(dir, entry.Name()))
			continue
		}
		if lastSegment(entry.Name()) == ext {
			acc = append(acc, filepath.Join(dir, entry.Name()))
		}
	}

	for _, sub := range subdirs {
		if acc, err = scanDir(sub, ext, acc); err != nil {
			return nil, err
		}
	}

	return acc, nil
}
