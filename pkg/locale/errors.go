// SPDX-License-Identifier: MPL-2.0

package locale

import (
	"errors"
	"fmt"
)

var (
	// ErrDiscovery is the sentinel error wrapped by DiscoveryError.
	ErrDiscovery = errors.New("translation discovery failed")
	// ErrParse is the sentinel error wrapped by ParseError.
	ErrParse = errors.New("translation file parse failed")
)

type (
	// DiscoveryError is returned when the translation root (or one of its
	// subdirectories) cannot be listed. The whole scan is aborted.
	DiscoveryError struct {
		// Root is the directory that was being scanned.
		Root string
		// Err is the underlying filesystem error.
		Err error
	}

	// ParseError is returned when a translation file matching the filename
	// grammar cannot be read or does not contain valid JSON. The whole
	// aggregation is aborted.
	ParseError struct {
		// Path is the offending file.
		Path string
		// Err is the underlying read or decode error.
		Err error
	}
)

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("scan translations in %s: %v", e.Root, e.Err)
}

// Unwrap exposes both ErrDiscovery and the underlying cause to errors.Is/As.
func (e *DiscoveryError) Unwrap() []error {
	return []error{ErrDiscovery, e.Err}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse translation file %s: %v", e.Path, e.Err)
}

// Unwrap exposes both ErrParse and the underlying cause to errors.Is/As.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}
