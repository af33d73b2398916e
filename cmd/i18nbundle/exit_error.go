// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
)

// ExitError carries a process exit status out of a RunE handler. Execute
// exits with Code; handlers never call os.Exit themselves.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error { return e.Err }

// exitCode returns 0 for nil, the Code of an *ExitError anywhere in the
// chain, and 1 for any other error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
