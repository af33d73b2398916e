// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dvcol/i18nbundle/internal/issue"
	"github.com/dvcol/i18nbundle/pkg/locale"
	"github.com/dvcol/i18nbundle/pkg/outpath"
)

// ServiceError carries an issue catalog id so the CLI layer can print help
// after the error. Always create via newServiceError.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID selects the help page; zero means none.
	IssueID issue.Id
}

// newServiceError panics on a nil err.
func newServiceError(err error, issueID issue.Id) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{Err: err, IssueID: issueID}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyLoadError maps a translation or config failure to its help page.
func classifyLoadError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, locale.ErrDiscovery):
		return newServiceError(err, issue.TranslationsNotFoundId)
	case errors.Is(err, locale.ErrParse):
		return newServiceError(err, issue.TranslationParseErrorId)
	case errors.Is(err, outpath.ErrInvalidOptions):
		return newServiceError(err, issue.InvalidOutOptionsId)
	default:
		return err
	}
}

// renderServiceError prints the issue help for svcErr, if any.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, style string) {
	if svcErr == nil || svcErr.IssueID == 0 {
		return
	}
	entry := issue.Get(svcErr.IssueID)
	if entry == nil {
		return
	}
	rendered, err := entry.Render(style)
	if err != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", err)
		return
	}
	fmt.Fprint(stderr, rendered)
}
