// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"errors"
	"fmt"
)

const (
	// StateCreated: Start has not been called.
	StateCreated State = iota
	// StateStarting: Start is initializing listeners.
	StateStarting
	// StateRunning: serving requests.
	StateRunning
	// StateStopping: graceful shutdown in progress.
	StateStopping
	// StateStopped is terminal.
	StateStopped
	// StateFailed is terminal; LastError holds the cause.
	StateFailed
)

// ErrInvalidState is wrapped by InvalidStateError.
var ErrInvalidState = errors.New("invalid state")

var stateNames = [...]string{
	StateCreated:  "created",
	StateStarting: "starting",
	StateRunning:  "running",
	StateStopping: "stopping",
	StateStopped:  "stopped",
	StateFailed:   "failed",
}

type (
	// State is a lifecycle state.
	State int32

	// InvalidStateError reports a State outside the defined range.
	InvalidStateError struct {
		Value State
	}
)

func (s State) String() string {
	if s.Validate() != nil {
		return "unknown"
	}
	return stateNames[s]
}

// Validate returns an *InvalidStateError for undefined values.
func (s State) Validate() error {
	if s < StateCreated || s > StateFailed {
		return &InvalidStateError{Value: s}
	}
	return nil
}

// IsTerminal reports whether s is StateStopped or StateFailed.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state %d", e.Value)
}

// Unwrap returns ErrInvalidState.
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}
