// SPDX-License-Identifier: MPL-2.0

// Package serverbase provides the lifecycle state machine shared by
// long-running components such as the dev server.
//
// A Base moves through created, starting, running, stopping and stopped (or
// failed). State reads are lock-free; transitions use compare-and-swap.
// Goroutines started through Base.Go are tracked so Stop can wait for them.
package serverbase
