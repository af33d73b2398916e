// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"
)

type (
	// Base is embedded by servers. An instance is single-use: once stopped
	// or failed, create a new one.
	Base struct {
		state atomic.Int32

		mu      sync.Mutex
		lastErr error

		ctx     context.Context
		cancel  context.CancelFunc
		wg      conc.WaitGroup
		started chan struct{}
		errCh   chan error
	}

	// Option configures a Base.
	Option func(*Base)
)

// WithErrorBuffer sets the capacity of the asynchronous error channel.
// The default is 1.
func WithErrorBuffer(size int) Option {
	return func(b *Base) {
		b.errCh = make(chan error, max(size, 0))
	}
}

// NewBase returns a Base in StateCreated.
func NewBase(opts ...Option) *Base {
	b := &Base{
		started: make(chan struct{}),
		errCh:   make(chan error, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current state.
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning reports whether the state is StateRunning.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err delivers asynchronous failures. Sends never block; extra errors are
// dropped when the buffer is full.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError returns the cause of StateFailed, or nil.
func (b *Base) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Context is cancelled when the server stops or fails. It is nil before
// BeginStart succeeds.
func (b *Base) Context() context.Context {
	return b.ctx
}

// Ready is closed when the server reaches StateRunning.
func (b *Base) Ready() <-chan struct{} {
	return b.started
}

// BeginStart moves Created to Starting. It fails when ctx is already done or
// the server was started before.
func (b *Base) BeginStart(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		b.Fail(fmt.Errorf("context cancelled before start: %w", err))
		return b.LastError()
	}
	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", b.State())
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())
	return nil
}

// MarkRunning moves Starting to Running and releases WaitReady callers.
func (b *Base) MarkRunning() {
	if b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(b.started)
	}
}

// Fail records err, moves to StateFailed, cancels Context and reports err on
// Err.
func (b *Base) Fail(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()

	b.state.Store(int32(StateFailed))
	if b.cancel != nil {
		b.cancel()
	}
	b.SendError(err)
}

// BeginStop moves Starting or Running to Stopping and cancels Context. It
// returns false when there is nothing to stop; a server that was never
// started goes straight to StateStopped.
func (b *Base) BeginStop() bool {
	for {
		current := b.State()
		switch current {
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if b.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				if b.cancel != nil {
					b.cancel()
				}
				return true
			}
		default:
			return false
		}
	}
}

// MarkStopped moves to the terminal StateStopped. Call it after Wait.
func (b *Base) MarkStopped() {
	b.state.Store(int32(StateStopped))
}

// WaitReady blocks until the server is running or ctx ends.
func (b *Base) WaitReady(ctx context.Context) error {
	select {
	case <-b.started:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for server ready: %w", ctx.Err())
	}
}

// Go runs fn on a tracked goroutine. A panic in fn is re-raised by Wait.
func (b *Base) Go(fn func()) {
	b.wg.Go(fn)
}

// Wait blocks until every goroutine started with Go has returned.
func (b *Base) Wait() {
	b.wg.Wait()
}

// SendError reports err on Err without blocking.
func (b *Base) SendError(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}
