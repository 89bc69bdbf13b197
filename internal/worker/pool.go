// Package worker provides a small bounded pool for CPU-heavy blocking work
// (payload parsing, file spooling) so request goroutines and scheduler
// goroutines cannot fan out without limit. Panics inside a job are captured
// and surfaced as a *JoinError instead of tearing the process down.
package worker

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/tbourn/go-index-backend/internal/errcode"
)

// JoinError reports that a pooled job panicked. Value holds the recovered
// panic value and Stack the goroutine stack captured at recovery time.
type JoinError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *JoinError) Error() string {
	return fmt.Sprintf("worker job panicked: %v", e.Value)
}

// ErrorCode implements errcode.Coder. A panicked job is always an internal
// fault, never the client's.
func (e *JoinError) ErrorCode() errcode.Code { return errcode.Internal }

// Pool bounds the number of concurrently running jobs.
type Pool struct {
	sem chan struct{}
}

// NewPool returns a pool that runs at most size jobs at once. Sizes below 1
// are raised to 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Handle tracks one submitted job until it finishes.
type Handle struct {
	done chan struct{}
	err  error
}

// Go submits fn to the pool, blocking until a slot is free, and returns a
// Handle the caller joins on. fn's error (or a *JoinError if it panicked) is
// delivered through Join.
func (p *Pool) Go(fn func() error) *Handle {
	h := &Handle{done: make(chan struct{})}
	p.sem <- struct{}{}
	go func() {
		defer func() {
			if v := recover(); v != nil {
				h.err = &JoinError{Value: v, Stack: debug.Stack()}
			}
			<-p.sem
			close(h.done)
		}()
		h.err = fn()
	}()
	return h
}

// Join blocks until the job finishes or ctx is done, whichever comes first.
// On cancellation the job keeps running; only the wait is abandoned.
func (h *Handle) Join(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
