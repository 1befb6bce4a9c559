// Package tasks bridges background work to a poll-driven caller.
//
// A Handle is a completion cell filled once by the goroutine doing the work.
// The caller never waits on it: it polls through a Slot, which keeps a
// not-ready handle in place and hands out a ready result exactly once.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

type Handle[T any] struct {
	done     chan struct{}
	once     sync.Once
	value    T
	err      error
	cancel   context.CancelFunc
	canceled atomic.Bool
}

// Go runs fn in a new goroutine and returns its handle. Panics in fn resolve
// the handle with an error.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Handle[T] {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer cancel()
		var (
			value T
			err   error
		)
		func() {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("task panic: %v", p)
				}
			}()
			value, err = fn(ctx)
		}()
		h.resolve(value, err)
	}()
	return h
}

// NewPromise returns an unresolved handle and the function that resolves it.
// Later calls to resolve are ignored.
func NewPromise[T any]() (*Handle[T], func(T, error)) {
	h := &Handle[T]{
		done:   make(chan struct{}),
		cancel: func() {},
	}
	return h, h.resolve
}

// Resolved returns an already completed handle.
func Resolved[T any](value T, err error) *Handle[T] {
	h, resolve := NewPromise[T]()
	resolve(value, err)
	return h
}

func (h *Handle[T]) resolve(value T, err error) {
	h.once.Do(func() {
		h.value = value
		h.err = err
		close(h.done)
	})
}

// Ready reports whether the result is available. It never blocks.
func (h *Handle[T]) Ready() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done is closed when the result is available.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Cancel asks the background work to stop. It is advisory: the handle still
// resolves, possibly with a successful value.
func (h *Handle[T]) Cancel() {
	h.canceled.Store(true)
	h.cancel()
}

// Canceled reports whether Cancel has been called.
func (h *Handle[T]) Canceled() bool {
	return h.canceled.Load()
}

// Wait blocks until the handle resolves or ctx is done. It is for callers
// outside the poll loop, such as tests and one-shot commands.
func (h *Handle[T]) Wait(ctx context.Context) (ret T, err error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		return ret, ctx.Err()
	}
}
