package tinystore

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// Handle is a waitable signal that settles exactly once.
//
// A store exposes its in-flight resolution as a Handle so readers can wait for
// it and retry. Err reports the failure, if any, once Done is closed.
type Handle struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Done returns a channel closed when the handle settles
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the settlement error. It is nil before the handle settles.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Settled reports whether the handle has settled
func (h *Handle) Settled() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the handle settles or ctx is done
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) settle(err error) bool {
	settled := false
	h.once.Do(func() {
		h.err = err
		close(h.done)
		settled = true
	})
	return settled
}

// joinHandles returns a handle that settles once every input has settled,
// with the joined errors of the inputs that failed.
func joinHandles(handles ...*Handle) *Handle {
	joined := newHandle()
	go func() {
		var errs []error
		for _, h := range handles {
			<-h.Done()
			if err := h.Err(); err != nil {
				errs = append(errs, err)
			}
		}
		joined.settle(errors.Join(errs...))
	}()
	return joined
}

// Future is an asynchronous computation producing a T.
type Future[T any] struct {
	handle *Handle
	mu     sync.Mutex
	value  T
}

// NewFuture creates an unsettled future, settled later with Resolve or Reject
func NewFuture[T any]() *Future[T] {
	return &Future[T]{handle: newHandle()}
}

// Resolved returns a future already fulfilled with v
func Resolved[T any](v T) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(v)
	return f
}

// Rejected returns a future already rejected with err
func Rejected[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Reject(err)
	return f
}

// Go runs fn on a new goroutine and returns its future.
// A panic inside fn rejects the future instead of crashing the process.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := NewFuture[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Reject(fmt.Errorf("panic in async computation: %v\n%s", r, debug.Stack()))
			}
		}()
		v, err := fn()
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}

// Resolve fulfils the future. It returns false if the future already settled.
func (f *Future[T]) Resolve(v T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handle.Settled() {
		return false
	}
	f.value = v
	return f.handle.settle(nil)
}

// Reject fails the future. It returns false if the future already settled.
func (f *Future[T]) Reject(err error) bool {
	if err == nil {
		err = fmt.Errorf("future rejected with nil error")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handle.settle(err)
}

// Done returns a channel closed when the future settles
func (f *Future[T]) Done() <-chan struct{} {
	return f.handle.Done()
}

// Handle exposes the future as a plain waitable handle
func (f *Future[T]) Handle() *Handle {
	return f.handle
}

// Await blocks until the future settles or ctx is done
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if err := f.handle.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, nil
}
