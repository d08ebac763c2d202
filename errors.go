package tinystore

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	ErrResolveDepth     = errors.New("deferred value nested too deeply")
	ErrNilResolvable    = errors.New("nil resolvable")
	ErrTypeMismatch     = errors.New("store registered with a different value type")
	ErrUnknownAction    = errors.New("unknown action")
	ErrRegistryDisposed = errors.New("registry is disposed")
)

// ResolveError is the sticky failure of a store's most recent resolution
type ResolveError struct {
	StoreID    string
	Cause      error
	Context    string
	StackTrace []byte
}

func (e *ResolveError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("resolve error in store %s during %s: %v", e.StoreID, e.Context, e.Cause)
	}
	return fmt.Sprintf("resolve error in store %s: %v", e.StoreID, e.Cause)
}

func (e *ResolveError) Unwrap() error {
	return e.Cause
}

func CreateResolveError(storeID string, cause error, context string) *ResolveError {
	return &ResolveError{
		StoreID:    storeID,
		Cause:      cause,
		Context:    context,
		StackTrace: debug.Stack(),
	}
}

// PendingError signals that a store value is not ready yet.
// It is not a failure: wait on Handle and read again.
type PendingError struct {
	StoreID string
	Handle  *Handle
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("store %s: value pending", e.StoreID)
}

// IsPending reports whether err is a suspension signal and returns its handle
func IsPending(err error) (*Handle, bool) {
	var pe *PendingError
	if errors.As(err, &pe) {
		return pe.Handle, true
	}
	return nil, false
}

// SafeTypeAssertion performs safe type assertion with proper error
func SafeTypeAssertion[T any](value any) (T, error) {
	if value == nil {
		var zero T
		return zero, nil
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("type assertion error: expected %T, got %T (value: %v)", zero, value, value)
	}

	return typed, nil
}
