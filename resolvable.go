package tinystore

// maxDeferredDepth bounds how many Deferred layers the resolver unwraps
// before giving up with ErrResolveDepth.
const maxDeferredDepth = 16

// Resolvable is a value, a factory producing one, an asynchronous
// computation, or a failure. Build one with Immediate, Deferred, Func, Async
// or Fail.
type Resolvable[T any] interface {
	resolvable() T
}

type immediate[T any] struct {
	value T
}

type deferred[T any] struct {
	fn func() Resolvable[T]
}

type async[T any] struct {
	future *Future[T]
}

type failure[T any] struct {
	err error
}

func (immediate[T]) resolvable() (zero T) { return }
func (deferred[T]) resolvable() (zero T)  { return }
func (async[T]) resolvable() (zero T)     { return }
func (failure[T]) resolvable() (zero T)   { return }

// Immediate wraps a literal value
func Immediate[T any](v T) Resolvable[T] {
	return immediate[T]{value: v}
}

// Deferred wraps a factory that is invoked each time the resolvable is resolved
func Deferred[T any](fn func() Resolvable[T]) Resolvable[T] {
	return deferred[T]{fn: fn}
}

// Func wraps a factory returning a literal value
func Func[T any](fn func() T) Resolvable[T] {
	return deferred[T]{fn: func() Resolvable[T] {
		return Immediate(fn())
	}}
}

// Async wraps an asynchronous computation
func Async[T any](f *Future[T]) Resolvable[T] {
	return async[T]{future: f}
}

// GoAsync starts fn on a goroutine and wraps its future
func GoAsync[T any](fn func() (T, error)) Resolvable[T] {
	return Async(Go(fn))
}

// Fail wraps a synchronous failure
func Fail[T any](err error) Resolvable[T] {
	return failure[T]{err: err}
}

// IsDynamic reports whether r is a factory re-evaluated on every resolution.
// Stores with a dynamic default drop their snapshot on revalidation and
// re-run the factory on Reset.
func IsDynamic[T any](r Resolvable[T]) bool {
	_, ok := r.(deferred[T])
	return ok
}

// unwrap flattens Deferred layers iteratively, returning a non-deferred
// resolvable or a failure when the chain is nil or too deep.
func unwrap[T any](r Resolvable[T]) Resolvable[T] {
	for depth := 0; ; depth++ {
		if r == nil {
			return Fail[T](ErrNilResolvable)
		}
		d, ok := r.(deferred[T])
		if !ok {
			return r
		}
		if depth >= maxDeferredDepth {
			return Fail[T](ErrResolveDepth)
		}
		if d.fn == nil {
			return Fail[T](ErrNilResolvable)
		}
		r = d.fn()
	}
}
