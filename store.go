package tinystore

import (
	"context"
	"sync"
	"time"

	"github.com/mitchellh/copystructure"
)

// Listener is called with the store's value and status after every transition
type Listener[T any] func(value T, status Status)

// Subscription identifies a listener registered with Subscribe.
// The zero value never identifies a listener.
type Subscription uint64

// Params configures a store
type Params[T any] struct {
	// ID is the registry identity. Empty ids are replaced by a generated one.
	ID string

	// Default is resolved on first read and by Reset. Nil means no default.
	Default Resolvable[T]

	// RevalidateInterval is the period of the revalidation tick.
	// Zero does not disable revalidation: it uses the registry default
	// (WithRevalidateInterval, five minutes unless configured). Pass a
	// negative value to disable revalidation for this store.
	RevalidateInterval time.Duration

	OnCreate  func(*Store[T])
	OnCleanup func(*Store[T])

	// Clone deep-copies values for the reset snapshot.
	// When nil, values are copied with copystructure.
	Clone func(T) T
}

// AnyStore is the type-erased view of a store used by the registry and by
// dependent stores.
type AnyStore interface {
	ID() string
	Status() Status
	Listeners() int
	Err() error
	Unsubscribe(sub Subscription)
	Reset()

	anyValue() (any, uint64)
	pendingHandle() *Handle
	load()
	subscribeAny(fn func()) Subscription
	teardown(cleanupContext string)
}

type listenerEntry[T any] struct {
	id Subscription
	fn Listener[T]
}

// Store is a reactive cell holding one cached value.
//
// All methods are safe for concurrent use. Listeners run outside the store's
// lock, in subscription order.
type Store[T any] struct {
	id       string
	registry *Registry
	params   Params[T]

	mu          sync.Mutex
	status      Status
	value       T
	hasValue    bool
	snapshot    T
	hasSnapshot bool
	pending     *Handle
	lastErr     error
	listeners   []listenerEntry[T]
	nextSub     Subscription
	actions     map[string]Action
	actionOrder []string
	cleanups    []cleanupEntry
	version     uint64
	loaded      bool
	torn        bool

	revalidator *revalidator
	derivation  *derivation[T]
}

func newStore[T any](r *Registry, p Params[T]) *Store[T] {
	s := &Store[T]{
		id:       p.ID,
		registry: r,
		params:   p,
		status:   StatusIdle,
		actions:  make(map[string]Action),
	}

	interval := p.RevalidateInterval
	if interval == 0 {
		interval = r.revalidateInterval
	}
	if interval > 0 {
		s.revalidator = newRevalidator(interval, s.invalidate)
	}

	return s
}

// ID returns the registry identity of the store
func (s *Store[T]) ID() string {
	return s.id
}

// Status returns the current resolution status
func (s *Store[T]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the sticky resolution error, if any
func (s *Store[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Peek returns the cached value without triggering resolution
func (s *Store[T]) Peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.hasValue
}

// Poll reads the store.
//
// A pending resolution is reported before a sticky error, which is reported
// before the cached value. Without any of those the configured default is
// resolved; a store without a default reports Empty.
func (s *Store[T]) Poll() Result[T] {
	if s.derivation != nil {
		s.load()
	}

	if res, ok := s.current(); ok {
		return res
	}

	s.resolve(s.params.Default, true)

	res, _ := s.current()
	return res
}

// current reports the store state; ok is false when the default still
// needs resolving.
func (s *Store[T]) current() (Result[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.pending != nil:
		return Result[T]{State: Pending, Value: s.value, Handle: s.pending}, true
	case s.lastErr != nil:
		return Result[T]{State: Failed, Value: s.value, Err: s.lastErr}, true
	case s.hasValue:
		return Result[T]{State: Ready, Value: s.value}, true
	case s.params.Default == nil:
		return Result[T]{State: Empty}, true
	}
	return Result[T]{}, false
}

// Value reads the store, turning a pending resolution into a *PendingError
// and a failure into its *ResolveError.
func (s *Store[T]) Value() (T, error) {
	res := s.Poll()
	switch res.State {
	case Pending:
		var zero T
		return zero, &PendingError{StoreID: s.id, Handle: res.Handle}
	case Failed:
		return res.Value, res.Err
	default:
		return res.Value, nil
	}
}

// Get reads the store, waiting for pending resolutions to settle
func (s *Store[T]) Get(ctx context.Context) (T, error) {
	for {
		res := s.Poll()
		switch res.State {
		case Pending:
			select {
			case <-res.Handle.Done():
			case <-ctx.Done():
				var zero T
				return zero, ctx.Err()
			}
		case Failed:
			return res.Value, res.Err
		default:
			return res.Value, nil
		}
	}
}

// Write resolves r into the store and restarts the revalidation timer.
// Resolution failures are recorded on the store, never returned.
func (s *Store[T]) Write(r Resolvable[T]) {
	_ = s.registry.wrap(&Operation{Kind: OpWrite, StoreID: s.id, Store: s}, func() error {
		s.resolve(r, false)
		s.restartRevalidation()
		return nil
	})
}

// Set writes a literal value
func (s *Store[T]) Set(v T) {
	s.Write(Immediate(v))
}

// Subscribe registers a listener and returns its token
func (s *Store[T]) Subscribe(listener Listener[T]) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	sub := s.nextSub
	s.listeners = append(s.listeners, listenerEntry[T]{id: sub, fn: listener})
	return sub
}

// Unsubscribe removes a listener. Unknown tokens are ignored.
func (s *Store[T]) Unsubscribe(sub Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.listeners {
		if l.id == sub {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Listeners returns the number of registered listeners
func (s *Store[T]) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Reset restores the default value.
//
// A dynamic default (Deferred or Func) is re-resolved on every reset. A static
// default restores a deep copy of the snapshot taken at its first resolution,
// resolving the default first if no snapshot exists. A dependent store re-runs
// its loader.
func (s *Store[T]) Reset() {
	_ = s.registry.wrap(&Operation{Kind: OpReset, StoreID: s.id, Store: s}, func() error {
		s.mu.Lock()
		def := s.params.Default
		snapshot, hasSnapshot := s.snapshot, s.hasSnapshot
		s.mu.Unlock()

		switch {
		case def != nil && (IsDynamic(def) || !hasSnapshot):
			s.resolve(def, true)
		case hasSnapshot:
			s.resolve(Immediate(s.clone(snapshot)), false)
			s.restartRevalidation()
		case s.derivation != nil:
			s.derivation.invalidate()
			s.derivation.recompute()
		}
		return nil
	})
}

// resolve drives the status transitions for r. asDefault marks the result as
// a default candidate for the reset snapshot.
func (s *Store[T]) resolve(r Resolvable[T], asDefault bool) {
	switch r := unwrap(r).(type) {
	case immediate[T]:
		s.mu.Lock()
		s.lastErr = nil
		s.value = r.value
		s.hasValue = true
		if asDefault {
			s.captureSnapshotLocked(r.value)
		}
		// a synchronous write supersedes any outstanding async resolution
		s.pending = nil
		s.status = StatusSuccess
		s.version++
		n := s.notificationLocked()
		s.mu.Unlock()
		n.deliver()

	case failure[T]:
		s.fail(CreateResolveError(s.id, r.err, "resolve"))

	case async[T]:
		h := newHandle()
		s.mu.Lock()
		s.pending = h
		s.status = StatusPending
		s.version++
		n := s.notificationLocked()
		s.mu.Unlock()
		n.deliver()
		go s.await(r.future, h, asDefault)
	}
}

// fail records err as the sticky error, keeping the cached value
func (s *Store[T]) fail(err *ResolveError) {
	s.mu.Lock()
	s.lastErr = err
	s.pending = nil
	s.status = StatusError
	s.version++
	n := s.notificationLocked()
	s.mu.Unlock()
	n.deliver()
	s.registry.reportError(s, err)
}

// await settles an async resolution. A superseded computation still writes
// its outcome when it settles: the last one to settle wins, not the last one
// issued. While a newer computation is outstanding the status stays pending.
func (s *Store[T]) await(f *Future[T], h *Handle, asDefault bool) {
	v, err := f.Await(context.Background())

	var resolveErr *ResolveError
	s.mu.Lock()
	if err != nil {
		resolveErr = CreateResolveError(s.id, err, "resolve")
		s.lastErr = resolveErr
	} else {
		s.lastErr = nil
		s.value = v
		s.hasValue = true
		if asDefault {
			s.captureSnapshotLocked(v)
		}
	}
	if s.pending == h {
		s.pending = nil
	}
	if s.pending == nil {
		if err != nil {
			s.status = StatusError
		} else {
			s.status = StatusSuccess
		}
	}
	s.version++
	n := s.notificationLocked()
	s.mu.Unlock()

	n.deliver()
	if resolveErr != nil {
		s.registry.reportError(s, resolveErr)
	}
	if s.derivation != nil {
		s.derivation.settled()
	}
	h.settle(err)
}

// settledStatusLocked is the status implied by the cached state alone
func (s *Store[T]) settledStatusLocked() Status {
	switch {
	case s.lastErr != nil:
		return StatusError
	case s.hasValue:
		return StatusSuccess
	default:
		return StatusIdle
	}
}

// captureSnapshotLocked records v as the reset snapshot. A static default is
// captured once; a dynamic default is recaptured on every default resolution.
func (s *Store[T]) captureSnapshotLocked(v T) {
	if s.hasSnapshot && !IsDynamic(s.params.Default) {
		return
	}
	s.snapshot = s.clone(v)
	s.hasSnapshot = true
}

func (s *Store[T]) clone(v T) T {
	if s.params.Clone != nil {
		return s.params.Clone(v)
	}
	copied, err := copystructure.Copy(v)
	if err != nil {
		s.registry.logger.WithError(err).WithField("store", s.id).Debug("snapshot copy failed, keeping shared value")
		return v
	}
	if copied == nil {
		var zero T
		return zero
	}
	typed, ok := copied.(T)
	if !ok {
		return v
	}
	return typed
}

type notification[T any] struct {
	value     T
	status    Status
	listeners []listenerEntry[T]
}

func (s *Store[T]) notificationLocked() notification[T] {
	listeners := make([]listenerEntry[T], len(s.listeners))
	copy(listeners, s.listeners)
	return notification[T]{value: s.value, status: s.status, listeners: listeners}
}

func (n notification[T]) deliver() {
	for _, l := range n.listeners {
		l.fn(n.value, n.status)
	}
}

func (s *Store[T]) publish() {
	s.mu.Lock()
	n := s.notificationLocked()
	s.mu.Unlock()
	n.deliver()
}

// load resolves the default once, or for a dependent store loads every
// upstream and derives the value once.
func (s *Store[T]) load() {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return
	}
	s.loaded = true
	needsDefault := !s.hasValue && s.pending == nil && s.lastErr == nil && s.params.Default != nil
	s.mu.Unlock()

	if s.derivation != nil {
		s.derivation.load()
		return
	}
	if needsDefault {
		s.resolve(s.params.Default, true)
	}
}

// invalidate is the revalidation tick
func (s *Store[T]) invalidate() {
	s.mu.Lock()
	idle := len(s.listeners) == 0
	if !idle && s.params.Default != nil && IsDynamic(s.params.Default) {
		var zero T
		s.snapshot = zero
		s.hasSnapshot = false
	}
	s.mu.Unlock()

	if idle {
		s.teardown("teardown")
	}
}

func (s *Store[T]) teardown(cleanupContext string) {
	s.mu.Lock()
	if s.torn {
		s.mu.Unlock()
		return
	}
	s.torn = true
	s.mu.Unlock()

	s.stopRevalidation()

	r := s.registry
	_ = r.wrap(&Operation{Kind: OpTeardown, StoreID: s.id, Store: s}, func() error {
		if s.params.OnCleanup != nil {
			s.params.OnCleanup(s)
		}
		r.runCleanups(s.takeCleanups(), s.id, cleanupContext)
		if s.derivation != nil {
			s.derivation.detach()
		}
		r.forget(s)

		s.mu.Lock()
		var zero T
		s.value, s.hasValue = zero, false
		s.snapshot, s.hasSnapshot = zero, false
		s.lastErr = nil
		if s.pending == nil {
			s.status = StatusIdle
		}
		s.loaded = false
		s.mu.Unlock()

		r.logger.WithField("store", s.id).WithField("context", cleanupContext).Debug("store torn down")
		return nil
	})
}

func (s *Store[T]) startRevalidation() {
	if s.revalidator != nil {
		s.revalidator.start()
	}
}

func (s *Store[T]) restartRevalidation() {
	if s.revalidator != nil {
		s.revalidator.restart()
	}
}

func (s *Store[T]) stopRevalidation() {
	if s.revalidator != nil {
		s.revalidator.stop()
	}
}

func (s *Store[T]) anyValue() (any, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.version
}

func (s *Store[T]) pendingHandle() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Store[T]) subscribeAny(fn func()) Subscription {
	return s.Subscribe(func(T, Status) { fn() })
}

func (s *Store[T]) upstream() (AnyStore, error) {
	return s, nil
}

func (s *Store[T]) source() (*Store[T], error) {
	return s, nil
}
