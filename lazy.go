package tinystore

import "sync"

// LazyStore describes a store that is materialized on Load.
// Reducers attached before Load are bound to every store it loads.
type LazyStore[T any] struct {
	registry    *Registry
	params      Params[T]
	materialize func(Params[T]) (*Store[T], error)

	mu       sync.Mutex
	reducers Reducers[T]
}

// Create returns a lazy descriptor for a store built from p.
// An empty p.ID is replaced by a generated one so every Load of the
// descriptor reaches the same store.
func Create[T any](r *Registry, p Params[T]) *LazyStore[T] {
	if p.ID == "" {
		p.ID = GenerateID("store")
	}
	return &LazyStore[T]{
		registry: r,
		params:   p,
		materialize: func(p Params[T]) (*Store[T], error) {
			return GetOrCreate(r, p)
		},
		reducers: make(Reducers[T]),
	}
}

// ID returns the base id of the descriptor
func (l *LazyStore[T]) ID() string {
	return l.params.ID
}

// Use records reducers for binding on Load. Later entries replace earlier
// ones with the same name.
func (l *LazyStore[T]) Use(reducers Reducers[T]) *LazyStore[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, reducer := range reducers {
		l.reducers[name] = reducer
	}
	return l
}

// Load materializes the store, or returns the one already registered under
// its id, and binds the recorded reducers.
//
// With an override, the store id becomes JoinIDs(base id, override id) and
// zero-valued override fields fall back to the base parameters.
func (l *LazyStore[T]) Load(overrides ...Params[T]) (*Store[T], error) {
	p := l.params
	if len(overrides) > 0 {
		p = overrideParams(l.params, overrides[0])
	}

	s, err := l.materialize(p)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	reducers := make(Reducers[T], len(l.reducers))
	for name, reducer := range l.reducers {
		reducers[name] = reducer
	}
	l.mu.Unlock()

	if len(reducers) > 0 {
		s.Use(reducers)
	}
	if s.derivation != nil {
		s.load()
	}
	return s, nil
}

// MustLoad is Load that panics on error
func (l *LazyStore[T]) MustLoad(overrides ...Params[T]) *Store[T] {
	s, err := l.Load(overrides...)
	if err != nil {
		panic(err)
	}
	return s
}

func (l *LazyStore[T]) upstream() (AnyStore, error) {
	return l.Load()
}

func (l *LazyStore[T]) source() (*Store[T], error) {
	return l.Load()
}

func overrideParams[T any](base, override Params[T]) Params[T] {
	out := override
	if override.ID != "" {
		out.ID = JoinIDs(base.ID, override.ID)
	} else {
		out.ID = base.ID
	}
	if out.Default == nil {
		out.Default = base.Default
	}
	if out.RevalidateInterval == 0 {
		out.RevalidateInterval = base.RevalidateInterval
	}
	if out.OnCreate == nil {
		out.OnCreate = base.OnCreate
	}
	if out.OnCleanup == nil {
		out.OnCleanup = base.OnCleanup
	}
	if out.Clone == nil {
		out.Clone = base.Clone
	}
	return out
}
