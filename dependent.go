package tinystore

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Loader derives a value from upstream values, given in upstream order
type Loader[T any] func(values []any) Resolvable[T]

// Upstream is a store, or a lazy store, a dependent store can derive from
type Upstream interface {
	upstream() (AnyStore, error)
}

// Source is an Upstream with a known value type
type Source[T any] interface {
	Upstream
	source() (*Store[T], error)
}

// DeriveOption is a modifier for dependent stores
type DeriveOption func(*deriveConfig)

type deriveConfig struct {
	id       string
	interval time.Duration
}

// WithDeriveID sets the registry id of a dependent store
func WithDeriveID(id string) DeriveOption {
	return func(c *deriveConfig) {
		c.id = id
	}
}

// WithDeriveRevalidate sets the revalidation period of a dependent store
func WithDeriveRevalidate(d time.Duration) DeriveOption {
	return func(c *deriveConfig) {
		c.interval = d
	}
}

// Dependent returns a lazy store whose value is loader applied to the values
// of upstreams. The loader re-runs whenever an upstream changes or finishes
// resolving.
func Dependent[T any](r *Registry, upstreams []Upstream, loader Loader[T], opts ...DeriveOption) *LazyStore[T] {
	cfg := deriveConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = GenerateID("derived")
	}

	ups := slices.Clone(upstreams)
	return &LazyStore[T]{
		registry: r,
		params:   Params[T]{ID: cfg.id, RevalidateInterval: cfg.interval},
		reducers: make(Reducers[T]),
		materialize: func(p Params[T]) (*Store[T], error) {
			resolved := make([]AnyStore, len(ups))
			for i, u := range ups {
				up, err := u.upstream()
				if err != nil {
					return nil, fmt.Errorf("loading upstream %d of %s: %w", i, p.ID, err)
				}
				resolved[i] = up
			}
			return getOrCreate(r, p, func(p Params[T]) *Store[T] {
				s := newStore(r, p)
				s.derivation = &derivation[T]{
					store:     s,
					upstreams: resolved,
					loader:    loader,
				}
				return s
			})
		},
	}
}

// derivation drives a dependent store. Recomputes are serialized: a request
// arriving while one runs is folded into a single follow-up run.
type derivation[T any] struct {
	store     *Store[T]
	upstreams []AnyStore
	loader    Loader[T]

	mu       sync.Mutex
	subs     []Subscription
	attached bool
	loaded   bool
	running  bool
	rerun    bool
	chained  bool
	waiting  *Handle
	seen     []uint64
}

func (d *derivation[T]) attach() {
	d.mu.Lock()
	if d.attached {
		d.mu.Unlock()
		return
	}
	d.attached = true
	d.mu.Unlock()

	subs := make([]Subscription, len(d.upstreams))
	for i, up := range d.upstreams {
		subs[i] = up.subscribeAny(d.recompute)
		d.store.registry.graph.AddDependency(d.store.id, up.ID())
	}

	d.mu.Lock()
	d.subs = subs
	d.mu.Unlock()
}

func (d *derivation[T]) detach() {
	d.mu.Lock()
	subs := d.subs
	d.subs = nil
	d.attached = false
	d.loaded = false
	d.seen = nil
	d.mu.Unlock()

	for i, sub := range subs {
		d.upstreams[i].Unsubscribe(sub)
		d.store.registry.graph.RemoveDependency(d.store.id, d.upstreams[i].ID())
	}
}

// load loads every upstream once, then derives once
func (d *derivation[T]) load() {
	d.mu.Lock()
	if d.loaded {
		d.mu.Unlock()
		return
	}
	d.loaded = true
	d.mu.Unlock()

	d.attach()

	// upstream defaults resolving here notify us; fold those into one run
	d.mu.Lock()
	held := !d.running
	d.running = true
	d.mu.Unlock()

	for _, up := range d.upstreams {
		up.load()
	}

	if held {
		d.mu.Lock()
		d.running = false
		d.rerun = false
		d.mu.Unlock()
	}
	d.recompute()
}

// invalidate forgets the upstream versions of the last derivation so the next
// recompute runs the loader unconditionally
func (d *derivation[T]) invalidate() {
	d.mu.Lock()
	d.seen = nil
	d.mu.Unlock()
}

func (d *derivation[T]) recompute() {
	d.mu.Lock()
	if d.running {
		d.rerun = true
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	for {
		d.step()

		d.mu.Lock()
		if !d.rerun {
			d.running = false
			d.mu.Unlock()
			return
		}
		d.rerun = false
		d.mu.Unlock()
	}
}

func (d *derivation[T]) step() {
	s := d.store

	// the owner of our own async resolution recomputes once it settles
	d.mu.Lock()
	if h := s.pendingHandle(); h != nil && h != d.waiting {
		d.chained = true
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	var waits []*Handle
	for _, up := range d.upstreams {
		if h := up.pendingHandle(); h != nil {
			waits = append(waits, h)
		}
	}
	if len(waits) > 0 {
		d.waitFor(waits)
		return
	}

	values := make([]any, len(d.upstreams))
	versions := make([]uint64, len(d.upstreams))
	var upErr error
	for i, up := range d.upstreams {
		values[i], versions[i] = up.anyValue()
		if upErr == nil {
			upErr = up.Err()
		}
	}

	d.mu.Lock()
	if d.seen != nil && slices.Equal(d.seen, versions) {
		d.mu.Unlock()
		return
	}
	d.seen = versions
	d.mu.Unlock()

	// a failed upstream fails the derivation; the loader waits for recovery
	if upErr != nil {
		s.fail(CreateResolveError(s.id, upErr, "upstream"))
		s.restartRevalidation()
		return
	}

	s.resolve(d.loader(values), false)
	s.restartRevalidation()
}

// waitFor installs one pending handle covering every pending upstream and
// recomputes once all of them have settled. The handle stays in place until
// the recompute replaces it, so readers never see a stale value as settled.
func (d *derivation[T]) waitFor(waits []*Handle) {
	s := d.store
	own := newHandle()

	d.mu.Lock()
	d.waiting = own
	d.mu.Unlock()

	s.mu.Lock()
	s.pending = own
	s.status = StatusPending
	s.version++
	n := s.notificationLocked()
	s.mu.Unlock()

	n.deliver()

	// upstream errors are read back from the upstreams themselves: a rejected
	// handle may already be superseded by a newer resolution
	all := joinHandles(waits...)
	go func() {
		<-all.Done()

		d.mu.Lock()
		d.chained = false
		d.mu.Unlock()

		d.recompute()

		// nothing changed upstream: drop the handle and restore the status
		s.mu.Lock()
		stale := s.pending == own
		if stale {
			s.pending = nil
			s.status = s.settledStatusLocked()
			s.version++
		}
		s.mu.Unlock()

		d.mu.Lock()
		if d.waiting == own {
			d.waiting = nil
		}
		d.mu.Unlock()

		if stale {
			s.publish()
		}
		own.settle(nil)
	}()
}

// settled is called after the store's own async resolution settles
func (d *derivation[T]) settled() {
	d.mu.Lock()
	chained := d.chained
	d.chained = false
	d.mu.Unlock()

	if chained {
		d.recompute()
	}
}
