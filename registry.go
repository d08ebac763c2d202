package tinystore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Registry maps store ids to stores and owns their shared lifecycle
// concerns: extensions, logging, the dependency graph and disposal.
//
// A registry replaces process-wide state. Stores created through one registry
// are invisible to another; Dispose tears all of them down.
type Registry struct {
	mu                 sync.RWMutex
	stores             *table[AnyStore]
	graph              *ReactiveGraph
	extensions         []Extension
	logger             *logrus.Entry
	revalidateInterval time.Duration
	disposed           atomic.Bool
}

// RegistryOption is a modifier for registries
type RegistryOption func(*Registry)

// WithLogger sets the logger used for lifecycle and policy messages
func WithLogger(logger *logrus.Entry) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithRevalidateInterval sets the default revalidation period, used by stores
// whose Params.RevalidateInterval is zero. A non-positive interval disables
// revalidation for those stores.
func WithRevalidateInterval(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.revalidateInterval = d
	}
}

// WithExtension returns an option that registers an extension to a registry
func WithExtension(ext Extension) RegistryOption {
	return func(r *Registry) {
		if err := r.UseExtension(ext); err != nil {
			panic(err)
		}
	}
}

// NewRegistry creates a new registry with optional configuration
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		stores:             newTable[AnyStore](16),
		graph:              NewReactiveGraph(),
		extensions:         []Extension{},
		logger:             logrus.NewEntry(logrus.StandardLogger()).WithField("component", "tinystore"),
		revalidateInterval: DefaultRevalidateInterval,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// GetOrCreate returns the store registered under p.ID, creating it from p if
// absent. An existing store is returned unchanged; p is then ignored.
func GetOrCreate[T any](r *Registry, p Params[T]) (*Store[T], error) {
	if p.ID == "" {
		p.ID = GenerateID("store")
	}
	return getOrCreate(r, p, func(p Params[T]) *Store[T] {
		return newStore(r, p)
	})
}

func getOrCreate[T any](r *Registry, p Params[T], construct func(Params[T]) *Store[T]) (*Store[T], error) {
	if r.disposed.Load() {
		return nil, ErrRegistryDisposed
	}

	existing, found, err := r.stores.LoadOrCreate(p.ID, func() (AnyStore, error) {
		return construct(p), nil
	})
	if err != nil {
		return nil, err
	}

	s, ok := existing.(*Store[T])
	if !ok {
		return nil, fmt.Errorf("%w: id %q holds %T", ErrTypeMismatch, p.ID, existing)
	}

	if found {
		r.logger.WithField("store", p.ID).Debug("store id already registered, reusing existing store")
		return s, nil
	}

	_ = r.wrap(&Operation{Kind: OpCreate, StoreID: s.id, Store: s}, func() error {
		if s.derivation != nil {
			s.derivation.attach()
		}
		s.startRevalidation()
		if p.OnCreate != nil {
			p.OnCreate(s)
		}
		return nil
	})

	return s, nil
}

// Lookup returns the store registered under id
func (r *Registry) Lookup(id string) (AnyStore, bool) {
	return r.stores.Load(id)
}

// Len returns the number of registered stores
func (r *Registry) Len() int {
	return r.stores.Size()
}

// IDs returns the registered store ids in lexical order
func (r *Registry) IDs() []string {
	return r.stores.Keys()
}

// Dependents returns every store deriving from id, directly or transitively
func (r *Registry) Dependents(id string) []string {
	deps := r.graph.FindDependents(id)
	sort.Strings(deps)
	return deps
}

// DirectDependents returns the stores deriving directly from id
func (r *Registry) DirectDependents(id string) []string {
	return r.graph.GetDirectDependents(id)
}

// Upstreams returns the stores a dependent store derives from, in order
func (r *Registry) Upstreams(id string) []string {
	return r.graph.GetUpstreams(id)
}

// ExportDependencyGraph returns the upstream -> dependents adjacency list
func (r *Registry) ExportDependencyGraph() map[string][]string {
	return r.graph.Export()
}

// Logger returns the registry logger
func (r *Registry) Logger() *logrus.Entry {
	return r.logger
}

// UseExtension registers an extension to the registry
func (r *Registry) UseExtension(ext Extension) error {
	r.mu.Lock()
	r.extensions = append(r.extensions, ext)
	sort.SliceStable(r.extensions, func(i, j int) bool {
		return r.extensions[i].Order() < r.extensions[j].Order()
	})
	r.mu.Unlock()

	return ext.Init(r)
}

func (r *Registry) extensionsSnapshot() []Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]Extension, len(r.extensions))
	copy(exts, r.extensions)
	return exts
}

// wrap runs fn through the extension chain (middleware pattern)
func (r *Registry) wrap(op *Operation, fn func() error) error {
	exts := r.extensionsSnapshot()

	next := fn
	// Apply extensions in reverse order (last registered wraps first)
	for i := len(exts) - 1; i >= 0; i-- {
		ext := exts[i]
		currentNext := next
		next = func() error {
			return ext.Wrap(context.Background(), currentNext, op)
		}
	}

	err := next()
	if err != nil {
		r.logger.WithError(err).
			WithField("store", op.StoreID).
			WithField("op", string(op.Kind)).
			Warn("store operation failed")
	}
	return err
}

func (r *Registry) reportError(s AnyStore, err error) {
	op := &Operation{Kind: OpResolve, StoreID: s.ID(), Store: s}
	for _, ext := range r.extensionsSnapshot() {
		ext.OnError(err, op, r)
	}
	r.logger.WithError(err).WithField("store", s.ID()).Debug("store resolution failed")
}

// forget drops the registry entry of s if it still points at s
func (r *Registry) forget(s AnyStore) {
	r.stores.CompareAndDelete(s.ID(), func(v AnyStore) bool {
		return v == s
	})
}

// Dispose tears down every store and disposes the extensions.
// Stores cannot be created through a disposed registry.
func (r *Registry) Dispose() error {
	if !r.disposed.CompareAndSwap(false, true) {
		return nil
	}

	for _, s := range r.stores.Values() {
		s.teardown("dispose")
	}
	r.stores.Clear()

	for _, ext := range r.extensionsSnapshot() {
		if err := ext.Dispose(r); err != nil {
			return fmt.Errorf("disposing extension %s: %w", ext.Name(), err)
		}
	}

	return nil
}

// JoinIDs builds a composite store id
func JoinIDs(ids ...string) string {
	return strings.Join(ids, "_")
}

// GenerateID returns a unique id with the given prefix
func GenerateID(prefix string) string {
	return JoinIDs(prefix, uuid.NewString())
}
