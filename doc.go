// Package tinystore provides reactive value cells ("stores") with lazy
// defaults, async resolution, named reducers and derived stores.
//
// # Overview
//
// tinystore organizes state around four concepts:
//
//  1. Stores: cells holding one cached value with a resolution status
//  2. Resolvables: values that may be immediate, deferred or asynchronous
//  3. Registries: id-keyed owners of stores, extensions and the dependency graph
//  4. Lazy stores: descriptors materialized into a registry on Load
//
// # Basic Usage
//
//	r := tinystore.NewRegistry()
//	defer r.Dispose()
//
//	counter := tinystore.Create(r, tinystore.Params[int]{
//	    ID:      "counter",
//	    Default: tinystore.Immediate(0),
//	}).Use(tinystore.Reducers[int]{
//	    "increment": tinystore.Reduce(func(n int) int { return n + 1 }),
//	})
//
//	s := counter.MustLoad()
//	_ = s.Dispatch("increment")
//	v, _ := s.Peek() // 1
//
// # Reading
//
// Poll never blocks. It reports a pending resolution first, then a sticky
// error, then the cached value; with none of those it resolves the default.
// Value turns a pending result into a *PendingError carrying the handle to
// wait on, and Get waits for it:
//
//	v, err := s.Get(ctx)
//
// # Async Values
//
// Async and GoAsync wrap a Future. Writing one puts the store in pending
// state until it settles. When several async writes overlap, each one still
// writes its outcome as it settles, so the last to settle wins:
//
//	s.Write(tinystore.GoAsync(func() (int, error) {
//	    return fetchCount(ctx)
//	}))
//
// # Derived Stores
//
// Dependent and the typed DeriveN helpers build stores whose value is
// computed from upstream stores. The loader re-runs whenever an upstream
// changes; while any upstream is pending the derived store is pending too:
//
//	total := tinystore.Derive2(r, price, quantity,
//	    func(p float64, q int) tinystore.Resolvable[float64] {
//	        return tinystore.Immediate(p * float64(q))
//	    })
//
// # Revalidation
//
// Every store runs a revalidation tick (DefaultRevalidateInterval unless
// configured). A tick tears down a store nobody listens to and lets a
// dynamic default be re-snapshotted on its next reset.
//
// # Extensions
//
// Extensions wrap create, write, reset, action and teardown operations in
// middleware order and observe resolution and cleanup failures:
//
//	type Timing struct{ tinystore.BaseExtension }
//
//	func (t *Timing) Wrap(ctx context.Context, next func() error, op *tinystore.Operation) error {
//	    start := time.Now()
//	    err := next()
//	    log.Printf("%s %s took %v", op.Kind, op.StoreID, time.Since(start))
//	    return err
//	}
//
// See the extensions package for logrus-based logging and graph debugging.
package tinystore
