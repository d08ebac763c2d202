package tinystore

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

type countingExtension struct {
	BaseExtension
}

func (e *countingExtension) Wrap(ctx context.Context, next func() error, op *Operation) error {
	return next()
}

// buildChain derives depth stores, each adding one to the previous
func buildChain(b *testing.B, r *Registry, depth int) (*Store[int], *Store[int]) {
	b.Helper()
	root, err := GetOrCreate(r, Params[int]{ID: "root", Default: Immediate(0)})
	if err != nil {
		b.Fatalf("creating root: %v", err)
	}

	var prev Source[int] = root
	var last *Store[int]
	for i := 0; i < depth; i++ {
		last, err = Derive1(r, prev, func(n int) Resolvable[int] {
			return Immediate(n + 1)
		}, WithDeriveID(fmt.Sprintf("level_%d", i))).Load()
		if err != nil {
			b.Fatalf("loading level %d: %v", i, err)
		}
		prev = last
	}
	return root, last
}

// BenchmarkStoreWrite measures a literal write with one listener
func BenchmarkStoreWrite(b *testing.B) {
	r := NewRegistry(WithRevalidateInterval(-1))
	defer r.Dispose()

	s, err := GetOrCreate(r, Params[int]{ID: "counter"})
	if err != nil {
		b.Fatal(err)
	}
	s.Subscribe(func(int, Status) {})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		s.Set(i)
	}
}

// BenchmarkDispatch measures a reducer round trip through the action table
func BenchmarkDispatch(b *testing.B) {
	r := NewRegistry(WithRevalidateInterval(-1))
	defer r.Dispose()

	s, err := GetOrCreate(r, Params[int]{ID: "counter", Default: Immediate(0)})
	if err != nil {
		b.Fatal(err)
	}
	s.Use(Reducers[int]{"increment": Reduce(func(n int) int { return n + 1 })})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := s.Dispatch("increment"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkExtensionChain measures write overhead with ten middleware layers
func BenchmarkExtensionChain(b *testing.B) {
	r := NewRegistry(WithRevalidateInterval(-1))
	defer r.Dispose()

	for i := 0; i < 10; i++ {
		if err := r.UseExtension(&countingExtension{BaseExtension: NewBaseExtension(fmt.Sprintf("ext-%d", i))}); err != nil {
			b.Fatal(err)
		}
	}

	s, err := GetOrCreate(r, Params[int]{ID: "counter"})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		s.Set(i)
	}
}

// BenchmarkDependentPropagation measures a write flowing through a chain of
// derived stores
func BenchmarkDependentPropagation(b *testing.B) {
	for _, depth := range []int{1, 10, 50} {
		b.Run(fmt.Sprintf("depth=%d", depth), func(b *testing.B) {
			r := NewRegistry(WithRevalidateInterval(-1))
			defer r.Dispose()

			root, last := buildChain(b, r, depth)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				root.Set(i)
			}

			b.StopTimer()
			if v, _ := last.Peek(); v != b.N-1+depth {
				b.Fatalf("expected %d at the end of the chain, got %d", b.N-1+depth, v)
			}
		})
	}
}

// BenchmarkConcurrentGetOrCreate measures registry lookups under contention
func BenchmarkConcurrentGetOrCreate(b *testing.B) {
	r := NewRegistry(WithRevalidateInterval(-1))
	defer r.Dispose()

	ids := make([]string, 64)
	for i := range ids {
		ids[i] = fmt.Sprintf("store_%d", i)
	}

	b.ResetTimer()
	b.ReportAllocs()

	var wg sync.WaitGroup
	workers := 8
	per := b.N/workers + 1
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < per; i++ {
				if _, err := GetOrCreate(r, Params[int]{ID: ids[(w+i)%len(ids)]}); err != nil {
					b.Error(err)
					return
				}
			}
		}(w)
	}
	wg.Wait()
}
