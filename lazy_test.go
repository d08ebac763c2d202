package tinystore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyStore_LoadIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	lazy := Create(r, Params[int]{Default: Immediate(3)})

	assert.True(t, strings.HasPrefix(lazy.ID(), "store_"))
	assert.Zero(t, r.Len(), "nothing is registered before Load")

	a, err := lazy.Load()
	require.NoError(t, err)
	b := lazy.MustLoad()

	assert.Same(t, a, b)
	assert.Equal(t, lazy.ID(), a.ID())
	assert.Equal(t, StatusIdle, a.Status(), "a plain store resolves on first read")
}

func TestLazyStore_ReducersBoundOnLoad(t *testing.T) {
	r := newTestRegistry(t)
	lazy := Create(r, Params[int]{ID: "counter", Default: Immediate(0)}).
		Use(Reducers[int]{"increment": Reduce(func(n int) int { return n + 1 })}).
		Use(Reducers[int]{"decrement": Reduce(func(n int) int { return n - 1 })})

	s := lazy.MustLoad()
	assert.Equal(t, []string{"decrement", "increment"}, s.Actions())

	lazy.Use(Reducers[int]{
		"increment": Reduce(func(n int) int { return n + 10 }),
		"double":    Reduce(func(n int) int { return n * 2 }),
	})
	s = lazy.MustLoad()
	assert.Equal(t, []string{"decrement", "increment", "double"}, s.Actions())

	require.NoError(t, s.Dispatch("increment"))
	v, _ := s.Peek()
	assert.Equal(t, 1, v, "the store keeps its first binding")
}

func TestLazyStore_Overrides(t *testing.T) {
	r := newTestRegistry(t)
	cart := Create(r, Params[[]string]{ID: "cart", Default: Immediate([]string{"welcome-gift"})}).
		Use(Reducers[[]string]{
			"add": ReduceWith(func(items []string, item string) []string { return append(items, item) }),
		})

	alice := cart.MustLoad(Params[[]string]{ID: "alice"})
	bob := cart.MustLoad(Params[[]string]{ID: "bob", Default: Immediate([]string{})})
	base := cart.MustLoad(Params[[]string]{})

	assert.Equal(t, "cart_alice", alice.ID())
	assert.Equal(t, "cart_bob", bob.ID())
	assert.Equal(t, "cart", base.ID())
	assert.Same(t, alice, cart.MustLoad(Params[[]string]{ID: "alice"}))

	require.NoError(t, alice.Dispatch("add", "book"))
	require.NoError(t, bob.Dispatch("add", "pen"))

	av, _ := alice.Peek()
	bv, _ := bob.Peek()
	assert.Equal(t, []string{"welcome-gift", "book"}, av)
	assert.Equal(t, []string{"pen"}, bv)
}

func TestLazyStore_MustLoadPanicsOnMismatch(t *testing.T) {
	r := newTestRegistry(t)
	mustStore(t, r, Params[string]{ID: "clash"})

	lazy := Create(r, Params[int]{ID: "clash"})
	_, err := lazy.Load()
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Panics(t, func() { lazy.MustLoad() })
}

func TestOverrideParams(t *testing.T) {
	onCreate := func(*Store[int]) {}
	base := Params[int]{ID: "base", Default: Immediate(1), RevalidateInterval: 5, OnCreate: onCreate}

	out := overrideParams(base, Params[int]{ID: "x", RevalidateInterval: -1})
	assert.Equal(t, "base_x", out.ID)
	assert.Equal(t, base.Default, out.Default)
	assert.EqualValues(t, -1, out.RevalidateInterval)
	assert.NotNil(t, out.OnCreate)
	assert.Nil(t, out.OnCleanup)
}
