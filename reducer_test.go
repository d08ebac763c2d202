package tinystore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUse_BindsActions(t *testing.T) {
	r := newTestRegistry(t)
	s := mustStore(t, r, Params[int]{ID: "counter", Default: Immediate(5)})

	s.Use(Reducers[int]{
		"increment": Reduce(func(n int) int { return n + 1 }),
		"add":       ReduceWith(func(n, by int) int { return n + by }),
	})

	assert.Equal(t, []string{"add", "increment"}, s.Actions())

	require.NoError(t, s.Dispatch("increment"))
	v, _ := s.Peek()
	assert.Equal(t, 6, v, "the default is resolved before the first reducer runs")

	add, ok := s.Action("add")
	require.True(t, ok)
	require.NoError(t, add(10))
	v, _ = s.Peek()
	assert.Equal(t, 16, v)
}

func TestUse_ReservedNamesIgnored(t *testing.T) {
	r := newTestRegistry(t)
	s := mustStore(t, r, Params[int]{ID: "guarded"})

	s.Use(Reducers[int]{
		"reset":  Reduce(func(int) int { return -1 }),
		"Write":  Reduce(func(int) int { return -1 }),
		"STATUS": Reduce(func(int) int { return -1 }),
		"double": Reduce(func(n int) int { return n * 2 }),
	})

	assert.Equal(t, []string{"double"}, s.Actions())

	err := s.Dispatch("reset")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestUse_FirstBindingWins(t *testing.T) {
	r := newTestRegistry(t)
	s := mustStore(t, r, Params[int]{ID: "first-wins", Default: Immediate(0)})

	s.Use(Reducers[int]{"bump": Reduce(func(n int) int { return n + 1 })})
	s.Use(Reducers[int]{
		"bump":  Reduce(func(n int) int { return n + 100 }),
		"reset": nil,
		"clear": Reduce(func(int) int { return 0 }),
	})

	assert.Equal(t, []string{"bump", "clear"}, s.Actions())

	require.NoError(t, s.Dispatch("bump"))
	v, _ := s.Peek()
	assert.Equal(t, 1, v)
}

func TestDispatch_UnknownAction(t *testing.T) {
	r := newTestRegistry(t)
	s := mustStore(t, r, Params[int]{ID: "bare"})

	err := s.Dispatch("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestReduceWith_BadArguments(t *testing.T) {
	r := newTestRegistry(t)
	s := mustStore(t, r, Params[int]{ID: "typed", Default: Immediate(1)})
	s.Use(Reducers[int]{"add": ReduceWith(func(n, by int) int { return n + by })})

	require.NoError(t, s.Dispatch("add"))
	assert.Equal(t, StatusError, s.Status())
	assert.Contains(t, s.Err().Error(), "expects an argument")

	require.NoError(t, s.Dispatch("add", "two"))
	assert.Contains(t, s.Err().Error(), "type assertion error")

	require.NoError(t, s.Dispatch("add", 2))
	assert.NoError(t, s.Err())
	v, _ := s.Peek()
	assert.Equal(t, 3, v)
}

func TestReduceAsync(t *testing.T) {
	r := newTestRegistry(t)
	s := mustStore(t, r, Params[string]{ID: "async", Default: Immediate("a")})
	release := make(chan struct{})

	s.Use(Reducers[string]{
		"append": ReduceAsync(func(prev string) (string, error) {
			<-release
			return prev + "b", nil
		}),
		"fail": ReduceAsync(func(prev string) (string, error) {
			return "", errors.New("nope")
		}),
	})

	require.NoError(t, s.Dispatch("append"))
	assert.Equal(t, StatusPending, s.Status())

	close(release)
	v, err := s.Get(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, "ab", v)

	require.NoError(t, s.Dispatch("fail"))
	_, err = s.Get(testContext(t))
	assert.EqualError(t, errors.Unwrap(err), "nope")
}

func TestReducerArgumentsPassThrough(t *testing.T) {
	r := newTestRegistry(t)
	s := mustStore(t, r, Params[[]any]{ID: "args"})

	s.Use(Reducers[[]any]{
		"record": func(prev []any, args ...any) Resolvable[[]any] {
			return Immediate(append(prev, args...))
		},
	})

	require.NoError(t, s.Dispatch("record", 1, "two"))
	require.NoError(t, s.Dispatch("record", 3.0))

	v, _ := s.Peek()
	assert.Equal(t, []any{1, "two", 3.0}, v)
}
