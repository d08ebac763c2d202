package tinystore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	tb := newTable[int](4)

	v, found, err := tb.LoadOrCreate("a", func() (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, v)

	v, found, err = tb.LoadOrCreate("a", func() (int, error) {
		t.Fatal("create must not run on a hit")
		return 0, nil
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, v)

	_, _, err = tb.LoadOrCreate("b", func() (int, error) { return 0, errors.New("nope") })
	assert.Error(t, err)
	_, ok := tb.Load("b")
	assert.False(t, ok, "failed creations are not stored")

	_, _, _ = tb.LoadOrCreate("c", func() (int, error) { return 3, nil })
	assert.Equal(t, []string{"a", "c"}, tb.Keys())
	assert.ElementsMatch(t, []int{1, 3}, tb.Values())

	assert.False(t, tb.CompareAndDelete("a", func(v int) bool { return v == 2 }))
	assert.True(t, tb.CompareAndDelete("a", func(v int) bool { return v == 1 }))
	assert.Equal(t, 1, tb.Size())

	tb.Clear()
	assert.Zero(t, tb.Size())
}
