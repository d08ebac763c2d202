package tinystore

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevalidator_Ticks(t *testing.T) {
	var ticks atomic.Int32
	rv := newRevalidator(10*time.Millisecond, func() { ticks.Add(1) })

	rv.restart()
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, ticks.Load(), "restart does not start a stopped revalidator")

	rv.start()
	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, 5*time.Millisecond)

	rv.stop()
	time.Sleep(5 * time.Millisecond)
	n := ticks.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, n, ticks.Load())
}

func TestRevalidator_RestartPostponesTick(t *testing.T) {
	var ticks atomic.Int32
	rv := newRevalidator(100*time.Millisecond, func() { ticks.Add(1) })
	rv.start()
	defer rv.stop()

	for i := 0; i < 15; i++ {
		time.Sleep(10 * time.Millisecond)
		rv.restart()
	}
	assert.Zero(t, ticks.Load())
}

func TestRevalidation_TearsDownIdleStore(t *testing.T) {
	r := NewRegistry(WithRevalidateInterval(20 * time.Millisecond))
	defer r.Dispose()

	var cleaned atomic.Bool
	s, err := GetOrCreate(r, Params[int]{ID: "idle", Default: Immediate(1)})
	require.NoError(t, err)
	s.OnCleanup(func() error { cleaned.Store(true); return nil })

	_, err = s.Value()
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := r.Lookup("idle")
		return cleaned.Load() && !ok
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return s.Status() == StatusIdle }, time.Second, 5*time.Millisecond)

	fresh, err := GetOrCreate(r, Params[int]{ID: "idle", Default: Immediate(2)})
	require.NoError(t, err)
	assert.NotSame(t, s, fresh)
	v, _ := fresh.Value()
	assert.Equal(t, 2, v)
}

func TestRevalidation_TeardownWaitsForTick(t *testing.T) {
	r := NewRegistry(WithRevalidateInterval(200 * time.Millisecond))
	defer r.Dispose()

	var cleaned atomic.Bool
	s, err := GetOrCreate(r, Params[int]{ID: "released", Default: Immediate(1)})
	require.NoError(t, err)
	s.OnCleanup(func() error { cleaned.Store(true); return nil })

	sub := s.Subscribe(func(int, Status) {})
	s.Set(2)
	s.Unsubscribe(sub)
	require.Zero(t, s.Listeners())

	_, ok := r.Lookup("released")
	assert.True(t, ok, "the last unsubscribe does not tear the store down")
	assert.False(t, cleaned.Load())
	v, _ := s.Peek()
	assert.Equal(t, 2, v)

	assert.Eventually(t, func() bool {
		_, ok := r.Lookup("released")
		return cleaned.Load() && !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRevalidation_KeepsListenedStore(t *testing.T) {
	r := NewRegistry(WithRevalidateInterval(10 * time.Millisecond))
	defer r.Dispose()

	s, err := GetOrCreate(r, Params[int]{ID: "watched", Default: Immediate(1)})
	require.NoError(t, err)
	s.Subscribe(func(int, Status) {})

	time.Sleep(60 * time.Millisecond)
	_, ok := r.Lookup("watched")
	assert.True(t, ok)
}

func TestRevalidation_DisabledPerStore(t *testing.T) {
	r := NewRegistry(WithRevalidateInterval(10 * time.Millisecond))
	defer r.Dispose()

	_, err := GetOrCreate(r, Params[int]{ID: "pinned", RevalidateInterval: -1})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, ok := r.Lookup("pinned")
	assert.True(t, ok)
}

func TestRevalidation_DropsDynamicSnapshot(t *testing.T) {
	r := NewRegistry(WithRevalidateInterval(-1))
	defer r.Dispose()

	var calls atomic.Int32
	s, err := GetOrCreate(r, Params[int32]{
		ID:                 "clock",
		Default:            Func(func() int32 { return calls.Add(1) }),
		RevalidateInterval: 15 * time.Millisecond,
	})
	require.NoError(t, err)
	s.Subscribe(func(int32, Status) {})

	_, err = s.Value()
	require.NoError(t, err)

	hasSnapshot := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.hasSnapshot
	}
	require.True(t, hasSnapshot())

	assert.Eventually(t, func() bool { return !hasSnapshot() }, time.Second, 5*time.Millisecond)

	s.Reset()
	v, _ := s.Peek()
	assert.Greater(t, v, int32(1))
}
