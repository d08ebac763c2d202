package tinystore

import (
	"sort"
	"sync"
)

// table is a string-keyed map guarded by a RWMutex.
// The registry uses it for the id → store index.
type table[V any] struct {
	mu   sync.RWMutex
	data map[string]V
}

func newTable[V any](initialCapacity int) *table[V] {
	return &table[V]{
		data: make(map[string]V, initialCapacity),
	}
}

func (t *table[V]) Load(key string) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	value, ok := t.data[key]
	return value, ok
}

// LoadOrCreate returns the value under key, or stores the result of create.
// create runs under the write lock and is called at most once per miss.
func (t *table[V]) LoadOrCreate(key string, create func() (V, error)) (V, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if value, ok := t.data[key]; ok {
		return value, true, nil
	}
	value, err := create()
	if err != nil {
		return value, false, err
	}
	t.data[key] = value
	return value, false, nil
}

// CompareAndDelete removes key only if match reports true for its value
func (t *table[V]) CompareAndDelete(key string, match func(V) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	value, ok := t.data[key]
	if !ok || !match(value) {
		return false
	}
	delete(t.data, key)
	return true
}

func (t *table[V]) Keys() []string {
	t.mu.RLock()
	keys := make([]string, 0, len(t.data))
	for k := range t.data {
		keys = append(keys, k)
	}
	t.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

func (t *table[V]) Values() []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	values := make([]V, 0, len(t.data))
	for _, v := range t.data {
		values = append(values, v)
	}
	return values
}

func (t *table[V]) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data)
}

func (t *table[V]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.data {
		delete(t.data, k)
	}
}
