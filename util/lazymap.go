package util

import "sync"

// LazyMap is a typed sync.Map whose values can be created on first use.
// Concurrent callers of LoadOrLazyStore for the same key share one
// initialize call.
type LazyMap[K, V any] struct {
	m sync.Map
}

type wrapper[T any] struct {
	value      T
	initialize func() T
	once       sync.Once
}

func (w *wrapper[V]) get() V {
	if w.initialize != nil {
		w.once.Do(func() {
			w.value = w.initialize()
			w.initialize = nil
		})
	}
	return w.value
}

func (m *LazyMap[K, V]) Load(key K) (V, bool) {
	actual, loaded := m.m.Load(key)
	if !loaded {
		var zero V
		return zero, false
	}
	return actual.(*wrapper[V]).get(), true
}

func (m *LazyMap[K, V]) Store(key K, value V) {
	m.m.Store(key, &wrapper[V]{value: value})
}

func (m *LazyMap[K, V]) Delete(key K) {
	m.m.Delete(key)
}

func (m *LazyMap[K, V]) Range(f func(key K, value V) bool) {
	m.m.Range(func(key, value any) bool {
		return f(key.(K), value.(*wrapper[V]).get())
	})
}

func (m *LazyMap[K, V]) LoadOrStore(key K, value V) (V, bool) {
	actual, loaded := m.m.LoadOrStore(key, &wrapper[V]{value: value})
	return actual.(*wrapper[V]).get(), loaded
}

func (m *LazyMap[K, V]) LoadOrLazyStore(key K, initialize func() V) (V, bool) {
	actual, loaded := m.m.Load(key)
	if loaded {
		return actual.(*wrapper[V]).get(), true
	}
	actual, loaded = m.m.LoadOrStore(key, &wrapper[V]{initialize: initialize})
	return actual.(*wrapper[V]).get(), loaded
}
