package qparse

import "sync"

// lazyCache memoizes values built from a comparable key. The factory runs
// at most once per key even under concurrent access. Failed builds are not
// kept, so a later call retries them.
type lazyCache[K comparable, V any] struct {
	cache sync.Map // map[K]*lazyEntry[V]
}

// lazyEntry holds one built value and the error of building it.
type lazyEntry[V any] struct {
	once  sync.Once
	value V
	err   error
}

// GetOrCreate returns the value cached for key, building it with factory
// the first time.
func (lc *lazyCache[K, V]) GetOrCreate(key K, factory func() (V, error)) (V, error) {
	// Try to load existing entry
	v, ok := lc.cache.Load(key)
	if !ok {
		// LoadOrStore returns the actual stored value
		v, _ = lc.cache.LoadOrStore(key, &lazyEntry[V]{})
	}
	entry := v.(*lazyEntry[V])

	entry.once.Do(func() {
		entry.value, entry.err = factory()
	})

	if entry.err != nil {
		lc.cache.CompareAndDelete(key, entry)
	}
	return entry.value, entry.err
}

// Clear removes all entries.
func (lc *lazyCache[K, V]) Clear() {
	lc.cache.Range(func(key, _ any) bool {
		lc.cache.Delete(key)
		return true
	})
}
