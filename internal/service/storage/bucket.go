package storage

import "sync"

// bucket is a lock-guarded map with a dirty set. MemoryStorage is one
// bucket, ShardedMemoryStorage spreads keys over many.
type bucket[K comparable, V comparable] struct {
	mu    sync.RWMutex
	data  map[K]V
	dirty map[K]struct{}
}

func newBucket[K comparable, V comparable]() *bucket[K, V] {
	return &bucket[K, V]{
		data:  make(map[K]V),
		dirty: make(map[K]struct{}),
	}
}

func (b *bucket[K, V]) put(key K, value V, dirty bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[key] = value
	if dirty {
		b.dirty[key] = struct{}{}
	}
}

func (b *bucket[K, V]) get(key K) (V, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	value, ok := b.data[key]
	return value, ok
}

func (b *bucket[K, V]) remove(key K) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.data[key]; !ok {
		return false
	}
	delete(b.data, key)
	delete(b.dirty, key)
	return true
}

func (b *bucket[K, V]) appendValues(dst []V) []V {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, v := range b.data {
		dst = append(dst, v)
	}
	return dst
}

// collectDirty copies dirty entries into dst. Flags stay set.
func (b *bucket[K, V]) collectDirty(dst map[K]V) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for k := range b.dirty {
		if v, ok := b.data[k]; ok {
			dst[k] = v
		}
	}
}

// clearDirty drops the flag of each key still holding the saved value.
// A key replaced after it was collected stays dirty.
func (b *bucket[K, V]) clearDirty(saved map[K]V) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for k, v := range saved {
		if cur, ok := b.data[k]; ok && cur == v {
			delete(b.dirty, k)
		}
	}
}

// snapshot copies the entries so callbacks run without the lock held.
func (b *bucket[K, V]) snapshot() map[K]V {
	b.mu.RLock()
	defer b.mu.RUnlock()

	items := make(map[K]V, len(b.data))
	for k, v := range b.data {
		items[k] = v
	}
	return items
}

func (b *bucket[K, V]) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}
