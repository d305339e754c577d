package storage

// MemoryStorage keeps every object in a single locked map.
type MemoryStorage[K comparable, V comparable] struct {
	b *bucket[K, V]
}

// NewMemoryStorage creates an empty storage
func NewMemoryStorage[K comparable, V comparable]() *MemoryStorage[K, V] {
	return &MemoryStorage[K, V]{b: newBucket[K, V]()}
}

// Set stores value and marks key dirty
func (s *MemoryStorage[K, V]) Set(key K, value V) { s.b.put(key, value, true) }

// Load stores an already persisted value
func (s *MemoryStorage[K, V]) Load(key K, value V) { s.b.put(key, value, false) }

func (s *MemoryStorage[K, V]) Get(key K) (V, bool) { return s.b.get(key) }

func (s *MemoryStorage[K, V]) Delete(key K) bool { return s.b.remove(key) }

func (s *MemoryStorage[K, V]) GetAllValues() []V {
	return s.b.appendValues(make([]V, 0, s.b.len()))
}

// GetDirty returns modified objects without clearing their flags
func (s *MemoryStorage[K, V]) GetDirty() map[K]V {
	dirty := make(map[K]V)
	s.b.collectDirty(dirty)
	return dirty
}

// ClearDirty clears the flags of keys whose stored value is still the saved one
func (s *MemoryStorage[K, V]) ClearDirty(saved map[K]V) { s.b.clearDirty(saved) }

// ForEach calls fn for every object until fn returns false
func (s *MemoryStorage[K, V]) ForEach(fn func(key K, value V) bool) {
	for k, v := range s.b.snapshot() {
		if !fn(k, v) {
			return
		}
	}
}

func (s *MemoryStorage[K, V]) Count() int { return s.b.len() }
