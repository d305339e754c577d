package storage

// Storage defines interface for any object storage.
// Set marks the key dirty until ClearDirty is called with the value that was
// saved; Load stores an object that is already persisted.
type Storage[K comparable, V comparable] interface {
	Set(key K, value V)
	Load(key K, value V)
	Get(key K) (V, bool)
	Delete(key K) bool
	GetAllValues() []V
	GetDirty() map[K]V
	ClearDirty(saved map[K]V)
	ForEach(fn func(key K, value V) bool)
	Count() int
}
