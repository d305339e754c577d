package storage

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ShardedMemoryStorage spreads keys over a power-of-two number of buckets
// so writers to different tiles rarely contend.
type ShardedMemoryStorage[K comparable, V comparable] struct {
	shards     []*bucket[K, V]
	shardCount int
	keyToShard func(K) int
}

// NewShardedMemoryStorage creates a storage with at least shardCount shards.
// keyToShard may be nil; string keys are then spread with xxhash.
func NewShardedMemoryStorage[K comparable, V comparable](shardCount int, keyToShard func(K) int) *ShardedMemoryStorage[K, V] {
	n := 1
	for n < shardCount {
		n <<= 1
	}
	mask := n - 1

	shards := make([]*bucket[K, V], n)
	for i := range shards {
		shards[i] = newBucket[K, V]()
	}

	if keyToShard == nil {
		keyToShard = func(key K) int {
			switch k := any(key).(type) {
			case string:
				return int(xxhash.Sum64String(k) & uint64(mask))
			case int:
				return k & mask
			case int64:
				return int(k) & mask
			case uint64:
				return int(k & uint64(mask))
			default:
				return int(xxhash.Sum64String(fmt.Sprint(key)) & uint64(mask))
			}
		}
	}

	return &ShardedMemoryStorage[K, V]{
		shards:     shards,
		shardCount: n,
		keyToShard: keyToShard,
	}
}

func (s *ShardedMemoryStorage[K, V]) shard(key K) *bucket[K, V] {
	return s.shards[s.keyToShard(key)]
}

// Set stores value and marks key dirty
func (s *ShardedMemoryStorage[K, V]) Set(key K, value V) { s.shard(key).put(key, value, true) }

// Load stores an already persisted value
func (s *ShardedMemoryStorage[K, V]) Load(key K, value V) { s.shard(key).put(key, value, false) }

func (s *ShardedMemoryStorage[K, V]) Get(key K) (V, bool) { return s.shard(key).get(key) }

func (s *ShardedMemoryStorage[K, V]) Delete(key K) bool { return s.shard(key).remove(key) }

func (s *ShardedMemoryStorage[K, V]) GetAllValues() []V {
	values := make([]V, 0, s.Count())
	for _, b := range s.shards {
		values = b.appendValues(values)
	}
	return values
}

// GetDirty returns modified objects of every shard without clearing flags
func (s *ShardedMemoryStorage[K, V]) GetDirty() map[K]V {
	dirty := make(map[K]V)
	for _, b := range s.shards {
		b.collectDirty(dirty)
	}
	return dirty
}

// ClearDirty clears flags of keys still holding the saved value, grouped per shard
func (s *ShardedMemoryStorage[K, V]) ClearDirty(saved map[K]V) {
	perShard := make(map[int]map[K]V)
	for k, v := range saved {
		i := s.keyToShard(k)
		if perShard[i] == nil {
			perShard[i] = make(map[K]V)
		}
		perShard[i][k] = v
	}
	for i, group := range perShard {
		s.shards[i].clearDirty(group)
	}
}

// ForEach walks shard by shard, holding no lock while fn runs
func (s *ShardedMemoryStorage[K, V]) ForEach(fn func(key K, value V) bool) {
	for _, b := range s.shards {
		for k, v := range b.snapshot() {
			if !fn(k, v) {
				return
			}
		}
	}
}

func (s *ShardedMemoryStorage[K, V]) Count() int {
	count := 0
	for _, b := range s.shards {
		count += b.len()
	}
	return count
}
