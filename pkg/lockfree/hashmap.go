package lockfree

import "hash/maphash"

// kv is the element type stored in a HashMap's bucket LinkedSets. equal
// compares only key, which is what lets Insert update an existing key's
// value in place instead of linking a second live node for it.
type kv[K comparable, V any] struct {
	key   K
	value V
}

// HashMap is a fixed-width array of LinkedSet buckets sharing one
// EpochManager, one backing Pool, and one retire Stack — the three
// collaborators every bucket borrows by reference for the HashMap's
// entire lifetime. There is no resize: the bucket count and the pool
// capacity (3x the bucket count, the ratio named by the spec) are both
// fixed at construction.
type HashMap[K comparable, V any] struct {
	buckets []*LinkedSet[kv[K, V]]
	epoch   *EpochManager
	pool    *Pool[node[kv[K, V]]]
	retire  *Stack[retired[kv[K, V]]]
	seed    maphash.Seed
	count   uint32
}

// NewHashMap constructs a HashMap with the given fixed bucket count.
func NewHashMap[K comparable, V any](bucketCount int) *HashMap[K, V] {
	if bucketCount <= 0 {
		panic("lockfree: hash map bucket count must be positive")
	}
	capacity := bucketCount * 3
	h := &HashMap[K, V]{
		epoch: NewEpochManager(),
		pool:  NewPool[node[kv[K, V]]](capacity),
		seed:  maphash.MakeSeed(),
		count: uint32(bucketCount),
	}
	h.retire = NewStack[retired[kv[K, V]]](capacity)

	equal := func(a, b kv[K, V]) bool { return a.key == b.key }
	update := func(existing *kv[K, V], incoming kv[K, V]) { existing.value = incoming.value }

	h.buckets = make([]*LinkedSet[kv[K, V]], bucketCount)
	for i := range h.buckets {
		h.buckets[i] = NewLinkedSet(h.pool, h.retire, h.epoch, equal, update)
	}
	return h
}

// hash routes a key to its bucket using a keyed, allocation-free hash
// (hash/maphash.Comparable) seeded once per map — no third-party hashing
// library appears anywhere in the retrieved reference pack's
// dependencies, and the teacher's own persistent tree orders keys with
// bytes.Compare rather than hashing them, so there is nothing to inherit
// here beyond the standard library.
func (h *HashMap[K, V]) hash(key K) uint32 {
	return uint32(maphash.Comparable(h.seed, key) % uint64(h.count))
}

// Insert adds or updates the binding for key.
func (h *HashMap[K, V]) Insert(key K, value V) {
	h.buckets[h.hash(key)].Insert(kv[K, V]{key: key, value: value})
}

// Get returns the value bound to key, if any.
func (h *HashMap[K, V]) Get(key K) (V, bool) {
	found, ok := h.buckets[h.hash(key)].Search(kv[K, V]{key: key})
	if !ok {
		var zero V
		return zero, false
	}
	return found.value, true
}

// Remove deletes the binding for key, if any, and reports whether one was
// present.
func (h *HashMap[K, V]) Remove(key K) bool {
	return h.buckets[h.hash(key)].Remove(kv[K, V]{key: key})
}

// BucketCount returns the fixed number of buckets the map was created
// with.
func (h *HashMap[K, V]) BucketCount() int {
	return int(h.count)
}
