package lockfree

import "sync/atomic"

// Tag bits on a node's deletion state, kept in a word separate from the
// node's next pointer (see SPEC_FULL.md's Go-realization note): Go's
// garbage collector cannot trace a pointer with bits stolen out of it the
// way the original C++ steals the low 3 bits of an 8-byte-aligned
// address, so the two tag bits described by the spec live in their own
// atomic.Uint32 instead, while next stays a real, GC-traceable pointer.
const (
	tagNone      uint32 = 0
	tagDeleted   uint32 = 1 << 0 // tombstoned: future searchers must ignore it
	tagUnlinking uint32 = 1 << 1 // an unlinker has reserved the right to mutate prev.next
)

// node is one cell of a LinkedSet's chain.
type node[T any] struct {
	value    T
	next     atomic.Pointer[node[T]]
	tag      atomic.Uint32
	changing atomic.Bool // guards value updates on an existing key (hash-map variant)
}

// retired pairs a node with the epoch it was retired at: no thread with a
// reservation epoch <= this value may still hold a reference to node.
type retired[T any] struct {
	node  *node[T]
	epoch uint64
}

// LinkedSet is a sorted-by-insertion-order singly-linked list with
// two-phase logical-then-physical deletion: Remove marks a node
// tombstoned (invisible to future searches) and then attempts to unlink
// it immediately, but any concurrent traverser that passes a tombstoned
// node helps finish the unlink instead of leaving it for later. Retired
// nodes feed back into pool through epoch, deferring reclamation until no
// reservation could still observe them.
//
// equal decides membership: two values collide when equal reports true,
// regardless of what else differs between them. update, if non-nil, is
// invoked under the matched node's changing guard when Insert finds an
// existing match, instead of discarding the new value outright — this is
// what lets HashMap update a key's value in place rather than needing a
// second live node for the same key.
type LinkedSet[T any] struct {
	head   node[T] // sentinel; never holds a live value
	pool   *Pool[node[T]]
	retire *Stack[retired[T]]
	epoch  *EpochManager
	equal  func(a, b T) bool
	update func(existing *T, incoming T)
}

// NewLinkedSet constructs a LinkedSet sharing the given pool, retire
// stack, and epoch manager with every other structure drawing from them
// (per the spec's ownership model, these three are owned by the
// enclosing container — a standalone LinkedSet or a HashMap bucket array
// — and shared by reference for the whole of its lifetime). update may be
// nil, in which case Insert on an existing match simply discards the new
// value, giving pure-set semantics.
func NewLinkedSet[T any](pool *Pool[node[T]], retire *Stack[retired[T]], epoch *EpochManager, equal func(a, b T) bool, update func(existing *T, incoming T)) *LinkedSet[T] {
	ls := &LinkedSet[T]{
		pool:   pool,
		retire: retire,
		epoch:  epoch,
		equal:  equal,
		update: update,
	}
	ls.head.next.Store(nil)
	return ls
}

// NewSet constructs a standalone LinkedSet with its own dedicated pool,
// retire stack, and epoch manager, each sized to capacity. This is the
// entry point for using LinkedSet on its own rather than as a HashMap
// bucket: a HashMap instead builds these three collaborators itself and
// shares them across every bucket via NewLinkedSet, per this module's
// ownership model. update may be nil for pure-set semantics.
func NewSet[T any](capacity int, equal func(a, b T) bool, update func(existing *T, incoming T)) *LinkedSet[T] {
	epoch := NewEpochManager()
	pool := NewPool[node[T]](capacity)
	retire := NewStack[retired[T]](capacity)
	return NewLinkedSet(pool, retire, epoch, equal, update)
}

// nextOf clears no bits (the realization keeps next tagless; tags live in
// node.tag) but exists so call sites read intent the way the spec's
// next_of helper does.
func nextOf[T any](n *node[T]) *node[T] {
	return n.next.Load()
}

func isDeleted[T any](n *node[T]) bool {
	return n.tag.Load()&tagDeleted != 0
}

// drainRetireQueue returns reclaimable nodes to the pool, stopping at the
// first entry whose retirement epoch has not yet fallen behind the
// observed minimum and pushing it back so retirement order is preserved
// for the next drain.
func (ls *LinkedSet[T]) drainRetireQueue() {
	for {
		r, ok := ls.retire.Pop()
		if !ok {
			return
		}
		if r.epoch < ls.epoch.MinEpoch() {
			ls.pool.Deallocate(r.node)
			continue
		}
		ls.retire.Push(r)
		return
	}
}

// helpUnlink performs the two-step physical unlink of a logically deleted
// node: first it reserves the right to mutate prev.next by CASing n's tag
// from "deleted" to "deleted and being unlinked", then it CASes prev.next
// past n. Failure at either step means another thread is already
// handling this node (or prev has itself moved on), so helpUnlink simply
// backs off; the next traverser to pass n will try again. On success the
// node is pushed onto the retire queue tagged with a fresh epoch.
func (ls *LinkedSet[T]) helpUnlink(prev, n *node[T]) {
	if n.tag.Load()&tagDeleted == 0 {
		return
	}
	if !n.tag.CompareAndSwap(tagDeleted, tagDeleted|tagUnlinking) {
		return
	}
	next := n.next.Load()
	if !prev.next.CompareAndSwap(n, next) {
		n.tag.CompareAndSwap(tagDeleted|tagUnlinking, tagDeleted)
		return
	}
	ls.retire.Push(retired[T]{node: n, epoch: ls.epoch.NextEpoch()})
}

// Insert adds value to the set, or — if a live node already matches it
// under equal — updates that node's value via update (when non-nil) and
// discards the freshly allocated node. It panics with ErrPoolExhausted if
// the backing pool cannot supply a node, a fatal capacity error per the
// spec since insertion cannot proceed without one.
func (ls *LinkedSet[T]) Insert(value T) {
	ls.drainRetireQueue()
	slot := ls.epoch.Acquire()
	defer ls.epoch.Release(slot)

	newNode, ok := ls.pool.Allocate()
	if !ok {
		panic(ErrPoolExhausted)
	}
	newNode.value = value
	newNode.next.Store(nil)
	newNode.tag.Store(tagNone)
	newNode.changing.Store(false)

	for {
		prev := &ls.head
		cur := prev.next.Load()
		for cur != nil {
			ls.helpUnlink(prev, cur)
			if !isDeleted(cur) && ls.equal(cur.value, value) {
				if ls.update != nil {
					for !cur.changing.CompareAndSwap(false, true) {
					}
					ls.update(&cur.value, value)
					cur.changing.Store(false)
				}
				ls.pool.Deallocate(newNode)
				return
			}
			prev = cur
			cur = nextOf(cur)
		}
		if prev.next.CompareAndSwap(nil, newNode) {
			return
		}
		// lost the race for the tail slot; restart the traversal
	}
}

// Search reports whether a value matching target (per equal) is currently
// live in the set, returning a copy of the matched element.
func (ls *LinkedSet[T]) Search(target T) (T, bool) {
	ls.drainRetireQueue()
	slot := ls.epoch.Acquire()
	defer ls.epoch.Release(slot)

	prev := &ls.head
	cur := prev.next.Load()
	for cur != nil {
		ls.helpUnlink(prev, cur)
		if !isDeleted(cur) && ls.equal(cur.value, target) {
			return cur.value, true
		}
		prev = cur
		cur = nextOf(cur)
	}
	var zero T
	return zero, false
}

// Remove logically deletes the first live node matching target, then
// attempts to physically unlink it immediately. Even when the immediate
// unlink attempt fails, the node is already invisible to future Search
// and Insert calls, which will help finish unlinking it. Removing a value
// that is absent, or removing it twice, is a no-op.
func (ls *LinkedSet[T]) Remove(target T) bool {
	ls.drainRetireQueue()
	slot := ls.epoch.Acquire()
	defer ls.epoch.Release(slot)

	prev := &ls.head
	cur := prev.next.Load()
	for cur != nil {
		ls.helpUnlink(prev, cur)
		if !isDeleted(cur) && ls.equal(cur.value, target) {
			break
		}
		prev = cur
		cur = nextOf(cur)
	}
	if cur == nil {
		return false
	}
	if !cur.tag.CompareAndSwap(tagNone, tagDeleted) {
		return false // already tombstoned by a concurrent Remove
	}
	ls.helpUnlink(prev, cur)
	return true
}

// PoolAllocatedCount reports how many slots of the set's backing pool are
// currently checked out. A standalone set that has quiesced (every live
// value removed, and drained past its own retirements) reports zero.
func (ls *LinkedSet[T]) PoolAllocatedCount() int {
	ls.drainRetireQueue()
	return ls.pool.AllocatedCount()
}
