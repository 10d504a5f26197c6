package lockfree

import "sync/atomic"

// MaxThreads is the fixed width of the reservation table. It is the only
// user-visible tuning knob of EpochManager besides pool and bucket sizes:
// the table is intentionally fixed-size, and over-provisioning it is the
// caller's responsibility.
const MaxThreads = 128

// NoReservation is the sentinel epoch value meaning "slot not held". A
// MinEpoch result equal to NoReservation means every reservation slot is
// currently free, so every retired node is safe to reclaim.
const NoReservation = ^uint64(0)

// EpochManager issues monotonic epochs and tracks, via a fixed table of
// reservations, the minimum epoch any in-flight operation might still be
// observing. Retirers use MinEpoch to decide when it is safe to reclaim a
// node: a node retired at epoch E can be freed once MinEpoch strictly
// exceeds E, because every thread that could have been holding a reference
// to it did so under a reservation <= E and has since released.
type EpochManager struct {
	global uint64 // atomic, accessed via atomic.AddUint64/LoadUint64
	slots  [MaxThreads]atomic.Uint64
}

// NewEpochManager returns a manager with every reservation slot empty.
func NewEpochManager() *EpochManager {
	e := &EpochManager{}
	for i := range e.slots {
		e.slots[i].Store(NoReservation)
	}
	return e
}

// NextEpoch atomically advances the global epoch counter and returns the
// value it held immediately before the advance.
func (e *EpochManager) NextEpoch() uint64 {
	return atomic.AddUint64(&e.global, 1) - 1
}

// Acquire reserves a fresh epoch for the calling operation and returns the
// index of the slot holding it. It scans the table for a free slot and
// claims it with a CAS; if every slot is already held it panics, since the
// table is fixed-size by design and this signals a misconfigured caller
// rather than a condition the manager can recover from.
func (e *EpochManager) Acquire() int {
	epoch := e.NextEpoch()
	for i := range e.slots {
		if e.slots[i].CompareAndSwap(NoReservation, epoch) {
			return i
		}
	}
	panic(ErrReservationTableFull)
}

// Release frees the reservation slot acquired by Acquire.
func (e *EpochManager) Release(slot int) {
	e.slots[slot].Store(NoReservation)
}

// MinEpoch scans the reservation table and returns the smallest epoch any
// slot currently holds, or the sentinel "no reservation" value if the
// table is entirely empty (in which case every retired node is safe to
// reclaim). The scan need not be a linearizable snapshot: a node is only
// reclaimed when its retirement epoch is strictly less than the observed
// minimum, so a stale (too-large) reading is safe and a stale (too-small)
// reading only delays reclamation.
func (e *EpochManager) MinEpoch() uint64 {
	min := NoReservation
	for i := range e.slots {
		if v := e.slots[i].Load(); v < min {
			min = v
		}
	}
	return min
}
