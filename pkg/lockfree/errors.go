package lockfree

import "errors"

var (
	// ErrReservationTableFull is panicked by EpochManager.Acquire when all
	// MaxThreads reservation slots are held. This is a design-time capacity
	// error: the table is fixed-size and over-provisioning it is the
	// caller's responsibility, not something the manager can degrade out of.
	ErrReservationTableFull = errors.New("lockfree: reservation table full")

	// ErrPoolExhausted is panicked by operations that cannot proceed without
	// allocating a node from a backing Pool (Stack.Push, LinkedSet.Insert).
	// Direct Pool.Allocate callers instead receive (nil, false); it is only
	// fatal when a structure built atop the pool has no way to signal
	// partial failure back to its own caller.
	ErrPoolExhausted = errors.New("lockfree: pool exhausted")
)
