// Package lockfree implements a small library of non-blocking concurrent
// data structures intended to be composed into higher-level containers:
// a bounded memory pool, a bounded MPMC ring buffer, a Treiber stack, a
// singly-linked set with logical/physical deletion, and a bucketed hash
// map built on top of the set. Memory reclamation across all of them is
// coordinated by a shared epoch manager.
package lockfree
