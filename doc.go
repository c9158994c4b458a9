// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mpscq provides a bounded, lock-free multi-producer
// single-consumer queue backed by a power-of-two circular array.
//
// The queue is built for message passing from many producer goroutines to
// one consumer goroutine at minimal latency on coherent-cache multicore
// CPUs. There are no locks on the hot paths: producers coordinate through
// a single CAS on the producer index, publication is a store with at least
// release ordering into the reserved slot, and the consumer pairs it with
// an acquire load. On total-store-order machines (amd64) the acquire loads
// and the atomix release stores (index cells, QueueIndirect slots) compile
// to plain moves. The slot stores of Queue and QueuePtr go through
// sync/atomic, which is sequentially consistent, so they are not plain
// moves on amd64.
//
// # Quick Start
//
//	q := mpscq.NewQueue[Event](1024)
//
//	// Producers (any number of goroutines)
//	ev := &Event{...}
//	if !q.Offer(ev) {
//	    // Queue full - handle backpressure
//	}
//
//	// Consumer (exactly one goroutine)
//	if ev := q.Poll(); ev != nil {
//	    process(ev)
//	}
//
// Builder configuration for layout tuning:
//
//	q := mpscq.Build[Event](mpscq.New(1024).SparseShift(3).CacheLineSize(128))
//
// # Memory Layout
//
// False sharing is what kills naive concurrent rings, so the layout keeps
// the three hot data on separate cache lines:
//
//   - the producer index (CAS target shared by all producers)
//   - the consumer index (written by the consumer alone)
//   - the element array
//
// The indices are padded apart inside the queue struct. The array carries
// two cache lines' worth of dead slots before and after the data region,
// so no live slot shares a line with allocator metadata or an adjacent
// allocation. The padding width follows the CacheLineSize option
// (default 64; pass 128 on platforms with 128-byte sector prefetchers).
//
// The SparseShift option additionally spaces successive logical slots
// 2^s physical slots apart, putting hot neighbors on separate lines at
// the cost of memory.
//
// # Queue Flavors
//
// Three flavors share the same protocol:
//
//	Queue[T]      - element references (*T); nil is the empty sentinel
//	QueuePtr      - unsafe.Pointer values for zero-copy hand-off
//	QueueIndirect - uintptr indices/handles; zero is the empty sentinel
//
// Because the sentinel marks an unpublished slot, it is never a valid
// element: Offer panics on nil (Queue, QueuePtr) and on zero
// (QueueIndirect).
//
// # Ordering Guarantees
//
// Elements come back in producer-index order: the order in which
// producers won the reservation CAS, not the order in which their stores
// physically completed. A producer stalled between its reservation and
// its publication makes the consumer wait at that index; the wait is a
// spin on the slot, bounded by that producer's completion. Per producer,
// FIFO: the subsequence of one producer's elements in poll order matches
// its successful Offer order.
//
// A successful Offer synchronises-with the Poll that returns the element:
// everything the producer did before Offer returned is visible to the
// consumer after Poll returns.
//
// # Thread Safety
//
// Any number of goroutines may call Offer/Enqueue. Exactly one goroutine
// at a time may call Poll, Peek, Clear, Size, and IsEmpty. The
// single-consumer rule is not detected when violated: breaking it
// silently loses FIFO and may drop or duplicate elements.
//
// Offer returns false on full and Poll returns nil on empty; neither
// parks nor performs a syscall. Callers that need to wait wrap the
// operations in a retry loop:
//
//	backoff := iox.Backoff{}
//	for !q.Offer(ev) {
//	    backoff.Wait()
//	}
//	backoff.Reset()
//
// The Enqueue/Dequeue adapters expose the same operations with the
// ecosystem error contract ([ErrWouldBlock] from
// [code.hybscloud.com/iox]) for pipelines written against semantic
// errors.
//
// # Iteration
//
// The queue does not support iteration. A concurrent bounded ring has no
// consistent traversal short of stopping all producers, so the contract
// types in this package deliberately omit it; inspect elements by
// draining them.
//
// # Race Detection
//
// Go's race detector tracks explicit synchronization primitives but
// cannot observe happens-before relationships established through atomic
// memory orderings on separate variables. The index/slot protocol here is
// exactly that, so stress tests under the detector report false
// positives. Tests incompatible with race detection are excluded via
// //go:build !race or skipped through RaceEnabled.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic index cells
// with explicit memory ordering, [code.hybscloud.com/spin] for CPU pause
// instructions on retry loops, and [code.hybscloud.com/iox] for semantic
// errors.
package mpscq
