// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpscq

import (
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Queue is a bounded multi-producer single-consumer queue of element
// references.
//
// Producers contend on a single CAS over the producer index; the winner
// owns one slot and publishes its element there with a release store.
// The consumer pairs an acquire load on the slot with that store, so an
// element and everything it transitively references is visible to the
// consumer by the time Poll returns it.
//
// A slot holds either nil (not yet published, or already consumed) or a
// live element reference. nil is the queue's internal sentinel, which is
// why Offer rejects nil elements.
//
// The element array is preceded and followed by two cache lines' worth of
// dead slots, and the three index cells each sit on their own line, so
// that a producer advancing its index never invalidates the line the
// consumer is draining from and vice versa.
//
// Memory: 2·P + capacity·2^sparseShift pointer slots.
type Queue[T any] struct {
	_             pad
	producerIndex atomix.Uint64 // Slots reserved; producers CAS here
	_             pad
	producerLimit atomix.Uint64 // Cached consumerIndex + capacity
	_             pad
	consumerIndex atomix.Uint64 // Slots consumed; written by the consumer only
	_             pad
	buffer        []unsafe.Pointer
	base          unsafe.Pointer // &buffer[P]: padding fold for slot addressing
	mask          uint64
	shift         uint64
	capacity      uint64
}

// NewQueue creates a generic MPSC queue with the default layout options.
// Capacity rounds up to the next power of 2 (minimum 2).
// Panics if capacity is not positive.
func NewQueue[T any](capacity int) *Queue[T] {
	return Build[T](New(capacity))
}

func newQueue[T any](opts Options) *Queue[T] {
	n := uint64(roundToPow2(opts.capacity))
	shift := uint64(opts.sparseShift)
	padSlots := uint64(2 * opts.cacheLineSize / ptrSize)

	buffer := make([]unsafe.Pointer, 2*padSlots+(n<<shift))
	return &Queue[T]{
		buffer:   buffer,
		base:     unsafe.Add(unsafe.Pointer(unsafe.SliceData(buffer)), int(padSlots)*ptrSize),
		mask:     n - 1,
		shift:    shift,
		capacity: n,
	}
}

// slot returns the physical cell for logical index i.
// The P-slot padding offset is folded into base; the wrap is a mask, the
// sparse stride a shift.
func (q *Queue[T]) slot(i uint64) *unsafe.Pointer {
	return (*unsafe.Pointer)(unsafe.Add(q.base, int((i&q.mask)<<q.shift)*ptrSize))
}

// Offer adds an element to the queue (multiple producers safe).
// Returns false if the queue appears full to this producer.
// Panics if e is nil: nil is the internal empty sentinel.
//
// Offer never waits on a slot; it retries only on producer-index CAS
// contention.
func (q *Queue[T]) Offer(e *T) bool {
	if e == nil {
		panic("mpscq: nil element")
	}

	sw := spin.Wait{}
	for {
		pIdx := q.producerIndex.LoadAcquire()

		if pIdx >= q.producerLimit.LoadAcquire() {
			// The cached bound says full; refresh it from the live
			// consumer index before giving up.
			cIdx := q.consumerIndex.LoadAcquire()
			if pIdx >= cIdx+q.capacity {
				return false
			}
			q.producerLimit.StoreRelease(cIdx + q.capacity)
		}

		if q.producerIndex.CompareAndSwapAcqRel(pIdx, pIdx+1) {
			// Reservation won: this producer is the only writer of the
			// slot until the consumer clears it next generation.
			atomic.StorePointer(q.slot(pIdx), unsafe.Pointer(e))
			return true
		}
		sw.Once()
	}
}

// Poll removes and returns the oldest element (single consumer only).
// Returns nil if the queue is empty.
//
// Elements come back in producer-index order. A producer that reserved
// the head index but has not yet published keeps Poll spinning on that
// slot until the publication lands, even if later slots are already
// filled.
func (q *Queue[T]) Poll() *T {
	cIdx := q.consumerIndex.LoadRelaxed()
	slot := q.slot(cIdx)

	e := atomic.LoadPointer(slot)
	if e == nil {
		if cIdx == q.producerIndex.LoadAcquire() {
			return nil
		}
		// Reserved but not yet published; the store is in flight.
		sw := spin.Wait{}
		for e == nil {
			sw.Once()
			e = atomic.LoadPointer(slot)
		}
	}

	// Clearing the slot is what lets the producer of the next generation
	// use nil as its "unpublished" marker after wrap-around.
	atomic.StorePointer(slot, nil)
	q.consumerIndex.StoreRelease(cIdx + 1)
	return (*T)(e)
}

// Peek returns the oldest element without removing it (single consumer
// only). Returns nil if the queue is empty. Like Poll, it waits out an
// in-flight publication at the head index.
func (q *Queue[T]) Peek() *T {
	cIdx := q.consumerIndex.LoadRelaxed()
	slot := q.slot(cIdx)

	e := atomic.LoadPointer(slot)
	if e == nil {
		if cIdx == q.producerIndex.LoadAcquire() {
			return nil
		}
		sw := spin.Wait{}
		for e == nil {
			sw.Once()
			e = atomic.LoadPointer(slot)
		}
	}
	return (*T)(e)
}

// Enqueue is Offer with the ecosystem error contract.
// Returns nil on success, ErrWouldBlock if the queue is full.
func (q *Queue[T]) Enqueue(e *T) error {
	if q.Offer(e) {
		return nil
	}
	return ErrWouldBlock
}

// Dequeue is Poll with the ecosystem error contract.
// Returns (nil, ErrWouldBlock) if the queue is empty.
func (q *Queue[T]) Dequeue() (*T, error) {
	e := q.Poll()
	if e == nil {
		return nil, ErrWouldBlock
	}
	return e, nil
}

// Size returns a loose snapshot of the element count, always in
// [0, Cap()]. The consumer index is re-read until it is stable around the
// producer-index load so a concurrent drain cannot push the result out of
// range.
func (q *Queue[T]) Size() int {
	after := q.consumerIndex.LoadAcquire()
	for {
		before := after
		pIdx := q.producerIndex.LoadAcquire()
		after = q.consumerIndex.LoadAcquire()
		if before == after {
			n := pIdx - after
			if n > q.capacity {
				n = q.capacity
			}
			return int(n)
		}
	}
}

// IsEmpty reports whether the queue observed no undelivered elements.
func (q *Queue[T]) IsEmpty() bool {
	return q.consumerIndex.LoadAcquire() == q.producerIndex.LoadAcquire()
}

// Clear drains the queue until two successive observations report it
// empty (single consumer only).
//
// Clear is specified only against a quiescent producer population: under
// concurrently active producers the drain loop may never terminate.
func (q *Queue[T]) Clear() {
	for q.Poll() != nil || !q.IsEmpty() {
	}
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return int(q.mask + 1)
}
