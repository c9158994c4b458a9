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

// QueuePtr is the bounded MPSC queue for unsafe.Pointer values.
// Useful for zero-copy pointer passing between goroutines.
//
// Ownership semantics: the producer transfers ownership to the consumer.
// After a successful Offer, the producer must not access the object.
//
// The protocol and layout match Queue; only the element type differs.
type QueuePtr struct {
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

// NewPtr creates an MPSC queue for unsafe.Pointer values with the default
// layout options. Capacity rounds up to the next power of 2 (minimum 2).
// Panics if capacity is not positive.
func NewPtr(capacity int) *QueuePtr {
	return New(capacity).BuildPtr()
}

func newQueuePtr(opts Options) *QueuePtr {
	n := uint64(roundToPow2(opts.capacity))
	shift := uint64(opts.sparseShift)
	padSlots := uint64(2 * opts.cacheLineSize / ptrSize)

	buffer := make([]unsafe.Pointer, 2*padSlots+(n<<shift))
	return &QueuePtr{
		buffer:   buffer,
		base:     unsafe.Add(unsafe.Pointer(unsafe.SliceData(buffer)), int(padSlots)*ptrSize),
		mask:     n - 1,
		shift:    shift,
		capacity: n,
	}
}

func (q *QueuePtr) slot(i uint64) *unsafe.Pointer {
	return (*unsafe.Pointer)(unsafe.Add(q.base, int((i&q.mask)<<q.shift)*ptrSize))
}

// Offer adds a pointer to the queue (multiple producers safe).
// Returns false if the queue appears full to this producer.
// Panics if e is nil.
func (q *QueuePtr) Offer(e unsafe.Pointer) bool {
	if e == nil {
		panic("mpscq: nil element")
	}

	sw := spin.Wait{}
	for {
		pIdx := q.producerIndex.LoadAcquire()

		if pIdx >= q.producerLimit.LoadAcquire() {
			cIdx := q.consumerIndex.LoadAcquire()
			if pIdx >= cIdx+q.capacity {
				return false
			}
			q.producerLimit.StoreRelease(cIdx + q.capacity)
		}

		if q.producerIndex.CompareAndSwapAcqRel(pIdx, pIdx+1) {
			atomic.StorePointer(q.slot(pIdx), e)
			return true
		}
		sw.Once()
	}
}

// Poll removes and returns the oldest pointer (single consumer only).
// Returns nil if the queue is empty.
func (q *QueuePtr) Poll() unsafe.Pointer {
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

	atomic.StorePointer(slot, nil)
	q.consumerIndex.StoreRelease(cIdx + 1)
	return e
}

// Peek returns the oldest pointer without removing it (single consumer
// only). Returns nil if the queue is empty.
func (q *QueuePtr) Peek() unsafe.Pointer {
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
	return e
}

// Size returns a loose snapshot of the element count in [0, Cap()].
func (q *QueuePtr) Size() int {
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
func (q *QueuePtr) IsEmpty() bool {
	return q.consumerIndex.LoadAcquire() == q.producerIndex.LoadAcquire()
}

// Clear drains the queue until it observes it empty (single consumer
// only). Specified only against a quiescent producer population.
func (q *QueuePtr) Clear() {
	for q.Poll() != nil || !q.IsEmpty() {
	}
}

// Cap returns the queue capacity.
func (q *QueuePtr) Cap() int {
	return int(q.mask + 1)
}
