// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpscq

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// QueueIndirect is the bounded MPSC queue for uintptr values.
//
// QueueIndirect passes indices or handles instead of object references.
// This is useful for buffer pools, object pools, or any index-based data
// structure. Values are not traced by the garbage collector; anything the
// value refers to must be kept alive by the pool it indexes into.
//
// Zero is the empty sentinel, so only non-zero values may be queued.
// Pool indices are typically stored offset by one.
//
// The protocol and layout match Queue; the slots are atomix cells instead
// of GC-visible pointers.
type QueueIndirect struct {
	_             pad
	producerIndex atomix.Uint64 // Slots reserved; producers CAS here
	_             pad
	producerLimit atomix.Uint64 // Cached consumerIndex + capacity
	_             pad
	consumerIndex atomix.Uint64 // Slots consumed; written by the consumer only
	_             pad
	buffer        []atomix.Uintptr
	padSlots      uint64 // P: dead slots before the data region
	mask          uint64
	shift         uint64
	capacity      uint64
}

// NewIndirect creates an MPSC queue for uintptr values with the default
// layout options. Capacity rounds up to the next power of 2 (minimum 2).
// Panics if capacity is not positive.
func NewIndirect(capacity int) *QueueIndirect {
	return New(capacity).BuildIndirect()
}

func newQueueIndirect(opts Options) *QueueIndirect {
	var cell atomix.Uintptr
	cellSize := int(unsafe.Sizeof(cell))

	n := uint64(roundToPow2(opts.capacity))
	shift := uint64(opts.sparseShift)
	padSlots := uint64(2 * opts.cacheLineSize / cellSize)

	return &QueueIndirect{
		buffer:   make([]atomix.Uintptr, 2*padSlots+(n<<shift)),
		padSlots: padSlots,
		mask:     n - 1,
		shift:    shift,
		capacity: n,
	}
}

func (q *QueueIndirect) slot(i uint64) *atomix.Uintptr {
	return &q.buffer[q.padSlots+((i&q.mask)<<q.shift)]
}

// Offer adds a value to the queue (multiple producers safe).
// Returns false if the queue appears full to this producer.
// Panics if e is zero: zero is the internal empty sentinel.
func (q *QueueIndirect) Offer(e uintptr) bool {
	if e == 0 {
		panic("mpscq: zero element")
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
			q.slot(pIdx).StoreRelease(e)
			return true
		}
		sw.Once()
	}
}

// Poll removes and returns the oldest value (single consumer only).
// Returns 0 if the queue is empty.
func (q *QueueIndirect) Poll() uintptr {
	cIdx := q.consumerIndex.LoadRelaxed()
	slot := q.slot(cIdx)

	e := slot.LoadAcquire()
	if e == 0 {
		if cIdx == q.producerIndex.LoadAcquire() {
			return 0
		}
		sw := spin.Wait{}
		for e == 0 {
			sw.Once()
			e = slot.LoadAcquire()
		}
	}

	slot.StoreRelease(0)
	q.consumerIndex.StoreRelease(cIdx + 1)
	return e
}

// Peek returns the oldest value without removing it (single consumer
// only). Returns 0 if the queue is empty.
func (q *QueueIndirect) Peek() uintptr {
	cIdx := q.consumerIndex.LoadRelaxed()
	slot := q.slot(cIdx)

	e := slot.LoadAcquire()
	if e == 0 {
		if cIdx == q.producerIndex.LoadAcquire() {
			return 0
		}
		sw := spin.Wait{}
		for e == 0 {
			sw.Once()
			e = slot.LoadAcquire()
		}
	}
	return e
}

// Size returns a loose snapshot of the element count in [0, Cap()].
func (q *QueueIndirect) Size() int {
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
func (q *QueueIndirect) IsEmpty() bool {
	return q.consumerIndex.LoadAcquire() == q.producerIndex.LoadAcquire()
}

// Clear drains the queue until it observes it empty (single consumer
// only). Specified only against a quiescent producer population.
func (q *QueueIndirect) Clear() {
	for q.Poll() != 0 || !q.IsEmpty() {
	}
}

// Cap returns the queue capacity.
func (q *QueueIndirect) Cap() int {
	return int(q.mask + 1)
}
