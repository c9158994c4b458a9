// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpscq

import "unsafe"

// Interface is the combined producer-consumer contract for an MPSC queue.
//
// The contract deliberately has no iteration: a concurrent bounded queue
// cannot give a consistent traversal without stopping the world, so none
// is offered. Code that needs to inspect elements must drain them through
// the consumer side.
//
// The contract also has no exact length; Size is a loose snapshot bounded
// by [0, Cap()].
type Interface[T any] interface {
	Producer[T]
	Consumer[T]
	Cap() int
}

// Producer is the contract for the enqueueing side.
//
// Any number of goroutines may act as producers concurrently. Producers
// coordinate only through an atomic reservation on the producer index;
// each writes exactly the slot it reserved.
type Producer[T any] interface {
	// Offer adds an element to the queue (non-blocking).
	// Returns true on success, false if the queue appears full to this
	// producer. Panics if e is nil: the nil reference is the queue's
	// internal empty sentinel and is never a valid element.
	Offer(e *T) bool

	// Enqueue is Offer with the ecosystem error contract:
	// nil on success, ErrWouldBlock when the queue is full.
	Enqueue(e *T) error
}

// Consumer is the contract for the dequeueing side.
//
// At most one goroutine at a time may act as the consumer; it alone may
// call Poll, Peek, Clear, Size, and IsEmpty. Violating the single-consumer
// rule is undetected and silently breaks FIFO.
type Consumer[T any] interface {
	// Poll removes and returns the oldest element, or nil if the queue
	// is empty.
	Poll() *T

	// Peek returns the oldest element without removing it, or nil if
	// the queue is empty.
	Peek() *T

	// Dequeue is Poll with the ecosystem error contract:
	// returns (nil, ErrWouldBlock) when the queue is empty.
	Dequeue() (*T, error)

	// Clear drains the queue until it observes it empty. Specified only
	// against a quiescent producer population.
	Clear()

	// Size returns a loose snapshot of the element count in [0, Cap()].
	Size() int

	// IsEmpty reports whether the queue observed no undelivered elements.
	IsEmpty() bool
}

// InterfacePtr is the iteration-free contract for unsafe.Pointer queues.
type InterfacePtr interface {
	// Offer adds a pointer (non-blocking). Panics on nil.
	Offer(e unsafe.Pointer) bool
	// Poll removes and returns the oldest pointer, or nil if empty.
	Poll() unsafe.Pointer
	// Peek returns the oldest pointer without removing it, or nil if empty.
	Peek() unsafe.Pointer
	Cap() int
}

// InterfaceIndirect is the iteration-free contract for uintptr queues.
//
// The zero value is the empty sentinel, so only non-zero values (indices
// offset by one, handles, tagged pointers) may be queued.
type InterfaceIndirect interface {
	// Offer adds a value (non-blocking). Panics on zero.
	Offer(e uintptr) bool
	// Poll removes and returns the oldest value, or 0 if empty.
	Poll() uintptr
	// Peek returns the oldest value without removing it, or 0 if empty.
	Peek() uintptr
	Cap() int
}
