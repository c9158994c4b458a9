// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpscq

import "unsafe"

// defaultCacheLine is the assumed coherence granule when none is configured.
const defaultCacheLine = 64

// maxSparseShift bounds the per-slot striding; beyond this the buffer
// would waste memory far past any contention benefit.
const maxSparseShift = 16

// Options configures queue construction.
type Options struct {
	// Capacity (rounds up to next power of 2, minimum 2)
	capacity int

	// Layout tuning
	sparseShift   int // log2 of the physical stride between logical slots
	cacheLineSize int // bytes, drives the buffer padding region
}

// Builder creates queues with fluent configuration.
//
// The builder carries the layout options recognised by all flavors:
// a sparse shift that spaces logical slots apart to reduce contention
// inside the element array, and the cache line size used to compute the
// padding that isolates the array from neighboring allocations.
//
// Example:
//
//	// Default layout
//	q := mpscq.Build[Event](mpscq.New(1024))
//
//	// Logical slots 64 bytes apart (64-bit), 128-byte coherence granule
//	q := mpscq.Build[Event](mpscq.New(1024).SparseShift(3).CacheLineSize(128))
type Builder struct {
	opts Options
}

// New creates a queue builder with the given capacity.
//
// Capacity rounds up to the next power of 2; values below 2 round to 2.
// For example, capacity=5 results in actual capacity 8, capacity=1 in
// actual capacity 2.
//
// Panics if capacity is not positive.
func New(capacity int) *Builder {
	if capacity <= 0 {
		panic("mpscq: capacity must be positive")
	}
	return &Builder{opts: Options{
		capacity:      capacity,
		cacheLineSize: defaultCacheLine,
	}}
}

// SparseShift spaces successive logical slots 2^s physical slots apart.
//
// With s=0 (the default) logical slots are adjacent. Larger values place
// neighbors on separate cache lines, trading memory for less false
// sharing between a publishing producer and the consuming drain.
//
// Panics if s is negative or greater than 16.
func (b *Builder) SparseShift(s int) *Builder {
	if s < 0 || s > maxSparseShift {
		panic("mpscq: sparse shift must be in [0, 16]")
	}
	b.opts.sparseShift = s
	return b
}

// CacheLineSize sets the byte size used to compute the buffer padding.
//
// The element array is preceded and followed by two lines' worth of dead
// slots so that no live slot shares a line with allocator metadata or an
// adjacent allocation. Platforms with 128-byte sector prefetchers should
// pass 128.
//
// Panics unless n is a power of two no smaller than the slot size.
func (b *Builder) CacheLineSize(n int) *Builder {
	if n < ptrSize || n&(n-1) != 0 {
		panic("mpscq: cache line size must be a power of two")
	}
	b.opts.cacheLineSize = n
	return b
}

// Build creates a generic Queue[T] from the builder's options.
func Build[T any](b *Builder) *Queue[T] {
	return newQueue[T](b.opts)
}

// BuildPtr creates a QueuePtr from the builder's options.
func (b *Builder) BuildPtr() *QueuePtr {
	return newQueuePtr(b.opts)
}

// BuildIndirect creates a QueueIndirect from the builder's options.
func (b *Builder) BuildIndirect() *QueueIndirect {
	return newQueueIndirect(b.opts)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing.
type pad [64]byte
