// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpscq

import (
	"testing"
	"unsafe"
)

// Layout contract:
// The producer index, the producer limit cache, and the consumer index
// must each sit on a cache line no other hot datum touches, and the
// element array must keep two lines' worth of dead slots on each side of
// the data region. These tests pin the offsets the protocol relies on.

// TestIndexCellIsolation verifies each index cell is at least one cache
// line away from its neighbors inside the queue struct.
func TestIndexCellIsolation(t *testing.T) {
	var q Queue[int]

	pIdx := unsafe.Offsetof(q.producerIndex)
	pLim := unsafe.Offsetof(q.producerLimit)
	cIdx := unsafe.Offsetof(q.consumerIndex)
	cold := unsafe.Offsetof(q.buffer)

	if pIdx < defaultCacheLine {
		t.Fatalf("producerIndex at offset %d, want >= %d (leading pad)", pIdx, defaultCacheLine)
	}
	if pLim-pIdx < defaultCacheLine {
		t.Fatalf("producerLimit only %d bytes after producerIndex", pLim-pIdx)
	}
	if cIdx-pLim < defaultCacheLine {
		t.Fatalf("consumerIndex only %d bytes after producerLimit", cIdx-pLim)
	}
	if cold-cIdx < defaultCacheLine {
		t.Fatalf("cold fields only %d bytes after consumerIndex", cold-cIdx)
	}
}

// TestIndexCellIsolationFlavors verifies the Ptr and Indirect flavors keep
// the same cell spacing.
func TestIndexCellIsolationFlavors(t *testing.T) {
	var p QueuePtr
	if d := unsafe.Offsetof(p.consumerIndex) - unsafe.Offsetof(p.producerIndex); d < 2*defaultCacheLine {
		t.Fatalf("QueuePtr index cells %d bytes apart, want >= %d", d, 2*defaultCacheLine)
	}
	var ix QueueIndirect
	if d := unsafe.Offsetof(ix.consumerIndex) - unsafe.Offsetof(ix.producerIndex); d < 2*defaultCacheLine {
		t.Fatalf("QueueIndirect index cells %d bytes apart, want >= %d", d, 2*defaultCacheLine)
	}
}

// TestBufferPadding verifies the dead-slot regions around the element
// array and the folded base offset.
func TestBufferPadding(t *testing.T) {
	for _, line := range []int{64, 128} {
		q := newQueue[int](New(8).CacheLineSize(line).opts)

		padSlots := 2 * line / ptrSize
		wantLen := 2*padSlots + 8
		if len(q.buffer) != wantLen {
			t.Fatalf("line=%d: buffer len %d, want %d", line, len(q.buffer), wantLen)
		}

		start := unsafe.Pointer(unsafe.SliceData(q.buffer))
		if uintptr(q.base)-uintptr(start) != uintptr(padSlots*ptrSize) {
			t.Fatalf("line=%d: base not folded to %d slots past start", line, padSlots)
		}
		if q.slot(0) != &q.buffer[padSlots] {
			t.Fatalf("line=%d: slot(0) not the first live slot", line)
		}
		if q.slot(7) != &q.buffer[padSlots+7] {
			t.Fatalf("line=%d: slot(7) misplaced", line)
		}
	}
}

// TestSlotAddressing verifies mask wrap and sparse striding.
func TestSlotAddressing(t *testing.T) {
	q := newQueue[int](New(8).SparseShift(2).opts)

	// Logical neighbors are 2^shift physical slots apart.
	d := uintptr(unsafe.Pointer(q.slot(1))) - uintptr(unsafe.Pointer(q.slot(0)))
	if d != uintptr(4*ptrSize) {
		t.Fatalf("sparse stride: got %d bytes, want %d", d, 4*ptrSize)
	}

	// Wrap: logical index capacity maps back onto slot 0, any index onto
	// index & mask.
	if q.slot(8) != q.slot(0) {
		t.Fatal("slot(capacity) did not wrap to slot(0)")
	}
	if q.slot(13) != q.slot(5) {
		t.Fatal("slot(13) did not wrap to slot(5)")
	}

	// The data region is capacity << shift slots plus padding.
	padSlots := 2 * defaultCacheLine / ptrSize
	if len(q.buffer) != 2*padSlots+(8<<2) {
		t.Fatalf("buffer len %d, want %d", len(q.buffer), 2*padSlots+(8<<2))
	}
}

// TestIndirectSlotAddressing verifies the atomix-cell flavor computes the
// same padded layout.
func TestIndirectSlotAddressing(t *testing.T) {
	q := newQueueIndirect(New(4).opts)

	if q.slot(0) != &q.buffer[q.padSlots] {
		t.Fatal("slot(0) not the first live slot")
	}
	if q.slot(4) != q.slot(0) {
		t.Fatal("slot(capacity) did not wrap to slot(0)")
	}
	if got := len(q.buffer); got != int(2*q.padSlots)+4 {
		t.Fatalf("buffer len %d, want %d", got, int(2*q.padSlots)+4)
	}
}
