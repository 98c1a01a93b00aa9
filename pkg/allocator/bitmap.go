// Package allocator provides bounded-range process identifier allocation.
//
// This package implements PID allocation using a bitmap algorithm:
// - Each bit represents one identifier in the managed range
// - Bit value 1 = allocated, 0 = available
// - Finding the next available identifier is O(n) where n is the range size
// - Memory efficient: a 1000-PID range needs only 125 bytes
//
// The bitmap is deliberately not synchronized. A RangeAllocator models an
// isolated identifier namespace with a single owner; callers that share one
// across goroutines must serialize access themselves (see pkg/pidserver for
// the intended single-authority pattern).
package allocator

import (
	"github.com/bits-and-blooms/bitset"
)

// Bitmap is a fixed-size membership table over a contiguous block of
// identifier slots, indexed from 0.
type Bitmap struct {
	// bits is the underlying bit set, one bit per slot
	bits *bitset.BitSet

	// size is the total number of slots
	size int
}

// NewBitmap creates a bitmap with the given number of slots, all available.
func NewBitmap(size int) *Bitmap {
	return &Bitmap{
		bits: bitset.New(uint(size)),
		size: size,
	}
}

// Set marks a slot as allocated. Out-of-range indexes are ignored.
func (b *Bitmap) Set(index int) {
	if index < 0 || index >= b.size {
		return
	}
	b.bits.Set(uint(index))
}

// Clear marks a slot as available. Out-of-range indexes are ignored.
func (b *Bitmap) Clear(index int) {
	if index < 0 || index >= b.size {
		return
	}
	b.bits.Clear(uint(index))
}

// IsSet reports whether a slot is allocated. Out-of-range indexes report
// false rather than failing.
func (b *Bitmap) IsSet(index int) bool {
	if index < 0 || index >= b.size {
		return false
	}
	return b.bits.Test(uint(index))
}

// NextClear returns the index of the first available slot at or after from,
// or -1 if every slot in [from, size) is allocated.
func (b *Bitmap) NextClear(from int) int {
	if from < 0 || from >= b.size {
		return -1
	}
	// The bit set may report a clear bit in the padding beyond size; treat
	// anything past the last slot as not found.
	if index, ok := b.bits.NextClear(uint(from)); ok && int(index) < b.size {
		return int(index)
	}
	return -1
}

// Reset marks every slot as available.
func (b *Bitmap) Reset() {
	b.bits.ClearAll()
}

// Size returns the total number of slots.
func (b *Bitmap) Size() int {
	return b.size
}

// Allocated returns the number of allocated slots.
func (b *Bitmap) Allocated() int {
	return int(b.bits.Count())
}

// Available returns the number of available slots.
func (b *Bitmap) Available() int {
	return b.size - int(b.bits.Count())
}
