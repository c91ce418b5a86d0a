// Package collections provides small generic data structures shared by the
// rewrite engine and its supporting services.
package collections

import "math/bits"

// Bitset is a dense boolean set over non-negative indices, one bit per
// element. It grows on Set; Test outside the backing array reports false.
type Bitset struct {
	words []uint64
	size  int
}

// NewBitset creates a bitset sized for indices [0, size).
func NewBitset(size int) *Bitset {
	if size <= 0 {
		size = 64
	}
	return &Bitset{
		words: make([]uint64, (size+63)/64),
		size:  size,
	}
}

// Set sets the bit at index i, growing the set if needed.
func (b *Bitset) Set(i int) {
	if i < 0 {
		return
	}
	word := i / 64
	if word >= len(b.words) {
		b.grow(word + 1)
	}
	b.words[word] |= 1 << (i % 64)
	if i >= b.size {
		b.size = i + 1
	}
}

// Clear clears the bit at index i.
func (b *Bitset) Clear(i int) {
	if i < 0 || i/64 >= len(b.words) {
		return
	}
	b.words[i/64] &^= 1 << (i % 64)
}

// Test reports whether the bit at index i is set.
func (b *Bitset) Test(i int) bool {
	if i < 0 || i/64 >= len(b.words) {
		return false
	}
	return b.words[i/64]&(1<<(i%64)) != 0
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Size returns the highest index the set has been sized for.
func (b *Bitset) Size() int {
	return b.size
}

// ClearAll zeroes every bit, keeping the allocation.
func (b *Bitset) ClearAll() {
	for i := range b.words {
		b.words[i] = 0
	}
}

func (b *Bitset) grow(words int) {
	next := len(b.words) * 2
	if next < words {
		next = words
	}
	grown := make([]uint64, next)
	copy(grown, b.words)
	b.words = grown
}

// Iterate calls fn for every set bit in ascending index order until fn
// returns false.
func (b *Bitset) Iterate(fn func(i int) bool) {
	for wi, w := range b.words {
		base := wi * 64
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			if !fn(base + tz) {
				return
			}
			w &= w - 1
		}
	}
}

// ToSlice returns the set bit indices in ascending order.
func (b *Bitset) ToSlice() []int {
	out := make([]int, 0, b.Count())
	b.Iterate(func(i int) bool {
		out = append(out, i)
		return true
	})
	return out
}

// VersionedBitset is a boolean set whose Reset is O(1): membership is a
// per-slot version stamp compared against the current generation. Suited
// for mark sets reused across many short scans.
type VersionedBitset struct {
	stamps  []uint32
	current uint32
}

// NewVersionedBitset creates a versioned bitset sized for indices [0, size).
func NewVersionedBitset(size int) *VersionedBitset {
	if size <= 0 {
		size = 64
	}
	return &VersionedBitset{
		stamps:  make([]uint32, size),
		current: 1,
	}
}

// Set marks index i in the current generation.
func (v *VersionedBitset) Set(i int) {
	if i < 0 {
		return
	}
	if i >= len(v.stamps) {
		v.grow(i + 1)
	}
	v.stamps[i] = v.current
}

// Test reports whether index i is marked in the current generation.
func (v *VersionedBitset) Test(i int) bool {
	if i < 0 || i >= len(v.stamps) {
		return false
	}
	return v.stamps[i] == v.current
}

// Reset discards all marks by advancing the generation. On generation
// overflow the stamps are zeroed once.
func (v *VersionedBitset) Reset() {
	v.current++
	if v.current == 0 {
		for i := range v.stamps {
			v.stamps[i] = 0
		}
		v.current = 1
	}
}

// Size returns the number of slots currently backed.
func (v *VersionedBitset) Size() int {
	return len(v.stamps)
}

func (v *VersionedBitset) grow(size int) {
	next := len(v.stamps) * 2
	if next < size {
		next = size
	}
	grown := make([]uint32, next)
	copy(grown, v.stamps)
	v.stamps = grown
}
