// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

// Package bitutil provides bit-index utilities over uint64 masks: a fixed
// table of single-bit masks, popcount, and conversions between a bitmask
// and the ascending list of bit indices it sets. Every other package in
// this module addresses network elements by bit position in a uint64
// state word, and builds on these primitives the way hwy/bitops.go builds
// its lane-wise bit operations on math/bits.
package bitutil

import "math/bits"

// MaxElements is the largest network size this engine supports: a state
// must fit in a single machine word.
const MaxElements = 64

// bitMasks[i] is the single-bit mask for index i, precomputed once at
// package init rather than shifted on every call.
var bitMasks = func() [MaxElements]uint64 {
	var t [MaxElements]uint64
	for i := range t {
		t[i] = uint64(1) << uint(i)
	}
	return t
}()

// Mask returns the single-bit mask for bit index i. i must be in
// [0, MaxElements).
func Mask(i int) uint64 {
	return bitMasks[i]
}

// PopCount returns the number of set bits in mask.
func PopCount(mask uint64) int {
	return bits.OnesCount64(mask)
}

// IsPowerOfTwo reports whether mask has exactly one bit set. A zero mask
// is not a power of two.
func IsPowerOfTwo(mask uint64) bool {
	return mask != 0 && mask&(mask-1) == 0
}

// Indices returns, in ascending order, the bit indices set in mask.
func Indices(mask uint64) []int {
	idx := make([]int, 0, PopCount(mask))
	for mask != 0 {
		i := bits.TrailingZeros64(mask)
		idx = append(idx, i)
		mask &^= uint64(1) << uint(i)
	}
	return idx
}

// IndicesToMask ORs together the single-bit masks of idx.
func IndicesToMask(idx []int) uint64 {
	var m uint64
	for _, i := range idx {
		m |= bitMasks[i]
	}
	return m
}

// Log2Exact returns n such that 2^n == v, and ok=false if v is not an
// exact power of two. Used to recover a subspace's dimension from an
// image size.
func Log2Exact(v uint64) (n int, ok bool) {
	if !IsPowerOfTwo(v) {
		return 0, false
	}
	return bits.TrailingZeros64(v), true
}
