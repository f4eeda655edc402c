// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

// Package bitspace implements an ordered list of single-bit "basis
// vectors" drawn from a universe of maxDim bits (a Subspace), its
// complement, iteration over the states it spans, and projection of an
// external full state onto the subspace.
package bitspace

import (
	"fmt"

	"github.com/kittoku/go-phi/bitutil"
)

// Subspace is an ordered list of distinct single-bit masks ("vectors")
// drawn from [0, maxDim) bits, plus its dimension and codimension.
// Subspace values are immutable after construction and safe to share
// across goroutines: freely cloned, never mutated.
type Subspace struct {
	dim     int
	codim   int
	maxDim  int
	vectors []uint64 // len == dim, each a single-bit mask, pairwise disjoint
}

// FromVectors builds a Subspace from an explicit ordered list of
// single-bit masks. Every element of vectors must be a power of two
// less than 2^maxDim; callers that cannot guarantee this should use
// FromMask instead.
func FromVectors(vectors []uint64, maxDim int) Subspace {
	cp := make([]uint64, len(vectors))
	copy(cp, vectors)
	for _, v := range cp {
		if !bitutil.IsPowerOfTwo(v) {
			panic(fmt.Sprintf("bitspace: vector %#x is not a single-bit mask", v))
		}
	}
	return Subspace{
		dim:     len(cp),
		codim:   maxDim - len(cp),
		maxDim:  maxDim,
		vectors: cp,
	}
}

// FromMask extracts the single-bit vectors of mask in ascending bit
// order.
func FromMask(mask uint64, maxDim int) Subspace {
	idx := bitutil.Indices(mask)
	vectors := make([]uint64, len(idx))
	for i, b := range idx {
		vectors[i] = bitutil.Mask(b)
	}
	return FromVectors(vectors, maxDim)
}

// Null returns the dim=0 empty subspace over maxDim bits.
func Null(maxDim int) Subspace {
	return Subspace{dim: 0, codim: maxDim, maxDim: maxDim}
}

// FromMaxImageSize sets maxDim to the number of bits needed to index an
// m-state space, and fails if m is not itself a power of two.
func FromMaxImageSize(m uint64) (int, error) {
	if m == 0 {
		return 0, fmt.Errorf("bitspace: image size 0 is not a power of two")
	}
	n, ok := bitutil.Log2Exact(m)
	if !ok {
		return 0, fmt.Errorf("bitspace: image size %d is not a power of two", m)
	}
	return n, nil
}

// Dim is the number of basis vectors (elements) in the subspace.
func (s Subspace) Dim() int { return s.dim }

// Codim is maxDim - Dim.
func (s Subspace) Codim() int { return s.codim }

// MaxDim is the universe size this subspace and its complement are
// drawn from.
func (s Subspace) MaxDim() int { return s.maxDim }

// IsNull reports whether the subspace has dimension 0.
func (s Subspace) IsNull() bool { return s.dim == 0 }

// Vectors returns the ordered list of single-bit masks. The returned
// slice must not be mutated by the caller.
func (s Subspace) Vectors() []uint64 { return s.vectors }

// ToMask ORs together all basis vectors.
func (s Subspace) ToMask() uint64 {
	var m uint64
	for _, v := range s.vectors {
		m |= v
	}
	return m
}

// ImageSize is 2^dim.
func (s Subspace) ImageSize() uint64 { return uint64(1) << uint(s.dim) }

// CodimImageSize is 2^codim.
func (s Subspace) CodimImageSize() uint64 { return uint64(1) << uint(s.codim) }

// MaxImageSize is 2^maxDim.
func (s Subspace) MaxImageSize() uint64 { return uint64(1) << uint(s.maxDim) }

// FixedState projects a full state onto this subspace's bit positions:
// state AND ToMask().
func (s Subspace) FixedState(state uint64) uint64 {
	return state & s.ToMask()
}

// Expand returns the OR of vectors[i] for every i whose bit i of r is
// set: r is read as a dim-bit compact index into the subspace's own
// vectors, and Expand maps it back into a full max_dim-bit state with
// every bit outside the subspace left at 0.
func (s Subspace) Expand(r uint64) uint64 {
	var union uint64
	for i, v := range s.vectors {
		if r&(uint64(1)<<uint(i)) != 0 {
			union |= v
		}
	}
	return union
}

// GenerateComplement returns the Subspace whose vectors are exactly the
// single-bit masks of [0, maxDim) absent from s.
func (s Subspace) GenerateComplement() Subspace {
	union := s.ToMask()
	complement := make([]uint64, 0, s.codim)
	for i := 0; i < s.maxDim; i++ {
		v := bitutil.Mask(i)
		if union&v == 0 {
			complement = append(complement, v)
		}
	}
	return Subspace{dim: s.codim, codim: s.dim, maxDim: s.maxDim, vectors: complement}
}

// Sub returns the Subspace consisting of vectors[indices[j]] in order;
// maxDim is preserved.
func (s Subspace) Sub(indices []int) Subspace {
	vectors := make([]uint64, len(indices))
	for j, i := range indices {
		vectors[j] = s.vectors[i]
	}
	return Subspace{dim: len(indices), codim: s.maxDim - len(indices), maxDim: s.maxDim, vectors: vectors}
}

// Span enumerates, in ascending lexical order of a dim-bit counter k in
// [0, 2^dim), the values initial OR (OR of vectors[i] for every i whose
// bit i of k is set). It is a finite, restartable sequence of length
// 2^dim: every way to set the subspace's bits, keeping bits outside the
// subspace fixed at initial.
func (s Subspace) Span(initial uint64) *SpanIter {
	return &SpanIter{subspace: s, initial: initial, limit: s.ImageSize()}
}

// SpanIter is the lazy iterator returned by Subspace.Span.
type SpanIter struct {
	subspace Subspace
	initial  uint64
	current  uint64
	limit    uint64
}

// Next returns the next value in the span, and false once the sequence
// is exhausted.
func (it *SpanIter) Next() (uint64, bool) {
	if it.current >= it.limit {
		return 0, false
	}
	k := it.current
	it.current++
	return it.initial | it.subspace.Expand(k), true
}

// All materializes the full span as a slice. Only safe for subspaces
// with a small dim: practical networks stay around N <= 8-10, so 2^dim
// never exceeds about a thousand values (2^10 = 1024) for purview- or
// mechanism-sized subspaces.
func (s Subspace) All(initial uint64) []uint64 {
	out := make([]uint64, 0, s.ImageSize())
	it := s.Span(initial)
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}
