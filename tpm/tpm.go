// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

// Package tpm builds and marginalises transition probability matrices
// over the 2^N joint states of a binary dynamical network.
//
// Build partitions the M output rows across a worker pool the same way
// TPM construction is parallelised throughout this engine: a single
// shared counter hands out one row per critical section, each row
// written by exactly one worker, no locking needed on the output
// matrix because rows never overlap.
package tpm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/kittoku/go-phi/bitspace"
	"github.com/kittoku/go-phi/bitutil"
	"github.com/kittoku/go-phi/link"
	"github.com/kittoku/go-phi/partition"
	"github.com/kittoku/go-phi/workerpool"
)

// Build constructs the M×M TPM (M = 2^len(fns)) for a network given by
// an ordered list of link functions and their condition masks: for
// every current-state row r and element i, p_i = fns[i](r, masks[i]) is
// the probability element i turns on; the joint next-state probability
// for column c is the product over i of p_i (bit i of c set) or 1-p_i
// (bit i of c clear).
func Build(pool *workerpool.Pool, fns []link.Fn, masks []uint64) (*mat.Dense, error) {
	n := len(fns)
	if n != len(masks) {
		return nil, fmt.Errorf("tpm: %d link functions but %d masks", n, len(masks))
	}
	if n == 0 {
		return nil, fmt.Errorf("tpm: at least one element is required")
	}
	if n > bitutil.MaxElements {
		return nil, fmt.Errorf("tpm: %d elements exceeds the %d-bit word limit", n, bitutil.MaxElements)
	}

	m := int(uint64(1) << uint(n))
	t := mat.NewDense(m, m, nil)

	pool.ParallelForAtomic(m, func(r int) {
		row := uint64(r)
		p := make([]float64, n)
		for i := 0; i < n; i++ {
			p[i] = fns[i](row, masks[i])
		}
		for c := 0; c < m; c++ {
			prob := 1.0
			for i := 0; i < n; i++ {
				if uint64(c)&bitutil.Mask(i) != 0 {
					prob *= p[i]
				} else {
					prob *= 1 - p[i]
				}
			}
			t.Set(r, c, prob)
		}
	})
	return t, nil
}

// FixedMarginal projects T's row and column indices onto subspace s,
// holding s's complement fixed at state's projection: the returned
// m×m matrix (m = 2^s.Dim()) "conditions" T's future on the current
// state of every element outside s. Row r and column c are s's own
// compact (dim-bit) indices, not full joint-state indices.
func FixedMarginal(s bitspace.Subspace, state uint64, t *mat.Dense) *mat.Dense {
	sc := s.GenerateComplement()
	m := int(s.ImageSize())
	result := mat.NewDense(m, m, nil)
	fixedOutside := sc.FixedState(state)

	for r := 0; r < m; r++ {
		originalRow := int(fixedOutside | s.Expand(uint64(r)))
		for c := 0; c < m; c++ {
			var sum float64
			it := sc.Span(s.Expand(uint64(c)))
			for {
				cp, ok := it.Next()
				if !ok {
					break
				}
				sum += t.At(originalRow, int(cp))
			}
			result.Set(r, c, sum)
		}
	}
	return result
}

// ElementaryMarginal computes the full-size M×M matrix in which
// target's (a one-vector subspace's) next-state probability depends
// only on source's current-state equivalence class, and every other
// element's next state is irrelevant: for every source equivalence
// class, all full-sized rows agreeing with that class are summed, the
// result split into the column-halves where target's bit is 0 or 1, and
// that pair normalised into a single on-probability replicated across
// every row in the class and every column agreeing with target's bit.
func ElementaryMarginal(target, source bitspace.Subspace, full *mat.Dense) *mat.Dense {
	m, _ := full.Dims()
	targetMask := target.ToMask()
	vectors := source.Vectors()
	classCount := int(source.ImageSize())

	classOf := func(r int) int {
		k := 0
		for i, v := range vectors {
			if uint64(r)&v != 0 {
				k |= 1 << uint(i)
			}
		}
		return k
	}

	rowSum := make([][]float64, classCount)
	for k := range rowSum {
		rowSum[k] = make([]float64, m)
	}
	for r := 0; r < m; r++ {
		k := classOf(r)
		for c := 0; c < m; c++ {
			rowSum[k][c] += full.At(r, c)
		}
	}

	onProb := make([]float64, classCount)
	for k := 0; k < classCount; k++ {
		var on, off float64
		for c := 0; c < m; c++ {
			if uint64(c)&targetMask != 0 {
				on += rowSum[k][c]
			} else {
				off += rowSum[k][c]
			}
		}
		if total := on + off; total > 0 {
			onProb[k] = on / total
		}
	}

	out := mat.NewDense(m, m, nil)
	for r := 0; r < m; r++ {
		p := onProb[classOf(r)]
		for c := 0; c < m; c++ {
			if uint64(c)&targetMask != 0 {
				out.Set(r, c, p)
			} else {
				out.Set(r, c, 1-p)
			}
		}
	}
	return out
}

// PartitionedMarginal builds the M×M TPM in which information flow
// between p's two sides has been severed: every element of p.CutFrom
// gets its own unconditional marginal (integrating over the whole
// system), every element of p.CutTo keeps depending only on p.CutTo's
// current state, and the two groups of per-element marginals are
// multiplied together componentwise.
func PartitionedMarginal(p partition.SystemPartition, full *mat.Dense, maxDim int) *mat.Dense {
	m, _ := full.Dims()
	fullMask := uint64(0)
	if maxDim > 0 {
		fullMask = uint64(1)<<uint(maxDim) - 1
	}
	whole := bitspace.FromMask(fullMask, maxDim)
	cutTo := bitspace.FromVectors(indexMasks(p.CutTo), maxDim)

	result := mat.NewDense(m, m, nil)
	for r := 0; r < m; r++ {
		for c := 0; c < m; c++ {
			result.Set(r, c, 1)
		}
	}

	for _, i := range p.CutFrom {
		target := bitspace.FromMask(bitutil.Mask(i), maxDim)
		elem := ElementaryMarginal(target, whole, full)
		result.MulElem(result, elem)
	}
	for _, j := range p.CutTo {
		target := bitspace.FromMask(bitutil.Mask(j), maxDim)
		elem := ElementaryMarginal(target, cutTo, full)
		result.MulElem(result, elem)
	}
	return result
}

func indexMasks(indices []int) []uint64 {
	out := make([]uint64, len(indices))
	for i, idx := range indices {
		out[i] = bitutil.Mask(idx)
	}
	return out
}
