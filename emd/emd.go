// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

// Package emd implements the two earth-mover distance variants this
// engine needs: a Hamming-cost optimal transport between equal-mass
// distributions (mechanism-level φ), and the extended transport problem
// with a null sink (constellation big-φ).
//
// Both are formulated as dense standard-form linear programs and handed
// to gonum's convex/lp.Simplex, treated as an external collaborator
// rather than a hand-rolled solver, the same role a dedicated LP crate
// played in the system this engine was ported from.
package emd

import (
	"fmt"
	"math/bits"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// SolveError wraps an LP failure. An infeasible transport problem means
// the caller built inconsistent supply/demand totals, an invariant bug
// rather than a recoverable input condition, so this is treated as fatal.
type SolveError struct {
	Context string
	Err     error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("emd: %s: %v", e.Context, e.Err)
}

func (e *SolveError) Unwrap() error { return e.Err }

// hamming is the ground distance d(i, j) = popcount(i XOR j) shared by
// both EMD variants.
func hamming(i, j int) float64 {
	return float64(bits.OnesCount(uint(i ^ j)))
}

// Repertoire computes the Hamming-cost EMD between two equal-mass,
// equal-length, non-negative distributions. Callers must guarantee
// len(p) == len(q) >= 1; a mismatch is a programmer error, not a
// recoverable input condition, so it panics rather than erroring.
func Repertoire(p, q []float64) (float64, error) {
	if len(p) == 0 {
		panic("emd: Repertoire requires non-empty distributions")
	}
	if len(p) != len(q) {
		panic("emd: Repertoire requires vectors of equal length")
	}
	l := len(p)

	// Variables x_ij, i,j in [0,l). Row i sums to p[i], column j to
	// q[j]. Total supply == total demand (equal mass), so one column
	// constraint is linearly dependent on the rest; it is dropped to
	// keep the constraint matrix full rank, a standard transportation-LP
	// reduction.
	nVars := l * l
	nRows := l + (l - 1)

	c := make([]float64, nVars)
	for i := 0; i < l; i++ {
		for j := 0; j < l; j++ {
			c[i*l+j] = hamming(i, j)
		}
	}

	a := mat.NewDense(nRows, nVars, nil)
	b := make([]float64, nRows)

	for i := 0; i < l; i++ {
		for j := 0; j < l; j++ {
			a.Set(i, i*l+j, 1)
		}
		b[i] = p[i]
	}
	for j := 0; j < l-1; j++ {
		for i := 0; i < l; i++ {
			a.Set(l+j, i*l+j, 1)
		}
		b[l+j] = q[j]
	}

	opt, _, err := lp.Simplex(c, a, b, 0, nil)
	if err != nil {
		return 0, &SolveError{Context: "repertoire transport", Err: err}
	}
	return opt, nil
}

// Concept is the minimal interface constellation transport needs from a
// concept: its φ mass and its cost to transport to another concept
// (the sum of the cause-repertoire and effect-repertoire EMDs between
// them). Kept as an interface, not a concrete struct import, so this
// package has no dependency on the mechanism/system packages that
// define Concept — emd is lower in the dependency graph.
type Concept interface {
	Phi() float64
	DistanceFrom(other Concept) float64
}

// Constellation computes the constellation EMD: the transport problem
// from the "from" concepts to the "to" concepts, plus a null sink
// absorbing any mass that cannot be matched because the two
// constellations' total φ differ. Returns 0 immediately if from is empty.
func Constellation(from, to []Concept, nullConcept Concept) (float64, error) {
	n := len(from)
	if n == 0 {
		return 0, nil
	}
	m := len(to)

	var totalFrom, totalTo float64
	for _, c := range from {
		totalFrom += c.Phi()
	}
	for _, c := range to {
		totalTo += c.Phi()
	}
	oversupply := totalFrom - totalTo

	// Variables: x_ij for i in [0,n), j in [0,m) (matching from[i] to
	// to[j]), plus y_i for i in [0,n) (from[i] sent to the null sink).
	nVars := n*m + n
	idxX := func(i, j int) int { return i*m + j }
	idxY := func(i int) int { return n*m + i }

	c := make([]float64, nVars)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			c[idxX(i, j)] = from[i].DistanceFrom(to[j])
		}
		c[idxY(i)] = from[i].DistanceFrom(nullConcept)
	}

	// Row i: sum_j x_ij + y_i = from[i].phi               (n constraints)
	// Col j: sum_i x_ij = to[j].phi                        (m constraints)
	// Null:  sum_i y_i = oversupply                        (1 constraint)
	// The null constraint is implied by the row and column constraints
	// together (oversupply is defined as totalFrom - totalTo), so it is
	// dropped to keep the matrix full rank — unless there are no column
	// constraints to carry that redundancy (m == 0), in which case the
	// null constraint is the only way to pin y_i and must be kept.
	var nRows int
	if m == 0 {
		nRows = n + 1
	} else {
		nRows = n + m
	}

	a := mat.NewDense(nRows, nVars, nil)
	b := make([]float64, nRows)

	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			a.Set(i, idxX(i, j), 1)
		}
		a.Set(i, idxY(i), 1)
		b[i] = from[i].Phi()
	}
	for j := 0; j < m; j++ {
		for i := 0; i < n; i++ {
			a.Set(n+j, idxX(i, j), 1)
		}
		b[n+j] = to[j].Phi()
	}
	if m == 0 {
		for i := 0; i < n; i++ {
			a.Set(n, idxY(i), 1)
		}
		b[n] = oversupply
	}

	opt, _, err := lp.Simplex(c, a, b, 0, nil)
	if err != nil {
		return 0, &SolveError{Context: "constellation transport", Err: err}
	}
	return opt, nil
}
