// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

// Package approx provides epsilon-tolerant float comparisons used by the
// tie-breaking and early-exit logic that compares φ and big-φ candidates
// with a fixed precision, instead of repeating math.Abs(a-b) < eps at
// every call site. The module's tests do not use it; they compare with
// math.Abs directly.
package approx

import "math"

// DefaultPrecision is the tie-breaking tolerance used throughout the
// core-search and MIP-search logic.
const DefaultPrecision = 1.0e-7

// Equal reports whether a and b are within DefaultPrecision of each other.
func Equal(a, b float64) bool {
	return EqualTol(a, b, DefaultPrecision)
}

// EqualTol reports whether a and b are within tol of each other.
func EqualTol(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

// Zero reports whether v is within DefaultPrecision of zero.
func Zero(v float64) bool {
	return math.Abs(v) < DefaultPrecision
}

// Vectors reports whether two equal-length float64 slices are
// element-wise within tol of each other.
func Vectors(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !EqualTol(a[i], b[i], tol) {
			return false
		}
	}
	return true
}
