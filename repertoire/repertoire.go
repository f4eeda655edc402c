// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

// Package repertoire computes cause and effect repertoires: the
// conditional probability distribution over a purview's past or future
// states, given a mechanism held at a fixed current state.
package repertoire

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kittoku/go-phi/bitspace"
)

// Normalize scales v in place so that sum(v) == target. A v that sums
// to zero is left unchanged.
func Normalize(v []float64, target float64) {
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum == 0 {
		return
	}
	scale := target / sum
	for i := range v {
		v[i] *= scale
	}
}

func allOnes(m int) []float64 {
	out := make([]float64, m)
	for i := range out {
		out[i] = 1
	}
	return out
}

// Cause computes the cause repertoire p(purview^past | mechanism^current
// = state) as a length-M vector (M = t's row/column count).
func Cause(purview, mechanism bitspace.Subspace, state uint64, t *mat.Dense) []float64 {
	m, _ := t.Dims()

	if purview.Dim() == 0 {
		return allOnes(m)
	}
	if mechanism.Dim() == 0 {
		out := make([]float64, m)
		v := 1.0 / float64(purview.ImageSize())
		for i := range out {
			out[i] = v
		}
		return out
	}
	if mechanism.Dim() == 1 {
		out := elementaryCause(purview, mechanism, state, t)
		Normalize(out, float64(purview.CodimImageSize()))
		return out
	}

	out := allOnes(m)
	for _, bit := range mechanism.Vectors() {
		single := bitspace.FromMask(bit, mechanism.MaxDim())
		factor := elementaryCause(purview, single, state, t)
		for i := range out {
			out[i] *= factor[i]
		}
	}
	Normalize(out, float64(purview.CodimImageSize()))
	return out
}

// elementaryCause is the single-mechanism-bit factor shared by Cause's
// dim==1 and dim>1 cases: for each past state r, sum T[r, c] over every
// next-state c agreeing with state on mechanism's bit, then redistribute
// that per-row value across purview equivalence classes.
func elementaryCause(purview, mechanism bitspace.Subspace, state uint64, t *mat.Dense) []float64 {
	m, _ := t.Dims()

	mc := mechanism.GenerateComplement()
	cols := mc.All(mechanism.FixedState(state))

	accumulated := make([]float64, m)
	for r := 0; r < m; r++ {
		var sum float64
		for _, c := range cols {
			sum += t.At(r, int(c))
		}
		accumulated[r] = sum
	}

	pc := purview.GenerateComplement()
	classSum := make(map[uint64]float64, purview.ImageSize())
	for k := uint64(0); k < purview.ImageSize(); k++ {
		key := purview.Expand(k)
		var sum float64
		for _, r := range pc.All(key) {
			sum += accumulated[r]
		}
		classSum[key] = sum
	}

	out := make([]float64, m)
	for r := 0; r < m; r++ {
		out[r] = classSum[purview.FixedState(uint64(r))]
	}
	return out
}

// Effect computes the effect repertoire p(purview^future |
// mechanism^current = state) as a length-M vector.
func Effect(purview, mechanism bitspace.Subspace, state uint64, t *mat.Dense) []float64 {
	m, _ := t.Dims()

	if purview.Dim() == 0 {
		return allOnes(m)
	}
	if purview.Dim() == 1 {
		out := elementaryEffect(purview, mechanism, state, t)
		Normalize(out, float64(purview.CodimImageSize()))
		return out
	}

	out := allOnes(m)
	for _, bit := range purview.Vectors() {
		single := bitspace.FromMask(bit, purview.MaxDim())
		factor := elementaryEffect(single, mechanism, state, t)
		for i := range out {
			out[i] *= factor[i]
		}
	}
	Normalize(out, float64(purview.CodimImageSize()))
	return out
}

// elementaryEffect is Effect's single-purview-bit factor: sum T[r, c]
// over every past state r agreeing with state on mechanism's bits, then
// redistribute that per-column value across purview equivalence classes.
func elementaryEffect(purview, mechanism bitspace.Subspace, state uint64, t *mat.Dense) []float64 {
	m, _ := t.Dims()

	mc := mechanism.GenerateComplement()
	rows := mc.All(mechanism.FixedState(state))

	accumulated := make([]float64, m)
	for c := 0; c < m; c++ {
		var sum float64
		for _, r := range rows {
			sum += t.At(int(r), c)
		}
		accumulated[c] = sum
	}

	pc := purview.GenerateComplement()
	classSum := make(map[uint64]float64, purview.ImageSize())
	for k := uint64(0); k < purview.ImageSize(); k++ {
		key := purview.Expand(k)
		var sum float64
		for _, c := range pc.All(key) {
			sum += accumulated[c]
		}
		classSum[key] = sum
	}

	out := make([]float64, m)
	for c := 0; c < m; c++ {
		out[c] = classSum[purview.FixedState(uint64(c))]
	}
	return out
}
