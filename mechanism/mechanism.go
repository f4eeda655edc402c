// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

// Package mechanism implements the core-repertoire and concept search:
// for a mechanism, find the purview whose repertoire is least like any
// bipartitioned version of itself, separately for cause and effect, and
// combine the two into a concept.
package mechanism

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/kittoku/go-phi/bitspace"
	"github.com/kittoku/go-phi/emd"
	"github.com/kittoku/go-phi/internal/approx"
	"github.com/kittoku/go-phi/partition"
	"github.com/kittoku/go-phi/repertoire"
)

// Kind selects which repertoire a Parts table caches.
type Kind int

const (
	Cause Kind = iota
	Effect
)

// Parts is the M²×M repertoire-parts cache: row (purviewMask <<
// maxDim) | mechanismMask holds the length-M repertoire for that
// purview/mechanism pair. Built once per subsystem, separately for
// cause and effect.
type Parts struct {
	maxDim int
	rows   *mat.Dense
}

func partsRowIndex(maxDim int, purviewMask, mechanismMask uint64) int {
	return int(purviewMask<<uint(maxDim) | mechanismMask)
}

// GenerateAllRepertoireParts computes kind's repertoire for every
// (purview, mechanism) mask pair over a maxDim-element subsystem.
//
// This is deliberately sequential rather than pool-parallelised: it is
// itself invoked from inside the per-subset worker callbacks of a
// complex search (system.SearchComplex), and handing its rows back to
// the same shared pool would re-enter a worker pool from one of its own
// workers — every worker could end up blocked waiting on a nested
// ParallelForAtomic with no free worker left to service it. Only the
// outer-most fan-out (TPM construction, subset search) uses the pool.
func GenerateAllRepertoireParts(kind Kind, state uint64, t *mat.Dense, maxDim int) *Parts {
	m := int(uint64(1) << uint(maxDim))
	rows := mat.NewDense(m*m, m, nil)

	for idx := 0; idx < m*m; idx++ {
		purviewMask := uint64(idx) >> uint(maxDim)
		mechanismMask := uint64(idx) & (uint64(1)<<uint(maxDim) - 1)
		purview := bitspace.FromMask(purviewMask, maxDim)
		mech := bitspace.FromMask(mechanismMask, maxDim)

		var rep []float64
		if kind == Cause {
			rep = repertoire.Cause(purview, mech, state, t)
		} else {
			rep = repertoire.Effect(purview, mech, state, t)
		}
		for c, v := range rep {
			rows.Set(idx, c, v)
		}
	}
	return &Parts{maxDim: maxDim, rows: rows}
}

// Row returns the cached repertoire for a purview/mechanism mask pair.
// The returned slice is a view into the parts table and must not be
// mutated.
func (p *Parts) Row(purviewMask, mechanismMask uint64) []float64 {
	return p.rows.RawRowView(partsRowIndex(p.maxDim, purviewMask, mechanismMask))
}

// CoreRepertoire is the maximum-phi candidate purview for a mechanism.
type CoreRepertoire struct {
	Purview    bitspace.Subspace
	Repertoire []float64
	Partition  partition.MechanismPartition
	Phi        float64
}

// Concept is a mechanism together with its irreducible cause and effect
// core repertoires.
type Concept struct {
	Mechanism  bitspace.Subspace
	CoreCause  CoreRepertoire
	CoreEffect CoreRepertoire
	Phi        float64
}

// DistanceFrom is the concept-to-concept distance the constellation EMD
// is built from: the sum of the cause-repertoire and effect-repertoire
// EMDs between a and b.
func DistanceFrom(a, b Concept) float64 {
	causeDist, err := emd.Repertoire(a.CoreCause.Repertoire, b.CoreCause.Repertoire)
	if err != nil {
		panic(err)
	}
	effectDist, err := emd.Repertoire(a.CoreEffect.Repertoire, b.CoreEffect.Repertoire)
	if err != nil {
		panic(err)
	}
	return causeDist + effectDist
}

func elemMul(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

// preferCandidate implements the outer-maximum tie-break: candidates
// within DefaultPrecision of each other are broken by larger dimension;
// otherwise the strictly larger phi wins.
func preferCandidate(newDim int, newPhi float64, curDim int, curPhi float64) bool {
	if approx.EqualTol(newPhi, curPhi, approx.DefaultPrecision) {
		return newDim > curDim
	}
	return newPhi > curPhi
}

// SearchCore finds mechanism's maximum-phi candidate purview within
// parts, the repertoire parts table built for either CAUSE or EFFECT.
func SearchCore(mechanism bitspace.Subspace, parts *Parts) CoreRepertoire {
	maxDim := mechanism.MaxDim()
	m := int(uint64(1) << uint(maxDim))

	var best CoreRepertoire
	haveBest := false

	for purviewMask := 0; purviewMask < m; purviewMask++ {
		candidate := bitspace.FromMask(uint64(purviewMask), maxDim)
		if !partition.MechanismAdmissible(candidate.Dim(), mechanism.Dim()) {
			continue
		}

		cc := candidate.GenerateComplement()
		unconstrainedPart := parts.Row(cc.ToMask(), 0)
		criterion := elemMul(unconstrainedPart, parts.Row(uint64(purviewMask), mechanism.ToMask()))

		minEmd := 0.0
		haveMin := false
		var bestPartition partition.MechanismPartition

		it := partition.NewMechanismPartitionIterator(candidate.Dim(), mechanism.Dim())
		for {
			p, ok := it.Next()
			if !ok {
				break
			}
			leftPurview := candidate.Sub(p.LeftPurview)
			leftMechanism := mechanism.Sub(p.LeftMechanism)
			rightPurview := candidate.Sub(p.RightPurview)
			rightMechanism := mechanism.Sub(p.RightMechanism)

			leftRow := parts.Row(leftPurview.ToMask(), leftMechanism.ToMask())
			rightRow := parts.Row(rightPurview.ToMask(), rightMechanism.ToMask())
			joint := elemMul(elemMul(unconstrainedPart, leftRow), rightRow)

			e, err := emd.Repertoire(criterion, joint)
			if err != nil {
				panic(err)
			}

			if !haveMin || e < minEmd {
				minEmd = e
				bestPartition = p
				haveMin = true
			}
			if approx.Zero(minEmd) {
				break
			}
		}
		if !haveMin {
			minEmd = 0
		}

		if !haveBest || preferCandidate(candidate.Dim(), minEmd, best.Purview.Dim(), best.Phi) {
			best = CoreRepertoire{
				Purview:    candidate,
				Repertoire: criterion,
				Partition:  bestPartition,
				Phi:        minEmd,
			}
			haveBest = true
		}
	}
	return best
}

// SearchConcept builds mechanism's concept from independently-searched
// cause and effect core repertoires.
func SearchConcept(mechanism bitspace.Subspace, causeParts, effectParts *Parts) Concept {
	cause := SearchCore(mechanism, causeParts)
	effect := SearchCore(mechanism, effectParts)
	return Concept{
		Mechanism:  mechanism,
		CoreCause:  cause,
		CoreEffect: effect,
		Phi:        math.Min(cause.Phi, effect.Phi),
	}
}
