// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

// Package system implements the subsystem-level search: a constellation
// of concepts, the system bipartition that minimises constellation
// distance from the intact constellation (big-phi and its MIP), and the
// search over every subset of the network for the complex that
// maximises big-phi.
package system

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"

	"github.com/kittoku/go-phi/bitspace"
	"github.com/kittoku/go-phi/bitutil"
	"github.com/kittoku/go-phi/emd"
	"github.com/kittoku/go-phi/internal/approx"
	"github.com/kittoku/go-phi/mechanism"
	"github.com/kittoku/go-phi/partition"
	"github.com/kittoku/go-phi/tpm"
	"github.com/kittoku/go-phi/workerpool"
)

// MinimumInformationPartition is the system bipartition that minimises
// constellation distance from the intact constellation: its Phi is the
// subsystem's big-phi.
type MinimumInformationPartition struct {
	Partition partition.SystemPartition
	Phi       float64
}

// Constellation is a subsystem's set of phi>0 concepts, its null
// concept (unconstrained cause/effect repertoires over the whole
// subsystem, empty mechanism), and the system-level MIP once computed.
type Constellation struct {
	Concepts    []mechanism.Concept
	NullConcept mechanism.Concept
	MIP         MinimumInformationPartition
}

// Complex is the subset of elements, its conditioned marginal TPM, and
// its constellation, for the subset found to maximise big-phi.
type Complex struct {
	Elements      []int
	MarginalTPM   *mat.Dense
	Constellation Constellation
}

// conceptRef adapts a *mechanism.Concept to emd.Concept so constellation
// distances can be computed without the lower-level emd package knowing
// about mechanism.Concept.
type conceptRef struct{ c *mechanism.Concept }

func (r conceptRef) Phi() float64 { return r.c.Phi }
func (r conceptRef) DistanceFrom(other emd.Concept) float64 {
	return mechanism.DistanceFrom(*r.c, *other.(conceptRef).c)
}

func constellationEMD(from, to Constellation) (float64, error) {
	fromRefs := make([]emd.Concept, len(from.Concepts))
	for i := range from.Concepts {
		fromRefs[i] = conceptRef{&from.Concepts[i]}
	}
	toRefs := make([]emd.Concept, len(to.Concepts))
	for i := range to.Concepts {
		toRefs[i] = conceptRef{&to.Concepts[i]}
	}
	return emd.Constellation(fromRefs, toRefs, conceptRef{&to.NullConcept})
}

// SearchConstellationWithParts builds the full constellation (every
// mechanism with phi > 0) of a subsystem given its cause and effect
// repertoire parts tables. The returned MIP is the null partition with
// phi 0; callers that need big-phi use SearchConstellationWithMIP.
func SearchConstellationWithParts(causeParts, effectParts *mechanism.Parts, maxDim int) Constellation {
	m := int(uint64(1) << uint(maxDim))
	systemMask := uint64(m - 1)
	full := bitspace.FromMask(systemMask, maxDim)

	null := mechanism.Concept{
		Mechanism: bitspace.Null(maxDim),
		CoreCause: mechanism.CoreRepertoire{
			Purview:    full,
			Repertoire: causeParts.Row(systemMask, 0),
		},
		CoreEffect: mechanism.CoreRepertoire{
			Purview:    full,
			Repertoire: effectParts.Row(systemMask, 0),
		},
	}

	var concepts []mechanism.Concept
	for mechMask := 1; mechMask < m; mechMask++ {
		mech := bitspace.FromMask(uint64(mechMask), maxDim)
		concept := mechanism.SearchConcept(mech, causeParts, effectParts)
		if concept.Phi > 0 {
			concepts = append(concepts, concept)
		}
	}

	return Constellation{Concepts: concepts, NullConcept: null}
}

// SearchConstellationWithMIP computes the intact constellation of a
// maxDim-element subsystem at state under TPM t, then searches every
// system bipartition for the one minimising constellation distance from
// it: that minimum is the subsystem's big-phi.
func SearchConstellationWithMIP(state uint64, t *mat.Dense, maxDim int) Constellation {
	causeParts := mechanism.GenerateAllRepertoireParts(mechanism.Cause, state, t, maxDim)
	effectParts := mechanism.GenerateAllRepertoireParts(mechanism.Effect, state, t, maxDim)
	intact := SearchConstellationWithParts(causeParts, effectParts, maxDim)

	minEmd := 0.0
	haveMin := false
	var bestPartition partition.SystemPartition

	it := partition.NewSystemPartitionIterator(maxDim)
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		partitionedTPM := tpm.PartitionedMarginal(p, t, maxDim)
		pCauseParts := mechanism.GenerateAllRepertoireParts(mechanism.Cause, state, partitionedTPM, maxDim)
		pEffectParts := mechanism.GenerateAllRepertoireParts(mechanism.Effect, state, partitionedTPM, maxDim)
		partitioned := SearchConstellationWithParts(pCauseParts, pEffectParts, maxDim)

		e, err := constellationEMD(intact, partitioned)
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

	intact.MIP = MinimumInformationPartition{Partition: bestPartition, Phi: minEmd}
	return intact
}

// Progress is reported by SearchComplex after each subset evaluation.
type Progress struct {
	Done, Total int
	Elements    []int
	BigPhi      float64
}

// SearchComplex enumerates every non-empty subset of an n-element
// system, computes each subset's conditioned marginal TPM and
// constellation, and returns the subset with the largest big-phi.
// Subset evaluations are distributed across pool; onProgress, if
// non-nil, is called after every subset completes (concurrently with
// other calls, so it must be safe to call from multiple goroutines).
func SearchComplex(pool *workerpool.Pool, state uint64, t *mat.Dense, n int, onProgress func(Progress)) Complex {
	total := int(uint64(1)<<uint(n)) - 1

	var mu sync.Mutex
	var best Complex
	haveBest := false
	var done atomic.Int64

	pool.ParallelForAtomic(total, func(idx int) {
		mask := uint64(idx + 1)
		subspace := bitspace.FromMask(mask, n)
		marginal := tpm.FixedMarginal(subspace, state, t)
		compactState := compactState(subspace, state)

		constellation := SearchConstellationWithMIP(compactState, marginal, subspace.Dim())
		elements := bitutil.Indices(mask)

		if onProgress != nil {
			onProgress(Progress{
				Done:     int(done.Add(1)),
				Total:    total,
				Elements: elements,
				BigPhi:   constellation.MIP.Phi,
			})
		}

		mu.Lock()
		if !haveBest || constellation.MIP.Phi > best.Constellation.MIP.Phi {
			best = Complex{Elements: elements, MarginalTPM: marginal, Constellation: constellation}
			haveBest = true
		}
		mu.Unlock()
	})
	return best
}

// compactState projects state onto s's bit positions and repacks it
// into s's own dim-bit compact index space, the same indexing
// FixedMarginal's output matrix uses.
func compactState(s bitspace.Subspace, state uint64) uint64 {
	var compact uint64
	for i, v := range s.Vectors() {
		if state&v != 0 {
			compact |= uint64(1) << uint(i)
		}
	}
	return compact
}
