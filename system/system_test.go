// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

package system

import (
	"math"
	"sync/atomic"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/kittoku/go-phi/bitspace"
	"github.com/kittoku/go-phi/link"
	"github.com/kittoku/go-phi/tpm"
	"github.com/kittoku/go-phi/workerpool"
)

// buildFig1 builds the Oizumi/Albantakis/Tononi 2014 Fig.1 three-element
// network: A = B OR C, B = A AND C, C = A XOR B.
func buildFig1(t *testing.T) (*workerpool.Pool, int, *mat.Dense) {
	t.Helper()
	pool := workerpool.New(2)
	maskBC := uint64(0b110)
	maskAC := uint64(0b101)
	maskAB := uint64(0b011)
	fns := []link.Fn{
		link.ForType(link.OR, maskBC),
		link.ForType(link.AND, maskAC),
		link.ForType(link.XOR, maskAB),
	}
	masks := []uint64{maskBC, maskAC, maskAB}
	tp, err := tpm.Build(pool, fns, masks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return pool, 3, tp
}

func TestSearchConstellationWithMIPNonNegativePhi(t *testing.T) {
	pool, maxDim, tp := buildFig1(t)
	defer pool.Close()

	state := uint64(0b101) // A=1, B=0, C=1
	constellation := SearchConstellationWithMIP(state, tp, maxDim)
	if constellation.MIP.Phi < 0 {
		t.Errorf("MIP.Phi = %v, want >= 0", constellation.MIP.Phi)
	}
}

func TestSearchConstellationWithMIPSinglePartitionCase(t *testing.T) {
	pool, _, tp := buildFig1(t)
	defer pool.Close()

	// A single-element subsystem has no non-trivial bipartition: big-phi
	// must come back as exactly 0.
	subspace := bitspace.FromMask(0b001, 3)
	single := tpm.FixedMarginal(subspace, 0b101, tp)
	constellation := SearchConstellationWithMIP(0, single, 1)
	if constellation.MIP.Phi != 0 {
		t.Errorf("single-element MIP.Phi = %v, want 0", constellation.MIP.Phi)
	}
}

// TestSearchConstellationWithMIPMatchesPublishedFig1Scenario is spec.md
// §8 scenario S5: the system MIP for ABC at state 0b001 is the
// bipartition {A,B} | {C}, with big-phi ≈ 0.1875 (compare within 1e-6).
func TestSearchConstellationWithMIPMatchesPublishedFig1Scenario(t *testing.T) {
	pool, maxDim, tp := buildFig1(t)
	defer pool.Close()

	constellation := SearchConstellationWithMIP(0b001, tp, maxDim)
	if got, want := constellation.MIP.Phi, 0.1875; math.Abs(got-want) > 1e-6 {
		t.Errorf("MIP.Phi = %v, want ~%v", got, want)
	}

	p := constellation.MIP.Partition
	abC := intSliceEq(p.CutFrom, []int{0, 1}) && intSliceEq(p.CutTo, []int{2})
	cAB := intSliceEq(p.CutFrom, []int{2}) && intSliceEq(p.CutTo, []int{0, 1})
	if !abC && !cAB {
		t.Errorf("MIP.Partition = %+v, want {A,B} | {C} in either orientation", p)
	}
}

func intSliceEq(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// buildFig1Wrapper builds the 6-element Fig.1 wrapper network: the
// Fig.1 triad A,B,C plus D,E,F wired as NOISY coin-flips independent of
// everything else.
func buildFig1Wrapper(t *testing.T) (*workerpool.Pool, *mat.Dense) {
	t.Helper()
	pool := workerpool.New(2)
	maskBC := uint64(0b000110)
	maskAC := uint64(0b000101)
	maskAB := uint64(0b000011)
	fns := []link.Fn{
		link.ForType(link.OR, maskBC),
		link.ForType(link.AND, maskAC),
		link.ForType(link.XOR, maskAB),
		link.ForType(link.NOISY, 0b001000),
		link.ForType(link.NOISY, 0b010000),
		link.ForType(link.NOISY, 0b100000),
	}
	masks := []uint64{maskBC, maskAC, maskAB, 0b001000, 0b010000, 0b100000}
	full, err := tpm.Build(pool, fns, masks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return pool, full
}

// TestSearchComplexMatchesPublishedFig1Scenario is spec.md §8 scenario
// S6: searching all 63 non-empty subsets of ABCDEF at full-state
// 0b010001 finds {A,B,C} (indices 0,1,2) as the complex.
func TestSearchComplexMatchesPublishedFig1Scenario(t *testing.T) {
	pool, full := buildFig1Wrapper(t)
	defer pool.Close()

	best := SearchComplex(pool, 0b010001, full, 6, nil)
	if !intSliceEq(best.Elements, []int{0, 1, 2}) {
		t.Errorf("complex = %v, want [0 1 2]", best.Elements)
	}
}

// TestSearchConstellationWithMIPAllNoisyIsZero covers spec.md §8
// invariant 7: if every link function is NOISY, the network's next
// state is independent of its current state, so every mechanism is
// fully reducible and big-phi is 0.
func TestSearchConstellationWithMIPAllNoisyIsZero(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Close()

	fns := []link.Fn{
		link.ForType(link.NOISY, 0b010),
		link.ForType(link.NOISY, 0b001),
		link.ForType(link.NOISY, 0b011),
	}
	masks := []uint64{0b010, 0b001, 0b011}
	tp, err := tpm.Build(pool, fns, masks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	constellation := SearchConstellationWithMIP(0b101, tp, 3)
	if constellation.MIP.Phi != 0 {
		t.Errorf("all-NOISY MIP.Phi = %v, want 0", constellation.MIP.Phi)
	}
	if len(constellation.Concepts) != 0 {
		t.Errorf("all-NOISY constellation has %d concepts, want 0", len(constellation.Concepts))
	}
}

// TestSearchConstellationWithMIPFeedforwardChainIsZero covers spec.md
// §8 invariant 8: a feedforward chain has no cycle in its condition
// edges once NOISY's constant, input-independent output is excluded
// from the dependency graph (A is a pure noise source; B depends only
// on A; C depends only on B), and its big-phi is 0.
func TestSearchConstellationWithMIPFeedforwardChainIsZero(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Close()

	fns := []link.Fn{
		link.ForType(link.NOISY, 0b010), // A: independent of everything
		link.ForType(link.COPY, 0b001),  // B: copies A
		link.ForType(link.COPY, 0b010),  // C: copies B
	}
	masks := []uint64{0b010, 0b001, 0b010}
	tp, err := tpm.Build(pool, fns, masks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	constellation := SearchConstellationWithMIP(0b011, tp, 3)
	if math.Abs(constellation.MIP.Phi) > 1e-7 {
		t.Errorf("feedforward chain MIP.Phi = %v, want 0", constellation.MIP.Phi)
	}
}

func TestSearchComplexFindsBestSubset(t *testing.T) {
	pool, n, tp := buildFig1(t)
	defer pool.Close()

	state := uint64(0b101)
	best := SearchComplex(pool, state, tp, n, nil)

	if len(best.Elements) == 0 {
		t.Fatal("SearchComplex returned an empty complex")
	}
	if best.Constellation.MIP.Phi < 0 {
		t.Errorf("complex big-phi = %v, want >= 0", best.Constellation.MIP.Phi)
	}
}

func TestSearchComplexReportsProgress(t *testing.T) {
	pool, n, tp := buildFig1(t)
	defer pool.Close()

	state := uint64(0b101)
	var reports atomic.Int64
	SearchComplex(pool, state, tp, n, func(p Progress) {
		reports.Add(1)
		if p.Total != (1<<uint(n))-1 {
			t.Errorf("progress.Total = %d, want %d", p.Total, (1<<uint(n))-1)
		}
	})

	want := (1 << uint(n)) - 1
	if got := int(reports.Load()); got != want {
		t.Errorf("got %d progress reports, want %d", got, want)
	}
}

func TestCompactStateRepacksSelectedBits(t *testing.T) {
	s := bitspace.FromMask(0b110, 3) // elements 1, 2 (B, C)
	full := uint64(0b110)            // A=0, B=1, C=1
	got := compactState(s, full)
	want := uint64(0b11) // both selected bits set
	if got != want {
		t.Errorf("compactState = %b, want %b", got, want)
	}
}
