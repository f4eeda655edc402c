// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

package partition

import "testing"

func TestMechanismPartitionIteratorCount(t *testing.T) {
	// total = 3 bits -> 2^(3-1)-1 = 3 partitions.
	it := NewMechanismPartitionIterator(1, 2)
	n := 0
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		if p.IsNull() {
			t.Errorf("partition %d is unexpectedly null", n)
		}
		n++
	}
	if n != 3 {
		t.Errorf("got %d partitions, want 3", n)
	}
}

func TestMechanismPartitionIteratorEmptyWhenTrivial(t *testing.T) {
	// purview=0, mechanism=1: total=1, not admissible.
	if MechanismAdmissible(0, 1) {
		t.Error("MechanismAdmissible(0,1) should be false")
	}
	it := NewMechanismPartitionIterator(0, 1)
	if _, ok := it.Next(); ok {
		t.Error("iterator over a single bit should be empty")
	}
}

func TestMechanismPartitionIteratorAssignsEveryIndex(t *testing.T) {
	it := NewMechanismPartitionIterator(2, 2)
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		if len(p.LeftPurview)+len(p.RightPurview) != 2 {
			t.Errorf("purview indices not fully assigned: %+v", p)
		}
		if len(p.LeftMechanism)+len(p.RightMechanism) != 2 {
			t.Errorf("mechanism indices not fully assigned: %+v", p)
		}
	}
}

func TestSystemPartitionIteratorCount(t *testing.T) {
	it := NewSystemPartitionIterator(3)
	n := 0
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		n++
	}
	// 2^3 - 2 = 6: every non-trivial bipartition, both orientations.
	if n != 6 {
		t.Errorf("got %d partitions, want 6", n)
	}
}

func TestSystemPartitionIteratorBothOrientations(t *testing.T) {
	it := NewSystemPartitionIterator(2)
	var got []SystemPartition
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, p)
	}
	if len(got) != 2 {
		t.Fatalf("got %d partitions, want 2", len(got))
	}
	// The same unordered bipartition {0}|{1} should appear with both
	// elements playing CutFrom once each.
	seenFrom0 := false
	seenFrom1 := false
	for _, p := range got {
		if len(p.CutFrom) == 1 && p.CutFrom[0] == 0 {
			seenFrom0 = true
		}
		if len(p.CutFrom) == 1 && p.CutFrom[0] == 1 {
			seenFrom1 = true
		}
	}
	if !seenFrom0 || !seenFrom1 {
		t.Errorf("both orientations of the single bipartition were not produced: %+v", got)
	}
}

func TestSystemPartitionIteratorEmptyForSmallN(t *testing.T) {
	for _, n := range []int{0, 1} {
		it := NewSystemPartitionIterator(n)
		if _, ok := it.Next(); ok {
			t.Errorf("NewSystemPartitionIterator(%d) should be empty", n)
		}
	}
}
