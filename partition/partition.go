// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

// Package partition enumerates the two kinds of bipartition this engine
// searches over: MechanismPartition, a split of a candidate purview and
// mechanism's bits into a left and right side, and SystemPartition, a
// cut of a subsystem's elements into a "from" and "to" side.
package partition

// MechanismPartition is a bipartition of a candidate purview's and
// mechanism's bits, expressed as indices into the candidate's own
// ordered vector lists (not global bit positions). A partition is null
// when all four lists are empty.
type MechanismPartition struct {
	LeftPurview    []int
	LeftMechanism  []int
	RightPurview   []int
	RightMechanism []int
}

// IsNull reports whether p has no assigned indices on either side.
func (p MechanismPartition) IsNull() bool {
	return len(p.LeftPurview) == 0 && len(p.LeftMechanism) == 0 &&
		len(p.RightPurview) == 0 && len(p.RightMechanism) == 0
}

// MechanismAdmissible reports whether a candidate with the given
// purview and mechanism dimensions has any non-trivial bipartition at
// all. An empty purview paired with a single-element mechanism has no
// admissible partition and should be skipped before even constructing
// an iterator.
func MechanismAdmissible(purviewDim, mechanismDim int) bool {
	return purviewDim >= 1 || mechanismDim >= 2
}

// MechanismPartitionIterator enumerates every non-trivial bipartition of
// a candidate's (mechanismSize low-order, purviewSize high-order) index
// positions. The mechanism's indices occupy bits [0, mechanismSize) of
// the internal counter, the purview's occupy [mechanismSize,
// mechanismSize+purviewSize); a 0 bit means "goes left", 1 means "goes
// right". The counter runs from 1 to 2^(total-1)-1: the all-zero
// (everything left, trivial) and the top half of the range are both
// excluded, since forcing the top bit to zero means only one of each
// (left, right) / (right, left) pair is ever produced — the two sides
// of a mechanism partition are interchangeable for EMD purposes.
type MechanismPartitionIterator struct {
	purviewSize, mechanismSize int
	current, limit             uint64
}

// NewMechanismPartitionIterator builds an iterator over bipartitions of
// a candidate with purviewSize purview bits and mechanismSize mechanism
// bits. The iterator is empty when purviewSize+mechanismSize <= 1.
func NewMechanismPartitionIterator(purviewSize, mechanismSize int) *MechanismPartitionIterator {
	it := &MechanismPartitionIterator{
		purviewSize:   purviewSize,
		mechanismSize: mechanismSize,
		current:       1,
	}
	total := purviewSize + mechanismSize
	if total >= 1 {
		it.limit = (uint64(1) << uint(total-1)) - 1
	}
	return it
}

// Next returns the next partition, or false once exhausted.
func (it *MechanismPartitionIterator) Next() (MechanismPartition, bool) {
	if it.current > it.limit {
		return MechanismPartition{}, false
	}
	k := it.current
	it.current++

	var part MechanismPartition
	for i := 0; i < it.mechanismSize; i++ {
		if k&(uint64(1)<<uint(i)) != 0 {
			part.RightMechanism = append(part.RightMechanism, i)
		} else {
			part.LeftMechanism = append(part.LeftMechanism, i)
		}
	}
	for i := 0; i < it.purviewSize; i++ {
		if k&(uint64(1)<<uint(it.mechanismSize+i)) != 0 {
			part.RightPurview = append(part.RightPurview, i)
		} else {
			part.LeftPurview = append(part.LeftPurview, i)
		}
	}
	return part, true
}

// SystemPartition is a bipartition of a subsystem's element indices.
// CutFrom's next-state is replaced by its noised marginal, independent
// of CutTo's current state; CutTo keeps depending only on itself.
type SystemPartition struct {
	CutFrom []int
	CutTo   []int
}

// SystemPartitionIterator enumerates every bipartition of n elements
// other than (all, none): counter from 1 to 2^n-2 inclusive, bit i of
// the counter assigning element i to CutTo when set, CutFrom otherwise.
//
// Unlike MechanismPartitionIterator this does NOT halve the range: the
// partitioned-TPM construction is asymmetric under (CutFrom, CutTo) vs
// (CutTo, CutFrom) — cutting information flow cut_to -> cut_from is a
// different TPM than cutting cut_from -> cut_to — so both orientations
// of every bipartition must be produced and tried.
type SystemPartitionIterator struct {
	n              int
	current, limit uint64
}

// NewSystemPartitionIterator builds an iterator over bipartitions of n
// elements. The iterator is empty when n <= 1.
func NewSystemPartitionIterator(n int) *SystemPartitionIterator {
	it := &SystemPartitionIterator{n: n, current: 1}
	if n >= 1 {
		it.limit = (uint64(1) << uint(n)) - 2
	}
	return it
}

// Next returns the next system partition, or false once exhausted.
func (it *SystemPartitionIterator) Next() (SystemPartition, bool) {
	if it.current > it.limit {
		return SystemPartition{}, false
	}
	k := it.current
	it.current++

	var part SystemPartition
	for i := 0; i < it.n; i++ {
		if k&(uint64(1)<<uint(i)) != 0 {
			part.CutTo = append(part.CutTo, i)
		} else {
			part.CutFrom = append(part.CutFrom, i)
		}
	}
	return part, true
}
