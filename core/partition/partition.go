// core/partition/partition.go
package partition

import (
	"errors"
	"fmt"

	"bmalign/core/align"
)

// ErrTooFewSequences is returned for alignments that cannot be split into a
// one-or-two sequence group and a non-empty remainder.
var ErrTooFewSequences = errors.New("partition: need at least 3 sequences")

// Count is the number of candidate bipartitions of n sequences: n
// singletons followed by every unordered pair.
func Count(n int) int { return n + n*(n-1)/2 }

// Canonical maps k in [0, Count(n)) to the positions forming group1.
// Singletons come first in position order, then pairs (a, b), a < b, in
// lexicographic order.
func Canonical(n, k int) ([]int, error) {
	if n < 3 {
		return nil, ErrTooFewSequences
	}
	if k < 0 || k >= Count(n) {
		return nil, fmt.Errorf("partition: index %d out of range [0,%d)", k, Count(n))
	}
	if k < n {
		return []int{k}, nil
	}
	k -= n
	for a := 0; a < n-1; a++ {
		span := n - 1 - a
		if k < span {
			return []int{a, a + 1 + k}, nil
		}
		k -= span
	}
	panic("unreachable")
}

// ForIndex draws the bipartition for a candidate index. Both groups are
// deep copies ordered by ID; group1 holds one or two sequences.
func ForIndex(aln align.Alignment, index int, mode Mode) (group1, group2 align.Group, err error) {
	n := len(aln)
	if n < 3 {
		return nil, nil, ErrTooFewSequences
	}
	k := mode.Source(index).IntN(Count(n))
	pos, err := Canonical(n, k)
	if err != nil {
		return nil, nil, err
	}
	ordered := aln.Clone()
	ordered.SortByID()
	ids := make([]int, len(pos))
	for i, p := range pos {
		ids[i] = ordered[p].ID
	}
	return split(ordered, ids)
}

// FromIDs rebuilds the bipartition whose group1 is exactly ids.
func FromIDs(aln align.Alignment, ids []int) (group1, group2 align.Group, err error) {
	if len(aln) < 3 {
		return nil, nil, ErrTooFewSequences
	}
	if len(ids) < 1 || len(ids) > 2 {
		return nil, nil, fmt.Errorf("partition: group1 must hold 1 or 2 ids, got %d", len(ids))
	}
	if len(ids) == 2 && ids[0] == ids[1] {
		return nil, nil, fmt.Errorf("partition: duplicate id %d", ids[0])
	}
	ordered := aln.Clone()
	ordered.SortByID()
	return split(ordered, ids)
}

func split(ordered align.Group, ids []int) (group1, group2 align.Group, err error) {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, s := range ordered {
		if want[s.ID] {
			group1 = append(group1, s)
		} else {
			group2 = append(group2, s)
		}
	}
	if len(group1) != len(ids) {
		return nil, nil, fmt.Errorf("partition: ids %v not all present in alignment", ids)
	}
	return group1, group2, nil
}
