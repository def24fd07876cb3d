// core/align/group.go
package align

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEmptyGroup is returned when a group with no sequences (or no
	// columns where columns are required) reaches the engine.
	ErrEmptyGroup = errors.New("align: empty group")
	// ErrRaggedGroup is returned when members of a group differ in length.
	ErrRaggedGroup = errors.New("align: sequences in group differ in length")
)

// Sequence is one row of an alignment. ID is the original record index and
// is the only handle used to find a sequence again after regrouping.
type Sequence struct {
	ID       int
	Residues []byte
}

// Clone returns a deep copy.
func (s Sequence) Clone() Sequence {
	return Sequence{ID: s.ID, Residues: append([]byte(nil), s.Residues...)}
}

// Ungapped returns the residues with every gap removed.
func (s Sequence) Ungapped() []byte {
	out := make([]byte, 0, len(s.Residues))
	for _, c := range s.Residues {
		if c != Gap {
			out = append(out, c)
		}
	}
	return out
}

// Group is an ordered list of mutually aligned sequences.
type Group []Sequence

// Alignment is a Group holding every input sequence, ordered by ID.
type Alignment = Group

// Width returns the shared column count of g.
func (g Group) Width() (int, error) {
	if len(g) == 0 {
		return 0, ErrEmptyGroup
	}
	w := len(g[0].Residues)
	for _, s := range g[1:] {
		if len(s.Residues) != w {
			return 0, fmt.Errorf("%w: id %d has %d columns, id %d has %d",
				ErrRaggedGroup, g[0].ID, w, s.ID, len(s.Residues))
		}
	}
	return w, nil
}

// Clone returns a deep copy of g.
func (g Group) Clone() Group {
	out := make(Group, len(g))
	for i, s := range g {
		out[i] = s.Clone()
	}
	return out
}

// IDs lists member IDs in group order.
func (g Group) IDs() []int {
	ids := make([]int, len(g))
	for i, s := range g {
		ids[i] = s.ID
	}
	return ids
}

// SortByID orders g in place by ascending ID.
func (g Group) SortByID() {
	sort.Slice(g, func(i, j int) bool { return g[i].ID < g[j].ID })
}

// SumOfPairs scores a whole group: every pair of members, every column.
func SumOfPairs(p Params, g Group) (int, error) {
	w, err := g.Width()
	if err != nil {
		return 0, err
	}
	total := 0
	for c := 0; c < w; c++ {
		total += intraPairs(p, g, c)
	}
	return total, nil
}

// Naive builds the starting alignment: each sequence padded with gaps up to
// the longest one.
func Naive(seqs []Sequence) Alignment {
	longest := 0
	for _, s := range seqs {
		if len(s.Residues) > longest {
			longest = len(s.Residues)
		}
	}
	out := make(Alignment, len(seqs))
	for i, s := range seqs {
		row := make([]byte, longest)
		n := copy(row, s.Residues)
		for k := n; k < longest; k++ {
			row[k] = Gap
		}
		out[i] = Sequence{ID: s.ID, Residues: row}
	}
	out.SortByID()
	return out
}
