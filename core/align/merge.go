// core/align/merge.go
package align

import (
	"errors"
	"fmt"
)

// ErrPatternMismatch is returned when a gap pattern cannot be applied to a
// pair of groups.
var ErrPatternMismatch = errors.New("align: gap pattern does not fit groups")

// GapEntry is one output column of a merge. At most one flag is set.
type GapEntry struct {
	Group1Gap bool
	Group2Gap bool
}

// GapPattern is the merge path, one entry per merged column.
type GapPattern []GapEntry

// Validate checks that no entry gaps both groups.
func (gp GapPattern) Validate() error {
	for k, e := range gp {
		if e.Group1Gap && e.Group2Gap {
			return fmt.Errorf("%w: entry %d gaps both groups", ErrPatternMismatch, k)
		}
	}
	return nil
}

// Consumed reports how many columns of each group the pattern reads.
func (gp GapPattern) Consumed() (group1, group2 int) {
	for _, e := range gp {
		if !e.Group1Gap {
			group1++
		}
		if !e.Group2Gap {
			group2++
		}
	}
	return group1, group2
}

// MergeGroups applies gp to g1 and g2. The output holds the group1 members
// followed by the group2 members, each len(gp) columns wide.
func MergeGroups(g1, g2 Group, gp GapPattern) (Group, error) {
	if err := gp.Validate(); err != nil {
		return nil, err
	}
	w1, err := g1.Width()
	if err != nil {
		return nil, fmt.Errorf("group1: %w", err)
	}
	w2, err := g2.Width()
	if err != nil {
		return nil, fmt.Errorf("group2: %w", err)
	}
	if c1, c2 := gp.Consumed(); c1 != w1 || c2 != w2 {
		return nil, fmt.Errorf("%w: pattern reads %d/%d columns, groups have %d/%d",
			ErrPatternMismatch, c1, c2, w1, w2)
	}

	out := make(Group, 0, len(g1)+len(g2))
	for _, s := range g1 {
		out = append(out, Sequence{ID: s.ID, Residues: make([]byte, 0, len(gp))})
	}
	for _, s := range g2 {
		out = append(out, Sequence{ID: s.ID, Residues: make([]byte, 0, len(gp))})
	}
	top, bottom := out[:len(g1)], out[len(g1):]

	c1, c2 := 0, 0
	for _, e := range gp {
		emit(top, g1, e.Group1Gap, c1)
		if !e.Group1Gap {
			c1++
		}
		emit(bottom, g2, e.Group2Gap, c2)
		if !e.Group2Gap {
			c2++
		}
	}
	return out, nil
}

func emit(dst, src Group, gap bool, col int) {
	for k := range dst {
		c := Gap
		if !gap {
			c = src[k].Residues[col]
		}
		dst[k].Residues = append(dst[k].Residues, c)
	}
}
