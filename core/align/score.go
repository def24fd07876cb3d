// core/align/score.go
package align

// intraPairs sums Score over every unordered pair of members of g at column c.
func intraPairs(p Params, g Group, c int) int {
	total := 0
	for k := 0; k < len(g); k++ {
		a := g[k].Residues[c]
		for l := k + 1; l < len(g); l++ {
			total += p.Score(a, g[l].Residues[c])
		}
	}
	return total
}

// ColumnScore is the sum-of-pairs score of merging column i of g1 with
// column j of g2: all pairs inside g1, all pairs inside g2 and all pairs
// across the two groups.
func ColumnScore(p Params, g1, g2 Group, i, j int) int {
	total := intraPairs(p, g1, i) + intraPairs(p, g2, j)
	for _, s1 := range g1 {
		a := s1.Residues[i]
		for _, s2 := range g2 {
			total += p.Score(a, s2.Residues[j])
		}
	}
	return total
}

// GapInsertionScore is the score of placing column i of g against numGaps
// gap-only rows.
func GapInsertionScore(p Params, numGaps int, g Group, i int) int {
	total := intraPairs(p, g, i)
	for _, s := range g {
		if c := s.Residues[i]; c != Gap {
			total += numGaps * p.Score(c, Gap)
		}
	}
	return total
}

// profile caches the per-column parts of the group scores that do not depend
// on the opposing group.
type profile struct {
	group Group
	width int
	intra []int // intraPairs per column
	vsGap []int // sum of Score(residue, Gap) per column
}

func newProfile(p Params, g Group) (*profile, error) {
	w, err := g.Width()
	if err != nil {
		return nil, err
	}
	pr := &profile{group: g, width: w, intra: make([]int, w), vsGap: make([]int, w)}
	for c := 0; c < w; c++ {
		pr.intra[c] = intraPairs(p, g, c)
		for _, s := range g {
			if r := s.Residues[c]; r != Gap {
				pr.vsGap[c] += p.Score(r, Gap)
			}
		}
	}
	return pr, nil
}

// gapInsertion matches GapInsertionScore(p, numGaps, pr.group, c).
func (pr *profile) gapInsertion(numGaps, c int) int {
	return pr.intra[c] + numGaps*pr.vsGap[c]
}

// column matches ColumnScore(p, a.group, b.group, i, j).
func column(p Params, a, b *profile, i, j int) int {
	total := a.intra[i] + b.intra[j]
	for _, s1 := range a.group {
		r := s1.Residues[i]
		for _, s2 := range b.group {
			total += p.Score(r, s2.Residues[j])
		}
	}
	return total
}
