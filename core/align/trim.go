// core/align/trim.go
package align

// TrimGlobalGaps returns a copy of g without the columns that are a gap in
// every member. Columns are dropped from the highest index down so lower
// indices stay valid while deleting.
func TrimGlobalGaps(g Group) Group {
	out := g.Clone()
	if len(out) == 0 {
		return out
	}
	width := len(out[0].Residues)
	for _, s := range out[1:] {
		if len(s.Residues) < width {
			width = len(s.Residues)
		}
	}
	for c := width - 1; c >= 0; c-- {
		if !allGap(out, c) {
			continue
		}
		for k := range out {
			r := out[k].Residues
			out[k].Residues = append(r[:c], r[c+1:]...)
		}
	}
	return out
}

func allGap(g Group, c int) bool {
	for _, s := range g {
		if s.Residues[c] != Gap {
			return false
		}
	}
	return true
}
