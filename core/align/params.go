// core/align/params.go
package align

// Gap is the residue byte used for alignment gaps.
const Gap byte = '-'

// Params holds the linear scoring model.
type Params struct {
	Match        int `yaml:"match"`
	Gap          int `yaml:"gap"`
	Substitution int `yaml:"substitution"`
}

// DefaultParams are the reward/penalties used when nothing else is configured.
var DefaultParams = Params{Match: 1, Gap: -1, Substitution: 0}

// Score compares two residues.
func (p Params) Score(a, b byte) int {
	switch {
	case a == Gap && b == Gap:
		return 0
	case a == Gap || b == Gap:
		return p.Gap
	case a == b:
		return p.Match
	default:
		return p.Substitution
	}
}
