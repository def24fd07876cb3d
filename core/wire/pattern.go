// core/wire/pattern.go
package wire

import (
	"fmt"

	"bmalign/core/align"
)

// EncodePattern writes one byte pair per entry.
func EncodePattern(gp align.GapPattern) []byte {
	b := make([]byte, 2*len(gp))
	for i, e := range gp {
		b[2*i] = flag(e.Group1Gap)
		b[2*i+1] = flag(e.Group2Gap)
	}
	return b
}

// DecodePattern parses want entries from b.
func DecodePattern(b []byte, want int) (align.GapPattern, error) {
	if len(b) != 2*want {
		return nil, fmt.Errorf("%w: pattern is %d bytes, want %d", ErrMalformed, len(b), 2*want)
	}
	gp := make(align.GapPattern, want)
	for i := range gp {
		g1, g2 := b[2*i], b[2*i+1]
		if g1 > 1 || g2 > 1 {
			return nil, fmt.Errorf("%w: entry %d has flag bytes %d,%d", ErrMalformed, i, g1, g2)
		}
		if g1 == 1 && g2 == 1 {
			return nil, fmt.Errorf("%w: entry %d gaps both groups", ErrMalformed, i)
		}
		gp[i] = align.GapEntry{Group1Gap: g1 == 1, Group2Gap: g2 == 1}
	}
	return gp, nil
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
