// core/align/profile.go
package align

import "fmt"

// Direction records which branch of the recurrence produced a cell.
type Direction uint8

const (
	Horizontal Direction = iota // gap column inserted into group1
	Vertical                    // gap column inserted into group2
	Diagonal                    // columns merged directly
)

func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case Diagonal:
		return "diagonal"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Matrix is the filled DP table for one pair of groups. Rows covers
// group1 columns, Cols covers group2 columns, both plus one.
type Matrix struct {
	Rows, Cols int
	Score      [][]int
	Back       [][]Direction
}

func newMatrix(rows, cols int) *Matrix {
	m := &Matrix{Rows: rows, Cols: cols, Score: make([][]int, rows), Back: make([][]Direction, rows)}
	scores := make([]int, rows*cols)
	back := make([]Direction, rows*cols)
	for i := 0; i < rows; i++ {
		m.Score[i] = scores[i*cols : (i+1)*cols : (i+1)*cols]
		m.Back[i] = back[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}

// Best is the score of the complete alignment, Score[n][m].
func (m *Matrix) Best() int { return m.Score[m.Rows-1][m.Cols-1] }

// Fill runs the forward pass over g1 × g2.
func Fill(g1, g2 Group, p Params) (*Matrix, error) {
	a, err := newProfile(p, g1)
	if err != nil {
		return nil, fmt.Errorf("group1: %w", err)
	}
	b, err := newProfile(p, g2)
	if err != nil {
		return nil, fmt.Errorf("group2: %w", err)
	}
	n, k1 := a.width, len(g1)
	mcols, k2 := b.width, len(g2)

	m := newMatrix(n+1, mcols+1)
	for i := 1; i <= n; i++ {
		m.Score[i][0] = m.Score[i-1][0] + a.gapInsertion(k2, i-1)
		m.Back[i][0] = Vertical
	}
	for j := 1; j <= mcols; j++ {
		m.Score[0][j] = m.Score[0][j-1] + b.gapInsertion(k1, j-1)
		m.Back[0][j] = Horizontal
	}

	for i := 1; i <= n; i++ {
		up := a.gapInsertion(k2, i-1)
		for j := 1; j <= mcols; j++ {
			best, dir := m.Score[i][j-1]+b.gapInsertion(k1, j-1), Horizontal
			if v := m.Score[i-1][j] + up; v > best {
				best, dir = v, Vertical
			}
			if d := m.Score[i-1][j-1] + column(p, a, b, i-1, j-1); d > best {
				best, dir = d, Diagonal
			}
			m.Score[i][j] = best
			m.Back[i][j] = dir
		}
	}
	return m, nil
}

// Traceback walks m from the bottom-right corner back to the origin and
// returns the merge path read left to right.
func Traceback(m *Matrix) GapPattern {
	i, j := m.Rows-1, m.Cols-1
	out := make(GapPattern, 0, i+j)
	for i > 0 || j > 0 {
		var d Direction
		switch {
		case i == 0:
			d = Horizontal
		case j == 0:
			d = Vertical
		default:
			d = m.Back[i][j]
		}
		switch d {
		case Horizontal:
			out = append(out, GapEntry{Group1Gap: true})
			j--
		case Vertical:
			out = append(out, GapEntry{Group2Gap: true})
			i--
		case Diagonal:
			out = append(out, GapEntry{})
			i--
			j--
		default:
			panic(fmt.Sprintf("align: undefined %v at (%d,%d)", d, i, j))
		}
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// Result is the outcome of aligning two groups.
type Result struct {
	Score   int
	Pattern GapPattern
}

// AlignGroups aligns g1 against g2. Every sequence within a group must have
// the same length; the two groups may differ.
func AlignGroups(g1, g2 Group, p Params) (Result, error) {
	m, err := Fill(g1, g2, p)
	if err != nil {
		return Result{}, err
	}
	return Result{Score: m.Best(), Pattern: Traceback(m)}, nil
}
