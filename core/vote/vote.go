// core/vote/vote.go
package vote

import "fmt"

// Verdict is a rank's opinion of its own candidate.
type Verdict uint8

const (
	Reject Verdict = iota
	Accept
)

func (v Verdict) String() string {
	switch v {
	case Reject:
		return "reject"
	case Accept:
		return "accept"
	default:
		return fmt.Sprintf("verdict(%d)", uint8(v))
	}
}

// Vote pairs a verdict with the rank that cast it.
type Vote struct {
	Rank    int
	Verdict Verdict
}

// None is the identity of Combine: a reject that names no rank.
var None = Vote{Rank: -1, Verdict: Reject}

// Combine merges two votes. Accept beats Reject, the lower rank wins between
// two accepts, and two rejects give None. The operation is associative and
// commutative, so any reduction order yields the same result.
func Combine(a, b Vote) Vote {
	switch {
	case a.Verdict == Accept && b.Verdict == Accept:
		if b.Rank < a.Rank {
			return b
		}
		return a
	case a.Verdict == Accept:
		return a
	case b.Verdict == Accept:
		return b
	default:
		return None
	}
}

// Reduce folds Combine over votes.
func Reduce(votes ...Vote) Vote {
	acc := None
	for _, v := range votes {
		acc = Combine(acc, v)
	}
	return acc
}
