// Package search runs the speculative parallel refinement of an alignment.
//
// Every rank holds the same alignment and walks the same sequence of
// candidate indices, rank r evaluating globalIndex+r in each round. The
// ranks vote; the lowest-ranked improver broadcasts its merge, everyone
// applies it, and the search continues past the winner. It stops once a
// full enumeration's worth of consecutive candidates failed to improve.
package search
