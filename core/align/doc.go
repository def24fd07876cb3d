// Package align implements group-to-group profile alignment.
//
// A Group is a set of sequences that are already aligned with each other
// (equal column count). AlignGroups scores every way of interleaving the
// columns of two groups under a sum-of-pairs objective and returns the best
// interleaving as a GapPattern; MergeGroups applies that pattern to produce
// the merged group.
//
// The package is domain-only: no I/O, no logging, no process-wide state.
package align
