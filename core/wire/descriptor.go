// core/wire/descriptor.go
package wire

import (
	"encoding/binary"
	"fmt"

	"bmalign/core/align"
)

// DescriptorSize is the encoded size of a Descriptor.
const DescriptorSize = 5 * 8

// NoID fills the second id slot when group1 holds one sequence.
const NoID = -1

// Descriptor announces an accepted round.
type Descriptor struct {
	Group1Size int
	ID1        int
	ID2        int
	Score      int
	PatternLen int
}

// Group1 returns the ids of group1 in slot order.
func (d Descriptor) Group1() []int {
	if d.Group1Size == 1 {
		return []int{d.ID1}
	}
	return []int{d.ID1, d.ID2}
}

// Validate checks the invariants every well-formed descriptor satisfies.
func (d Descriptor) Validate() error {
	switch d.Group1Size {
	case 1:
		if d.ID2 != NoID {
			return fmt.Errorf("%w: single-sequence group carries second id %d", ErrMalformed, d.ID2)
		}
	case 2:
		if d.ID2 < 0 || d.ID2 == d.ID1 {
			return fmt.Errorf("%w: bad second id %d", ErrMalformed, d.ID2)
		}
	default:
		return fmt.Errorf("%w: group1 size %d (want 1 or 2)", ErrMalformed, d.Group1Size)
	}
	if d.ID1 < 0 {
		return fmt.Errorf("%w: bad first id %d", ErrMalformed, d.ID1)
	}
	if d.PatternLen < 0 {
		return fmt.Errorf("%w: negative pattern length %d", ErrMalformed, d.PatternLen)
	}
	return nil
}

// NewDescriptor describes the winning candidate of a round.
func NewDescriptor(group1 align.Group, res align.Result) (Descriptor, error) {
	d := Descriptor{Group1Size: len(group1), ID2: NoID, Score: res.Score, PatternLen: len(res.Pattern)}
	switch len(group1) {
	case 2:
		d.ID2 = group1[1].ID
		fallthrough
	case 1:
		d.ID1 = group1[0].ID
	}
	return d, d.Validate()
}

// Encode writes d as five big-endian int64 values.
func (d Descriptor) Encode() []byte {
	b := make([]byte, DescriptorSize)
	for i, v := range []int{d.Group1Size, d.ID1, d.ID2, d.Score, d.PatternLen} {
		binary.BigEndian.PutUint64(b[i*8:], uint64(int64(v)))
	}
	return b
}

// DecodeDescriptor parses and validates a descriptor.
func DecodeDescriptor(b []byte) (Descriptor, error) {
	if len(b) != DescriptorSize {
		return Descriptor{}, fmt.Errorf("%w: descriptor is %d bytes, want %d", ErrMalformed, len(b), DescriptorSize)
	}
	var v [5]int
	for i := range v {
		v[i] = int(int64(binary.BigEndian.Uint64(b[i*8:])))
	}
	d := Descriptor{Group1Size: v[0], ID1: v[1], ID2: v[2], Score: v[3], PatternLen: v[4]}
	return d, d.Validate()
}
