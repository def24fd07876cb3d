// core/partition/source.go
package partition

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
	"math/rand/v2"
)

// Source hands out uniformly distributed integers in [0, n).
type Source interface {
	IntN(n int) int
}

// Mode selects where partition choices come from.
type Mode byte

const (
	// Device draws from the operating system's entropy pool; the same index
	// may give a different partition on every call.
	Device Mode = 'R'
	// Pseudo seeds a generator with the index itself, so every process maps
	// an index to the same partition without talking to the others.
	Pseudo Mode = 'P'
)

// ParseMode accepts the command-line spellings R and P.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "R", "r":
		return Device, nil
	case "P", "p":
		return Pseudo, nil
	default:
		return 0, fmt.Errorf("invalid random mode %q (want R or P)", s)
	}
}

func (m Mode) String() string {
	switch m {
	case Device:
		return "R"
	case Pseudo:
		return "P"
	default:
		return fmt.Sprintf("mode(%d)", byte(m))
	}
}

// Source returns the entropy source to use for a candidate index.
func (m Mode) Source(index int) Source {
	if m == Device {
		return NewDevice()
	}
	return NewSeeded(index)
}

type seeded struct{ r *rand.Rand }

// NewSeeded returns a deterministic source fully determined by seed.
func NewSeeded(seed int) Source {
	return seeded{r: rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))}
}

func (s seeded) IntN(n int) int { return s.r.IntN(n) }

type device struct{}

// NewDevice returns a source backed by crypto/rand.
func NewDevice() Source { return device{} }

func (device) IntN(n int) int {
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is gone.
		panic(fmt.Sprintf("partition: entropy source: %v", err))
	}
	return int(v.Int64())
}
