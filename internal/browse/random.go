package browse

import (
	"math/rand/v2"
	"time"
)

// Rand is the random source the core draws from. *rand.Rand satisfies it;
// tests substitute a scripted source to force specific draws.
type Rand interface {
	IntN(n int) int
}

// NewRand returns a PCG source. A zero seed picks a time based one.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))
}
