// Package random provides the integer sources used by the stereo engines for
// off-image penalties and stochastic window seeding.
package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source yields uniformly distributed integers. Implementations must be safe
// for concurrent use: engine clones running in parallel share one Source.
type Source interface {
	// BoundedInt returns an integer in [lo, hi], inclusive.
	BoundedInt(lo, hi int) int
}

// PCGSource is a seeded, mutex-guarded PCG generator.
type PCGSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSource(seed int64) *PCGSource {
	s := uint64(seed)
	return &PCGSource{
		rng: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15)),
	}
}

// NewTimeSeeded seeds from the wall clock.
func NewTimeSeeded() *PCGSource {
	return NewSource(time.Now().UnixNano())
}

func (s *PCGSource) BoundedInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.IntN(hi-lo+1)
}
