// Package randstate provides the seeded pseudo-random source shared by prime
// search and key generation.
//
// A Source is deterministic for a given seed, which makes key generation
// reproducible in tests. It is NOT a cryptographically secure generator and
// is not safe for concurrent use: exactly one goroutine may draw from it.
package randstate

import (
	"math/big"
	"math/rand"
)

// Source is a seeded generator of uniformly distributed integers.
type Source struct {
	rng   *rand.Rand
	draws uint64
}

// New creates a Source seeded with seed. All 64 bits of seed select the
// stream: distinct seeds never share a sequence.
func New(seed uint64) *Source {
	return &Source{rng: rand.New(newStream(seed))}
}

// Int returns a uniformly distributed integer in [0, upper).
// It panics if upper <= 0.
func (s *Source) Int(upper *big.Int) *big.Int {
	s.check()
	if upper.Sign() <= 0 {
		panic("randstate: upper bound must be positive")
	}
	s.draws++
	return new(big.Int).Rand(s.rng, upper)
}

// Bits returns a uniformly distributed integer in [0, 2^bits).
func (s *Source) Bits(bits int) *big.Int {
	if bits <= 0 {
		return new(big.Int)
	}
	return s.Int(new(big.Int).Lsh(big.NewInt(1), uint(bits)))
}

// Uint64n returns a uniformly distributed value in [0, n).
// It panics if n == 0.
func (s *Source) Uint64n(n uint64) uint64 {
	s.check()
	if n == 0 {
		panic("randstate: upper bound must be positive")
	}
	return s.Int(new(big.Int).SetUint64(n)).Uint64()
}

// Draws reports how many values have been drawn from the source.
func (s *Source) Draws() uint64 {
	return s.draws
}

// Close releases the generator. Any draw after Close panics.
func (s *Source) Close() {
	s.rng = nil
}

func (s *Source) check() {
	if s.rng == nil {
		panic("randstate: use of closed source")
	}
}
