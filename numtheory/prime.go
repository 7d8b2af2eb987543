package numtheory

import (
	"fmt"
	"math/big"

	"github.com/bitfsorg/libss-go/randstate"
)

var three = big.NewInt(3)

// decompose writes n-1 as r * 2^s with r odd.
//
// Candidate divisors 2, 4, 8, ... are scanned until they exceed n-1; the
// last one that divides n-1 with an odd cofactor gives s and r.
func decompose(n *big.Int) (r *big.Int, s int) {
	nMinus1 := new(big.Int).Sub(n, one)
	curr := big.NewInt(2)
	quo := new(big.Int)
	rem := new(big.Int)
	r = new(big.Int)

	for count := 1; curr.Cmp(nMinus1) <= 0; count++ {
		quo.QuoRem(nMinus1, curr, rem)
		if rem.Sign() == 0 && quo.Bit(0) == 1 {
			s = count
			r.Set(quo)
		}
		curr.Lsh(curr, 1)
	}
	return r, s
}

// IsPrime reports whether n is probably prime after iters rounds of the
// Miller-Rabin test, drawing witnesses from src.
//
// A composite passes with probability at most 4^-iters. Primes always pass.
func IsPrime(n *big.Int, iters int, src *randstate.Source) bool {
	if n.Cmp(two) < 0 {
		return false
	}
	if n.Cmp(two) == 0 || n.Cmp(three) == 0 {
		return true
	}
	if n.Bit(0) == 0 {
		return false
	}

	r, s := decompose(n)
	nMinus1 := new(big.Int).Sub(n, one)
	// Witnesses are uniform in [2, n-2].
	span := new(big.Int).Sub(n, three)

	for i := 0; i < iters; i++ {
		a := src.Int(span)
		a.Add(a, two)

		y := PowMod(a, r, n)
		if y.Cmp(one) == 0 || y.Cmp(nMinus1) == 0 {
			continue
		}
		for j := 1; j <= s-1 && y.Cmp(nMinus1) != 0; j++ {
			y = PowMod(y, two, n)
			if y.Cmp(one) == 0 {
				// Nontrivial square root of 1.
				return false
			}
		}
		if y.Cmp(nMinus1) != 0 {
			return false
		}
	}
	return true
}

// MakePrime returns a probable prime of exactly bits bits.
//
// Candidates are drawn from src with the top and bottom bits forced to 1 and
// tested with IsPrime(candidate, iters). The search has no attempt cap: it
// retries until a prime is found, which for any bits >= 2 happens with
// probability 1.
func MakePrime(bits, iters int, src *randstate.Source) (*big.Int, error) {
	p, _, err := MakePrimeAttempts(bits, iters, src)
	return p, err
}

// MakePrimeAttempts is MakePrime that also reports how many candidates were
// tested, including the successful one.
func MakePrimeAttempts(bits, iters int, src *randstate.Source) (*big.Int, uint64, error) {
	if bits < 2 {
		return nil, 0, fmt.Errorf("%w: got %d", ErrInvalidBitLength, bits)
	}

	var attempts uint64
	for {
		attempts++
		p := src.Bits(bits)
		p.SetBit(p, bits-1, 1)
		p.SetBit(p, 0, 1)
		if IsPrime(p, iters, src) {
			return p, attempts, nil
		}
	}
}
