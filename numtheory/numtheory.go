// Package numtheory implements the number-theory primitives behind the
// Schmidt-Samoa cryptosystem: gcd, modular inverse, modular exponentiation,
// Miller-Rabin primality testing and random prime generation.
//
// All values are arbitrary-precision *big.Int. Functions never modify their
// arguments and always return freshly allocated results.
package numtheory

import (
	"fmt"
	"math/big"
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// GCD returns the greatest common divisor of a and b using the iterative
// Euclidean algorithm. The result is non-negative and GCD(0, 0) = 0.
func GCD(a, b *big.Int) *big.Int {
	x := new(big.Int).Abs(a)
	y := new(big.Int).Abs(b)
	t := new(big.Int)
	for y.Sign() != 0 {
		t.Set(y)
		y.Mod(x, y)
		x.Set(t)
	}
	return x
}

// ModInverse returns t in [0, n) such that a*t ≡ 1 (mod n).
//
// It uses the extended Euclidean algorithm. ErrNoInverse is returned when
// gcd(a, n) > 1; the zero value is never handed back as an inverse.
func ModInverse(a, n *big.Int) (*big.Int, error) {
	if n.Sign() <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidModulus, n)
	}

	r := new(big.Int).Set(n)
	rPrime := new(big.Int).Mod(a, n)
	t := new(big.Int)
	tPrime := big.NewInt(1)

	q := new(big.Int)
	tmp := new(big.Int)
	for rPrime.Sign() != 0 {
		q.Div(r, rPrime)

		// (r, r') = (r', r - q*r')
		tmp.Mul(q, rPrime)
		tmp.Sub(r, tmp)
		r.Set(rPrime)
		rPrime.Set(tmp)

		// (t, t') = (t', t - q*t')
		tmp.Mul(q, tPrime)
		tmp.Sub(t, tmp)
		t.Set(tPrime)
		tPrime.Set(tmp)
	}

	if r.Cmp(one) > 0 {
		return nil, ErrNoInverse
	}
	if t.Sign() < 0 {
		t.Add(t, n)
	}
	return t.Mod(t, n), nil
}

// PowMod returns base^exp mod m using right-to-left binary exponentiation.
//
// Each step multiplies at full precision before reducing. exp = 0 yields
// 1 mod m. PowMod panics if m <= 0 or exp < 0.
func PowMod(base, exp, m *big.Int) *big.Int {
	if m.Sign() <= 0 {
		panic("numtheory: PowMod modulus must be positive")
	}
	if exp.Sign() < 0 {
		panic("numtheory: PowMod exponent must be non-negative")
	}

	result := new(big.Int).Mod(one, m)
	b := new(big.Int).Mod(base, m)
	e := new(big.Int).Set(exp)
	for e.Sign() > 0 {
		if e.Bit(0) == 1 {
			result.Mul(result, b)
			result.Mod(result, m)
		}
		b.Mul(b, b)
		b.Mod(b, m)
		e.Rsh(e, 1)
	}
	return result
}
