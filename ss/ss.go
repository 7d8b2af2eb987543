// Package ss implements the Schmidt-Samoa public-key cryptosystem.
//
// Key material:
//
//	n  = p² · q                      (public modulus, also the encryption exponent)
//	d  = n⁻¹ mod lcm(p-1, q-1)       (private exponent)
//	pq = p · q                       (decryption modulus)
//
// Encryption is c = m^n mod n and decryption is m = c^d mod pq. Only
// (n, owner) and (pq, d) are ever persisted; p and q stay inside KeyPair.
package ss

import (
	"fmt"
	"math/big"

	"github.com/bitfsorg/libss-go/numtheory"
	"github.com/bitfsorg/libss-go/randstate"
)

// MinBits is the smallest modulus size GenerateKeyPair accepts. It keeps the
// split point at two or more bits and leaves room for at least one payload
// byte per block.
const MinBits = 32

var one = big.NewInt(1)

// PublicKey is the persisted public half of a key pair.
type PublicKey struct {
	N     *big.Int // modulus p²q
	Owner string   // owner identifier, usually an account name
}

// PrivateKey is the persisted private half of a key pair.
type PrivateKey struct {
	PQ *big.Int // decryption modulus p·q
	D  *big.Int // private exponent
}

// KeyPair holds every value derived during key generation.
type KeyPair struct {
	P  *big.Int
	Q  *big.Int
	N  *big.Int
	D  *big.Int
	PQ *big.Int
}

// KeyGenStats records how much searching key generation needed.
type KeyGenStats struct {
	PrimeAttempts uint64 // candidates tested across all prime searches
	Rejections    uint64 // (p, q) pairs discarded by the structural checks
}

// Public returns the public key for owner.
func (kp *KeyPair) Public(owner string) *PublicKey {
	return &PublicKey{N: new(big.Int).Set(kp.N), Owner: owner}
}

// Private returns the private key.
func (kp *KeyPair) Private() *PrivateKey {
	return &PrivateKey{PQ: new(big.Int).Set(kp.PQ), D: new(big.Int).Set(kp.D)}
}

// LCM returns |a·b| / gcd(a, b). LCM(0, 0) is 0.
func LCM(a, b *big.Int) *big.Int {
	g := numtheory.GCD(a, b)
	if g.Sign() == 0 {
		return new(big.Int)
	}
	r := new(big.Int).Mul(a, b)
	r.Abs(r)
	return r.Quo(r, g)
}

// MakePublicKey generates primes p and q and the public modulus n = p²q with
// bitlen(n) >= bits.
//
// The split point N is drawn from [bits/5, 2·bits/5); p has N bits and q has
// bits-2N+4 bits. The pair is regenerated while p == q, p | q-1 or q | p-1:
// p | q-1 would put p in lcm(p-1, q-1) and leave n without a private exponent.
// The loop is unbounded.
func MakePublicKey(bits, iters int, src *randstate.Source) (p, q, n *big.Int, err error) {
	p, q, n, _, err = makePublicKey(bits, iters, src)
	return p, q, n, err
}

func makePublicKey(bits, iters int, src *randstate.Source) (p, q, n *big.Int, stats KeyGenStats, err error) {
	if bits < MinBits {
		return nil, nil, nil, stats, fmt.Errorf("%w: got %d, need at least %d", ErrInvalidBitLength, bits, MinBits)
	}
	if iters < 1 {
		return nil, nil, nil, stats, fmt.Errorf("%w: got %d", ErrInvalidIterations, iters)
	}

	split := int(src.Uint64n(uint64(bits/5))) + bits/5
	pMinus1 := new(big.Int)
	qMinus1 := new(big.Int)
	rem := new(big.Int)

	for {
		var tries uint64
		p, tries, err = numtheory.MakePrimeAttempts(split, iters, src)
		if err != nil {
			return nil, nil, nil, stats, fmt.Errorf("ss: generating p: %w", err)
		}
		stats.PrimeAttempts += tries

		q, tries, err = numtheory.MakePrimeAttempts(bits-2*split+4, iters, src)
		if err != nil {
			return nil, nil, nil, stats, fmt.Errorf("ss: generating q: %w", err)
		}
		stats.PrimeAttempts += tries

		pMinus1.Sub(p, one)
		qMinus1.Sub(q, one)
		if p.Cmp(q) != 0 &&
			rem.Mod(qMinus1, p).Sign() != 0 &&
			rem.Mod(pMinus1, q).Sign() != 0 {
			break
		}
		stats.Rejections++
	}

	n = new(big.Int).Mul(p, p)
	n.Mul(n, q)
	return p, q, n, stats, nil
}

// MakePrivateKey derives the private exponent d = n⁻¹ mod lcm(p-1, q-1)
// with n = p²q, and the decryption modulus pq = p·q.
//
// A missing inverse is returned as ErrKeyInvariant wrapping
// numtheory.ErrNoInverse. Callers must not retry on it.
func MakePrivateKey(p, q *big.Int) (d, pq *big.Int, err error) {
	if p == nil || q == nil {
		return nil, nil, ErrNilKey
	}

	lambda := LCM(new(big.Int).Sub(p, one), new(big.Int).Sub(q, one))
	n := new(big.Int).Mul(p, p)
	n.Mul(n, q)

	d, err = numtheory.ModInverse(n, lambda)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrKeyInvariant, err)
	}
	return d, new(big.Int).Mul(p, q), nil
}

// GenerateKeyPair runs MakePublicKey and MakePrivateKey with randomness
// from src.
func GenerateKeyPair(bits, iters int, src *randstate.Source) (*KeyPair, *KeyGenStats, error) {
	p, q, n, stats, err := makePublicKey(bits, iters, src)
	if err != nil {
		return nil, nil, err
	}
	d, pq, err := MakePrivateKey(p, q)
	if err != nil {
		return nil, &stats, err
	}
	return &KeyPair{P: p, Q: q, N: n, D: d, PQ: pq}, &stats, nil
}

// EncryptInt returns m^n mod n.
func EncryptInt(m, n *big.Int) *big.Int {
	return numtheory.PowMod(m, n, n)
}

// DecryptInt returns c^d mod pq.
func DecryptInt(c, d, pq *big.Int) *big.Int {
	return numtheory.PowMod(c, d, pq)
}
