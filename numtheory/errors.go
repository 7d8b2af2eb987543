package numtheory

import "errors"

var (
	// ErrNoInverse indicates gcd(a, n) > 1, so a has no inverse modulo n.
	ErrNoInverse = errors.New("numtheory: modular inverse does not exist")

	// ErrInvalidModulus indicates a modulus that is zero or negative.
	ErrInvalidModulus = errors.New("numtheory: modulus must be positive")

	// ErrInvalidBitLength indicates a prime was requested with fewer than 2 bits.
	ErrInvalidBitLength = errors.New("numtheory: prime bit length must be at least 2")
)
