package ss

import "errors"

var (
	// ErrInvalidBitLength indicates the requested modulus size is below MinBits.
	ErrInvalidBitLength = errors.New("ss: modulus bit length too small")

	// ErrInvalidIterations indicates fewer than one Miller-Rabin round was requested.
	ErrInvalidIterations = errors.New("ss: Miller-Rabin iterations must be at least 1")

	// ErrKeyInvariant indicates a generated prime pair violated a key
	// invariant, e.g. n has no inverse modulo lcm(p-1, q-1). It is never
	// retried; it signals a defect in key generation.
	ErrKeyInvariant = errors.New("ss: key invariant violated")

	// ErrNilKey indicates a nil key or nil key component.
	ErrNilKey = errors.New("ss: key is nil")

	// ErrModulusTooSmall indicates the public modulus cannot hold a marker
	// byte plus at least one payload byte per block.
	ErrModulusTooSmall = errors.New("ss: modulus too small for block encoding")

	// ErrMalformedCiphertext indicates a ciphertext line is not a
	// non-negative decimal integer.
	ErrMalformedCiphertext = errors.New("ss: malformed ciphertext line")

	// ErrMalformedBlock indicates a decrypted block lacks the 0xFF marker,
	// usually because the wrong private key was used.
	ErrMalformedBlock = errors.New("ss: decrypted block missing marker byte")
)
