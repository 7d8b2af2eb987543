package keyfile

import "errors"

var (
	// ErrMalformedKeyFile indicates a key file does not hold the expected
	// two newline-separated fields, or a numeric field is not positive hex.
	ErrMalformedKeyFile = errors.New("keyfile: malformed key file")

	// ErrIOFailure indicates a key file could not be opened, read or written.
	ErrIOFailure = errors.New("keyfile: I/O failure")

	// ErrNilKey indicates a nil key or key component was supplied.
	ErrNilKey = errors.New("keyfile: key is nil")

	// ErrPassphraseRequired indicates a sealed private key was loaded
	// without a passphrase.
	ErrPassphraseRequired = errors.New("keyfile: sealed private key requires a passphrase")

	// ErrDecryptionFailed indicates a wrong passphrase or corrupted sealed key.
	ErrDecryptionFailed = errors.New("keyfile: sealed key decryption failed (wrong passphrase or corrupted data)")

	// ErrInvalidKDFParams indicates unusable Argon2id parameters.
	ErrInvalidKDFParams = errors.New("keyfile: invalid key derivation parameters")
)
