package keyring

import "errors"

var (
	// ErrKeyNotFound indicates no key with the given fingerprint or owner exists.
	ErrKeyNotFound = errors.New("keyring: key not found")

	// ErrDuplicateKey indicates a key with this fingerprint is already stored.
	ErrDuplicateKey = errors.New("keyring: duplicate key")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("keyring: required parameter is nil")

	// ErrInvalidFingerprint indicates a fingerprint is not 40 hex characters.
	ErrInvalidFingerprint = errors.New("keyring: invalid fingerprint")

	// ErrCorruptRecord indicates a stored record could not be decoded.
	ErrCorruptRecord = errors.New("keyring: corrupt record")
)
