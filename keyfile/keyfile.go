// Package keyfile reads and writes Schmidt-Samoa key files.
//
// Public key file:
//
//	<n in lower-case hex>
//	<owner>
//
// Private key file:
//
//	<pq in lower-case hex>
//	<d in lower-case hex>
//
// Private keys may also be sealed under a passphrase (see SealPrivateKey).
package keyfile

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/bitfsorg/libss-go/ss"
)

// WritePublicKey writes pub in public key file format.
func WritePublicKey(w io.Writer, pub *ss.PublicKey) error {
	if pub == nil || pub.N == nil {
		return ErrNilKey
	}
	if err := ValidateOwner(pub.Owner); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%x\n%s\n", pub.N, pub.Owner); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// ValidateOwner checks that owner fits the one-line owner field.
func ValidateOwner(owner string) error {
	if strings.TrimSpace(owner) == "" || strings.ContainsAny(owner, "\r\n") {
		return fmt.Errorf("%w: owner must be a single non-empty line", ErrMalformedKeyFile)
	}
	return nil
}

// ReadPublicKey parses a public key file.
func ReadPublicKey(r io.Reader) (*ss.PublicKey, error) {
	fields, err := readFields(r)
	if err != nil {
		return nil, err
	}
	n, err := parseHex("n", fields[0])
	if err != nil {
		return nil, err
	}
	return &ss.PublicKey{N: n, Owner: fields[1]}, nil
}

// WritePrivateKey writes priv in private key file format.
func WritePrivateKey(w io.Writer, priv *ss.PrivateKey) error {
	if priv == nil || priv.PQ == nil || priv.D == nil {
		return ErrNilKey
	}
	if _, err := fmt.Fprintf(w, "%x\n%x\n", priv.PQ, priv.D); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// ReadPrivateKey parses a plain (unsealed) private key file.
func ReadPrivateKey(r io.Reader) (*ss.PrivateKey, error) {
	fields, err := readFields(r)
	if err != nil {
		return nil, err
	}
	pq, err := parseHex("pq", fields[0])
	if err != nil {
		return nil, err
	}
	d, err := parseHex("d", fields[1])
	if err != nil {
		return nil, err
	}
	return &ss.PrivateKey{PQ: pq, D: d}, nil
}

// readFields returns exactly two non-empty lines. Trailing blank lines are
// tolerated; anything else is ErrMalformedKeyFile.
func readFields(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) != 2 {
		return nil, fmt.Errorf("%w: want 2 fields, got %d", ErrMalformedKeyFile, len(lines))
	}
	for i, l := range lines {
		if l == "" {
			return nil, fmt.Errorf("%w: field %d is empty", ErrMalformedKeyFile, i+1)
		}
	}
	return lines, nil
}

func parseHex(name, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok || v.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s is not a positive hex integer", ErrMalformedKeyFile, name)
	}
	return v, nil
}
