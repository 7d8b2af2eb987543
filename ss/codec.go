package ss

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// Marker is the first byte of every plaintext block. It keeps leading zero
// payload bytes from vanishing when a block is rendered back from an integer.
const Marker = 0xFF

// maxLineLen bounds a single ciphertext line when decrypting.
const maxLineLen = 1 << 20

// BlockSize returns the block capacity k in bytes for modulus n: the marker
// plus k-1 payload bytes. k = (bitlen(isqrt(n)) - 1) / 8, which keeps every
// block below isqrt(n) and therefore below pq.
func BlockSize(n *big.Int) int {
	if n == nil || n.Sign() <= 0 {
		return 0
	}
	root := new(big.Int).Sqrt(n)
	return (root.BitLen() - 1) / 8
}

// EncryptStream encrypts everything read from r under the public modulus n
// and writes one decimal ciphertext integer per line to w.
//
// Input is cut into chunks of k-1 bytes; each chunk is prefixed with Marker,
// read as a big-endian integer and encrypted. A short final chunk is
// encrypted as-is. Empty input produces no output.
func EncryptStream(r io.Reader, w io.Writer, n *big.Int) error {
	if n == nil {
		return ErrNilKey
	}
	k := BlockSize(n)
	if k < 2 {
		return fmt.Errorf("%w: %d-bit modulus gives %d-byte blocks", ErrModulusTooSmall, n.BitLen(), k)
	}

	bw := bufio.NewWriter(w)
	block := make([]byte, k)
	block[0] = Marker
	m := new(big.Int)

	for {
		read, err := io.ReadFull(r, block[1:])
		if read > 0 {
			m.SetBytes(block[:1+read])
			if _, werr := fmt.Fprintln(bw, EncryptInt(m, n).String()); werr != nil {
				return fmt.Errorf("ss: write ciphertext: %w", werr)
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("ss: read plaintext: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("ss: write ciphertext: %w", err)
	}
	return nil
}

// DecryptStream reads decimal ciphertext lines from r, decrypts each with
// priv and writes the recovered payload bytes to w. Blank lines are skipped.
func DecryptStream(r io.Reader, w io.Writer, priv *PrivateKey) error {
	if priv == nil || priv.PQ == nil || priv.D == nil {
		return ErrNilKey
	}
	if priv.PQ.Sign() <= 0 {
		return fmt.Errorf("%w: decryption modulus must be positive", ErrNilKey)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineLen)
	bw := bufio.NewWriter(w)
	c := new(big.Int)

	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if _, ok := c.SetString(line, 10); !ok || c.Sign() < 0 {
			return fmt.Errorf("%w: line %d", ErrMalformedCiphertext, lineNo)
		}

		plain := DecryptInt(c, priv.D, priv.PQ).Bytes()
		if len(plain) == 0 || plain[0] != Marker {
			return fmt.Errorf("%w: line %d", ErrMalformedBlock, lineNo)
		}
		if _, err := bw.Write(plain[1:]); err != nil {
			return fmt.Errorf("ss: write plaintext: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("ss: read ciphertext: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("ss: write plaintext: %w", err)
	}
	return nil
}

// EncryptBytes is EncryptStream over an in-memory message.
func EncryptBytes(msg []byte, pub *PublicKey) (string, error) {
	if pub == nil {
		return "", ErrNilKey
	}
	var sb strings.Builder
	if err := EncryptStream(strings.NewReader(string(msg)), &sb, pub.N); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// DecryptBytes is DecryptStream over an in-memory ciphertext.
func DecryptBytes(ciphertext string, priv *PrivateKey) ([]byte, error) {
	var sb strings.Builder
	if err := DecryptStream(strings.NewReader(ciphertext), &sb, priv); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}
