package keyfile

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"strconv"

	"golang.org/x/crypto/argon2"

	"github.com/bitfsorg/libss-go/ss"
)

const (
	// SealedPEMType is the PEM block type of a sealed private key.
	SealedPEMType = "SS SEALED PRIVATE KEY"

	// Sealed format sizes.
	SaltLen  = 16
	NonceLen = 12
	TagLen   = 16
	KeyLen   = 32
)

// KDFParams are the Argon2id parameters used to derive the sealing key.
// They are recorded in the PEM headers so a sealed key always opens with the
// parameters it was sealed with.
type KDFParams struct {
	Time        uint32
	Memory      uint32 // KiB
	Parallelism uint8
}

// DefaultKDFParams matches the wallet seed encryption parameters.
var DefaultKDFParams = KDFParams{
	Time:        3,
	Memory:      64 * 1024, // 64 MB
	Parallelism: 4,
}

func (p KDFParams) validate() error {
	if p.Time == 0 || p.Memory == 0 || p.Parallelism == 0 {
		return ErrInvalidKDFParams
	}
	return nil
}

func (p KDFParams) deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Parallelism, KeyLen)
}

// SealPrivateKey encrypts priv under passphrase with DefaultKDFParams.
func SealPrivateKey(priv *ss.PrivateKey, passphrase string) ([]byte, error) {
	return SealPrivateKeyWithParams(priv, passphrase, DefaultKDFParams)
}

// SealPrivateKeyWithParams encrypts priv with Argon2id + AES-256-GCM and
// returns a PEM block:
//
//	salt(16B) || nonce(12B) || AES-GCM(argon2id(passphrase, salt), nonce, private key text)
func SealPrivateKeyWithParams(priv *ss.PrivateKey, passphrase string, params KDFParams) ([]byte, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}

	var plaintext bytes.Buffer
	if err := WritePrivateKey(&plaintext, priv); err != nil {
		return nil, err
	}

	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keyfile: failed to generate salt: %w", err)
	}

	gcm, err := newGCM(params.deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keyfile: failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext.Bytes(), nil)

	body := make([]byte, 0, SaltLen+NonceLen+len(ciphertext))
	body = append(body, salt...)
	body = append(body, nonce...)
	body = append(body, ciphertext...)

	return pem.EncodeToMemory(&pem.Block{
		Type: SealedPEMType,
		Headers: map[string]string{
			"KDF":         "argon2id",
			"Time":        strconv.FormatUint(uint64(params.Time), 10),
			"Memory":      strconv.FormatUint(uint64(params.Memory), 10),
			"Parallelism": strconv.FormatUint(uint64(params.Parallelism), 10),
		},
		Bytes: body,
	}), nil
}

// OpenPrivateKey decrypts a private key sealed by SealPrivateKey.
func OpenPrivateKey(sealed []byte, passphrase string) (*ss.PrivateKey, error) {
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}

	block, _ := pem.Decode(sealed)
	if block == nil || block.Type != SealedPEMType {
		return nil, fmt.Errorf("%w: no %q PEM block", ErrMalformedKeyFile, SealedPEMType)
	}
	params, err := paramsFromHeaders(block.Headers)
	if err != nil {
		return nil, err
	}

	if len(block.Bytes) < SaltLen+NonceLen+TagLen {
		return nil, ErrDecryptionFailed
	}

	salt := block.Bytes[:SaltLen]
	nonce := block.Bytes[SaltLen : SaltLen+NonceLen]
	ciphertext := block.Bytes[SaltLen+NonceLen:]

	gcm, err := newGCM(params.deriveKey(passphrase, salt))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return ReadPrivateKey(bytes.NewReader(plaintext))
}

// IsSealed reports whether data looks like a sealed private key.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN "+SealedPEMType+"-----"))
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keyfile: AES cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keyfile: GCM creation failed: %w", err)
	}
	return gcm, nil
}

func paramsFromHeaders(h map[string]string) (KDFParams, error) {
	if h["KDF"] != "argon2id" {
		return KDFParams{}, fmt.Errorf("%w: unsupported KDF %q", ErrInvalidKDFParams, h["KDF"])
	}
	t, err1 := strconv.ParseUint(h["Time"], 10, 32)
	m, err2 := strconv.ParseUint(h["Memory"], 10, 32)
	p, err3 := strconv.ParseUint(h["Parallelism"], 10, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return KDFParams{}, fmt.Errorf("%w: bad parameter header", ErrInvalidKDFParams)
	}
	params := KDFParams{Time: uint32(t), Memory: uint32(m), Parallelism: uint8(p)}
	if err := params.validate(); err != nil {
		return KDFParams{}, err
	}
	return params, nil
}
