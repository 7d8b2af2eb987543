package keyfile

import (
	"encoding/hex"

	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"

	"github.com/bitfsorg/libss-go/ss"
)

// FingerprintSize is the length of a decoded fingerprint (RIPEMD160 output).
const FingerprintSize = 20

// Fingerprint returns hex(RIPEMD160(SHA256(n))) over the big-endian bytes of
// the public modulus. The owner is not part of the fingerprint.
func Fingerprint(pub *ss.PublicKey) string {
	if pub == nil || pub.N == nil {
		return ""
	}
	return hex.EncodeToString(bsvhash.Hash160(pub.N.Bytes()))
}
