package keyfile

import (
	"bytes"
	"fmt"

	"github.com/bitfsorg/libss-go/ss"
)

// SaveKeyPair writes the public and private key files of one key pair. The
// private key file is held under an exclusive lock for the duration, so two
// concurrent writers targeting the same files cannot leave a public key from
// one run next to a private key from the other.
//
// A non-empty passphrase seals the private key with params.
func SaveKeyPair(pubPath, privPath string, pub *ss.PublicKey, priv *ss.PrivateKey, passphrase string, params KDFParams) error {
	var pubBuf bytes.Buffer
	if err := WritePublicKey(&pubBuf, pub); err != nil {
		return err
	}

	var privData []byte
	if passphrase == "" {
		var buf bytes.Buffer
		if err := WritePrivateKey(&buf, priv); err != nil {
			return err
		}
		privData = buf.Bytes()
	} else {
		sealed, err := SealPrivateKeyWithParams(priv, passphrase, params)
		if err != nil {
			return err
		}
		privData = sealed
	}

	if err := makeParent(privPath); err != nil {
		return err
	}
	f, err := acquireLock(privPath, privateKeyPerm)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	if err := writeFile(pubPath, pubBuf.Bytes(), publicKeyPerm); err != nil {
		_ = releaseLock(f)
		return err
	}
	if err := overwrite(f, privData, privateKeyPerm); err != nil {
		_ = releaseLock(f)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = releaseLock(f)
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := releaseLock(f); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}
