package keyfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitfsorg/libss-go/ss"
)

const (
	publicKeyPerm  = 0644
	privateKeyPerm = 0600
	dirPerm        = 0700
)

// SavePublicKey writes pub to path, creating parent directories as needed.
func SavePublicKey(path string, pub *ss.PublicKey) error {
	var buf bytes.Buffer
	if err := WritePublicKey(&buf, pub); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes(), publicKeyPerm)
}

// SavePrivateKey writes priv to path with owner-only permissions. The
// permissions are applied even when the file already exists.
func SavePrivateKey(path string, priv *ss.PrivateKey) error {
	var buf bytes.Buffer
	if err := WritePrivateKey(&buf, priv); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes(), privateKeyPerm)
}

// SaveSealedPrivateKey seals priv under passphrase and writes it to path with
// owner-only permissions.
func SaveSealedPrivateKey(path string, priv *ss.PrivateKey, passphrase string, params KDFParams) error {
	sealed, err := SealPrivateKeyWithParams(priv, passphrase, params)
	if err != nil {
		return err
	}
	return writeFile(path, sealed, privateKeyPerm)
}

// LoadPublicKey reads a public key file.
func LoadPublicKey(path string) (*ss.PublicKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	defer f.Close()
	return ReadPublicKey(f)
}

// LoadPrivateKey reads a private key file. Sealed files are opened with
// passphrase; an empty passphrase on a sealed file yields
// ErrPassphraseRequired.
func LoadPrivateKey(path, passphrase string) (*ss.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if IsSealed(data) {
		return OpenPrivateKey(data, passphrase)
	}
	return ReadPrivateKey(bytes.NewReader(data))
}

func makeParent(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("%w: %w", ErrIOFailure, err)
		}
	}
	return nil
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	if err := makeParent(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := overwrite(f, data, perm); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// overwrite replaces the contents of f with data and forces its mode to
// perm, since OpenFile leaves the mode of an existing file untouched.
func overwrite(f *os.File, data []byte, perm os.FileMode) error {
	if err := f.Chmod(perm); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}
