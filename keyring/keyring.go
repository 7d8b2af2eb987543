// Package keyring persists Schmidt-Samoa public keys in a bbolt database,
// indexed by fingerprint and by owner.
package keyring

import (
	"bytes"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libss-go/keyfile"
	"github.com/bitfsorg/libss-go/ss"
)

var (
	bucketKeys   = []byte("keys")
	bucketOwners = []byte("owners")
)

// Record is a stored public key.
type Record struct {
	Fingerprint string
	Owner       string
	Modulus     string // lower-case hex, as in the public key file
	Bits        int
	Created     time.Time
}

// PublicKey rebuilds the public key held by the record.
func (r *Record) PublicKey() (*ss.PublicKey, error) {
	n, ok := new(big.Int).SetString(r.Modulus, 16)
	if !ok || n.Sign() <= 0 {
		return nil, fmt.Errorf("%w: modulus for %s", ErrCorruptRecord, r.Fingerprint)
	}
	return &ss.PublicKey{N: n, Owner: r.Owner}, nil
}

// Keyring wraps a bbolt database of public key records.
type Keyring struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the keyring database at dbPath.
// The parent directory is created if it does not exist.
func Open(dbPath string) (*Keyring, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("keyring: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("keyring: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketKeys, bucketOwners} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("keyring: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Keyring{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (k *Keyring) Close() error { return k.db.Close() }

// ownerKey builds the owners-bucket key: owner || 0x00 || fingerprint.
// The value stored under it is the fingerprint again.
func ownerKey(owner string, fp []byte) []byte {
	key := make([]byte, 0, len(owner)+1+len(fp))
	key = append(key, owner...)
	key = append(key, 0)
	return append(key, fp...)
}

func decodeFingerprint(fingerprint string) ([]byte, error) {
	fp, err := hex.DecodeString(fingerprint)
	if err != nil || len(fp) != keyfile.FingerprintSize {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFingerprint, fingerprint)
	}
	return fp, nil
}

func encodeRecord(r *Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return &r, nil
}

// Put stores pub and returns its record. Returns ErrDuplicateKey if the same
// modulus is already stored.
func (k *Keyring) Put(pub *ss.PublicKey) (*Record, error) {
	if pub == nil || pub.N == nil {
		return nil, fmt.Errorf("%w: public key", ErrNilParam)
	}

	rec := &Record{
		Fingerprint: keyfile.Fingerprint(pub),
		Owner:       pub.Owner,
		Modulus:     pub.N.Text(16),
		Bits:        pub.N.BitLen(),
		Created:     k.now().UTC(),
	}
	fp, err := decodeFingerprint(rec.Fingerprint)
	if err != nil {
		return nil, err
	}

	err = k.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKeys)
		if b.Get(fp) != nil {
			return ErrDuplicateKey
		}
		data, err := encodeRecord(rec)
		if err != nil {
			return fmt.Errorf("keyring: encode record: %w", err)
		}
		if err := b.Put(fp, data); err != nil {
			return fmt.Errorf("keyring: put key: %w", err)
		}
		if err := tx.Bucket(bucketOwners).Put(ownerKey(rec.Owner, fp), fp); err != nil {
			return fmt.Errorf("keyring: put owner index: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns the record with the given hex fingerprint.
func (k *Keyring) Get(fingerprint string) (*Record, error) {
	fp, err := decodeFingerprint(fingerprint)
	if err != nil {
		return nil, err
	}

	var rec *Record
	err = k.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketKeys).Get(fp)
		if data == nil {
			return ErrKeyNotFound
		}
		var derr error
		rec, derr = decodeRecord(data)
		return derr
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ByOwner returns every record for owner, newest first.
func (k *Keyring) ByOwner(owner string) ([]*Record, error) {
	prefix := append([]byte(owner), 0)

	var records []*Record
	err := k.db.View(func(tx *bbolt.Tx) error {
		keys := tx.Bucket(bucketKeys)
		c := tx.Bucket(bucketOwners).Cursor()
		for ik, _ := c.Seek(prefix); ik != nil && bytes.HasPrefix(ik, prefix); ik, _ = c.Next() {
			data := keys.Get(ik[len(prefix):])
			if data == nil {
				continue // dangling index entry
			}
			rec, err := decodeRecord(data)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(records)
	return records, nil
}

// Latest returns the newest record for owner.
func (k *Keyring) Latest(owner string) (*Record, error) {
	records, err := k.ByOwner(owner)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: owner %q", ErrKeyNotFound, owner)
	}
	return records[0], nil
}

// List returns all records, newest first.
func (k *Keyring) List() ([]*Record, error) {
	var records []*Record
	err := k.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKeys).ForEach(func(_, v []byte) error {
			rec, err := decodeRecord(v)
			if err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(records)
	return records, nil
}

// Delete removes the record with the given fingerprint and its owner index.
func (k *Keyring) Delete(fingerprint string) error {
	fp, err := decodeFingerprint(fingerprint)
	if err != nil {
		return err
	}

	return k.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKeys)
		data := b.Get(fp)
		if data == nil {
			return ErrKeyNotFound
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return err
		}
		if err := b.Delete(fp); err != nil {
			return fmt.Errorf("keyring: delete key: %w", err)
		}
		if err := tx.Bucket(bucketOwners).Delete(ownerKey(rec.Owner, fp)); err != nil {
			return fmt.Errorf("keyring: delete owner index: %w", err)
		}
		return nil
	})
}

// Count returns the number of stored keys.
func (k *Keyring) Count() (int, error) {
	var count int
	err := k.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketKeys).Stats().KeyN
		return nil
	})
	return count, err
}

func sortNewestFirst(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Created.Equal(records[j].Created) {
			return records[i].Created.After(records[j].Created)
		}
		return records[i].Fingerprint < records[j].Fingerprint
	})
}
