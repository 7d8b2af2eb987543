package keyring

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libss-go/keyfile"
	"github.com/bitfsorg/libss-go/randstate"
	"github.com/bitfsorg/libss-go/ss"
)

func openTestKeyring(t *testing.T) *Keyring {
	t.Helper()
	kr, err := Open(filepath.Join(t.TempDir(), "ring", "keyring.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kr.Close() })
	return kr
}

func newPub(t *testing.T, seed uint64, owner string) *ss.PublicKey {
	t.Helper()
	kp, _, err := ss.GenerateKeyPair(64, 20, randstate.New(seed))
	require.NoError(t, err)
	return kp.Public(owner)
}

// fixedClock returns successive instants one minute apart.
func fixedClock() func() time.Time {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	return func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Minute)
	}
}

func TestPutGet(t *testing.T) {
	kr := openTestKeyring(t)
	pub := newPub(t, 1, "alice")

	rec, err := kr.Put(pub)
	require.NoError(t, err)
	assert.Equal(t, keyfile.Fingerprint(pub), rec.Fingerprint)
	assert.Equal(t, "alice", rec.Owner)
	assert.Equal(t, pub.N.BitLen(), rec.Bits)

	got, err := kr.Get(rec.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, rec.Modulus, got.Modulus)
	assert.True(t, rec.Created.Equal(got.Created))

	back, err := got.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, 0, pub.N.Cmp(back.N))
	assert.Equal(t, "alice", back.Owner)
}

func TestPutDuplicate(t *testing.T) {
	kr := openTestKeyring(t)
	pub := newPub(t, 2, "bob")

	_, err := kr.Put(pub)
	require.NoError(t, err)
	_, err = kr.Put(pub)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestPutNil(t *testing.T) {
	kr := openTestKeyring(t)
	_, err := kr.Put(nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestGetErrors(t *testing.T) {
	kr := openTestKeyring(t)

	_, err := kr.Get("00112233445566778899aabbccddeeff00112233")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	for _, bad := range []string{"", "zz", "0011"} {
		_, err = kr.Get(bad)
		assert.ErrorIs(t, err, ErrInvalidFingerprint, "fingerprint %q", bad)
	}
}

func TestByOwnerNewestFirst(t *testing.T) {
	kr := openTestKeyring(t)
	kr.now = fixedClock()

	first, err := kr.Put(newPub(t, 10, "carol"))
	require.NoError(t, err)
	_, err = kr.Put(newPub(t, 11, "dave"))
	require.NoError(t, err)
	second, err := kr.Put(newPub(t, 12, "carol"))
	require.NoError(t, err)

	recs, err := kr.ByOwner("carol")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, second.Fingerprint, recs[0].Fingerprint)
	assert.Equal(t, first.Fingerprint, recs[1].Fingerprint)

	latest, err := kr.Latest("carol")
	require.NoError(t, err)
	assert.Equal(t, second.Fingerprint, latest.Fingerprint)

	// "car" must not match "carol" entries.
	recs, err = kr.ByOwner("car")
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = kr.Latest("nobody")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestListAndCount(t *testing.T) {
	kr := openTestKeyring(t)
	kr.now = fixedClock()

	for i, owner := range []string{"a", "b", "c"} {
		_, err := kr.Put(newPub(t, uint64(20+i), owner))
		require.NoError(t, err)
	}

	recs, err := kr.List()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "c", recs[0].Owner)
	assert.Equal(t, "a", recs[2].Owner)

	n, err := kr.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDelete(t *testing.T) {
	kr := openTestKeyring(t)
	rec, err := kr.Put(newPub(t, 30, "erin"))
	require.NoError(t, err)

	require.NoError(t, kr.Delete(rec.Fingerprint))

	_, err = kr.Get(rec.Fingerprint)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	recs, err := kr.ByOwner("erin")
	require.NoError(t, err)
	assert.Empty(t, recs)

	assert.ErrorIs(t, kr.Delete(rec.Fingerprint), ErrKeyNotFound)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyring.db")

	kr, err := Open(path)
	require.NoError(t, err)
	rec, err := kr.Put(newPub(t, 40, "frank"))
	require.NoError(t, err)
	require.NoError(t, kr.Close())

	kr, err = Open(path)
	require.NoError(t, err)
	defer kr.Close()

	got, err := kr.Get(rec.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, "frank", got.Owner)
}

func TestRecordPublicKeyCorrupt(t *testing.T) {
	rec := &Record{Fingerprint: "x", Modulus: "not-hex"}
	_, err := rec.PublicKey()
	assert.ErrorIs(t, err, ErrCorruptRecord)
}
