package keyfile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveKeyPairPlain(t *testing.T) {
	kp := testKeyPair(t)
	dir := t.TempDir()
	pubPath := filepath.Join(dir, "keys", "ss.pub")
	privPath := filepath.Join(dir, "keys", "ss.priv")

	require.NoError(t, SaveKeyPair(pubPath, privPath, kp.Public("alice"), kp.Private(), "", fastKDF))

	pub, err := LoadPublicKey(pubPath)
	require.NoError(t, err)
	assert.Equal(t, 0, kp.N.Cmp(pub.N))

	priv, err := LoadPrivateKey(privPath, "")
	require.NoError(t, err)
	assert.Equal(t, 0, kp.D.Cmp(priv.D))
	assert.Equal(t, 0, kp.PQ.Cmp(priv.PQ))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(privPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(privateKeyPerm), info.Mode().Perm())
	}
}

func TestSaveKeyPairSealed(t *testing.T) {
	kp := testKeyPair(t)
	dir := t.TempDir()
	pubPath, privPath := filepath.Join(dir, "ss.pub"), filepath.Join(dir, "ss.priv")

	require.NoError(t, SaveKeyPair(pubPath, privPath, kp.Public("alice"), kp.Private(), "pw", fastKDF))

	data, err := os.ReadFile(privPath)
	require.NoError(t, err)
	assert.True(t, IsSealed(data))

	priv, err := LoadPrivateKey(privPath, "pw")
	require.NoError(t, err)
	assert.Equal(t, 0, kp.D.Cmp(priv.D))
}

func TestSaveKeyPairShrinksExistingFile(t *testing.T) {
	kp := testKeyPair(t)
	dir := t.TempDir()
	pubPath, privPath := filepath.Join(dir, "ss.pub"), filepath.Join(dir, "ss.priv")

	long := make([]byte, 4096)
	for i := range long {
		long[i] = 'f'
	}
	require.NoError(t, os.WriteFile(privPath, long, 0644))

	require.NoError(t, SaveKeyPair(pubPath, privPath, kp.Public("alice"), kp.Private(), "", fastKDF))

	priv, err := LoadPrivateKey(privPath, "")
	require.NoError(t, err, "stale bytes must be truncated")
	assert.Equal(t, 0, kp.PQ.Cmp(priv.PQ))
}

func TestSaveKeyPairNilKey(t *testing.T) {
	kp := testKeyPair(t)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "ss.priv")

	err := SaveKeyPair(filepath.Join(dir, "ss.pub"), privPath, nil, kp.Private(), "", fastKDF)
	assert.ErrorIs(t, err, ErrNilKey)

	_, statErr := os.Stat(privPath)
	assert.True(t, os.IsNotExist(statErr), "nothing is written for invalid input")
}

func TestFileLockBlocksSecondAcquire(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no cross-process lock on windows")
	}
	path := filepath.Join(t.TempDir(), "ss.priv")

	f1, err := acquireLock(path, privateKeyPerm)
	require.NoError(t, err)

	f2, err := tryLock(path, privateKeyPerm)
	assert.Error(t, err)
	assert.Nil(t, f2)

	require.NoError(t, releaseLock(f1))

	f3, err := tryLock(path, privateKeyPerm)
	require.NoError(t, err)
	require.NoError(t, releaseLock(f3))
}

func TestReleaseLockNil(t *testing.T) {
	assert.NoError(t, releaseLock(nil))
}
