package ss

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libss-go/numtheory"
	"github.com/bitfsorg/libss-go/randstate"
)

func bi(v int64) *big.Int { return big.NewInt(v) }

func TestLCM(t *testing.T) {
	tests := []struct {
		a, b, want int64
	}{
		{4, 6, 12},
		{6, 4, 12},
		{7, 13, 91},
		{12, 12, 12},
		{0, 5, 0},
		{0, 0, 0},
		{-4, 6, 12},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, LCM(bi(tc.a), bi(tc.b)).Int64(), "LCM(%d, %d)", tc.a, tc.b)
	}
}

// ---------------------------------------------------------------------------
// Key generation
// ---------------------------------------------------------------------------

func assertKeyInvariants(t *testing.T, kp *KeyPair, bits int) {
	t.Helper()

	require.NotEqual(t, 0, kp.P.Cmp(kp.Q), "p must differ from q")
	assert.True(t, kp.P.ProbablyPrime(20), "p should be prime")
	assert.True(t, kp.Q.ProbablyPrime(20), "q should be prime")

	rem := new(big.Int)
	assert.NotEqual(t, 0, rem.Mod(new(big.Int).Sub(kp.Q, one), kp.P).Sign(), "p divides q-1")
	assert.NotEqual(t, 0, rem.Mod(new(big.Int).Sub(kp.P, one), kp.Q).Sign(), "q divides p-1")

	n := new(big.Int).Mul(kp.P, kp.P)
	n.Mul(n, kp.Q)
	assert.Equal(t, 0, n.Cmp(kp.N), "n = p²q")
	assert.GreaterOrEqual(t, kp.N.BitLen(), bits)

	assert.Equal(t, 0, new(big.Int).Mul(kp.P, kp.Q).Cmp(kp.PQ), "pq = p·q")

	lambda := LCM(new(big.Int).Sub(kp.P, one), new(big.Int).Sub(kp.Q, one))
	check := new(big.Int).Mul(kp.D, kp.N)
	check.Mod(check, lambda)
	assert.Equal(t, int64(1), check.Int64(), "d·n ≡ 1 (mod λ)")
}

func TestGenerateKeyPairInvariants(t *testing.T) {
	for _, bits := range []int{MinBits, 64, 128, 256} {
		src := randstate.New(uint64(bits))
		kp, stats, err := GenerateKeyPair(bits, 20, src)
		require.NoError(t, err, "bits=%d", bits)
		require.NotNil(t, stats)
		assert.GreaterOrEqual(t, stats.PrimeAttempts, uint64(2))
		assertKeyInvariants(t, kp, bits)
	}
}

func TestGenerateKeyPairManySmallKeys(t *testing.T) {
	// Small moduli exercise the rejection path far more often.
	src := randstate.New(77)
	var rejections uint64
	for i := 0; i < 40; i++ {
		kp, stats, err := GenerateKeyPair(MinBits, 20, src)
		require.NoError(t, err)
		assertKeyInvariants(t, kp, MinBits)
		rejections += stats.Rejections
	}
	t.Logf("rejected pairs: %d", rejections)
}

func TestGenerateKeyPairDeterministic(t *testing.T) {
	kp1, _, err := GenerateKeyPair(256, 50, randstate.New(42))
	require.NoError(t, err)
	kp2, _, err := GenerateKeyPair(256, 50, randstate.New(42))
	require.NoError(t, err)

	assert.Equal(t, 0, kp1.P.Cmp(kp2.P))
	assert.Equal(t, 0, kp1.Q.Cmp(kp2.Q))
	assert.Equal(t, 0, kp1.N.Cmp(kp2.N))
	assert.Equal(t, 0, kp1.D.Cmp(kp2.D))
	assert.Equal(t, 0, kp1.PQ.Cmp(kp2.PQ))
}

func TestGenerateKeyPairSeed42HiRoundTrip(t *testing.T) {
	kp, _, err := GenerateKeyPair(256, 50, randstate.New(42))
	require.NoError(t, err)

	ct, err := EncryptBytes([]byte("hi!"), kp.Public("alice"))
	require.NoError(t, err)

	pt, err := DecryptBytes(ct, kp.Private())
	require.NoError(t, err)
	assert.Equal(t, "hi!", string(pt))
}

func TestMakePublicKeySplit(t *testing.T) {
	const bits = 200
	p, q, n, err := MakePublicKey(bits, 20, randstate.New(5))
	require.NoError(t, err)

	split := p.BitLen()
	assert.GreaterOrEqual(t, split, bits/5)
	assert.Less(t, split, 2*bits/5)
	assert.Equal(t, bits-2*split+4, q.BitLen())
	assert.GreaterOrEqual(t, n.BitLen(), bits)
}

func TestMakePublicKeyInvalidParams(t *testing.T) {
	src := randstate.New(1)

	_, _, _, err := MakePublicKey(MinBits-1, 20, src)
	assert.ErrorIs(t, err, ErrInvalidBitLength)

	_, _, _, err = MakePublicKey(0, 20, src)
	assert.ErrorIs(t, err, ErrInvalidBitLength)

	_, _, _, err = MakePublicKey(128, 0, src)
	assert.ErrorIs(t, err, ErrInvalidIterations)
}

func TestMakePrivateKeyKnownPair(t *testing.T) {
	// p=5, q=7: n=175, λ=lcm(4,6)=12, 175 ≡ 7 (mod 12), 7·7 = 49 ≡ 1.
	d, pq, err := MakePrivateKey(bi(5), bi(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.Int64())
	assert.Equal(t, int64(35), pq.Int64())

	for m := int64(0); m < 35; m++ {
		c := EncryptInt(bi(m), bi(175))
		assert.Equal(t, m, DecryptInt(c, d, pq).Int64(), "m=%d", m)
	}
}

func TestMakePrivateKeySurfacesNoInverse(t *testing.T) {
	// 3 divides 7-1, so 3 | gcd(n, λ) and no private exponent exists.
	_, _, err := MakePrivateKey(bi(3), bi(7))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyInvariant)
	assert.ErrorIs(t, err, numtheory.ErrNoInverse)
}

func TestMakePrivateKeyNil(t *testing.T) {
	_, _, err := MakePrivateKey(nil, bi(7))
	assert.ErrorIs(t, err, ErrNilKey)
}

func TestKeyPairAccessorsCopy(t *testing.T) {
	kp, _, err := GenerateKeyPair(64, 20, randstate.New(3))
	require.NoError(t, err)

	pub := kp.Public("bob")
	assert.Equal(t, "bob", pub.Owner)
	pub.N.SetInt64(1)
	assert.NotEqual(t, int64(1), kp.N.Int64(), "Public must not alias KeyPair.N")

	priv := kp.Private()
	priv.D.SetInt64(1)
	assert.NotEqual(t, 0, kp.D.Cmp(bi(1)), "Private must not alias KeyPair.D")
}

func TestEncryptDecryptInt(t *testing.T) {
	kp, _, err := GenerateKeyPair(128, 20, randstate.New(8))
	require.NoError(t, err)

	src := randstate.New(9)
	for i := 0; i < 50; i++ {
		m := src.Int(kp.PQ)
		c := EncryptInt(m, kp.N)
		assert.Equal(t, 0, m.Cmp(DecryptInt(c, kp.D, kp.PQ)))
	}
}

func BenchmarkGenerateKeyPair_256(b *testing.B) {
	src := randstate.New(1)
	for i := 0; i < b.N; i++ {
		_, _, _ = GenerateKeyPair(256, 50, src)
	}
}
