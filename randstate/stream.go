package randstate

import (
	"encoding/binary"
	"math/rand"

	"golang.org/x/crypto/chacha20"
)

// stream is a math/rand Source64 reading a ChaCha20 keystream. The key is
// the little-endian seed padded with zeros and the nonce is zero.
type stream struct {
	c   *chacha20.Cipher
	buf [512]byte
	off int
}

var _ rand.Source64 = (*stream)(nil)

func newStream(seed uint64) *stream {
	s := &stream{}
	s.reset(seed)
	return s
}

func (s *stream) reset(seed uint64) {
	var key [chacha20.KeySize]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		// Key and nonce lengths are constants.
		panic("randstate: " + err.Error())
	}
	s.c = c
	s.off = len(s.buf)
}

func (s *stream) Uint64() uint64 {
	if s.off+8 > len(s.buf) {
		clear(s.buf[:])
		s.c.XORKeyStream(s.buf[:], s.buf[:])
		s.off = 0
	}
	v := binary.LittleEndian.Uint64(s.buf[s.off:])
	s.off += 8
	return v
}

func (s *stream) Int63() int64 {
	return int64(s.Uint64() >> 1)
}

// Seed restarts the keystream. The int64 is reinterpreted as uint64, so no
// seed bits are lost.
func (s *stream) Seed(seed int64) {
	s.reset(uint64(seed))
}
