package hashes

import (
	"encoding/binary"
	"math/bits"
)

// Sha256 is an incremental SHA-256 engine (FIPS 180-4). The zero value is not
// ready for use; call New or Reset first. Update may be called any number of
// times before Finalize. Finalize consumes the state: calling Update or
// Finalize again afterwards is a caller bug and panics. Reset re-arms the
// engine for reuse.
type Sha256 struct {
	state     [8]uint32
	data      [64]byte
	dataLen   int
	bitLen    uint64
	finalized bool
}

var k = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// New returns an initialized SHA-256 engine.
func New() *Sha256 {
	s := &Sha256{}
	s.Reset()
	return s
}

// Sum256 computes the SHA-256 digest of data in one shot.
func Sum256(data []byte) Hash256 {
	var s Sha256
	s.Reset()
	s.Update(data)
	return s.Finalize()
}

// Reset restores the engine to its initial state, discarding any buffered
// input. A finalized engine becomes usable again.
func (s *Sha256) Reset() {
	s.state = [8]uint32{
		0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
		0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
	}
	s.dataLen = 0
	s.bitLen = 0
	s.finalized = false
}

// Update absorbs data into the engine. Panics if the engine was finalized.
func (s *Sha256) Update(data []byte) {
	if s.finalized {
		panic("hashes: Update called after Finalize")
	}
	for len(data) > 0 {
		n := copy(s.data[s.dataLen:], data)
		s.dataLen += n
		data = data[n:]
		if s.dataLen == 64 {
			s.transform()
			s.bitLen += 512
			s.dataLen = 0
		}
	}
}

// Finalize pads the remaining input, runs the last compression and returns
// the digest. The engine is consumed; panics on a second call.
func (s *Sha256) Finalize() Hash256 {
	if s.finalized {
		panic("hashes: Finalize called twice")
	}
	s.finalized = true

	i := s.dataLen
	s.data[i] = 0x80
	i++

	// The length field needs 8 bytes; if the padding byte pushed past
	// offset 56 the length goes into an extra block.
	if i > 56 {
		for i < 64 {
			s.data[i] = 0
			i++
		}
		s.transform()
		i = 0
	}
	for i < 56 {
		s.data[i] = 0
		i++
	}

	s.bitLen += uint64(s.dataLen) * 8
	binary.BigEndian.PutUint64(s.data[56:], s.bitLen)
	s.transform()

	var digest Hash256
	for j, word := range s.state {
		binary.BigEndian.PutUint32(digest[j*4:], word)
	}
	return digest
}

func (s *Sha256) transform() {
	var m [64]uint32
	for i := 0; i < 16; i++ {
		m[i] = binary.BigEndian.Uint32(s.data[i*4:])
	}
	for i := 16; i < 64; i++ {
		m[i] = sig1(m[i-2]) + m[i-7] + sig0(m[i-15]) + m[i-16]
	}

	a, b, c, d := s.state[0], s.state[1], s.state[2], s.state[3]
	e, f, g, h := s.state[4], s.state[5], s.state[6], s.state[7]

	for i := 0; i < 64; i++ {
		t1 := h + (rotr(e, 6) ^ rotr(e, 11) ^ rotr(e, 25)) + choose(e, f, g) + k[i] + m[i]
		t2 := (rotr(a, 2) ^ rotr(a, 13) ^ rotr(a, 22)) + majority(a, b, c)
		h = g
		g = f
		f = e
		e = d + t1
		d = c
		c = b
		b = a
		a = t1 + t2
	}

	s.state[0] += a
	s.state[1] += b
	s.state[2] += c
	s.state[3] += d
	s.state[4] += e
	s.state[5] += f
	s.state[6] += g
	s.state[7] += h
}

func rotr(x uint32, n int) uint32 { return bits.RotateLeft32(x, -n) }

func choose(e, f, g uint32) uint32 { return (e & f) ^ (^e & g) }

func majority(a, b, c uint32) uint32 { return (a & (b | c)) | (b & c) }

func sig0(x uint32) uint32 { return rotr(x, 7) ^ rotr(x, 18) ^ (x >> 3) }

func sig1(x uint32) uint32 { return rotr(x, 17) ^ rotr(x, 19) ^ (x >> 10) }
