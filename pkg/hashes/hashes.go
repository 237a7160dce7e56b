// Package hashes provides the digest value types and the SHA-256 engine used
// to collapse hardware snapshots into fixed-size fingerprints.
package hashes

import (
	"encoding/hex"
	"fmt"
)

// Hash128 is a fixed 128-bit digest value.
type Hash128 [16]byte

// Hash256 is a fixed 256-bit digest value. This is the fingerprint type
// produced by the SHA-256 engine.
type Hash256 [32]byte

// Hash512 is a fixed 512-bit digest value.
type Hash512 [64]byte

// String returns the digest as lowercase hex.
func (h Hash128) String() string { return hex.EncodeToString(h[:]) }

// String returns the digest as lowercase hex.
func (h Hash256) String() string { return hex.EncodeToString(h[:]) }

// String returns the digest as lowercase hex.
func (h Hash512) String() string { return hex.EncodeToString(h[:]) }

// Equal reports whether two digests are byte-wise identical.
func (h Hash256) Equal(other Hash256) bool { return h == other }

// IsZero reports whether the digest is all zero bytes.
func (h Hash256) IsZero() bool { return h == Hash256{} }

// MarshalText implements encoding.TextMarshaler so digests render as hex in
// JSON and YAML output.
func (h Hash256) MarshalText() ([]byte, error) {
	dst := make([]byte, hex.EncodedLen(len(h)))
	hex.Encode(dst, h[:])
	return dst, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash256) UnmarshalText(text []byte) error {
	parsed, err := ParseHash256(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash256 decodes a 64-character hex string into a Hash256.
func ParseHash256(s string) (Hash256, error) {
	var h Hash256
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("hashes: invalid digest %q: %w", s, err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("hashes: digest must be %d bytes, got %d", len(h), len(raw))
	}
	copy(h[:], raw)
	return h, nil
}
