// Package digest defines the fixed-size hash values that make up a Merkle
// tree and the hash algorithms that produce them.
package digest

import (
	"encoding/hex"
	"fmt"
)

// Size is the length in bytes of every Digest.
const Size = 32

// Digest is one node of the tree: a chunk hash at the leaves, a combined
// hash above them. Arrays copy by value, so a Digest never changes after it
// is produced.
type Digest [Size]byte

// Bytes returns a freshly allocated slice holding d.
func (d Digest) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, d[:])
	return out
}

// String renders d as 64 lowercase hex characters, the form used in reports.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) Equal(other Digest) bool {
	return d == other
}

// IsZero reports whether every byte of d is zero.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// FromHex is the inverse of String. The input must decode to exactly Size
// bytes; upper-case hex is accepted.
func FromHex(s string) (Digest, error) {
	var d Digest
	if len(s) != 2*Size {
		return d, fmt.Errorf("digest %q: want %d hex characters, got %d", s, 2*Size, len(s))
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return Digest{}, fmt.Errorf("digest %q: %w", s, err)
	}
	return d, nil
}

// MustFromHex is FromHex for values known to be well formed, such as
// expected roots in tests. It panics otherwise.
func MustFromHex(s string) Digest {
	d, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return d
}
