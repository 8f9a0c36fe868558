package digest

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// ErrUnknownAlgorithm is returned by ParseAlgorithm for names it does not know.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// Algorithm selects the 256-bit hash used for both chunk leaves and inner
// nodes. A single run must use one Algorithm throughout; roots computed with
// different algorithms are not comparable.
type Algorithm string

const (
	// SHA256 is the default algorithm and matches existing reports.
	SHA256 Algorithm = "sha256"
	// BLAKE3 uses the 256-bit BLAKE3 output.
	BLAKE3 Algorithm = "blake3"
)

// DefaultAlgorithm is used when nothing else is configured.
const DefaultAlgorithm = SHA256

// ParseAlgorithm maps a case-insensitive name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(name).Normalize()
	if err := alg.Validate(); err != nil {
		return "", err
	}
	return alg, nil
}

// Validate reports whether a is a supported algorithm.
func (a Algorithm) Validate() error {
	switch a {
	case SHA256, BLAKE3:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
	}
}

// Normalize folds case and surrounding spaces, so "SHA256" and " sha256"
// both name SHA256. It does not validate.
func (a Algorithm) Normalize() Algorithm {
	return Algorithm(strings.ToLower(strings.TrimSpace(string(a))))
}

func (a Algorithm) String() string {
	return string(a)
}

// Sum hashes data with a. Sum panics on an unsupported algorithm; callers
// validate configuration before hashing anything.
func (a Algorithm) Sum(data []byte) Digest {
	switch a {
	case SHA256:
		return Digest(sha256.Sum256(data))
	case BLAKE3:
		return Digest(blake3.Sum256(data))
	default:
		panic(fmt.Sprintf("digest: Sum with unsupported algorithm %q", string(a)))
	}
}

// Concat computes the parent digest of left and right: the hash of the raw
// bytes of left followed by the raw bytes of right. Order matters.
func (a Algorithm) Concat(left, right Digest) Digest {
	var buf [2 * Size]byte
	copy(buf[:Size], left[:])
	copy(buf[Size:], right[:])
	return a.Sum(buf[:])
}
