package merkle

import (
	"errors"
	"fmt"

	"github.com/kunal-geeks/chunkroot/internal/digest"
)

// ErrEmptyInput is returned when a root is requested over zero digests.
var ErrEmptyInput = errors.New("merkle: no digests to reduce")

// ReduceToRoot computes a Merkle root over an ordered list of digests.
// Inner nodes are computed as alg(left || right) over the raw digest bytes.
// If a level has an odd number of nodes, the last one is promoted
// unchanged to the next level: it is never duplicated or hashed alone.
//
// A single digest is its own root and no hashing is done.
// If digests is empty, ErrEmptyInput is returned.
func ReduceToRoot(digests []digest.Digest, alg digest.Algorithm) (digest.Digest, error) {
	var zero digest.Digest

	if len(digests) == 0 {
		return zero, ErrEmptyInput
	}
	if len(digests) == 1 {
		// Single leaf: root is the leaf itself.
		return digests[0], nil
	}

	// Work on a copy so we don't mutate caller's slice.
	cur := make([]digest.Digest, len(digests))
	copy(cur, digests)

	for len(cur) > 1 {
		cur = reduceLevel(cur, alg)
	}

	return cur[0], nil
}

// reduceLevel maps a level of m digests to a level of ceil(m/2) digests.
// The result reuses the front of level, which is safe because slot i/2 is
// written only after slots i and i+1 have been read.
func reduceLevel(level []digest.Digest, alg digest.Algorithm) []digest.Digest {
	next := level[:0]
	for i := 0; i < len(level); i += 2 {
		if i+1 >= len(level) {
			// Odd element: promote as-is.
			next = append(next, level[i])
			continue
		}
		next = append(next, alg.Concat(level[i], level[i+1]))
	}
	return next
}

// Root hashes buf in chunks of chunkSize and reduces the leaves to a root.
// It also returns the number of leaves. An empty buf has no root and
// returns ErrEmptyInput.
func Root(buf []byte, chunkSize int, alg digest.Algorithm) (digest.Digest, int, error) {
	leaves := HashChunks(buf, chunkSize, alg)

	root, err := ReduceToRoot(leaves, alg)
	if err != nil {
		return digest.Digest{}, 0, fmt.Errorf("Root: %w", err)
	}
	return root, len(leaves), nil
}

// Depth returns the number of reduction steps needed to turn a level of
// leaves digests into a root, i.e. ceil(log2(leaves)). Zero or one leaf
// needs no steps.
func Depth(leaves int) int {
	depth := 0
	for m := leaves; m > 1; m = (m + 1) / 2 {
		depth++
	}
	return depth
}
