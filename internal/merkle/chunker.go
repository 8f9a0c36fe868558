package merkle

import (
	"fmt"

	"github.com/kunal-geeks/chunkroot/internal/digest"
)

// DefaultChunkSize is the chunk size used when none is configured.
const DefaultChunkSize = 1024

// Chunk describes one contiguous slice [Start, End) of a file buffer.
type Chunk struct {
	Index int // index of the chunk in the file (0-based)
	Start int // offset of the first byte
	End   int // offset one past the last byte
}

// Size returns the number of bytes in the chunk.
func (c Chunk) Size() int {
	return c.End - c.Start
}

// ChunkBounds partitions a buffer of n bytes into ceil(n/chunkSize) chunks in
// byte-offset order. Every chunk but the last is exactly chunkSize bytes.
// n == 0 yields no chunks.
//
// chunkSize must be > 0; violating that is a programming error and panics.
func ChunkBounds(n, chunkSize int) []Chunk {
	if chunkSize <= 0 {
		panic(fmt.Sprintf("merkle: invalid chunkSize %d", chunkSize))
	}
	if n <= 0 {
		return nil
	}

	// Written so that no intermediate value exceeds n, for any chunkSize.
	count := (n-1)/chunkSize + 1
	chunks := make([]Chunk, count)
	for i := range chunks {
		start := i * chunkSize
		end := n
		if n-start > chunkSize {
			end = start + chunkSize
		}
		chunks[i] = Chunk{Index: i, Start: start, End: end}
	}
	return chunks
}

// HashChunks splits buf into fixed-size chunks and returns the digest of
// each chunk, in chunk order. These are the leaves (level 0) of the tree.
//
// An empty buf yields no digests. chunkSize must be > 0.
func HashChunks(buf []byte, chunkSize int, alg digest.Algorithm) []digest.Digest {
	chunks := ChunkBounds(len(buf), chunkSize)

	leaves := make([]digest.Digest, len(chunks))
	for i, c := range chunks {
		leaves[i] = alg.Sum(buf[c.Start:c.End])
	}
	return leaves
}
