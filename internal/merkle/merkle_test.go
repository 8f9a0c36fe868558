package merkle

import (
	"bytes"
	"crypto/sha256"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunal-geeks/chunkroot/internal/digest"
)

func leaf(s string) digest.Digest {
	return digest.SHA256.Sum([]byte(s))
}

func pair(l, r digest.Digest) digest.Digest {
	return digest.Digest(sha256.Sum256(append(l.Bytes(), r.Bytes()...)))
}

func TestReduceToRoot_Empty(t *testing.T) {
	_, err := ReduceToRoot(nil, digest.SHA256)
	assert.ErrorIs(t, err, ErrEmptyInput, "nil slice should error")

	_, err = ReduceToRoot([]digest.Digest{}, digest.SHA256)
	assert.ErrorIs(t, err, ErrEmptyInput, "empty slice should error")
}

func TestReduceToRoot_SingleLeaf(t *testing.T) {
	id := leaf("only chunk")

	root, err := ReduceToRoot([]digest.Digest{id}, digest.SHA256)
	require.NoError(t, err)
	assert.True(t, root.Equal(id), "single leaf root should equal the leaf")

	// No hashing happens for a singleton, so even an unusable algorithm works.
	root, err = ReduceToRoot([]digest.Digest{id}, digest.Algorithm("none"))
	require.NoError(t, err)
	assert.Equal(t, id, root)
}

func TestReduceToRoot_TwoLeaves(t *testing.T) {
	a := leaf("chunk-1")
	b := leaf("chunk-2")

	root, err := ReduceToRoot([]digest.Digest{a, b}, digest.SHA256)
	require.NoError(t, err)
	assert.Equal(t, pair(a, b), root, "root for two leaves should match manual hash")
}

func TestReduceToRoot_ThreeLeaves(t *testing.T) {
	// leaves: a, b, c
	// level1: h_ab = H(a||b), c promoted
	// root: H(h_ab || c)
	a := leaf("A")
	b := leaf("B")
	c := leaf("C")

	root, err := ReduceToRoot([]digest.Digest{a, b, c}, digest.SHA256)
	require.NoError(t, err)
	assert.Equal(t, pair(pair(a, b), c), root, "root should match manual 3-leaf computation")

	// Same as reducing the next level directly.
	next, err := ReduceToRoot([]digest.Digest{pair(a, b), c}, digest.SHA256)
	require.NoError(t, err)
	assert.Equal(t, next, root)

	// And not a duplicate-last or hash-alone tree.
	assert.NotEqual(t, pair(pair(a, b), pair(c, c)), root)
	assert.NotEqual(t, pair(pair(a, b), digest.SHA256.Sum(c.Bytes())), root)
}

func TestReduceToRoot_FiveLeaves(t *testing.T) {
	// level1: ab, cd, e
	// level2: abcd, e
	// root:   H(abcd || e)
	l := []digest.Digest{leaf("a"), leaf("b"), leaf("c"), leaf("d"), leaf("e")}

	want := pair(pair(pair(l[0], l[1]), pair(l[2], l[3])), l[4])

	root, err := ReduceToRoot(l, digest.SHA256)
	require.NoError(t, err)
	assert.Equal(t, want, root)
}

func TestReduceToRoot_SixLeaves(t *testing.T) {
	// level1: ab, cd, ef
	// level2: abcd, ef
	l := []digest.Digest{leaf("a"), leaf("b"), leaf("c"), leaf("d"), leaf("e"), leaf("f")}

	want := pair(pair(pair(l[0], l[1]), pair(l[2], l[3])), pair(l[4], l[5]))

	root, err := ReduceToRoot(l, digest.SHA256)
	require.NoError(t, err)
	assert.Equal(t, want, root)
}

func TestReduceToRoot_OrderMatters(t *testing.T) {
	a := leaf("chunk-X")
	b := leaf("chunk-Y")

	root1, err := ReduceToRoot([]digest.Digest{a, b}, digest.SHA256)
	require.NoError(t, err)

	root2, err := ReduceToRoot([]digest.Digest{b, a}, digest.SHA256)
	require.NoError(t, err)

	assert.False(t, root1.Equal(root2), "Merkle root should depend on chunk order")
}

func TestReduceToRoot_Deterministic(t *testing.T) {
	var ids []digest.Digest
	for _, d := range []string{"a", "b", "c", "d"} {
		ids = append(ids, leaf(d))
	}

	root1, err := ReduceToRoot(ids, digest.SHA256)
	require.NoError(t, err)

	// Compute again with a fresh slice (same order).
	ids2 := make([]digest.Digest, len(ids))
	copy(ids2, ids)

	root2, err := ReduceToRoot(ids2, digest.SHA256)
	require.NoError(t, err)

	assert.True(t, root1.Equal(root2), "Merkle root should be deterministic")

	// Make sure roots are not all zeros.
	assert.False(t, root1.IsZero())
}

func TestReduceToRoot_DoesNotMutateInput(t *testing.T) {
	ids := []digest.Digest{leaf("a"), leaf("b"), leaf("c")}
	orig := make([]digest.Digest, len(ids))
	copy(orig, ids)

	_, err := ReduceToRoot(ids, digest.SHA256)
	require.NoError(t, err)
	assert.Equal(t, orig, ids)
}

func TestReduceToRoot_AlgorithmMatters(t *testing.T) {
	ids := []digest.Digest{leaf("a"), leaf("b")}

	r1, err := ReduceToRoot(ids, digest.SHA256)
	require.NoError(t, err)
	r2, err := ReduceToRoot(ids, digest.BLAKE3)
	require.NoError(t, err)

	assert.NotEqual(t, r1, r2)
}

func TestRoot_2048Bytes(t *testing.T) {
	data := make([]byte, 2048)
	for i := range data {
		data[i] = byte(i)
	}

	root, leaves, err := Root(data, 1024, digest.SHA256)
	require.NoError(t, err)
	assert.Equal(t, 2, leaves)

	d0 := digest.Digest(sha256.Sum256(data[:1024]))
	d1 := digest.Digest(sha256.Sum256(data[1024:]))
	assert.Equal(t, pair(d0, d1), root)
}

func TestRoot_2049Bytes(t *testing.T) {
	data := make([]byte, 2049)
	for i := range data {
		data[i] = byte(i * 7)
	}

	root, leaves, err := Root(data, 1024, digest.SHA256)
	require.NoError(t, err)
	assert.Equal(t, 3, leaves)

	d0 := digest.Digest(sha256.Sum256(data[:1024]))
	d1 := digest.Digest(sha256.Sum256(data[1024:2048]))
	d2 := digest.Digest(sha256.Sum256(data[2048:]))
	assert.Equal(t, pair(pair(d0, d1), d2), root)
}

func TestRoot_SmallFileIsLeafDigest(t *testing.T) {
	data := []byte("fits in one chunk")

	root, leaves, err := Root(data, 1024, digest.SHA256)
	require.NoError(t, err)
	assert.Equal(t, 1, leaves)
	assert.Equal(t, digest.Digest(sha256.Sum256(data)), root)
}

func TestRoot_Empty(t *testing.T) {
	_, _, err := Root(nil, 1024, digest.SHA256)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestRoot_SingleByteMutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	data := make([]byte, 5000)
	rng.Read(data)

	base, _, err := Root(data, 64, digest.SHA256)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		pos := rng.Intn(len(data))
		mutated := bytes.Clone(data)
		mutated[pos] ^= byte(1 + rng.Intn(255))

		got, _, err := Root(mutated, 64, digest.SHA256)
		require.NoError(t, err)
		assert.NotEqual(t, base, got, "flipping byte %d must change the root", pos)
	}
}

func FuzzRoot_SingleByteMutation(f *testing.F) {
	f.Add([]byte("hello merkle"), uint(3), byte(1), uint(4))
	f.Add(bytes.Repeat([]byte{0}, 2049), uint(2048), byte(0x80), uint(1024))

	f.Fuzz(func(t *testing.T, data []byte, pos uint, flip byte, chunkSize uint) {
		if len(data) == 0 || flip == 0 {
			return
		}
		cs := int(chunkSize%4096) + 1
		p := int(pos % uint(len(data)))

		base, _, err := Root(data, cs, digest.SHA256)
		require.NoError(t, err)

		mutated := bytes.Clone(data)
		mutated[p] ^= flip

		got, _, err := Root(mutated, cs, digest.SHA256)
		require.NoError(t, err)
		assert.NotEqual(t, base, got)
	})
}

func TestDepth(t *testing.T) {
	cases := map[int]int{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 1024: 10, 1025: 11}
	for leaves, want := range cases {
		assert.Equal(t, want, Depth(leaves), "leaves=%d", leaves)
	}
}
