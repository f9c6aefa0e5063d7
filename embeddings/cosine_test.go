package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarityIdentity(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}
	got, err := CosineSimilarity(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestCosineSimilaritySymmetry(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-4, 0.5, 2}

	ab, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	ba, err := CosineSimilarity(b, a)
	require.NoError(t, err)
	assert.InDelta(t, ab, ba, 1e-12)
}

func TestCosineSimilarityRange(t *testing.T) {
	cases := [][2][]float32{
		{{1, 0}, {0, 1}},
		{{1, 1}, {-1, -1}},
		{{2, 3, 5}, {7, 11, 13}},
		{{-1, 4}, {3, -0.5}},
	}
	for _, c := range cases {
		got, err := CosineSimilarity(c[0], c[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, -1.0-1e-9)
		assert.LessOrEqual(t, got, 1.0+1e-9)
	}
}

func TestCosineSimilarityOppositeVectors(t *testing.T) {
	got, err := CosineSimilarity([]float32{1, 2, 3}, []float32{-1, -2, -3})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, got, 1e-9)
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	got, err := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestCosineSimilarityLengthMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrVectorLengthMismatch)
}
