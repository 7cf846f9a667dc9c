package vectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineIdentity(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
}

func TestCosineOrthogonal(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestCosineOpposite(t *testing.T) {
	assert.InDelta(t, -1.0, Cosine([]float32{1, 2, 3}, []float32{-1, -2, -3}), 1e-9)
}

func TestCosineSymmetricAndBounded(t *testing.T) {
	pairs := [][2][]float32{
		{{1, 2, 3}, {4, 5, 6}},
		{{-1, 0.5, 2}, {3, -2, 0.1}},
		{{0.001, 0.002}, {100, 200}},
	}
	for _, p := range pairs {
		ab := Cosine(p[0], p[1])
		ba := Cosine(p[1], p[0])
		assert.InDelta(t, ab, ba, 1e-9)
		assert.LessOrEqual(t, ab, 1.0+1e-9)
		assert.GreaterOrEqual(t, ab, -1.0-1e-9)
	}
}

func TestCosineDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, Cosine(nil, nil))
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestCentroid(t *testing.T) {
	c := Centroid([][]float32{{1, 2}, {3, 4}})
	assert.Equal(t, []float32{2, 3}, c)

	assert.Nil(t, Centroid(nil))
	assert.Nil(t, Centroid([][]float32{{1, 2}, {1}}))
}
