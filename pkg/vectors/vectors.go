// Package vectors provides the small amount of vector math the gateway
// needs for embedding comparison: cosine similarity and exemplar centroids.
package vectors

import "math"

// Cosine returns the cosine similarity of a and b: 1 for identical direction,
// 0 for orthogonal, -1 for opposite. Mismatched or zero-length inputs yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Centroid returns the element-wise mean of the given vectors.
// All vectors must share the same dimension; nil is returned otherwise.
func Centroid(vs [][]float32) []float32 {
	if len(vs) == 0 {
		return nil
	}
	dim := len(vs[0])
	sum := make([]float64, dim)
	for _, v := range vs {
		if len(v) != dim {
			return nil
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
	}
	out := make([]float32, dim)
	for i, s := range sum {
		out[i] = float32(s / float64(len(vs)))
	}
	return out
}
