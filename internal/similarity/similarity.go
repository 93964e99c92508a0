// Package similarity provides the pure vector math used for scoring:
// magnitudes, dot products, cosine similarity and score normalization.
package similarity

import (
	"fmt"
	"math"

	"memvec/internal/domain"
)

// ErrDimensionMismatch indicates two vectors of different lengths were
// compared. Vector length is fixed per store by the embedding model, so a
// mismatch is a contract violation, not a recoverable condition.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Magnitude computes the L2 norm of v. A zero vector yields 0.
func Magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Dot computes the dot product of two equal-length vectors.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine computes cosine similarity from a dot product and two magnitudes.
// Either magnitude being 0 would make the quotient undefined; callers guard
// against it (Score maps that case to 0).
func Cosine(dot, magA, magB float64) float64 {
	return dot / (magA * magB)
}

// Normalize maps a raw cosine similarity from [-1,1] to [0,1].
func Normalize(score float64) float64 {
	return (score + 1) / 2
}

// NewEmbedding builds the immutable vector/magnitude pair for v.
func NewEmbedding(v []float32) domain.Embedding {
	return domain.Embedding{Vector: v, Magnitude: Magnitude(v)}
}

// Score computes the normalized cosine similarity between a document
// embedding and a query embedding. Zero-magnitude embeddings score 0, so
// directionless vectors sink to the bottom of a ranking instead of
// propagating NaN through the sort.
func Score(doc, query domain.Embedding) (float64, error) {
	if len(doc.Vector) != len(query.Vector) {
		return 0, &ErrDimensionMismatch{Expected: len(query.Vector), Actual: len(doc.Vector)}
	}
	if doc.Zero() || query.Zero() {
		return 0, nil
	}
	dot := Dot(doc.Vector, query.Vector)
	return Normalize(Cosine(dot, doc.Magnitude, query.Magnitude)), nil
}
