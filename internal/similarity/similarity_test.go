package similarity

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMagnitude(t *testing.T) {
	tests := []struct {
		name string
		v    []float32
		want float64
	}{
		{"zero vector", []float32{0, 0, 0}, 0},
		{"empty vector", nil, 0},
		{"3-4 triangle", []float32{3, 4}, 5},
		{"unit", []float32{1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Magnitude(tt.v); !almostEqual(got, tt.want) {
				t.Errorf("Magnitude(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestDot(t *testing.T) {
	got := Dot([]float32{1, 2, 3}, []float32{4, 5, 6})
	if !almostEqual(got, 32) {
		t.Errorf("Dot = %v, want 32", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  float64
		want float64
	}{
		{-1, 0},
		{0, 0.5},
		{1, 1},
	}
	for _, tt := range tests {
		if got := Normalize(tt.raw); !almostEqual(got, tt.want) {
			t.Errorf("Normalize(%v) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestNewEmbedding(t *testing.T) {
	e := NewEmbedding([]float32{3, 4})
	if !almostEqual(e.Magnitude, 5) {
		t.Errorf("expected magnitude 5, got %v", e.Magnitude)
	}
	if len(e.Vector) != 2 {
		t.Errorf("expected vector length 2, got %d", len(e.Vector))
	}
}

func TestScore_IdenticalVectors(t *testing.T) {
	e := NewEmbedding([]float32{0.1, 0.2, 0.3, 0.4})
	score, err := Score(e, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(score, 1.0) {
		t.Errorf("expected score 1.0 for identical vectors, got %v", score)
	}
}

func TestScore_OppositeVectors(t *testing.T) {
	a := NewEmbedding([]float32{1, 0})
	b := NewEmbedding([]float32{-1, 0})
	score, err := Score(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(score, 0) {
		t.Errorf("expected score 0 for opposite vectors, got %v", score)
	}
}

func TestScore_OrthogonalVectors(t *testing.T) {
	a := NewEmbedding([]float32{1, 0})
	b := NewEmbedding([]float32{0, 1})
	score, err := Score(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(score, 0.5) {
		t.Errorf("expected score 0.5 for orthogonal vectors, got %v", score)
	}
}

func TestScore_ZeroMagnitude(t *testing.T) {
	zero := NewEmbedding([]float32{0, 0})
	q := NewEmbedding([]float32{1, 2})

	score, err := Score(zero, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0 {
		t.Errorf("expected zero-magnitude document to score 0, got %v", score)
	}
	if math.IsNaN(score) {
		t.Error("score must never be NaN")
	}
}

func TestScore_DimensionMismatch(t *testing.T) {
	a := NewEmbedding([]float32{1, 2, 3})
	b := NewEmbedding([]float32{1, 2})

	_, err := Score(a, b)
	var dm *ErrDimensionMismatch
	if !errors.As(err, &dm) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if dm.Expected != 2 || dm.Actual != 3 {
		t.Errorf("expected 2/3 in error, got %d/%d", dm.Expected, dm.Actual)
	}
}
