package embedding

import (
	"errors"
	"math"
	"testing"
)

// TestNormalize verifies vectors come out at unit Euclidean length.
func TestNormalize(t *testing.T) {
	v := []float32{3, 4}

	if err := normalize(v); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if math.Abs(float64(v[0])-0.6) > 1e-6 {
		t.Errorf("Expected v[0]=0.6, got %f", v[0])
	}
	if math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Expected v[1]=0.8, got %f", v[1])
	}
}

// TestNormalize_UnitNorm verifies the resulting norm is 1 within tolerance
// for a larger vector.
func TestNormalize_UnitNorm(t *testing.T) {
	v := make([]float32, EmbeddingDimension)
	for i := range v {
		v[i] = float32(i%7) - 3
	}

	if err := normalize(v); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1.0) > 1e-5 {
		t.Errorf("Expected unit norm, got %f", math.Sqrt(sum))
	}
}

// TestNormalize_ZeroVector verifies an all-zero vector is rejected rather
// than divided by zero.
func TestNormalize_ZeroVector(t *testing.T) {
	v := make([]float32, 8)

	err := normalize(v)
	if !errors.Is(err, ErrZeroVector) {
		t.Errorf("Expected ErrZeroVector, got %v", err)
	}
}

// TestToFloat32 verifies conversion preserves order and values.
func TestToFloat32(t *testing.T) {
	f64 := []float64{0.1, -0.2, 0.3}

	f32 := toFloat32(f64)

	if len(f32) != 3 {
		t.Fatalf("Expected length 3, got %d", len(f32))
	}
	for i, v := range f64 {
		if math.Abs(float64(f32[i])-v) > 1e-7 {
			t.Errorf("Index %d: expected %f, got %f", i, v, f32[i])
		}
	}
}

// TestNewEmbedder_DefaultBatchSize verifies zero selects the default.
func TestNewEmbedder_DefaultBatchSize(t *testing.T) {
	e := NewEmbedder(nil, 0)
	if e.batchSize != DefaultBatchSize {
		t.Errorf("Expected batch size %d, got %d", DefaultBatchSize, e.batchSize)
	}

	e = NewEmbedder(nil, 50)
	if e.batchSize != 50 {
		t.Errorf("Expected batch size 50, got %d", e.batchSize)
	}
}
