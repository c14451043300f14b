package windowing

import (
	"math"
	"testing"
)

func TestHannShape(t *testing.T) {
	tests := []struct {
		size int
		want []float64
	}{
		{0, []float64{}},
		{1, []float64{1}},
		{4, []float64{0, 0.5, 1, 0.5}},
		{8, []float64{0, 0.5 * (1 - math.Cos(math.Pi/4)), 0.5, 0.5 * (1 - math.Cos(3*math.Pi/4)), 1,
			0.5 * (1 - math.Cos(5*math.Pi/4)), 0.5, 0.5 * (1 - math.Cos(7*math.Pi/4))}},
	}

	for _, tt := range tests {
		h := NewHann(tt.size)
		if h.Size() != tt.size {
			t.Errorf("Size = %d, want %d", h.Size(), tt.size)
		}
		c := h.Coefficients()
		if len(c) != len(tt.want) {
			t.Fatalf("size %d: len = %d, want %d", tt.size, len(c), len(tt.want))
		}
		for i := range c {
			if math.Abs(c[i]-tt.want[i]) > 1e-12 {
				t.Errorf("size %d: c[%d] = %v, want %v", tt.size, i, c[i], tt.want[i])
			}
		}
	}
}

func TestHannApplyInPlace(t *testing.T) {
	h := NewHann(4)
	signal := []float64{1, 1, 1, 1}
	if err := h.ApplyInPlace(signal); err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 0.5, 1, 0.5}
	for i := range want {
		if math.Abs(signal[i]-want[i]) > 1e-12 {
			t.Errorf("signal[%d] = %v, want %v", i, signal[i], want[i])
		}
	}

	if err := h.ApplyInPlace(make([]float64, 3)); err == nil {
		t.Error("expected length mismatch error")
	}
}
