package temporal

import (
	"math"
	"testing"
)

func TestAmplitudeCompute(t *testing.T) {
	tests := []struct {
		name      string
		signal    []float64
		wantPeak  float64
		wantRMS   float64
		wantCrest float64
	}{
		{"empty", nil, 0, 0, 0},
		{"silence", make([]float64, 256), 0, 0, 0},
		{"square", []float64{0.5, -0.5, 0.5, -0.5}, 0.5, 0.5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewAmplitude().Compute(tt.signal)
			if got.Peak != tt.wantPeak || got.RMS != tt.wantRMS || got.CrestFactor != tt.wantCrest {
				t.Errorf("Compute = %+v, want peak=%v rms=%v crest=%v", got, tt.wantPeak, tt.wantRMS, tt.wantCrest)
			}
		})
	}
}

func TestAmplitudeOfSine(t *testing.T) {
	signal := make([]float64, 44100)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 44100)
	}

	got := NewAmplitude().Compute(signal)
	if math.Abs(got.RMS-math.Sqrt2/2) > 0.007 {
		t.Errorf("RMS = %v, want ~0.707", got.RMS)
	}
	if math.Abs(got.Peak-1) > 1e-3 {
		t.Errorf("peak = %v, want ~1", got.Peak)
	}

	entropy := NewAmplitude().Entropy(signal)
	if entropy <= 0.5 || entropy > 1 {
		t.Errorf("entropy of sine = %v, want in (0.5, 1]", entropy)
	}
}

func TestAmplitudeEntropySilence(t *testing.T) {
	if got := NewAmplitude().Entropy(make([]float64, 100)); got != 0 {
		t.Errorf("entropy = %v, want 0", got)
	}
}

func TestCountOnsets(t *testing.T) {
	od := NewOnsetDetection()

	flux := make([]float64, 100)
	for i := 10; i < 100; i += 20 {
		flux[i] = 1
	}
	if got := od.CountOnsets(flux, 0); got != 5 {
		t.Errorf("CountOnsets = %d, want 5", got)
	}
	if got := od.OnsetRate(flux, 0, 2); got != 2.5 {
		t.Errorf("OnsetRate = %v, want 2.5", got)
	}

	// a constant flux never exceeds 1.5x its own mean
	steady := []float64{0.3, 0.3, 0.3, 0.3}
	if got := od.CountOnsets(steady, 0); got != 0 {
		t.Errorf("steady CountOnsets = %d, want 0", got)
	}

	// everything below the noise floor is ignored
	if got := od.CountOnsets(flux, 2); got != 0 {
		t.Errorf("gated CountOnsets = %d, want 0", got)
	}
}

func TestPickPeaks(t *testing.T) {
	od := NewOnsetDetection()
	flux := []float64{0, 0.5, 0.1, 0.9, 0.3, 0.1, 0.15, 0.05, 1, 0.4}

	got := od.PickPeaks(flux, 0.2)
	want := []int{1, 3, 8}
	if len(got) != len(want) {
		t.Fatalf("PickPeaks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PickPeaks = %v, want %v", got, want)
		}
	}
}

func TestFrameCenterTime(t *testing.T) {
	if got := FrameCenterTime(2, 256, 2048, 1024); got != 1.5 {
		t.Errorf("FrameCenterTime = %v, want 1.5", got)
	}
}

func TestTempoEstimate(t *testing.T) {
	const sampleRate, hop = 44100, 512
	te := NewTempoEstimation()

	flux := make([]float64, 600)
	for i := 0; i < len(flux); i += 43 {
		flux[i] = 1
	}

	got := te.Estimate(flux, sampleRate, hop, 0)
	want := 60 / (43 * float64(hop) / sampleRate)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("Estimate = %v, want %v", got, want)
	}
}

func TestTempoDegenerate(t *testing.T) {
	te := NewTempoEstimation()

	if got := te.Estimate([]float64{1, 0, 1}, 44100, 512, 0); got != 0 {
		t.Errorf("too few frames: %v", got)
	}
	if got := te.Estimate(make([]float64, 200), 44100, 512, 0); got != 0 {
		t.Errorf("silent flux: %v", got)
	}
}
