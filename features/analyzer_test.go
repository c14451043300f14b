package features

import (
	"errors"
	"math"
	"testing"
)

func sine32(freq, amp float64, sampleRate, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestAnalyzeEmptySignal(t *testing.T) {
	tests := []struct {
		name       string
		samples    []float32
		sampleRate int
	}{
		{"no samples", nil, 44100},
		{"zero rate", make([]float32, 100), 0},
		{"negative rate", make([]float32, 100), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(tt.samples, tt.sampleRate, 2048, 512)
			if !errors.Is(err, ErrEmptySignal) {
				t.Errorf("err = %v, want ErrEmptySignal", err)
			}
		})
	}
}

func TestAnalyzeSilence(t *testing.T) {
	for _, n := range []int{100, 2048, 44100} {
		report, err := Analyze(make([]float32, n), 44100, 2048, 512)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}

		got := []float64{
			report.RMS, report.Peak, report.CrestFactor, report.ZeroCrossingRate,
			report.OnsetRate, report.TempoBPM,
			report.SpectralCentroidHz, report.SpectralBandwidthHz,
			report.SpectralRolloff85Hz, report.SpectralRolloff95Hz,
			report.SpectralFlatness, report.SpectralEntropy,
			report.AmplitudeEntropy,
			report.F0.MeanHz, report.F0.StdHz, report.F0.VoicedRatio,
		}
		for i, v := range got {
			if v != 0 {
				t.Errorf("n=%d: field %d = %v, want exactly 0", n, i, v)
			}
		}
	}
}

func TestAnalyzeShortBufferSkipsFraming(t *testing.T) {
	report, err := Analyze(sine32(440, 1, 44100, 1000), 44100, 2048, 512)
	if err != nil {
		t.Fatal(err)
	}
	if report.Frames != 0 {
		t.Errorf("frames = %d, want 0", report.Frames)
	}
	if report.RMS == 0 || report.ZeroCrossingRate == 0 {
		t.Errorf("amplitude fields should still be computed: %+v", report)
	}
	if report.SpectralCentroidHz != 0 || report.F0.MeanHz != 0 || report.AmplitudeEntropy != 0 {
		t.Errorf("spectral and pitch fields should be 0: %+v", report)
	}
}

func TestAnalyzeSine440(t *testing.T) {
	samples := sine32(440, 1, 44100, 2*44100)
	orig := append([]float32(nil), samples...)

	report, err := Analyze(samples, 44100, 2048, 512)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(report.RMS-math.Sqrt2/2) > 0.00707 {
		t.Errorf("rms = %v, want ~0.707", report.RMS)
	}
	if math.Abs(report.Peak-1) > 1e-3 {
		t.Errorf("peak = %v, want ~1", report.Peak)
	}
	if report.SpectralCentroidHz < 430 || report.SpectralCentroidHz > 450 {
		t.Errorf("centroid = %v, want [430, 450]", report.SpectralCentroidHz)
	}
	if report.F0.MeanHz < 431 || report.F0.MeanHz > 449 {
		t.Errorf("f0 mean = %v, want [431, 449]", report.F0.MeanHz)
	}
	if report.F0.VoicedRatio != 1 {
		t.Errorf("voiced ratio = %v, want 1", report.F0.VoicedRatio)
	}
	if report.OnsetRate > 0.5 {
		t.Errorf("onset rate = %v, want ~0 for a steady tone", report.OnsetRate)
	}
	if report.TempoBPM != 0 {
		t.Errorf("tempo = %v, want 0 for a steady tone", report.TempoBPM)
	}
	if report.SpectralFlatness < 0 || report.SpectralFlatness > 0.2 {
		t.Errorf("flatness = %v, want small for a pure tone", report.SpectralFlatness)
	}
	if report.Frames != 1+(2*44100-2048)/512 {
		t.Errorf("frames = %d", report.Frames)
	}

	// ~880 crossings per second for a 440 Hz tone
	if math.Abs(report.ZeroCrossingRate-880) > 5 {
		t.Errorf("zcr = %v, want ~880", report.ZeroCrossingRate)
	}

	for i := range samples {
		if samples[i] != orig[i] {
			t.Fatalf("input modified at %d", i)
		}
	}
}

func TestAnalyzeClickTrainHasTempo(t *testing.T) {
	const sr = 44100
	samples := make([]float32, 8*sr)

	// short noise-like bursts every 0.5 s (120 BPM)
	for beat := 0; beat < 16; beat++ {
		start := beat * sr / 2
		for i := 0; i < 400 && start+i < len(samples); i++ {
			sign := float32(1)
			if (i*7919)%13 < 6 {
				sign = -1
			}
			samples[start+i] = sign * float32(1-float64(i)/400)
		}
	}

	report, err := Analyze(samples, sr, 2048, 512)
	if err != nil {
		t.Fatal(err)
	}
	if report.OnsetRate < 1 {
		t.Errorf("onset rate = %v, want transients detected", report.OnsetRate)
	}
	if math.Abs(report.TempoBPM-120) > 6 {
		t.Errorf("tempo = %v, want ~120", report.TempoBPM)
	}
}

func TestNewAnalyzerDefaults(t *testing.T) {
	cfg := NewAnalyzer(AnalysisConfig{}).Config()
	if cfg != DefaultAnalysisConfig() {
		t.Errorf("Config = %+v, want defaults", cfg)
	}
}

func TestAnalyzeWorkersMatchSingleThreaded(t *testing.T) {
	samples := sine32(330, 0.5, 22050, 22050)

	want, err := NewAnalyzer(AnalysisConfig{FrameSize: 1024, HopSize: 256, Workers: 1}).Analyze(samples, 22050)
	if err != nil {
		t.Fatal(err)
	}
	got, err := NewAnalyzer(AnalysisConfig{FrameSize: 1024, HopSize: 256, Workers: 4}).Analyze(samples, 22050)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("4 workers = %+v, want %+v", got, want)
	}
}
