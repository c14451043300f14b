package tonal

import (
	"math"

	"github.com/RyanBlaney/sonido-xform/algorithms/common"
	"github.com/RyanBlaney/sonido-xform/algorithms/windowing"
)

// YINParams configures the monophonic YIN tracker
type YINParams struct {
	WindowSize int     `json:"window_size" yaml:"window_size"` // Frame length in samples
	HopSize    int     `json:"hop_size" yaml:"hop_size"`       // Step between frames
	MinFreq    float64 `json:"min_freq" yaml:"min_freq"`       // Lowest detectable F0 (Hz)
	MaxFreq    float64 `json:"max_freq" yaml:"max_freq"`       // Highest detectable F0 (Hz)
	Threshold  float64 `json:"threshold" yaml:"threshold"`     // CMND threshold, typically 0.1-0.2
}

// DefaultYINParams returns the melody-tracking defaults
func DefaultYINParams() YINParams {
	return YINParams{
		WindowSize: 2048,
		HopSize:    256,
		MinFreq:    80,
		MaxFreq:    1000,
		Threshold:  0.1,
	}
}

// PitchTrack holds per-frame YIN output. All three slices have one entry per frame.
type PitchTrack struct {
	Times      []float64 `json:"times"`      // Frame center (seconds)
	F0Hz       []float64 `json:"f0_hz"`      // 0 for unvoiced frames
	Confidence []float64 `json:"confidence"` // 1 - CMND at the chosen lag, 0 for unvoiced
}

// YIN tracks monophonic pitch with the cumulative mean normalized difference function.
// Reference: de Cheveigné, A., Kawahara, H. (2002)
type YIN struct {
	params YINParams
	window *windowing.Hann
}

// NewYIN creates a tracker; non-positive sizes fall back to DefaultYINParams
func NewYIN(params YINParams) *YIN {
	def := DefaultYINParams()
	if params.WindowSize <= 0 {
		params.WindowSize = def.WindowSize
	}
	if params.HopSize <= 0 {
		params.HopSize = def.HopSize
	}
	if params.MinFreq <= 0 {
		params.MinFreq = def.MinFreq
	}
	if params.MaxFreq <= params.MinFreq {
		params.MaxFreq = def.MaxFreq
	}
	if params.Threshold <= 0 {
		params.Threshold = def.Threshold
	}

	return &YIN{
		params: params,
		window: windowing.NewHann(params.WindowSize),
	}
}

// Params returns the effective parameters
func (y *YIN) Params() YINParams {
	return y.params
}

// Track windows every frame with a Hann window and estimates its F0
func (y *YIN) Track(signal []float64, sampleRate int) PitchTrack {
	win := y.params.WindowSize
	hop := y.params.HopSize

	track := PitchTrack{
		Times:      []float64{},
		F0Hz:       []float64{},
		Confidence: []float64{},
	}
	if sampleRate <= 0 {
		return track
	}

	frame := make([]float64, win)
	for start := 0; start+win <= len(signal); start += hop {
		copy(frame, signal[start:start+win])
		_ = y.window.ApplyInPlace(frame) // frame is always WindowSize long

		f0, conf, ok := y.DetectFrame(frame, sampleRate)
		if !ok {
			f0, conf = 0, 0
		}

		track.Times = append(track.Times, float64(start+win/2)/float64(sampleRate))
		track.F0Hz = append(track.F0Hz, f0)
		track.Confidence = append(track.Confidence, conf)
	}
	return track
}

// DetectFrame returns the F0 and confidence of a single (already windowed) frame.
// ok is false when no lag in range falls below the threshold or the frame is
// too short for the lowest frequency.
func (y *YIN) DetectFrame(frame []float64, sampleRate int) (f0, confidence float64, ok bool) {
	tauMin := int(float64(sampleRate) / y.params.MaxFreq)
	tauMax := int(float64(sampleRate) / y.params.MinFreq)
	if tauMax+1 >= len(frame) {
		return 0, 0, false
	}
	tauMin = max(tauMin, 1)

	cmnd := cumulativeMeanNormalized(difference(frame, tauMax))

	for tau := tauMin; tau <= tauMax; tau++ {
		if cmnd[tau] >= y.params.Threshold {
			continue
		}

		t0 := max(tau-1, 1)
		t2 := min(tau+1, tauMax)
		refined := float64(tau) + common.ParabolicOffset(cmnd[t0], cmnd[tau], cmnd[t2])

		confidence = common.Clamp(1-cmnd[tau], 0, 1)
		return float64(sampleRate) / math.Max(refined, 1), confidence, true
	}
	return 0, 0, false
}

// difference computes d(tau) = sum_i (x[i] - x[i+tau])^2 for tau in 1..tauMax
func difference(frame []float64, tauMax int) []float64 {
	n := len(frame)
	d := make([]float64, tauMax+1)
	for tau := 1; tau <= tauMax; tau++ {
		sum := 0.0
		for i := 0; i < n-tau; i++ {
			delta := frame[i] - frame[i+tau]
			sum += delta * delta
		}
		d[tau] = sum
	}
	return d
}

// cumulativeMeanNormalized turns d into d'(tau) = d(tau) * tau / sum_{j<=tau} d(j), with d'(0) = 1
func cumulativeMeanNormalized(d []float64) []float64 {
	cmnd := make([]float64, len(d))
	cmnd[0] = 1

	runningSum := 0.0
	for tau := 1; tau < len(d); tau++ {
		runningSum += d[tau]
		if runningSum > 0 {
			cmnd[tau] = d[tau] * float64(tau) / runningSum
		} else {
			cmnd[tau] = 1
		}
	}
	return cmnd
}
