package tonal

import (
	"math"

	"github.com/RyanBlaney/sonido-xform/algorithms/common"
)

const (
	// Windows at or below these levels are reported as unvoiced
	voicingEnergyThreshold = 1e-4
	voicingScoreThreshold  = 1e-4

	// A sub-multiple of the best lag must reach this share of the best score to replace it
	octaveCorrectionRatio = 0.9

	pitchMinHz = 60.0
	pitchMaxHz = 400.0

	// Octave correction never moves above this frequency
	octaveCorrectionMaxHz = 1000.0
)

// PitchStats summarizes fundamental frequency over the voiced windows of a buffer
type PitchStats struct {
	MeanHz      float64 `json:"mean_hz" yaml:"mean_hz"`           // Mean F0 over voiced windows
	StdHz       float64 `json:"std_hz" yaml:"std_hz"`             // Population standard deviation over voiced windows
	VoicedRatio float64 `json:"voiced_ratio" yaml:"voiced_ratio"` // Voiced windows / total windows
}

// PitchEstimate is the result for one analysis window
type PitchEstimate struct {
	Frequency float64 `json:"frequency"` // Hz, 0 when unvoiced
	Lag       float64 `json:"lag"`       // Refined period in samples
	Score     float64 `json:"score"`     // Normalized autocorrelation at the chosen lag
	Energy    float64 `json:"energy"`    // Mean-removed mean square
	Voiced    bool    `json:"voiced"`
}

// PitchDetector estimates F0 with a normalized autocorrelation search over 60-400 Hz.
//
// The window is max(sampleRate/50, 1024) samples and is stepped by max(hopSize, 256).
// Each window is mean-removed and scored at every lag in [sampleRate/400, sampleRate/60].
// The best lag is then octave-corrected towards the shortest strong period (down to
// sampleRate/1000) and refined by parabolic interpolation.
type PitchDetector struct {
	sampleRate int
	windowSize int
	stepSize   int
	minLag     int
	maxLag     int
	floorLag   int
}

// NewPitchDetector creates a detector for the given sample rate and analysis hop size
func NewPitchDetector(sampleRate, hopSize int) *PitchDetector {
	windowSize := max(sampleRate/50, 1024)
	minLag := max(int(float64(sampleRate)/pitchMaxHz), 2)
	maxLag := min(int(float64(sampleRate)/pitchMinHz), windowSize-2)
	floorLag := min(max(int(float64(sampleRate)/octaveCorrectionMaxHz), 2), minLag)

	return &PitchDetector{
		sampleRate: sampleRate,
		windowSize: windowSize,
		stepSize:   max(hopSize, 256),
		minLag:     minLag,
		maxLag:     maxLag,
		floorLag:   floorLag,
	}
}

// WindowSize returns the analysis window length in samples
func (pd *PitchDetector) WindowSize() int {
	return pd.windowSize
}

// Compute runs the detector over the whole signal and aggregates voiced windows
func (pd *PitchDetector) Compute(signal []float64) PitchStats {
	if pd.sampleRate <= 0 || len(signal) < pd.windowSize || pd.maxLag <= pd.minLag {
		return PitchStats{}
	}

	var pitches []float64
	total := 0
	for start := 0; start+pd.windowSize <= len(signal); start += pd.stepSize {
		total++
		est := pd.DetectWindow(signal[start : start+pd.windowSize])
		if est.Voiced {
			pitches = append(pitches, est.Frequency)
		}
	}

	if total == 0 || len(pitches) == 0 {
		return PitchStats{}
	}

	mean, std := common.PopMeanStdDev(pitches)
	return PitchStats{
		MeanHz:      mean,
		StdHz:       std,
		VoicedRatio: float64(len(pitches)) / float64(total),
	}
}

// DetectWindow estimates the pitch of a single window. The window is not modified.
func (pd *PitchDetector) DetectWindow(window []float64) PitchEstimate {
	n := len(window)
	maxLag := min(pd.maxLag, n-2)
	if n == 0 || maxLag <= pd.minLag {
		return PitchEstimate{}
	}

	x := make([]float64, n)
	mean := common.Mean(window)
	energy := 0.0
	for i, v := range window {
		x[i] = v - mean
		energy += x[i] * x[i]
	}
	energy /= float64(n)

	if energy <= voicingEnergyThreshold {
		return PitchEstimate{Energy: energy}
	}

	// scores[lag] for lag in [floorLag-1, maxLag+1] so interpolation has neighbours
	lo := pd.floorLag - 1
	hi := maxLag + 1
	scores := make([]float64, hi+1)
	for lag := lo; lag <= hi; lag++ {
		scores[lag] = normalizedAutocorrelation(x, lag)
	}

	bestLag := pd.minLag
	for lag := pd.minLag; lag <= maxLag; lag++ {
		if scores[lag] > scores[bestLag] {
			bestLag = lag
		}
	}
	bestScore := scores[bestLag]

	if bestScore <= voicingScoreThreshold {
		return PitchEstimate{Energy: energy, Score: bestScore}
	}

	lag := pd.correctOctave(scores, bestLag, maxLag)
	refined := common.RefinePeak(scores, lag)
	if refined <= 0 {
		refined = float64(lag)
	}

	return PitchEstimate{
		Frequency: float64(pd.sampleRate) / refined,
		Lag:       refined,
		Score:     scores[lag],
		Energy:    energy,
		Voiced:    true,
	}
}

// correctOctave prefers the shortest sub-multiple bestLag/k that is a local maximum
// scoring at least octaveCorrectionRatio of the best. Whole multiples of the true
// period often score marginally higher on sampled data.
func (pd *PitchDetector) correctOctave(scores []float64, bestLag, maxLag int) int {
	target := octaveCorrectionRatio * scores[bestLag]

	for k := bestLag / pd.floorLag; k >= 2; k-- {
		center := int(math.Round(float64(bestLag) / float64(k)))

		candidate := -1
		for lag := center - 1; lag <= center+1; lag++ {
			if lag < pd.floorLag || lag > maxLag {
				continue
			}
			if scores[lag] < target {
				continue
			}
			if scores[lag] < scores[lag-1] || scores[lag] < scores[lag+1] {
				continue
			}
			if candidate < 0 || scores[lag] > scores[candidate] {
				candidate = lag
			}
		}
		if candidate >= 0 {
			return candidate
		}
	}
	return bestLag
}

// normalizedAutocorrelation returns the correlation coefficient between x[:n-lag] and x[lag:]
func normalizedAutocorrelation(x []float64, lag int) float64 {
	n := len(x)
	if lag <= 0 || lag >= n {
		return 0
	}

	var cross, e0, e1 float64
	for i := 0; i+lag < n; i++ {
		a := x[i]
		b := x[i+lag]
		cross += a * b
		e0 += a * a
		e1 += b * b
	}

	denom := math.Sqrt(e0 * e1)
	if denom == 0 {
		return 0
	}
	return cross / denom
}
