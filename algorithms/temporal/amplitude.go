package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-xform/algorithms/stats"
)

// AmplitudeHistogramBins is the number of bins used for amplitude entropy over [-1, 1]
const AmplitudeHistogramBins = 64

// AmplitudeStats holds whole-buffer level statistics
type AmplitudeStats struct {
	Peak        float64 `json:"peak"`         // max |x|
	RMS         float64 `json:"rms"`          // sqrt(mean(x^2))
	CrestFactor float64 `json:"crest_factor"` // peak / RMS, 0 for silence
}

// Amplitude computes level statistics over a whole buffer
type Amplitude struct{}

// NewAmplitude creates a new amplitude analyzer
func NewAmplitude() *Amplitude {
	return &Amplitude{}
}

// Compute returns peak, RMS and crest factor. Accumulation is done in float64.
func (a *Amplitude) Compute(signal []float64) AmplitudeStats {
	if len(signal) == 0 {
		return AmplitudeStats{}
	}

	peak := 0.0
	sumSquares := 0.0
	for _, x := range signal {
		peak = math.Max(peak, math.Abs(x))
		sumSquares += x * x
	}

	result := AmplitudeStats{
		Peak: peak,
		RMS:  math.Sqrt(sumSquares / float64(len(signal))),
	}
	if result.RMS > 0 {
		result.CrestFactor = result.Peak / result.RMS
	}
	return result
}

// Entropy returns the normalized Shannon entropy of a 64-bin histogram of the
// samples mapped linearly from [-1, 1]. Silence puts everything into one bin and yields 0.
func (a *Amplitude) Entropy(signal []float64) float64 {
	return stats.HistogramEntropy(signal, AmplitudeHistogramBins, -1, 1)
}
