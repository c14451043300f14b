package spectral

import (
	"math"
)

// SpectralFlatness computes the Wiener entropy of a magnitude spectrum.
// Tonal content sits near 0, white noise near 1.
type SpectralFlatness struct {
	epsilon float64 // added before the log so silent bins stay finite
}

// NewSpectralFlatness creates a new spectral flatness calculator
func NewSpectralFlatness() *SpectralFlatness {
	return &SpectralFlatness{
		epsilon: 1e-12,
	}
}

// Compute returns geometric mean / arithmetic mean, clamped to [0, 1]
func (sf *SpectralFlatness) Compute(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	logSum := 0.0
	sum := 0.0
	for _, mag := range spectrum {
		logSum += math.Log(mag + sf.epsilon)
		sum += mag
	}

	n := float64(len(spectrum))
	arithmeticMean := sum / n
	if arithmeticMean == 0 {
		return 0.0
	}

	flatness := math.Exp(logSum/n) / arithmeticMean
	return math.Max(0, math.Min(1, flatness))
}
