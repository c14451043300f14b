package spectral

import (
	"github.com/RyanBlaney/sonido-xform/algorithms/stats"
)

// SpectralEntropy computes the normalized Shannon entropy of a magnitude spectrum
type SpectralEntropy struct{}

// NewSpectralEntropy creates a new spectral entropy calculator
func NewSpectralEntropy() *SpectralEntropy {
	return &SpectralEntropy{}
}

// Compute treats the spectrum as a probability mass function and divides its
// entropy by ln(bins), giving a value in [0, 1]. A silent spectrum yields 0.
func (se *SpectralEntropy) Compute(spectrum []float64) float64 {
	return stats.NormalizedShannonEntropy(spectrum)
}
