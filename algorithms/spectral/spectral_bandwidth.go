package spectral

import (
	"math"
)

// SpectralBandwidth computes the magnitude-weighted spread around the centroid
type SpectralBandwidth struct {
	sampleRate int
	fftSize    int
}

// NewSpectralBandwidth creates a bandwidth calculator for spectra produced by an FFT of fftSize
func NewSpectralBandwidth(sampleRate, fftSize int) *SpectralBandwidth {
	return &SpectralBandwidth{
		sampleRate: sampleRate,
		fftSize:    fftSize,
	}
}

// Compute returns the bandwidth in Hz given the centroid expressed as a bin index.
// The second central moment is taken in bins and converted to Hz afterwards.
func (sb *SpectralBandwidth) Compute(spectrum []float64, centroidBin float64) float64 {
	numerator := 0.0
	denominator := 0.0

	for i, mag := range spectrum {
		diff := float64(i) - centroidBin
		numerator += diff * diff * mag
		denominator += mag
	}

	if denominator == 0 {
		return 0
	}
	return BinToHz(math.Sqrt(numerator/denominator), sb.sampleRate, sb.fftSize)
}
