package spectral

import "github.com/RyanBlaney/sonido-xform/algorithms/common"

// SpectralFlux measures frame-to-frame increases in magnitude
type SpectralFlux struct{}

// NewSpectralFlux creates a new spectral flux calculator
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{}
}

// Compute returns the rectified flux between two magnitude spectra:
// the sum over bins of max(0, current - previous)
func (sf *SpectralFlux) Compute(previous, current []float64) float64 {
	n := min(len(previous), len(current))

	sum := 0.0
	for i := range n {
		if diff := current[i] - previous[i]; diff > 0 {
			sum += diff
		}
	}
	return sum
}

// ComputeFrames returns one flux value per frame. The first frame has no
// predecessor and gets 0, so the result is aligned with the spectrogram.
func (sf *SpectralFlux) ComputeFrames(spectrogram [][]float64) []float64 {
	flux := make([]float64, len(spectrogram))
	for t := 1; t < len(spectrogram); t++ {
		flux[t] = sf.Compute(spectrogram[t-1], spectrogram[t])
	}
	return flux
}

// Normalize scales flux so its maximum is 1. All-zero input is returned unchanged.
func Normalize(flux []float64) []float64 {
	// flux is non-negative, so the peak magnitude is the maximum
	return common.PeakNormalize(flux)
}

// ComputeFramesFromSilence is like ComputeFrames but compares the first frame
// against an all-zero spectrum, so a sound starting at frame 0 registers as a change
func (sf *SpectralFlux) ComputeFramesFromSilence(spectrogram [][]float64) []float64 {
	flux := make([]float64, len(spectrogram))
	if len(spectrogram) == 0 {
		return flux
	}
	flux[0] = sf.Compute(make([]float64, len(spectrogram[0])), spectrogram[0])
	for t := 1; t < len(spectrogram); t++ {
		flux[t] = sf.Compute(spectrogram[t-1], spectrogram[t])
	}
	return flux
}
