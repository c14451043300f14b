package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the mjibson/go-dsp forward transform
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Magnitude returns the one-sided magnitude spectrum (len(x)/2 + 1 bins).
// go-dsp handles non-power-of-two sizes with Bluestein's algorithm.
func (f *FFT) Magnitude(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	spectrum := fft.FFTReal(x)
	bins := len(x)/2 + 1
	mags := make([]float64, bins)
	for i := range bins {
		mags[i] = cmplx.Abs(spectrum[i])
	}
	return mags
}

// BinToHz converts a (possibly fractional) bin index to Hz for a transform of size n
func BinToHz(bin float64, sampleRate, n int) float64 {
	if n <= 0 {
		return 0
	}
	return bin * float64(sampleRate) / float64(n)
}
