package spectral

// SpectralCentroid computes the magnitude-weighted mean frequency of a spectrum
type SpectralCentroid struct {
	sampleRate int
	fftSize    int
}

// NewSpectralCentroid creates a centroid calculator for spectra produced by an FFT of fftSize
func NewSpectralCentroid(sampleRate, fftSize int) *SpectralCentroid {
	return &SpectralCentroid{
		sampleRate: sampleRate,
		fftSize:    fftSize,
	}
}

// ComputeBin returns the centroid as a fractional bin index, 0 for a silent spectrum
func (sc *SpectralCentroid) ComputeBin(spectrum []float64) float64 {
	numerator := 0.0
	denominator := 0.0

	for i, mag := range spectrum {
		numerator += float64(i) * mag
		denominator += mag
	}

	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// Compute returns the centroid in Hz
func (sc *SpectralCentroid) Compute(spectrum []float64) float64 {
	return BinToHz(sc.ComputeBin(spectrum), sc.sampleRate, sc.fftSize)
}
