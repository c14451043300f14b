package spectral

// SpectralRolloff finds the frequency below which a given share of the total magnitude lies
type SpectralRolloff struct {
	sampleRate int
	fftSize    int
}

// NewSpectralRolloff creates a rolloff calculator for spectra produced by an FFT of fftSize
func NewSpectralRolloff(sampleRate, fftSize int) *SpectralRolloff {
	return &SpectralRolloff{
		sampleRate: sampleRate,
		fftSize:    fftSize,
	}
}

// ComputeBin returns the first bin whose cumulative magnitude reaches percent of the total.
// A silent spectrum rolls off at bin 0.
func (sr *SpectralRolloff) ComputeBin(spectrum []float64, percent float64) int {
	total := 0.0
	for _, mag := range spectrum {
		total += mag
	}
	if total == 0 {
		return 0
	}

	target := percent * total
	cumulative := 0.0
	for i, mag := range spectrum {
		cumulative += mag
		if cumulative >= target {
			return i
		}
	}
	return len(spectrum) - 1
}

// Compute returns the rolloff frequency in Hz (typical percent: 0.85 or 0.95)
func (sr *SpectralRolloff) Compute(spectrum []float64, percent float64) float64 {
	return BinToHz(float64(sr.ComputeBin(spectrum, percent)), sr.sampleRate, sr.fftSize)
}
