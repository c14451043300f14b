package temporal

// TempoEstimation estimates a beat rate from the periodicity of spectral flux
type TempoEstimation struct {
	minBPM    float64
	maxBPM    float64
	minFrames int
}

// NewTempoEstimation creates a tempo estimator searching 50-200 BPM
func NewTempoEstimation() *TempoEstimation {
	return &TempoEstimation{
		minBPM:    50,
		maxBPM:    200,
		minFrames: 4,
	}
}

// Estimate autocorrelates the flux sequence and returns the BPM of the lag with the
// highest positive autocorrelation among lags whose BPM falls in the search range.
// Flux at or below noiseFloor is treated as 0. Returns 0 when nothing qualifies.
func (te *TempoEstimation) Estimate(flux []float64, sampleRate, hopSize int, noiseFloor float64) float64 {
	numFrames := len(flux)
	if numFrames < te.minFrames || sampleRate <= 0 || hopSize <= 0 {
		return 0
	}

	gated := make([]float64, numFrames)
	for i, v := range flux {
		if v > noiseFloor {
			gated[i] = v
		}
	}

	autocorr := te.autocorrelation(gated)
	framesPerSecond := float64(sampleRate) / float64(hopSize)

	bestBPM := 0.0
	bestValue := 0.0
	for lag := 1; lag < numFrames; lag++ {
		period := float64(lag) / framesPerSecond
		bpm := 60 / period
		if bpm < te.minBPM || bpm > te.maxBPM {
			continue
		}
		if autocorr[lag] > bestValue {
			bestValue = autocorr[lag]
			bestBPM = bpm
		}
	}
	return bestBPM
}

// autocorrelation returns the raw (unnormalized) autocorrelation for lags 0..len-1
func (te *TempoEstimation) autocorrelation(signal []float64) []float64 {
	n := len(signal)
	autocorr := make([]float64, n)
	for lag := range n {
		sum := 0.0
		for i := 0; i+lag < n; i++ {
			sum += signal[i] * signal[i+lag]
		}
		autocorr[lag] = sum
	}
	return autocorr
}
