package spectral

// ZeroCrossingRate counts sign changes in the time domain
type ZeroCrossingRate struct {
	sampleRate int
}

// NewZeroCrossingRate creates a new zero crossing rate calculator
func NewZeroCrossingRate(sampleRate int) *ZeroCrossingRate {
	return &ZeroCrossingRate{
		sampleRate: sampleRate,
	}
}

// Count returns the number of adjacent sample pairs where one is >= 0 and the other < 0
func (zcr *ZeroCrossingRate) Count(signal []float64) int {
	crossings := 0
	for i := 1; i < len(signal); i++ {
		if (signal[i-1] >= 0) != (signal[i] >= 0) {
			crossings++
		}
	}
	return crossings
}

// Compute returns crossings per second, normalized as count * sampleRate / (N - 1)
func (zcr *ZeroCrossingRate) Compute(signal []float64) float64 {
	if len(signal) < 2 {
		return 0.0
	}
	return float64(zcr.Count(signal)) * float64(zcr.sampleRate) / float64(len(signal)-1)
}
