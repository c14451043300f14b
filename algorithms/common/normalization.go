package common

// LimitPeak scales signal in place so that max |x| does not exceed ceiling and returns
// the factor applied. Signals already within the ceiling are left untouched (factor 1).
func LimitPeak(signal []float64, ceiling float64) float64 {
	peak := PeakAbs(signal)
	if peak <= ceiling || peak < 1e-10 {
		return 1
	}

	scale := ceiling / peak
	for i := range signal {
		signal[i] *= scale
	}
	return scale
}

// PeakNormalize returns a copy of signal scaled to a peak of 1. Silence is returned unchanged.
func PeakNormalize(signal []float64) []float64 {
	out := make([]float64, len(signal))
	copy(out, signal)

	peak := PeakAbs(signal)
	if peak < 1e-10 {
		return out
	}
	for i := range out {
		out[i] /= peak
	}
	return out
}
