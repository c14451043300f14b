package temporal

// OnsetDetection turns a spectral flux sequence into onsets
type OnsetDetection struct {
	thresholdFactor float64
	refractory      int
}

// NewOnsetDetection creates an onset detector with an adaptive threshold of
// 1.5 x mean flux and a 2-frame refractory period for peak picking
func NewOnsetDetection() *OnsetDetection {
	return &OnsetDetection{
		thresholdFactor: 1.5,
		refractory:      2,
	}
}

// AdaptiveThreshold returns thresholdFactor x mean(flux)
func (od *OnsetDetection) AdaptiveThreshold(flux []float64) float64 {
	if len(flux) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range flux {
		sum += v
	}
	return od.thresholdFactor * sum / float64(len(flux))
}

// CountOnsets counts frames whose flux exceeds both the adaptive threshold and noiseFloor
func (od *OnsetDetection) CountOnsets(flux []float64, noiseFloor float64) int {
	threshold := od.AdaptiveThreshold(flux)

	count := 0
	for _, v := range flux {
		if v > threshold && v > noiseFloor {
			count++
		}
	}
	return count
}

// OnsetRate returns onsets per second over a signal of the given duration
func (od *OnsetDetection) OnsetRate(flux []float64, noiseFloor, durationSec float64) float64 {
	if durationSec <= 0 {
		return 0
	}
	return float64(od.CountOnsets(flux, noiseFloor)) / durationSec
}

// PickPeaks returns the frames where normalizedFlux is a strict local maximum above
// threshold. After each hit the next frame is skipped.
func (od *OnsetDetection) PickPeaks(normalizedFlux []float64, threshold float64) []int {
	var peaks []int

	i := 1
	for i+1 < len(normalizedFlux) {
		v := normalizedFlux[i]
		if v > threshold && v > normalizedFlux[i-1] && v > normalizedFlux[i+1] {
			peaks = append(peaks, i)
			i += od.refractory
			continue
		}
		i++
	}
	return peaks
}

// FrameCenterTime returns the time in seconds of the center of a frame
func FrameCenterTime(frame, hopSize, windowSize, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(frame*hopSize+windowSize/2) / float64(sampleRate)
}
