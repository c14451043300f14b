package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Histogram counts data into numBins equal-width bins spanning [lo, hi].
// Values outside the range land in the first or last bin.
func Histogram(data []float64, numBins int, lo, hi float64) []float64 {
	if numBins <= 0 {
		return []float64{}
	}

	counts := make([]float64, numBins)
	width := hi - lo
	if width <= 0 {
		counts[0] = float64(len(data))
		return counts
	}

	for _, x := range data {
		bin := int(math.Floor((x - lo) / width * float64(numBins)))
		bin = max(0, min(numBins-1, bin))
		counts[bin]++
	}
	return counts
}

// NormalizedShannonEntropy normalizes non-negative weights into a probability
// mass function and returns its Shannon entropy divided by ln(len(weights)).
// The result lies in [0, 1]; all-zero or single-bin input yields 0.
func NormalizedShannonEntropy(weights []float64) float64 {
	if len(weights) < 2 {
		return 0.0
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0.0
	}

	pmf := make([]float64, len(weights))
	for i, w := range weights {
		pmf[i] = w / total
	}

	// stat.Entropy skips zero-probability bins
	h := stat.Entropy(pmf) / math.Log(float64(len(weights)))
	return math.Max(0, math.Min(1, h))
}

// HistogramEntropy is the normalized Shannon entropy of a fixed-bin histogram of data
func HistogramEntropy(data []float64, numBins int, lo, hi float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return NormalizedShannonEntropy(Histogram(data, numBins, lo, hi))
}
