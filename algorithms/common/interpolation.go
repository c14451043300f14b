package common

import "math"

// ParabolicOffset returns the sub-sample offset of the extremum of the parabola
// through (-1, a), (0, b), (1, c). The result is 0 when the points are collinear.
func ParabolicOffset(a, b, c float64) float64 {
	denom := a - 2*b + c
	if math.Abs(denom) < 1e-12 {
		return 0
	}
	return 0.5 * (a - c) / denom
}

// RefinePeak applies parabolic interpolation around data[i] and returns the refined
// position. Edge indices are returned unchanged.
func RefinePeak(data []float64, i int) float64 {
	if i <= 0 || i >= len(data)-1 {
		return float64(i)
	}
	offset := ParabolicOffset(data[i-1], data[i], data[i+1])
	if math.Abs(offset) > 1 {
		return float64(i)
	}
	return float64(i) + offset
}
