package synth

import "math"

// envelope returns the gain for sample j of an n-sample note: a linear attack over
// the first 2% of the span times a (1 - j/n)^1.5 decay over the whole span.
// It is 0 at j = n, so notes end without a click.
func envelope(j, n int) float64 {
	if n <= 0 || j < 0 || j >= n {
		return 0
	}

	attack := math.Max(1, 0.02*float64(n))
	a := math.Min(1, float64(j)/attack)
	d := math.Pow(1-float64(j)/float64(n), 1.5)
	return a * d
}
