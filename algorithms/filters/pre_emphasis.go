package filters

// PreEmphasis implements the first-order high-pass
//
//	y[n] = x[n] - α*x[n-1]
//
// α close to 1 tilts white noise towards high frequencies; α = 1 is the
// plain first difference.
type PreEmphasis struct {
	coefficient float64 // α
	lastSample  float64 // x[n-1]
}

// NewPreEmphasis creates a pre-emphasis filter with coefficient α
func NewPreEmphasis(coefficient float64) *PreEmphasis {
	return &PreEmphasis{coefficient: coefficient}
}

// NewPreEmphasisDefault creates a filter with the common speech coefficient 0.97
func NewPreEmphasisDefault() *PreEmphasis {
	return NewPreEmphasis(0.97)
}

// Prime sets the previous input sample so the first output has no start-up step
func (pe *PreEmphasis) Prime(previous float64) {
	pe.lastSample = previous
}

// Process filters a single sample
func (pe *PreEmphasis) Process(input float64) float64 {
	output := input - pe.coefficient*pe.lastSample
	pe.lastSample = input
	return output
}

// ProcessBuffer filters a buffer, continuing from the current state
func (pe *PreEmphasis) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = pe.Process(sample)
	}
	return output
}

// Reset clears the filter state
func (pe *PreEmphasis) Reset() {
	pe.lastSample = 0
}

// Coefficient returns α
func (pe *PreEmphasis) Coefficient() float64 {
	return pe.coefficient
}
