package synth

import "math"

// Notes are grouped into sections of this many seconds for layer rotation
const rotationSectionSec = 8.0

// Every this many notes (in start order) the rotation advances by one more step
const rotationNoteBucket = 16

// layer is one oscillator voice of a note
type layer struct {
	osc    Oscillator
	detune float64 // cents
	gain   float64
}

func baseGain(osc Oscillator) float64 {
	switch osc {
	case Saw:
		return 0.55
	case Square:
		return 0.45
	default:
		return 0.9
	}
}

// layerRecipe returns the fixed recipe for an oscillator at a layer position.
// Position 0 plays at full gain with no detune; position k >= 1 is attenuated to
// base*0.5/k and detuned by 4+3k cents, alternating sharp and flat.
func layerRecipe(osc Oscillator, position int) layer {
	if position <= 0 {
		return layer{osc: osc, gain: baseGain(osc)}
	}

	cents := float64(4 + 3*position)
	if position%2 == 0 {
		cents = -cents
	}
	return layer{
		osc:    osc,
		detune: cents,
		gain:   baseGain(osc) * 0.5 / float64(position),
	}
}

// layersFor returns the layer stack of the sortedIndex-th note starting at start seconds.
// The configured order is rotated by one step per 8-second section and per 16 notes.
func layersFor(layering []Oscillator, start float64, sortedIndex int) []layer {
	n := len(layering)
	rot := (int(math.Floor(math.Max(start, 0)/rotationSectionSec)) + sortedIndex/rotationNoteBucket) % n

	layers := make([]layer, n)
	for pos := range n {
		layers[pos] = layerRecipe(layering[(pos+rot)%n], pos)
	}
	return layers
}

// detuneRatio converts cents to a frequency ratio
func detuneRatio(cents float64) float64 {
	return math.Pow(2, cents/1200)
}
