package synth

import (
	"fmt"
	"math"
	"strings"
)

// Oscillator is a closed set of waveform shapes
type Oscillator int

const (
	Sine Oscillator = iota
	Square
	Saw
)

func (o Oscillator) String() string {
	switch o {
	case Square:
		return "square"
	case Saw:
		return "saw"
	default:
		return "sine"
	}
}

// ParseOscillator accepts sine, square and saw (or sawtooth)
func ParseOscillator(s string) (Oscillator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sine", "sin":
		return Sine, nil
	case "square", "sqr":
		return Square, nil
	case "saw", "sawtooth":
		return Saw, nil
	default:
		return Sine, fmt.Errorf("unknown oscillator %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (o Oscillator) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Oscillator) UnmarshalText(text []byte) error {
	osc, err := ParseOscillator(string(text))
	if err != nil {
		return err
	}
	*o = osc
	return nil
}

// Sample evaluates the waveform at a phase measured in cycles
func (o Oscillator) Sample(phase float64) float64 {
	switch o {
	case Square:
		if math.Sin(2*math.Pi*phase) >= 0 {
			return 1
		}
		return -1
	case Saw:
		return 2*(phase-math.Floor(phase)) - 1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}
