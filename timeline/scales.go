package timeline

import (
	"fmt"
	"math"
	"strings"
)

// MidiToHz converts a (possibly fractional) MIDI pitch to Hz, A4 = 69 = 440 Hz
func MidiToHz(m float64) float64 {
	return 440 * math.Pow(2, (m-69)/12)
}

// HzToMidi converts Hz to a fractional MIDI pitch. Non-positive input returns 0.
func HzToMidi(hz float64) float64 {
	if hz <= 0 {
		return 0
	}
	return 69 + 12*math.Log2(hz/440)
}

// ScaleKind selects a diatonic scale
type ScaleKind int

const (
	Major ScaleKind = iota
	Minor           // natural minor
)

func (s ScaleKind) String() string {
	switch s {
	case Minor:
		return "minor"
	default:
		return "major"
	}
}

// ParseScale accepts "major" and "minor" (case-insensitive); empty means major
func ParseScale(s string) (ScaleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "major", "maj":
		return Major, nil
	case "minor", "min":
		return Minor, nil
	default:
		return Major, fmt.Errorf("unknown scale %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (s ScaleKind) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *ScaleKind) UnmarshalText(text []byte) error {
	kind, err := ParseScale(string(text))
	if err != nil {
		return err
	}
	*s = kind
	return nil
}

// Steps returns the semitone offsets of the seven scale degrees
func (s ScaleKind) Steps() [7]int {
	if s == Minor {
		return [7]int{0, 2, 3, 5, 7, 8, 10}
	}
	return [7]int{0, 2, 4, 5, 7, 9, 11}
}

// Third returns the interval of the scale's third in semitones
func (s ScaleKind) Third() int {
	return s.Steps()[2]
}

// Fifth returns the interval of the perfect fifth in semitones
func (s ScaleKind) Fifth() int {
	return s.Steps()[4]
}

// DegreeToMidi maps a diatonic degree (any integer, wrapping across octaves) to a MIDI pitch
func DegreeToMidi(root, degree int, scale ScaleKind) int {
	octave := floorDiv(degree, 7)
	idx := degree - octave*7
	return root + scale.Steps()[idx] + 12*octave
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
