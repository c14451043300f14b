package timeline

import (
	"slices"
)

// DefaultTempoBPM is used when a timeline carries no usable tempo
const DefaultTempoBPM = 120

// Timeline is an unordered collection of notes plus a tempo.
// Consumers sort by start time themselves; insertion order is preserved.
type Timeline struct {
	TempoBPM int    `json:"tempo_bpm" yaml:"tempo_bpm"` // 0 means unknown
	Notes    []Note `json:"notes" yaml:"notes"`
}

// New creates an empty timeline with the given tempo
func New(tempoBPM int) *Timeline {
	return &Timeline{
		TempoBPM: tempoBPM,
		Notes:    []Note{},
	}
}

// Append adds a note. Notes with End <= Start are accepted here and dropped downstream.
func (t *Timeline) Append(n Note) {
	t.Notes = append(t.Notes, n)
}

// Add is a convenience for Append
func (t *Timeline) Add(pitch int, start, end float64, velocity int) {
	t.Append(Note{Pitch: pitch, Start: start, End: end, Velocity: velocity})
}

// Len returns the number of notes, including invalid ones
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Notes)
}

// Sorted returns the valid notes ordered by start time; ties keep insertion order
func (t *Timeline) Sorted() []Note {
	notes := make([]Note, 0, len(t.Notes))
	for _, n := range t.Notes {
		if n.Valid() {
			notes = append(notes, n)
		}
	}
	slices.SortStableFunc(notes, func(a, b Note) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
	return notes
}

// EffectiveTempo returns TempoBPM, or DefaultTempoBPM when it is not positive
func (t *Timeline) EffectiveTempo() int {
	if t.TempoBPM > 0 {
		return t.TempoBPM
	}
	return DefaultTempoBPM
}
