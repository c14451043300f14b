package timeline

// Note is a single pitched event. Times are in seconds.
type Note struct {
	Pitch    int     `json:"pitch" yaml:"pitch"`       // MIDI key 0-127
	Start    float64 `json:"start" yaml:"start"`       // seconds, >= 0
	End      float64 `json:"end" yaml:"end"`           // seconds, must be > Start to be rendered
	Velocity int     `json:"velocity" yaml:"velocity"` // 0-127
}

// Valid reports whether the note spans a positive duration.
// Invalid notes are kept in a timeline but skipped by every consumer.
func (n Note) Valid() bool {
	return n.End > n.Start
}

// Duration returns End - Start
func (n Note) Duration() float64 {
	return n.End - n.Start
}

// Hz returns the equal-tempered frequency of the note's pitch
func (n Note) Hz() float64 {
	return MidiToHz(float64(n.Pitch))
}
