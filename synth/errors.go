package synth

import "errors"

var (
	// ErrEmptyTimeline is returned when there are no notes to render
	ErrEmptyTimeline = errors.New("empty timeline")

	// ErrInvalidSampleRate is returned for a non-positive output sample rate
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)
