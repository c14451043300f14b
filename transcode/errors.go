package transcode

import "errors"

var (
	// ErrEmptyAudio is returned when the decoder is handed zero bytes
	ErrEmptyAudio = errors.New("empty audio data")

	// ErrUnsupportedSampleFormat is returned for containers or sample formats the decoder cannot interpret
	ErrUnsupportedSampleFormat = errors.New("unsupported sample format")
)
