package transcode

import "time"

// AudioData represents decoded mono audio
type AudioData struct {
	Samples    []float32     `json:"-"`           // mono PCM in [-1, 1]
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`    // channel count of the source before downmix
	BitDepth   int           `json:"bit_depth,omitempty"`
	Codec      string        `json:"codec"`
	Duration   time.Duration `json:"duration"`
}

func newAudioData(samples []float32, sampleRate, channels int, codec string) *AudioData {
	var duration time.Duration
	if sampleRate > 0 {
		duration = time.Duration(len(samples)) * time.Second / time.Duration(sampleRate)
	}
	return &AudioData{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
		Codec:      codec,
		Duration:   duration,
	}
}

// downmix averages interleaved frames to mono. A trailing partial frame is
// averaged over the channels it has.
func downmix(interleaved []float64, channels int) []float32 {
	if channels <= 1 {
		out := make([]float32, len(interleaved))
		for i, v := range interleaved {
			out[i] = float32(v)
		}
		return out
	}

	frames := (len(interleaved) + channels - 1) / channels
	out := make([]float32, frames)
	for i := range frames {
		lo := i * channels
		hi := min(lo+channels, len(interleaved))
		var sum float64
		for _, v := range interleaved[lo:hi] {
			sum += v
		}
		out[i] = float32(sum / float64(hi-lo))
	}
	return out
}
