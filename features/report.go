package features

import (
	"github.com/RyanBlaney/sonido-xform/algorithms/tonal"
)

// Report is the statistical fingerprint of one sample buffer.
// Spectral fields are arithmetic means over all analysis frames.
type Report struct {
	DurationSec float64 `json:"duration_sec" yaml:"duration_sec"`
	SampleRate  int     `json:"sample_rate" yaml:"sample_rate"`
	FrameSize   int     `json:"frame_size" yaml:"frame_size"`
	HopSize     int     `json:"hop_size" yaml:"hop_size"`
	Frames      int     `json:"frames" yaml:"frames"` // 0 when the buffer is shorter than one frame

	// Amplitude
	RMS              float64 `json:"rms" yaml:"rms"`
	Peak             float64 `json:"peak" yaml:"peak"`
	CrestFactor      float64 `json:"crest_factor" yaml:"crest_factor"`
	ZeroCrossingRate float64 `json:"zero_crossing_rate" yaml:"zero_crossing_rate"` // crossings per second
	AmplitudeEntropy float64 `json:"amplitude_entropy" yaml:"amplitude_entropy"`   // 0-1

	// Spectral
	SpectralCentroidHz  float64 `json:"spectral_centroid_hz" yaml:"spectral_centroid_hz"`
	SpectralBandwidthHz float64 `json:"spectral_bandwidth_hz" yaml:"spectral_bandwidth_hz"`
	SpectralRolloff85Hz float64 `json:"spectral_rolloff85_hz" yaml:"spectral_rolloff85_hz"`
	SpectralRolloff95Hz float64 `json:"spectral_rolloff95_hz" yaml:"spectral_rolloff95_hz"`
	SpectralFlatness    float64 `json:"spectral_flatness" yaml:"spectral_flatness"` // 0-1
	SpectralEntropy     float64 `json:"spectral_entropy" yaml:"spectral_entropy"`   // 0-1

	// Rhythm
	OnsetRate float64 `json:"onset_rate" yaml:"onset_rate"` // onsets per second
	TempoBPM  float64 `json:"tempo_bpm" yaml:"tempo_bpm"`   // 0 when no periodicity in 50-200 BPM

	// Pitch
	F0 tonal.PitchStats `json:"f0" yaml:"f0"`
}
