package features

import (
	"fmt"

	"github.com/RyanBlaney/sonido-xform/algorithms/spectral"
	"github.com/RyanBlaney/sonido-xform/algorithms/temporal"
	"github.com/RyanBlaney/sonido-xform/algorithms/tonal"
	"github.com/RyanBlaney/sonido-xform/algorithms/windowing"
	"github.com/RyanBlaney/sonido-xform/logging"
)

// MelodyConfig configures ExtractMelody
type MelodyConfig struct {
	WindowSize     int     `json:"window_size" yaml:"window_size"`
	HopSize        int     `json:"hop_size" yaml:"hop_size"`
	MinHz          float64 `json:"min_hz" yaml:"min_hz"`
	MaxHz          float64 `json:"max_hz" yaml:"max_hz"`
	YINThreshold   float64 `json:"yin_threshold" yaml:"yin_threshold"`
	OnsetThreshold float64 `json:"onset_threshold" yaml:"onset_threshold"` // on max-normalized flux
}

// DefaultMelodyConfig returns the melody tracking defaults
func DefaultMelodyConfig() MelodyConfig {
	yin := tonal.DefaultYINParams()
	return MelodyConfig{
		WindowSize:     yin.WindowSize,
		HopSize:        yin.HopSize,
		MinHz:          yin.MinFreq,
		MaxHz:          yin.MaxFreq,
		YINThreshold:   yin.Threshold,
		OnsetThreshold: 0.2,
	}
}

// Melody is a frame-wise monophonic pitch track plus onset times
type Melody struct {
	Times      []float64 `json:"times" yaml:"times"`
	F0Hz       []float64 `json:"f0_hz" yaml:"f0_hz"`
	Confidence []float64 `json:"confidence" yaml:"confidence"`
	OnsetsSec  []float64 `json:"onsets_sec" yaml:"onsets_sec"`
}

// ExtractMelody tracks pitch with YIN and picks onsets from normalized spectral flux.
// A buffer shorter than one window yields empty sequences, not an error.
func ExtractMelody(samples []float32, sampleRate int, config MelodyConfig) (Melody, error) {
	if len(samples) == 0 || sampleRate <= 0 {
		return Melody{}, ErrEmptySignal
	}

	yin := tonal.NewYIN(tonal.YINParams{
		WindowSize: config.WindowSize,
		HopSize:    config.HopSize,
		MinFreq:    config.MinHz,
		MaxFreq:    config.MaxHz,
		Threshold:  config.YINThreshold,
	})
	params := yin.Params()

	onsetThreshold := config.OnsetThreshold
	if onsetThreshold <= 0 {
		onsetThreshold = DefaultMelodyConfig().OnsetThreshold
	}

	logger := logging.WithFields(logging.Fields{
		"component":   "melody_extractor",
		"function":    "ExtractMelody",
		"samples":     len(samples),
		"sample_rate": sampleRate,
		"window_size": params.WindowSize,
		"hop_size":    params.HopSize,
	})

	signal := toFloat64(samples)
	track := yin.Track(signal, sampleRate)

	melody := Melody{
		Times:      track.Times,
		F0Hz:       track.F0Hz,
		Confidence: track.Confidence,
		OnsetsSec:  []float64{},
	}

	if spectral.FrameCount(len(signal), params.WindowSize, params.HopSize) == 0 {
		logger.Debug("Buffer shorter than one window, no melody extracted")
		return melody, nil
	}

	spec, err := spectral.NewSTFT().Compute(signal, params.WindowSize, params.HopSize, sampleRate, windowing.NewHann(params.WindowSize))
	if err != nil {
		return Melody{}, fmt.Errorf("failed to compute spectrogram: %w", err)
	}

	flux := spectral.Normalize(spectral.NewSpectralFlux().ComputeFramesFromSilence(spec.Magnitude))
	for _, frame := range temporal.NewOnsetDetection().PickPeaks(flux, onsetThreshold) {
		melody.OnsetsSec = append(melody.OnsetsSec, temporal.FrameCenterTime(frame, params.HopSize, params.WindowSize, sampleRate))
	}

	logger.Debug("Melody extraction completed", logging.Fields{
		"frames": len(melody.Times),
		"onsets": len(melody.OnsetsSec),
	})

	return melody, nil
}
