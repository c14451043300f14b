package features

import (
	"fmt"

	"github.com/RyanBlaney/sonido-xform/algorithms/common"
	"github.com/RyanBlaney/sonido-xform/algorithms/spectral"
	"github.com/RyanBlaney/sonido-xform/algorithms/temporal"
	"github.com/RyanBlaney/sonido-xform/algorithms/tonal"
	"github.com/RyanBlaney/sonido-xform/algorithms/windowing"
	"github.com/RyanBlaney/sonido-xform/logging"
)

// Flux at or below this share of the mean per-frame magnitude sum is numerical noise
const fluxNoiseFloorRatio = 1e-3

// AnalysisConfig holds framing parameters for Analyze.
// Workers bounds the STFT goroutines; 1 keeps the analysis single-threaded.
type AnalysisConfig struct {
	FrameSize int `json:"frame_size" yaml:"frame_size"`
	HopSize   int `json:"hop_size" yaml:"hop_size"`
	Workers   int `json:"workers" yaml:"workers"`
}

// DefaultAnalysisConfig returns 2048-sample frames with a 512-sample hop on one thread
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		FrameSize: 2048,
		HopSize:   512,
		Workers:   1,
	}
}

// Analyzer computes feature reports. It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	config AnalysisConfig
	logger logging.Logger
}

// NewAnalyzer creates an analyzer; non-positive sizes fall back to the defaults
func NewAnalyzer(config AnalysisConfig) *Analyzer {
	def := DefaultAnalysisConfig()
	if config.FrameSize <= 0 {
		config.FrameSize = def.FrameSize
	}
	if config.HopSize <= 0 {
		config.HopSize = def.HopSize
	}
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}

	return &Analyzer{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "feature_analyzer",
		}),
	}
}

// Config returns the effective framing parameters
func (a *Analyzer) Config() AnalysisConfig {
	return a.config
}

// Analyze computes a report with explicit framing parameters
func Analyze(samples []float32, sampleRate, frameSize, hopSize int) (Report, error) {
	return NewAnalyzer(AnalysisConfig{FrameSize: frameSize, HopSize: hopSize, Workers: 1}).Analyze(samples, sampleRate)
}

// Analyze computes the feature report of a mono buffer. The buffer is not modified.
func (a *Analyzer) Analyze(samples []float32, sampleRate int) (Report, error) {
	if len(samples) == 0 || sampleRate <= 0 {
		return Report{}, ErrEmptySignal
	}

	frameSize := a.config.FrameSize
	hopSize := a.config.HopSize

	logger := a.logger.WithFields(logging.Fields{
		"function":    "Analyze",
		"samples":     len(samples),
		"sample_rate": sampleRate,
		"frame_size":  frameSize,
		"hop_size":    hopSize,
	})
	logger.Debug("Starting feature analysis")

	signal := toFloat64(samples)
	duration := float64(len(signal)) / float64(sampleRate)

	amplitude := temporal.NewAmplitude()
	level := amplitude.Compute(signal)

	report := Report{
		DurationSec:      duration,
		SampleRate:       sampleRate,
		FrameSize:        frameSize,
		HopSize:          hopSize,
		RMS:              level.RMS,
		Peak:             level.Peak,
		CrestFactor:      level.CrestFactor,
		ZeroCrossingRate: spectral.NewZeroCrossingRate(sampleRate).Compute(signal),
	}

	numFrames := spectral.FrameCount(len(signal), frameSize, hopSize)
	if numFrames == 0 {
		logger.Debug("Buffer shorter than one frame, returning amplitude-only report")
		return report, nil
	}

	spec, err := spectral.NewSTFTWithWorkers(a.config.Workers).Compute(signal, frameSize, hopSize, sampleRate, windowing.NewHann(frameSize))
	if err != nil {
		return Report{}, fmt.Errorf("failed to compute spectrogram: %w", err)
	}
	report.Frames = spec.TimeFrames

	a.spectralShape(&report, spec)

	flux := spectral.NewSpectralFlux().ComputeFrames(spec.Magnitude)
	noiseFloor := fluxNoiseFloorRatio * meanMagnitudeSum(spec.Magnitude)

	report.OnsetRate = temporal.NewOnsetDetection().OnsetRate(flux, noiseFloor, duration)
	report.TempoBPM = temporal.NewTempoEstimation().Estimate(flux, sampleRate, hopSize, noiseFloor)
	report.AmplitudeEntropy = amplitude.Entropy(signal)
	report.F0 = tonal.NewPitchDetector(sampleRate, hopSize).Compute(signal)

	logger.Debug("Feature analysis completed", logging.Fields{
		"frames":       report.Frames,
		"onset_rate":   report.OnsetRate,
		"tempo_bpm":    report.TempoBPM,
		"f0_mean_hz":   report.F0.MeanHz,
		"voiced_ratio": report.F0.VoicedRatio,
	})

	return report, nil
}

// spectralShape fills the frame-averaged spectral descriptors
func (a *Analyzer) spectralShape(report *Report, spec *spectral.Spectrogram) {
	sr, n := spec.SampleRate, spec.WindowSize

	centroid := spectral.NewSpectralCentroid(sr, n)
	bandwidth := spectral.NewSpectralBandwidth(sr, n)
	rolloff := spectral.NewSpectralRolloff(sr, n)
	flatness := spectral.NewSpectralFlatness()
	entropy := spectral.NewSpectralEntropy()

	frames := len(spec.Magnitude)
	centroids := make([]float64, frames)
	bandwidths := make([]float64, frames)
	rolloffs85 := make([]float64, frames)
	rolloffs95 := make([]float64, frames)
	flatnesses := make([]float64, frames)
	entropies := make([]float64, frames)

	for t, mags := range spec.Magnitude {
		centroidBin := centroid.ComputeBin(mags)
		centroids[t] = spectral.BinToHz(centroidBin, sr, n)
		bandwidths[t] = bandwidth.Compute(mags, centroidBin)
		rolloffs85[t] = rolloff.Compute(mags, 0.85)
		rolloffs95[t] = rolloff.Compute(mags, 0.95)
		flatnesses[t] = flatness.Compute(mags)
		entropies[t] = entropy.Compute(mags)
	}

	report.SpectralCentroidHz = common.Mean(centroids)
	report.SpectralBandwidthHz = common.Mean(bandwidths)
	report.SpectralRolloff85Hz = common.Mean(rolloffs85)
	report.SpectralRolloff95Hz = common.Mean(rolloffs95)
	report.SpectralFlatness = common.Mean(flatnesses)
	report.SpectralEntropy = common.Mean(entropies)
}

func meanMagnitudeSum(magnitude [][]float64) float64 {
	sums := make([]float64, len(magnitude))
	for t, mags := range magnitude {
		sums[t] = common.Sum(mags)
	}
	return common.Mean(sums)
}

func toFloat64(samples []float32) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s)
	}
	return out
}
