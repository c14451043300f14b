package spectral

import (
	"fmt"
	"sync"
)

// Window is implemented by the windowing package types
type Window interface {
	ApplyInPlace(signal []float64) error
	Size() int
}

// STFT computes framed magnitude spectra
type STFT struct {
	fft     *FFT
	workers int
}

// Spectrogram is a time x frequency magnitude matrix
type Spectrogram struct {
	Magnitude      [][]float64 `json:"magnitude"`       // [frame][bin]
	TimeFrames     int         `json:"time_frames"`     // Number of frames
	FreqBins       int         `json:"freq_bins"`       // windowSize/2 + 1
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	WindowSize     int         `json:"window_size"`     // FFT size
	HopSize        int         `json:"hop_size"`        // Hop between frames
	FreqResolution float64     `json:"freq_resolution"` // Hz per bin
	TimeResolution float64     `json:"time_resolution"` // Seconds per frame
}

// NewSTFT creates a single-threaded STFT calculator
func NewSTFT() *STFT {
	return NewSTFTWithWorkers(1)
}

// NewSTFTWithWorkers creates an STFT calculator that spreads frames over up to
// workers goroutines. Values below 1 mean a single-threaded run.
func NewSTFTWithWorkers(workers int) *STFT {
	return &STFT{
		fft:     NewFFT(),
		workers: max(workers, 1),
	}
}

// Workers returns the maximum number of goroutines Compute uses
func (s *STFT) Workers() int {
	return s.workers
}

// FrameCount returns 1 + (n - windowSize)/hopSize, or 0 when the signal is shorter than one window
func FrameCount(n, windowSize, hopSize int) int {
	if windowSize <= 0 || hopSize <= 0 || n < windowSize {
		return 0
	}
	return 1 + (n-windowSize)/hopSize
}

// Compute frames the signal, applies the window and takes the one-sided magnitude of each frame.
// The input signal is never modified. With more than one worker, each worker owns its
// scratch buffer and writes only its own rows, so the result does not depend on the worker count.
func (s *STFT) Compute(signal []float64, windowSize, hopSize, sampleRate int, window Window) (*Spectrogram, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}
	if window != nil && window.Size() != windowSize {
		return nil, fmt.Errorf("window length (%d) doesn't match window size (%d)", window.Size(), windowSize)
	}

	numFrames := FrameCount(len(signal), windowSize, hopSize)
	if numFrames == 0 {
		return nil, fmt.Errorf("signal too short for window size %d", windowSize)
	}

	magnitude := make([][]float64, numFrames)
	computeFrame := func(frame []float64, frameIdx int) error {
		start := frameIdx * hopSize
		copy(frame, signal[start:start+windowSize])
		if window != nil {
			if err := window.ApplyInPlace(frame); err != nil {
				return err
			}
		}
		magnitude[frameIdx] = s.fft.Magnitude(frame)
		return nil
	}

	var frameErr error
	if workers := min(s.workers, numFrames); workers == 1 {
		frame := make([]float64, windowSize)
		for frameIdx := range numFrames {
			if frameErr = computeFrame(frame, frameIdx); frameErr != nil {
				break
			}
		}
	} else {
		jobs := make(chan int, numFrames)
		for frameIdx := range numFrames {
			jobs <- frameIdx
		}
		close(jobs)

		var (
			wg      sync.WaitGroup
			errOnce sync.Once
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()

				frame := make([]float64, windowSize)
				for frameIdx := range jobs {
					if err := computeFrame(frame, frameIdx); err != nil {
						errOnce.Do(func() { frameErr = err })
					}
				}
			}()
		}
		wg.Wait()
	}

	if frameErr != nil {
		return nil, fmt.Errorf("failed to window frame: %w", frameErr)
	}

	return &Spectrogram{
		Magnitude:      magnitude,
		TimeFrames:     numFrames,
		FreqBins:       windowSize/2 + 1,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}, nil
}
