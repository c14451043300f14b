package transcode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// IsWAV reports whether data starts with a RIFF/WAVE header
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// DecodeWAV reads a RIFF/WAVE stream and downmixes it to mono float32.
// 16, 24 and 32-bit integer PCM and 32-bit float PCM are supported.
func DecodeWAV(r io.ReadSeeker) (*AudioData, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid wav stream", ErrUnsupportedSampleFormat)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	sampleRate := int(dec.SampleRate)
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrUnsupportedSampleFormat, sampleRate)
	}

	var (
		interleaved []float64
		err         error
	)
	switch {
	case dec.WavAudioFormat == wavFormatFloat && bitDepth == 32:
		interleaved, err = readFloat32PCM(dec)
	case dec.WavAudioFormat == wavFormatFloat:
		return nil, fmt.Errorf("%w: %d-bit float", ErrUnsupportedSampleFormat, bitDepth)
	case dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible:
		return nil, fmt.Errorf("%w: wav format tag %d", ErrUnsupportedSampleFormat, dec.WavAudioFormat)
	default:
		interleaved, err = readIntPCM(dec, bitDepth)
	}
	if err != nil {
		return nil, err
	}

	data := newAudioData(downmix(interleaved, channels), sampleRate, channels, "pcm")
	data.BitDepth = bitDepth
	return data, nil
}

// DecodeWAVBytes is DecodeWAV over an in-memory buffer
func DecodeWAVBytes(data []byte) (*AudioData, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	return DecodeWAV(bytes.NewReader(data))
}

func readIntPCM(dec *wav.Decoder, bitDepth int) ([]float64, error) {
	var scale func(v int) float64
	switch bitDepth {
	case 16:
		scale = func(v int) float64 { return float64(int16(v)) / 32768 }
	case 24:
		// sign-extend from 24 bits
		scale = func(v int) float64 { return float64(int32(v)<<8>>8) / (1 << 23) }
	case 32:
		scale = func(v int) float64 { return float64(int32(v)) / (1 << 31) }
	default:
		return nil, fmt.Errorf("%w: %d-bit integer pcm", ErrUnsupportedSampleFormat, bitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read pcm data: %w", err)
	}

	out := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = scale(v)
	}
	return out, nil
}

func readFloat32PCM(dec *wav.Decoder) ([]float64, error) {
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to locate pcm data: %w", err)
	}

	raw, err := io.ReadAll(dec.PCMChunk)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read pcm data: %w", err)
	}

	out := make([]float64, len(raw)/4)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
	}
	return out, nil
}

// EncodeWAV writes samples as a mono 16-bit PCM WAV file. Samples are clamped to [-1, 1]
// and scaled by 32767.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrUnsupportedSampleFormat, sampleRate)
	}

	ints := make([]int, len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		ints[i] = int(v * 32767)
	}

	out := &memWriteSeeker{}
	enc := wav.NewEncoder(out, sampleRate, 16, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           ints,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}
	return out.Bytes(), nil
}

// memWriteSeeker is an in-memory io.WriteSeeker; the wav encoder seeks back to patch chunk sizes
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(m.pos)
	case io.SeekEnd:
		base = int64(len(m.buf))
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	next := base + offset
	if next < 0 {
		return 0, fmt.Errorf("negative position %d", next)
	}
	m.pos = int(next)
	return next, nil
}

func (m *memWriteSeeker) Bytes() []byte {
	return m.buf
}
