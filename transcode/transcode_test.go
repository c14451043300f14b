package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io/fs"
	"math"
	"strings"
	"testing"
	"time"
)

// wavBytes builds a canonical 44-byte-header WAV file around raw sample data
func wavBytes(format, channels, sampleRate, bitDepth int, data []byte) []byte {
	var b bytes.Buffer
	blockAlign := channels * bitDepth / 8

	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(data)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(format))
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&b, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&b, binary.LittleEndian, uint16(bitDepth))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(data)))
	b.Write(data)
	return b.Bytes()
}

func le(values ...any) []byte {
	var b bytes.Buffer
	for _, v := range values {
		binary.Write(&b, binary.LittleEndian, v)
	}
	return b.Bytes()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = float32(0.8 * math.Sin(2*math.Pi*440*float64(i)/8000))
	}
	samples[10] = 1.5 // clamped

	encoded, err := EncodeWAV(samples, 8000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if !IsWAV(encoded) {
		t.Fatal("encoded data is not RIFF/WAVE")
	}

	decoded, err := DecodeWAVBytes(encoded)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if decoded.SampleRate != 8000 || decoded.Channels != 1 || decoded.BitDepth != 16 {
		t.Errorf("decoded format = %+v", decoded)
	}
	if len(decoded.Samples) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(decoded.Samples), len(samples))
	}

	for i, s := range samples {
		want := math.Max(-1, math.Min(1, float64(s)))
		if math.Abs(float64(decoded.Samples[i])-want) > 2.0/32767 {
			t.Fatalf("sample %d = %v, want %v", i, decoded.Samples[i], want)
		}
	}
}

func TestDecodeWAVFormats(t *testing.T) {
	tests := []struct {
		name    string
		wav     []byte
		want    []float32
		wantErr error
	}{
		{
			name: "16-bit stereo downmix",
			wav:  wavBytes(1, 2, 8000, 16, le(int16(16384), int16(0), int16(-16384), int16(-16384))),
			want: []float32{0.25, -0.5},
		},
		{
			name: "16-bit stereo trailing partial frame",
			wav:  wavBytes(1, 2, 8000, 16, le(int16(16384), int16(16384), int16(-8192))),
			want: []float32{0.5, -0.25},
		},
		{
			name: "24-bit mono",
			wav:  wavBytes(1, 1, 8000, 24, []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xC0}),
			want: []float32{0.5, -0.5},
		},
		{
			name: "32-bit float mono",
			wav:  wavBytes(3, 1, 8000, 32, le(float32(0.75), float32(-0.125))),
			want: []float32{0.75, -0.125},
		},
		{
			name:    "64-bit float",
			wav:     wavBytes(3, 1, 8000, 64, le(float64(0.5))),
			wantErr: ErrUnsupportedSampleFormat,
		},
		{
			name:    "8-bit",
			wav:     wavBytes(1, 1, 8000, 8, []byte{128, 200}),
			wantErr: ErrUnsupportedSampleFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeWAVBytes(tt.wav)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.Samples) != len(tt.want) {
				t.Fatalf("samples = %v, want %v", got.Samples, tt.want)
			}
			for i := range tt.want {
				if math.Abs(float64(got.Samples[i]-tt.want[i])) > 1e-6 {
					t.Fatalf("samples = %v, want %v", got.Samples, tt.want)
				}
			}
		})
	}
}

func TestDecodeBytesErrors(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.FFmpegPath = "/nonexistent/ffmpeg"
	cfg.FFprobePath = "/nonexistent/ffprobe"
	dec := NewDecoder(cfg)

	if _, err := dec.DecodeBytes(context.Background(), nil); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("empty input err = %v, want ErrEmptyAudio", err)
	}

	if _, err := dec.DecodeBytes(context.Background(), []byte("ID3 not really an mp3")); !errors.Is(err, ErrUnsupportedSampleFormat) {
		t.Errorf("non-wav without ffmpeg err = %v, want ErrUnsupportedSampleFormat", err)
	}

	wav := wavBytes(1, 1, 16000, 16, le(int16(1000), int16(-1000)))
	got, err := dec.DecodeBytes(context.Background(), wav)
	if err != nil {
		t.Fatalf("wav decode should not need ffmpeg: %v", err)
	}
	if got.SampleRate != 16000 || len(got.Samples) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*DecoderConfig)
	}{
		{"negative sample rate", func(c *DecoderConfig) { c.TargetSampleRate = -1 }},
		{"negative timeout", func(c *DecoderConfig) { c.Timeout = -time.Second }},
		{"missing ffmpeg", func(c *DecoderConfig) { c.FFmpegPath = "/nonexistent/ffmpeg" }},
		{"missing ffprobe", func(c *DecoderConfig) { c.FFprobePath = "/nonexistent/ffprobe" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDecoderConfig()
			cfg.FFmpegPath = "/nonexistent/ffmpeg"
			cfg.FFprobePath = "/nonexistent/ffprobe"
			tt.modify(cfg)
			if err := NewDecoder(cfg).ValidateConfig(context.Background()); err == nil {
				t.Error("expected an error")
			}
		})
	}

	cfg := DefaultDecoderConfig()
	cfg.FFmpegPath = "/nonexistent/ffmpeg"
	err := NewDecoder(cfg).ValidateConfig(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing binary err = %v, want fs.ErrNotExist", err)
	}
}

func TestParseFFprobeOutput(t *testing.T) {
	out := []byte(`{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"22050","channels":2,"duration":"3.5","bit_rate":"128000"}]}`)
	meta, err := parseFFprobeOutput(out)
	if err != nil {
		t.Fatal(err)
	}
	if meta.SampleRate != 22050 || meta.Channels != 2 || meta.Codec != "mp3" || meta.Duration != 3.5 || meta.Bitrate != 128000 {
		t.Errorf("meta = %+v", meta)
	}

	if _, err := parseFFprobeOutput([]byte(`{"streams":[]}`)); !errors.Is(err, ErrUnsupportedSampleFormat) {
		t.Errorf("no streams err = %v", err)
	}
	if _, err := parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"video","channels":1}]}`)); !errors.Is(err, ErrUnsupportedSampleFormat) {
		t.Errorf("video stream err = %v", err)
	}
}

func TestBytesToFloat32(t *testing.T) {
	raw := append(le(float32(0.5), float32(-1)), 0xFF)
	got := bytesToFloat32(raw)
	if len(got) != 2 || got[0] != 0.5 || got[1] != -1 {
		t.Errorf("bytesToFloat32 = %v", got)
	}
	if bytesToFloat32([]byte{1, 2}) != nil {
		t.Error("short input should decode to nil")
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.EnableNormalization = true
	args := NewDecoder(cfg).buildFFmpegArgs(22050)

	joined := strings.Join(args, " ")

	for _, want := range []string{"-f f32le", "-ac 1", "-ar 22050", "-af loudnorm=I=-23.0:TP=-2.0:LRA=7.0"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}
