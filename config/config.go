package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-xform/features"
	"github.com/RyanBlaney/sonido-xform/logging"
	"github.com/RyanBlaney/sonido-xform/synth"
	"github.com/RyanBlaney/sonido-xform/transcode"
)

// Environment variables that override the file configuration
const (
	EnvConfigPath = "SONIDO_CONFIG"
	EnvLogLevel   = "SONIDO_LOG_LEVEL"
	EnvAddr       = "SONIDO_ADDR"
	EnvSampleRate = "SONIDO_SAMPLE_RATE"
)

const (
	DefaultAddr         = "127.0.0.1:8080"
	DefaultMaxBodyBytes = 32 << 20
	DefaultSampleRate   = 44100
	MaxSampleRate       = 384000
)

// Config is the full application configuration
type Config struct {
	Analysis  features.AnalysisConfig `json:"analysis" yaml:"analysis"`
	Melody    features.MelodyConfig   `json:"melody" yaml:"melody"`
	Synthesis SynthesisConfig         `json:"synthesis" yaml:"synthesis"`
	Decoder   transcode.DecoderConfig `json:"decoder" yaml:"decoder"`
	Server    ServerConfig            `json:"server" yaml:"server"`
	Log       LogConfig               `json:"log" yaml:"log"`
}

// SynthesisConfig holds render defaults
type SynthesisConfig struct {
	SampleRate int               `json:"sample_rate" yaml:"sample_rate"`
	Style      synth.StyleParams `json:"style" yaml:"style"`
}

// ServerConfig holds HTTP settings
type ServerConfig struct {
	Addr         string `json:"addr" yaml:"addr"`
	MaxBodyBytes int64  `json:"max_body_bytes" yaml:"max_body_bytes"`
}

// LogConfig holds logger settings. A nil Color means auto-detect.
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	Color *bool  `json:"color,omitempty" yaml:"color,omitempty"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Analysis: features.DefaultAnalysisConfig(),
		Melody:   features.DefaultMelodyConfig(),
		Synthesis: SynthesisConfig{
			SampleRate: DefaultSampleRate,
			Style:      synth.DefaultStyle(),
		},
		Decoder: *transcode.DefaultDecoderConfig(),
		Server: ServerConfig{
			Addr:         DefaultAddr,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	if err := cfg.decode(f); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Validate()
	return cfg, nil
}

// Parse reads YAML over the defaults
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	cfg.Validate()
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	err := yaml.NewDecoder(r).Decode(c)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// LoadFromEnv loads .env (if present), then the file named by SONIDO_CONFIG or path,
// then applies the SONIDO_* overrides. A non-empty path wins over SONIDO_CONFIG.
func LoadFromEnv(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.Validate()
	return cfg, nil
}

// ApplyEnv applies SONIDO_* overrides read through getenv
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(getenv(EnvAddr)); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(getenv(EnvSampleRate)); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSampleRate, v, err)
		}
		c.Synthesis.SampleRate = rate
	}
	return nil
}

// Validate replaces out-of-range values with defaults or clamps them. It never rejects.
func (c *Config) Validate() {
	def := Default()

	if c.Analysis.FrameSize <= 0 {
		c.Analysis.FrameSize = def.Analysis.FrameSize
	}
	if c.Analysis.HopSize <= 0 {
		c.Analysis.HopSize = def.Analysis.HopSize
	}
	if c.Analysis.Workers <= 0 {
		c.Analysis.Workers = def.Analysis.Workers
	}

	if c.Melody.WindowSize <= 0 {
		c.Melody.WindowSize = def.Melody.WindowSize
	}
	if c.Melody.HopSize <= 0 {
		c.Melody.HopSize = def.Melody.HopSize
	}
	if c.Melody.MinHz <= 0 || c.Melody.MaxHz <= c.Melody.MinHz {
		c.Melody.MinHz = def.Melody.MinHz
		c.Melody.MaxHz = def.Melody.MaxHz
	}
	if c.Melody.YINThreshold <= 0 || c.Melody.YINThreshold >= 1 {
		c.Melody.YINThreshold = def.Melody.YINThreshold
	}
	if c.Melody.OnsetThreshold <= 0 || c.Melody.OnsetThreshold >= 1 {
		c.Melody.OnsetThreshold = def.Melody.OnsetThreshold
	}

	if c.Synthesis.SampleRate <= 0 {
		c.Synthesis.SampleRate = def.Synthesis.SampleRate
	}
	c.Synthesis.SampleRate = min(c.Synthesis.SampleRate, MaxSampleRate)
	c.Synthesis.Style = c.Synthesis.Style.Normalized()

	if c.Decoder.TargetSampleRate < 0 {
		c.Decoder.TargetSampleRate = 0
	}
	if c.Decoder.FFmpegPath == "" {
		c.Decoder.FFmpegPath = def.Decoder.FFmpegPath
	}
	if c.Decoder.FFprobePath == "" {
		c.Decoder.FFprobePath = def.Decoder.FFprobePath
	}
	if c.Decoder.Timeout <= 0 {
		c.Decoder.Timeout = def.Decoder.Timeout
	}

	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = def.Server.MaxBodyBytes
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		c.Log.Level = def.Log.Level
	}
}

// LogLevel returns the parsed log level
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}

// ConfigureLogging applies the log settings to the global logger
func (c *Config) ConfigureLogging() {
	logging.SetLevel(c.LogLevel())
	if c.Log.Color == nil {
		return
	}
	if *c.Log.Color {
		logging.EnableColors()
	} else {
		logging.DisableColors()
	}
}
