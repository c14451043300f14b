package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-xform/config"
	"github.com/RyanBlaney/sonido-xform/features"
	"github.com/RyanBlaney/sonido-xform/logging"
	"github.com/RyanBlaney/sonido-xform/server"
	"github.com/RyanBlaney/sonido-xform/synth"
	"github.com/RyanBlaney/sonido-xform/timeline"
	"github.com/RyanBlaney/sonido-xform/transcode"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	// Global flags
	configPath string
	logLevel   string

	// Shared flags
	inputPath    string
	outputFormat string

	// Analyze flags
	frameSize int
	hopSize   int

	// Render flags
	outDir     string
	sampleRate int
	layering   string
	swing      float64
	humanize   float64
	polyphony  int
	percussion bool
	scale      string

	// Serve flags
	addr string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sonido-xform",
	Short: "Audio feature extraction and timeline synthesis",
	Long: `sonido-xform computes statistical fingerprints of audio
(amplitude, spectral, rhythm and pitch features) and renders
note timelines to audio with layered oscillators and drums.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFromEnv(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
			cfg.Validate()
		}
		cfg.ConfigureLogging()
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print the feature report of an audio file",
	Long: `Decode an audio file (WAV natively, other formats through ffmpeg)
and print its feature report.

Examples:
  sonido-xform analyze --input track.wav
  sonido-xform analyze -i track.mp3 --format yaml --frame-size 4096`,
	RunE: runAnalyze,
}

var melodyCmd = &cobra.Command{
	Use:   "melody",
	Short: "Print the pitch track and onsets of an audio file",
	Long: `Track the monophonic pitch of an audio file with YIN and
detect note onsets from spectral flux.

Example:
  sonido-xform melody --input voice.wav`,
	RunE: runMelody,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a note timeline to WAV and MIDI",
	Long: `Render a timeline (.json, .yaml or .mid) to a mono 16-bit WAV file
and a Standard MIDI File in the output directory.

Examples:
  sonido-xform render --input song.yaml --out-dir out
  sonido-xform render -i riff.mid --layering square,saw --swing 0.2 --percussion`,
	RunE: runRender,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve /health, /analyze, /melody and /render over HTTP.

Example:
  sonido-xform serve --addr 0.0.0.0:8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(melodyCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: $SONIDO_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	analyzeCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input audio file")
	analyzeCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, yaml, msgpack)")
	analyzeCmd.Flags().IntVar(&frameSize, "frame-size", 0, "Analysis frame size (default from config)")
	analyzeCmd.Flags().IntVar(&hopSize, "hop-size", 0, "Analysis hop size (default from config)")
	analyzeCmd.MarkFlagRequired("input")

	melodyCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input audio file")
	melodyCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, yaml, msgpack)")
	melodyCmd.MarkFlagRequired("input")

	renderCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Timeline file (.json, .yaml, .yml, .mid)")
	renderCmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "Output directory")
	renderCmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "Output sample rate (default from config)")
	renderCmd.Flags().StringVar(&layering, "layering", "", "Comma-separated oscillators, primary first (sine, square, saw)")
	renderCmd.Flags().Float64Var(&swing, "swing", 0, "Swing amount (0-0.35)")
	renderCmd.Flags().Float64Var(&humanize, "humanize", 0, "Timing and velocity jitter (0-0.4)")
	renderCmd.Flags().IntVar(&polyphony, "polyphony", 1, "Voices per note (1-3)")
	renderCmd.Flags().BoolVar(&percussion, "percussion", false, "Add a 4/4 drum layer")
	renderCmd.Flags().StringVar(&scale, "scale", "", "Harmony scale (major, minor)")
	renderCmd.MarkFlagRequired("input")

	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := features.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	audio, err := decodeInput(cmd.Context(), inputPath)
	if err != nil {
		return err
	}

	analysis := cfg.Analysis
	if frameSize > 0 {
		analysis.FrameSize = frameSize
	}
	if hopSize > 0 {
		analysis.HopSize = hopSize
	}

	report, err := features.NewAnalyzer(analysis).Analyze(audio.Samples, audio.SampleRate)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return features.Encode(cmd.OutOrStdout(), report, format)
}

func runMelody(cmd *cobra.Command, args []string) error {
	format, err := features.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	audio, err := decodeInput(cmd.Context(), inputPath)
	if err != nil {
		return err
	}

	melody, err := features.ExtractMelody(audio.Samples, audio.SampleRate, cfg.Melody)
	if err != nil {
		return fmt.Errorf("melody extraction failed: %w", err)
	}
	return features.Encode(cmd.OutOrStdout(), melody, format)
}

func runRender(cmd *cobra.Command, args []string) error {
	tl, err := timeline.ReadFile(inputPath)
	if err != nil {
		return err
	}

	style, err := styleFromFlags(cmd, cfg.Synthesis.Style)
	if err != nil {
		return err
	}

	rate := cfg.Synthesis.SampleRate
	if sampleRate > 0 {
		rate = sampleRate
	}

	samples, err := synth.NewRenderer().Render(tl, rate, style)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	wav, err := transcode.EncodeWAV(samples, rate)
	if err != nil {
		return err
	}
	midi, err := tl.SMFBytes()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	wavPath := filepath.Join(outDir, base+".wav")
	midiPath := filepath.Join(outDir, base+".mid")
	if err := os.WriteFile(wavPath, wav, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(midiPath, midi, 0o644); err != nil {
		return err
	}

	logging.Info("Render written", logging.Fields{
		"wav":         wavPath,
		"midi":        midiPath,
		"notes":       tl.Len(),
		"sample_rate": rate,
		"duration":    float64(len(samples)) / float64(rate),
	})
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", wavPath, midiPath)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg).Run(ctx)
}

// styleFromFlags overrides base with the render flags the user actually set
func styleFromFlags(cmd *cobra.Command, base synth.StyleParams) (synth.StyleParams, error) {
	style := base
	flags := cmd.Flags()

	if flags.Changed("layering") {
		style.Layering = nil
		for _, name := range strings.Split(layering, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			osc, err := synth.ParseOscillator(name)
			if err != nil {
				return style, err
			}
			style.Layering = append(style.Layering, osc)
		}
	}
	if flags.Changed("swing") {
		style.Swing = swing
	}
	if flags.Changed("humanize") {
		style.Humanize = humanize
	}
	if flags.Changed("polyphony") {
		style.Polyphony = polyphony
	}
	if flags.Changed("percussion") {
		style.Percussion = percussion
	}
	if flags.Changed("scale") {
		kind, err := timeline.ParseScale(scale)
		if err != nil {
			return style, err
		}
		style.Scale = kind
	}
	return style, nil
}

func decodeInput(ctx context.Context, path string) (*transcode.AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	decoderConfig := cfg.Decoder
	audio, err := transcode.NewDecoder(&decoderConfig).DecodeBytes(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return audio, nil
}
