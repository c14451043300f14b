package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/RyanBlaney/sonido-xform/features"
	"github.com/RyanBlaney/sonido-xform/logging"
	"github.com/RyanBlaney/sonido-xform/synth"
	"github.com/RyanBlaney/sonido-xform/timeline"
	"github.com/RyanBlaney/sonido-xform/transcode"
)

// errBadRequest marks client input that could not be parsed
var errBadRequest = errors.New("bad request")

type analyzeRequest struct {
	AudioB64  string `json:"audio_b64"`
	FrameSize int    `json:"frame_size,omitempty"`
	HopSize   int    `json:"hop_size,omitempty"`
}

type melodyRequest struct {
	AudioB64 string `json:"audio_b64"`
}

type renderRequest struct {
	Timeline   *timeline.Timeline `json:"timeline"`
	Style      *synth.StyleParams `json:"style,omitempty"`
	SampleRate int                `json:"sample_rate,omitempty"`
}

type renderResponse struct {
	WAVB64     string  `json:"wav_b64"`
	MIDIB64    string  `json:"midi_b64"`
	SampleRate int     `json:"sample_rate"`
	DurationS  float64 `json:"duration_sec"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// handleAnalyze decodes base64 audio and returns its feature report.
// ?format=yaml|msgpack selects a non-JSON encoding.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	format, err := features.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	var req analyzeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	audio, err := s.decodeAudio(r, req.AudioB64)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.analyzer(req.FrameSize, req.HopSize).Analyze(audio.Samples, audio.SampleRate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := features.Encode(&buf, report, format); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Write(buf.Bytes())
}

// handleMelody decodes base64 audio and returns its pitch track and onsets
func (s *Server) handleMelody(w http.ResponseWriter, r *http.Request) {
	var req melodyRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	audio, err := s.decodeAudio(r, req.AudioB64)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	melody, err := features.ExtractMelody(audio.Samples, audio.SampleRate, s.config.Melody)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, melody)
}

// handleRender renders a timeline to WAV and SMF, both base64 encoded.
// Style keys the request omits keep their configured values.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	style := s.config.Synthesis.Style
	// decoding reuses a slice's backing array, so the configured layering must not be shared
	style.Layering = slices.Clone(style.Layering)
	req := renderRequest{Style: &style}
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Timeline == nil {
		s.writeError(w, r, synth.ErrEmptyTimeline)
		return
	}

	if req.Style == nil {
		// "style": null
		req.Style = &s.config.Synthesis.Style
	}
	sampleRate := s.config.Synthesis.SampleRate
	if req.SampleRate > 0 {
		sampleRate = req.SampleRate
	}

	samples, err := s.renderer.Render(req.Timeline, sampleRate, *req.Style)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	wav, err := transcode.EncodeWAV(samples, sampleRate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	midi, err := req.Timeline.SMFBytes()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, renderResponse{
		WAVB64:     base64.StdEncoding.EncodeToString(wav),
		MIDIB64:    base64.StdEncoding.EncodeToString(midi),
		SampleRate: sampleRate,
		DurationS:  float64(len(samples)) / float64(sampleRate),
	})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: invalid json: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) decodeAudio(r *http.Request, audioB64 string) (*transcode.AudioData, error) {
	raw, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 audio: %v", errBadRequest, err)
	}
	return s.decoder.DecodeBytes(r.Context(), raw)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(err, "Failed to write response")
	}
}

// writeError maps domain errors to status codes and writes the JSON error envelope
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := s.logger.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error(err, "Request failed")
	} else {
		logger.Debug("Request rejected", logging.Fields{"status": status, "error": err.Error()})
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, features.ErrEmptySignal),
		errors.Is(err, synth.ErrEmptyTimeline),
		errors.Is(err, synth.ErrInvalidSampleRate),
		errors.Is(err, transcode.ErrEmptyAudio),
		errors.Is(err, transcode.ErrUnsupportedSampleFormat):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
