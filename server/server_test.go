package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-xform/config"
	"github.com/RyanBlaney/sonido-xform/features"
	"github.com/RyanBlaney/sonido-xform/synth"
	"github.com/RyanBlaney/sonido-xform/timeline"
	"github.com/RyanBlaney/sonido-xform/transcode"
)

func sineWAV(t *testing.T, freq float64, sampleRate int, seconds float64) string {
	t.Helper()
	samples := make([]float32, int(seconds*float64(sampleRate)))
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	wav, err := transcode.EncodeWAV(samples, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	return base64.StdEncoding.EncodeToString(wav)
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	switch b := body.(type) {
	case string:
		payload = []byte(b)
	default:
		var err error
		if payload, err = json.Marshal(b); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body %q is not json: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	New(nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestAnalyze(t *testing.T) {
	h := New(nil).Handler()
	rec := post(t, h, "/analyze", analyzeRequest{AudioB64: sineWAV(t, 220, 22050, 1), FrameSize: 1024, HopSize: 256})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var report features.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.SampleRate != 22050 || report.FrameSize != 1024 || report.HopSize != 256 {
		t.Errorf("report framing = %d/%d/%d", report.SampleRate, report.FrameSize, report.HopSize)
	}
	if math.Abs(report.F0.MeanHz-220) > 220*0.02 {
		t.Errorf("f0 = %v, want ~220", report.F0.MeanHz)
	}
}

func TestAnalyzeYAML(t *testing.T) {
	h := New(nil).Handler()
	rec := post(t, h, "/analyze?format=yaml", analyzeRequest{AudioB64: sineWAV(t, 330, 8000, 0.5)})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "sample_rate: 8000") {
		t.Errorf("yaml body missing sample_rate: %s", rec.Body.String())
	}
}

func TestMelody(t *testing.T) {
	h := New(nil).Handler()
	rec := post(t, h, "/melody", melodyRequest{AudioB64: sineWAV(t, 440, 16000, 1)})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var melody features.Melody
	if err := json.Unmarshal(rec.Body.Bytes(), &melody); err != nil {
		t.Fatal(err)
	}
	if len(melody.Times) == 0 || len(melody.Times) != len(melody.F0Hz) {
		t.Errorf("melody track lengths = %d/%d", len(melody.Times), len(melody.F0Hz))
	}
}

func TestRender(t *testing.T) {
	h := New(nil).Handler()
	body := `{
		"timeline": {"tempo_bpm": 120, "notes": [
			{"pitch": 60, "start": 0, "end": 0.5, "velocity": 100},
			{"pitch": 64, "start": 0.5, "end": 1.0, "velocity": 90}
		]},
		"style": {"layering": ["sine"], "polyphony": 2, "scale": "minor"},
		"sample_rate": 16000
	}`
	rec := post(t, h, "/render", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var resp renderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	wav, err := base64.StdEncoding.DecodeString(resp.WAVB64)
	if err != nil {
		t.Fatal(err)
	}
	audio, err := transcode.DecodeWAVBytes(wav)
	if err != nil {
		t.Fatalf("rendered wav does not decode: %v", err)
	}
	if audio.SampleRate != 16000 || len(audio.Samples) != 16000+8000 {
		t.Errorf("wav = %d Hz, %d samples", audio.SampleRate, len(audio.Samples))
	}

	midi, err := base64.StdEncoding.DecodeString(resp.MIDIB64)
	if err != nil {
		t.Fatal(err)
	}
	tl, err := timeline.ReadSMF(bytes.NewReader(midi))
	if err != nil {
		t.Fatalf("rendered midi does not parse: %v", err)
	}
	if tl.TempoBPM != 120 || len(tl.Notes) != 2 || tl.Notes[1].Pitch != 64 {
		t.Errorf("midi timeline = %+v", tl)
	}
}

func TestRenderPartialStyleKeepsDefaults(t *testing.T) {
	srv := New(nil)
	h := srv.Handler()
	const notes = `"timeline": {"tempo_bpm": 120, "notes": [
		{"pitch": 60, "start": 0, "end": 0.25, "velocity": 100},
		{"pitch": 62, "start": 0.25, "end": 0.5, "velocity": 100},
		{"pitch": 64, "start": 0.5, "end": 0.75, "velocity": 100}
	]}, "sample_rate": 8000`

	render := func(style string) string {
		t.Helper()
		rec := post(t, h, "/render", "{"+notes+style+"}")
		if rec.Code != http.StatusOK {
			t.Fatalf("style %q: status = %d body = %s", style, rec.Code, rec.Body.String())
		}
		var resp renderResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		return resp.WAVB64
	}

	base := render("")
	for _, style := range []string{
		`, "style": {"swing": 0}`,
		`, "style": {}`,
		`, "style": null`,
		`, "style": {"layering": ["saw", "sine"], "humanize": 0.1, "polyphony": 1, "scale": "major"}`,
	} {
		if render(style) != base {
			t.Errorf("style %s rendered differently from the defaults", style)
		}
	}

	if render(`, "style": {"layering": ["square"]}`) == base {
		t.Error("overriding layering had no effect")
	}
	if got := srv.config.Synthesis.Style.Layering; len(got) != 2 || got[0] != synth.Saw || got[1] != synth.Sine {
		t.Errorf("configured layering changed to %v", got)
	}
	if render("") != base {
		t.Error("defaults drifted after an overriding request")
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"malformed json", "/analyze", `{"audio_b64":`, http.StatusBadRequest},
		{"bad base64", "/analyze", `{"audio_b64":"***"}`, http.StatusBadRequest},
		{"unknown format", "/analyze?format=xml", `{"audio_b64":""}`, http.StatusBadRequest},
		{"empty audio", "/melody", `{"audio_b64":""}`, http.StatusUnprocessableEntity},
		{"no timeline", "/render", `{}`, http.StatusUnprocessableEntity},
		{"empty timeline", "/render", `{"timeline":{"tempo_bpm":120,"notes":[]}}`, http.StatusUnprocessableEntity},
		{"unknown oscillator", "/render", `{"timeline":{"notes":[{"pitch":60,"start":0,"end":1,"velocity":90}]},"style":{"layering":["triangle"]}}`, http.StatusBadRequest},
	}

	h := New(nil).Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if errorOf(t, rec) == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxBodyBytes = 64

	rec := post(t, New(cfg).Handler(), "/analyze", analyzeRequest{AudioB64: strings.Repeat("A", 256)})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestRejectsNonJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/render", strings.NewReader("pitch=60"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	New(nil).Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}
