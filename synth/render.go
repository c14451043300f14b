package synth

import (
	"math"
	"slices"

	"github.com/RyanBlaney/sonido-xform/algorithms/common"
	"github.com/RyanBlaney/sonido-xform/timeline"
	"github.com/RyanBlaney/sonido-xform/logging"
)

const (
	// Peaks above this are scaled down to it
	normalizePeak = 0.99

	// Trailing silence appended after the last note, in seconds
	tailSeconds = 0.5

	minInferredBPM = 50.0
	maxInferredBPM = 200.0

	timingJitter   = 0.02 // of note duration, at humanize = 1
	velocityJitter = 0.12 // relative, at humanize = 1

	wobbleDepth = 0.02
	wobbleHz    = 0.5
)

// event is a note in the working copy; index is its position in the caller's timeline
type event struct {
	note  timeline.Note
	index int
}

// Renderer turns timelines into mono sample buffers. It keeps no per-call state.
type Renderer struct {
	logger logging.Logger
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{
		logger: logging.WithFields(logging.Fields{
			"component": "synth_renderer",
		}),
	}
}

// Render is a shorthand for NewRenderer().Render
func Render(tl *timeline.Timeline, sampleRate int, style StyleParams) ([]float32, error) {
	return NewRenderer().Render(tl, sampleRate, style)
}

// Render synthesizes tl at sampleRate. The timeline is never modified, and identical
// inputs always produce identical output.
func (r *Renderer) Render(tl *timeline.Timeline, sampleRate int, style StyleParams) ([]float32, error) {
	if tl == nil || len(tl.Notes) == 0 {
		return nil, ErrEmptyTimeline
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	style = style.Normalized()

	logger := r.logger.WithFields(logging.Fields{
		"function":    "Render",
		"notes":       len(tl.Notes),
		"sample_rate": sampleRate,
		"polyphony":   style.Polyphony,
		"layers":      len(style.Layering),
	})

	events := workingCopy(tl)
	bpm := tempoFor(tl, events)

	applyTiming(events, bpm, style)
	events = expandPolyphony(events, style)

	latestEnd := 0.0
	for _, ev := range events {
		latestEnd = max(latestEnd, ev.note.End)
	}
	length := int(math.Ceil(latestEnd*float64(sampleRate))) + int(tailSeconds*float64(sampleRate))
	buf := make([]float64, length)

	for i, ev := range events {
		renderNote(buf, sampleRate, ev, i, style.Layering)
	}

	// a timeline with only malformed notes renders as pure silence
	if style.Percussion && len(events) > 0 {
		addPercussion(buf, sampleRate, bpm)
	}

	scale := normalize(buf)

	logger.Debug("Render completed", logging.Fields{
		"events":     len(events),
		"bpm":        bpm,
		"samples":    length,
		"norm_scale": scale,
	})

	out := make([]float32, len(buf))
	for i, v := range buf {
		out[i] = float32(v)
	}
	return out, nil
}

// workingCopy indexes every note by generation order and then drops malformed ones
func workingCopy(tl *timeline.Timeline) []event {
	events := make([]event, 0, len(tl.Notes))
	for i, n := range tl.Notes {
		if !n.Valid() {
			continue
		}
		events = append(events, event{note: n, index: i})
	}
	return events
}

// tempoFor returns the timeline's tempo, or infers one assuming the median note is an eighth
func tempoFor(tl *timeline.Timeline, events []event) float64 {
	if tl.TempoBPM > 0 {
		return float64(tl.TempoBPM)
	}
	if len(events) == 0 {
		return timeline.DefaultTempoBPM
	}
	return inferTempo(events)
}

// inferTempo estimates BPM from note durations, treating the median duration as an eighth note
func inferTempo(events []event) float64 {
	durations := make([]float64, len(events))
	for i, ev := range events {
		durations[i] = ev.note.Duration()
	}

	median := common.Median(durations)
	if median <= 0 {
		return timeline.DefaultTempoBPM
	}
	// an eighth note is half a beat
	return common.Clamp(30/median, minInferredBPM, maxInferredBPM)
}

// applyTiming delays odd generation-order notes by swing and applies humanize jitter
func applyTiming(events []event, bpm float64, style StyleParams) {
	eighth := 30 / bpm
	swingDelay := style.Swing * 0.5 * eighth

	for i := range events {
		ev := &events[i]
		idx := uint64(ev.index)
		dur := ev.note.Duration()

		start := ev.note.Start
		end := ev.note.End
		if ev.index%2 == 1 {
			start += swingDelay
			end += swingDelay
		}

		start += hashSigned(idx, saltStart) * timingJitter * dur * style.Humanize
		end += hashSigned(idx, saltEnd) * timingJitter * dur * style.Humanize
		start = math.Max(start, 0)

		vel := float64(ev.note.Velocity) * (1 + hashSigned(idx, saltVelocity)*velocityJitter*style.Humanize)

		ev.note.Start = start
		ev.note.End = end
		ev.note.Velocity = common.ClampInt(int(math.Round(vel)), 1, 127)
	}
}

// expandPolyphony adds the scale's third (polyphony >= 2) and the fifth (polyphony >= 3)
// above every note and returns the set stably sorted by start time
func expandPolyphony(events []event, style StyleParams) []event {
	var intervals []int
	if style.Polyphony >= 2 {
		intervals = append(intervals, style.Scale.Third())
	}
	if style.Polyphony >= 3 {
		intervals = append(intervals, style.Scale.Fifth())
	}

	out := make([]event, 0, len(events)*(1+len(intervals)))
	for _, ev := range events {
		out = append(out, ev)
		for _, iv := range intervals {
			clone := ev
			clone.note.Pitch += iv
			if clone.note.Pitch > 127 {
				continue
			}
			out = append(out, clone)
		}
	}

	slices.SortStableFunc(out, func(a, b event) int {
		switch {
		case a.note.Start < b.note.Start:
			return -1
		case a.note.Start > b.note.Start:
			return 1
		default:
			return 0
		}
	})
	return out
}

// renderNote adds every layer of one note into buf, clipped to the buffer end
func renderNote(buf []float64, sampleRate int, ev event, sortedIndex int, layering []Oscillator) {
	sr := float64(sampleRate)
	offset := int(math.Round(ev.note.Start * sr))
	n := int(math.Round(ev.note.Duration() * sr))
	if n <= 0 || offset >= len(buf) {
		return
	}

	freq := ev.note.Hz()
	velocity := float64(ev.note.Velocity) / 127
	wobblePhase := 2 * math.Pi * hash01(uint64(sortedIndex), saltWobble)

	for _, l := range layersFor(layering, ev.note.Start, sortedIndex) {
		f := freq * detuneRatio(l.detune)
		for j := 0; j < n && offset+j < len(buf); j++ {
			t := float64(j) / sr
			wobble := 1 + wobbleDepth*math.Sin(2*math.Pi*wobbleHz*(ev.note.Start+t)+wobblePhase)
			buf[offset+j] += l.osc.Sample(f*t) * envelope(j, n) * velocity * l.gain * wobble
		}
	}
}

// normalize scales buf down so its peak is normalizePeak and returns the factor applied.
// Quieter buffers are left untouched.
func normalize(buf []float64) float64 {
	return common.LimitPeak(buf, normalizePeak)
}
