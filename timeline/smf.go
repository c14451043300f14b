package timeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// TicksPerQuarter is the SMF resolution used when writing
const TicksPerQuarter = 480

// ErrUnsupportedTimeFormat is returned for SMPTE-timed files
var ErrUnsupportedTimeFormat = errors.New("unsupported SMF time format")

type noteEvent struct {
	tick  uint32
	on    bool
	key   uint8
	vel   uint8
	order int
}

// WriteSMF serializes the valid notes as a single-track Standard MIDI File on channel 0.
// The track starts with one tempo meta event and note-offs precede note-ons on the same tick.
// Notes shorter than a tick are lengthened to one tick. The output is deterministic.
func (t *Timeline) WriteSMF(w io.Writer) error {
	bpm := float64(t.EffectiveTempo())
	secondsToTicks := func(sec float64) uint32 {
		return uint32(math.Round(math.Max(sec, 0) * bpm / 60 * TicksPerQuarter))
	}

	events := make([]noteEvent, 0, 2*len(t.Notes))
	for i, n := range t.Notes {
		if !n.Valid() {
			continue
		}
		key := uint8(max(0, min(127, n.Pitch)))
		vel := uint8(max(1, min(127, n.Velocity)))
		// a valid note always spans at least one tick so its off follows its on
		startTick := secondsToTicks(n.Start)
		endTick := max(secondsToTicks(n.End), startTick+1)
		events = append(events,
			noteEvent{tick: startTick, on: true, key: key, vel: vel, order: i},
			noteEvent{tick: endTick, on: false, key: key, order: i},
		)
	}

	slices.SortStableFunc(events, func(a, b noteEvent) int {
		if a.tick != b.tick {
			return int(a.tick) - int(b.tick)
		}
		if a.on != b.on {
			if !a.on {
				return -1
			}
			return 1
		}
		return a.order - b.order
	})

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(bpm))

	var last uint32
	for _, ev := range events {
		delta := ev.tick - last
		last = ev.tick
		if ev.on {
			tr.Add(delta, midi.NoteOn(0, ev.key, ev.vel))
		} else {
			tr.Add(delta, midi.NoteOff(0, ev.key))
		}
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}

	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write SMF: %w", err)
	}
	return nil
}

// SMFBytes returns WriteSMF output as a byte slice
func (t *Timeline) SMFBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteSMF(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadSMF parses a Standard MIDI File into a timeline. The first tempo meta event
// sets the tempo for the whole file (120 BPM if there is none). Note-ons are paired
// with the next note-off of the same channel and key; unterminated notes are dropped.
// Notes come back ordered by start time.
func ReadSMF(r io.Reader) (*Timeline, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read SMF: %w", err)
	}

	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || ticks == 0 {
		return nil, ErrUnsupportedTimeFormat
	}
	ppq := float64(ticks)

	bpm := 0.0
	for _, track := range s.Tracks {
		for _, ev := range track {
			var tempo float64
			if ev.Message.GetMetaTempo(&tempo) && tempo > 0 {
				bpm = tempo
				break
			}
		}
		if bpm > 0 {
			break
		}
	}
	if bpm <= 0 {
		bpm = DefaultTempoBPM
	}
	ticksToSeconds := func(tick uint64) float64 {
		return float64(tick) / ppq * 60 / bpm
	}

	type openNote struct {
		start uint64
		vel   uint8
	}

	tl := New(int(math.Round(bpm)))
	for _, track := range s.Tracks {
		open := make(map[[2]uint8][]openNote)

		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)

			msg := midi.Message(ev.Message)
			var ch, key, vel uint8
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				id := [2]uint8{ch, key}
				open[id] = append(open[id], openNote{start: abs, vel: vel})

			case msg.GetNoteEnd(&ch, &key):
				id := [2]uint8{ch, key}
				pending := open[id]
				if len(pending) == 0 {
					continue
				}
				on := pending[0]
				open[id] = pending[1:]

				tl.Append(Note{
					Pitch:    int(key),
					Start:    ticksToSeconds(on.start),
					End:      ticksToSeconds(abs),
					Velocity: int(on.vel),
				})
			}
		}
	}

	tl.Notes = tl.Sorted()
	return tl, nil
}
