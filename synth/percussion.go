package synth

import (
	"math"

	"github.com/RyanBlaney/sonido-xform/algorithms/filters"
)

type drumVoice int

const (
	kick drumVoice = iota
	snare
	hiHat
)

const (
	kickDuration  = 0.25
	kickStartHz   = 75.0
	kickEndHz     = 45.0
	kickGain      = 0.8
	snareDuration = 0.18
	snareToneHz   = 180.0
	snareGain     = 0.45
	hiHatDuration = 0.05
	hiHatGain     = 0.18
)

// addPercussion mixes a 4/4 pattern across the whole buffer: kick on beats 1 and 3,
// snare on beats 2 and 4, hi-hat on every eighth note.
func addPercussion(buf []float64, sampleRate int, bpm float64) {
	if bpm <= 0 || sampleRate <= 0 {
		return
	}
	eighth := 30 / bpm

	for k := 0; ; k++ {
		offset := int(math.Round(float64(k) * eighth * float64(sampleRate)))
		if offset >= len(buf) {
			return
		}

		if k%2 == 0 {
			switch (k / 2) % 4 {
			case 0, 2:
				addDrum(buf, offset, sampleRate, kick)
			default:
				addDrum(buf, offset, sampleRate, snare)
			}
		}
		addDrum(buf, offset, sampleRate, hiHat)
	}
}

// addDrum renders one hit starting at offset, clipped to the buffer
func addDrum(buf []float64, offset, sampleRate int, voice drumVoice) {
	sr := float64(sampleRate)

	switch voice {
	case kick:
		n := int(kickDuration * sr)
		phase := 0.0
		for j := 0; j < n && offset+j < len(buf); j++ {
			tau := float64(j) / sr
			freq := kickStartHz + (kickEndHz-kickStartHz)*tau/kickDuration
			decay := math.Pow(1-tau/kickDuration, 4)
			buf[offset+j] += math.Sin(phase) * decay * kickGain
			phase += 2 * math.Pi * freq / sr
		}

	case snare:
		n := int(snareDuration * sr)
		for j := 0; j < n && offset+j < len(buf); j++ {
			tau := float64(j) / sr
			tone := math.Sin(2 * math.Pi * snareToneHz * tau)
			noise := hashSigned(uint64(offset+j), saltSnare)
			decay := math.Pow(1-tau/snareDuration, 3)
			buf[offset+j] += (0.4*tone + 0.6*noise) * decay * snareGain
		}

	case hiHat:
		n := int(hiHatDuration * sr)
		// first difference of white noise
		highPass := filters.NewPreEmphasis(1)
		highPass.Prime(hashSigned(uint64(offset), saltHiHat))
		for j := 0; j < n && offset+j < len(buf); j++ {
			tau := float64(j) / sr
			bright := 0.5 * highPass.Process(hashSigned(uint64(offset+j+1), saltHiHat))
			decay := math.Pow(1-tau/hiHatDuration, 4)
			buf[offset+j] += bright * decay * hiHatGain
		}
	}
}
