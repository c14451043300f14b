package synth

import (
	"math"
	"slices"

	"github.com/RyanBlaney/sonido-xform/algorithms/common"
	"github.com/RyanBlaney/sonido-xform/timeline"
)

// Style ranges. Out-of-range values are clamped, never rejected.
const (
	MaxSwing     = 0.35
	MaxHumanize  = 0.4
	MinPolyphony = 1
	MaxPolyphony = 3
)

// StyleParams controls how a timeline is turned into audio
type StyleParams struct {
	Layering   []Oscillator       `json:"layering" yaml:"layering"`     // primary layer first
	Swing      float64            `json:"swing" yaml:"swing"`           // 0-0.35, delay fraction for alternate notes
	Humanize   float64            `json:"humanize" yaml:"humanize"`     // 0-0.4, timing/velocity jitter
	Polyphony  int                `json:"polyphony" yaml:"polyphony"`   // 1-3 voices
	Percussion bool               `json:"percussion" yaml:"percussion"` // add a 4/4 drum layer
	Scale      timeline.ScaleKind `json:"scale" yaml:"scale"`           // selects the harmony third
}

// DefaultStyle returns saw+sine layering, no swing, light humanize, one voice, no drums, major
func DefaultStyle() StyleParams {
	return StyleParams{
		Layering:   []Oscillator{Saw, Sine},
		Swing:      0,
		Humanize:   0.1,
		Polyphony:  1,
		Percussion: false,
		Scale:      timeline.Major,
	}
}

// Normalized returns a copy with every field clamped into range. An empty
// layering becomes a single sine layer.
func (s StyleParams) Normalized() StyleParams {
	out := s
	out.Layering = slices.Clone(s.Layering)
	if len(out.Layering) == 0 {
		out.Layering = []Oscillator{Sine}
	}
	for i, osc := range out.Layering {
		if osc < Sine || osc > Saw {
			out.Layering[i] = Sine
		}
	}

	out.Swing = clampFinite(s.Swing, 0, MaxSwing)
	out.Humanize = clampFinite(s.Humanize, 0, MaxHumanize)
	out.Polyphony = common.ClampInt(s.Polyphony, MinPolyphony, MaxPolyphony)
	if out.Scale != timeline.Minor {
		out.Scale = timeline.Major
	}
	return out
}

func clampFinite(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return common.Clamp(v, lo, hi)
}
