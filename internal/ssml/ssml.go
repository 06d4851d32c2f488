package ssml

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Prosody ranges accepted by the synthesis engine.
const (
	MinRate  = 0.25
	MaxRate  = 1.5
	RateStep = 0.05

	MinPitch = -20
	MaxPitch = 20

	DefaultRate  = 1.0
	DefaultPitch = 0
)

// Prosody shapes how the text is spoken.
type Prosody struct {
	// Rate is the speaking rate as a fraction of normal speed.
	Rate float64
	// Pitch is the offset from the voice's natural pitch in semitones.
	Pitch int
}

// DefaultProsody returns normal speed at natural pitch.
func DefaultProsody() Prosody {
	return Prosody{Rate: DefaultRate, Pitch: DefaultPitch}
}

// RateAttr renders the rate as a rounded percentage, e.g. "70%".
func (p Prosody) RateAttr() string {
	return fmt.Sprintf("%d%%", int(math.Round(p.Rate*100)))
}

// PitchAttr renders the pitch as signed semitones, e.g. "-3st" or "+2st".
func (p Prosody) PitchAttr() string {
	return fmt.Sprintf("%+dst", p.Pitch)
}

// Clamp returns p with both values forced into the accepted ranges.
func (p Prosody) Clamp() Prosody {
	return Prosody{Rate: ClampRate(p.Rate), Pitch: ClampPitch(p.Pitch)}
}

// Build wraps text in a prosody element inside a speak root. The text is
// NFC-normalized and XML-escaped. The prosody values are used as given.
func Build(text string, p Prosody) string {
	var b strings.Builder
	b.Grow(len(text) + 64)

	b.WriteString(`<speak><prosody rate="`)
	b.WriteString(p.RateAttr())
	b.WriteString(`" pitch="`)
	b.WriteString(p.PitchAttr())
	b.WriteString(`">`)
	b.WriteString(escape(norm.NFC.String(text)))
	b.WriteString(`</prosody></speak>`)

	return b.String()
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escape(s string) string {
	return escaper.Replace(s)
}

// ClampRate limits rate to [MinRate, MaxRate] and snaps it to RateStep.
// NaN becomes DefaultRate.
func ClampRate(rate float64) float64 {
	if math.IsNaN(rate) {
		return DefaultRate
	}
	rate = math.Max(MinRate, math.Min(MaxRate, rate))
	steps := math.Round(rate / RateStep)
	// Round to two decimals so 0.7 stays 0.7 rather than 0.7000000000000001.
	return math.Round(steps*RateStep*100) / 100
}

// ClampPitch limits pitch to [MinPitch, MaxPitch].
func ClampPitch(pitch int) int {
	if pitch < MinPitch {
		return MinPitch
	}
	if pitch > MaxPitch {
		return MaxPitch
	}
	return pitch
}

// StepRate moves rate by n steps and clamps the result.
func StepRate(rate float64, n int) float64 {
	return ClampRate(rate + float64(n)*RateStep)
}
