// Package align maps word timestamps onto a diarization timeline.
package align

import (
	"math"

	"speech-scribe-go/internal/types"
)

// UnknownSpeaker is the label returned when no interval contains the
// timestamp, or the timeline cannot be inspected at all.
const UnknownSpeaker = "UNKNOWN_SPEAKER"

// Aligner answers "who was speaking at time t" against a fixed timeline.
type Aligner struct {
	timeline types.Timeline
}

// New wraps a timeline for speaker lookup. The timeline is used in its given
// iteration order; it is not sorted or deduplicated here.
func New(tl types.Timeline) *Aligner {
	return &Aligner{timeline: tl}
}

// SpeakerAt returns the label of the first interval with start <= t < end.
// Timelines may contain overlapping intervals for simultaneous speech; the
// first match in iteration order wins so repeated runs give the same answer.
// A timestamp outside every interval, or an unusable timestamp, falls back
// to UnknownSpeaker rather than failing the lookup.
func (a *Aligner) SpeakerAt(t float64) string {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return UnknownSpeaker
	}
	for _, iv := range a.timeline {
		if iv.Start <= t && t < iv.End {
			return iv.Speaker
		}
	}
	return UnknownSpeaker
}
