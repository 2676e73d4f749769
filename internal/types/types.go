package types

import (
	"fmt"
	"math"
	"strings"
)

// MinWordDuration is the duration assigned to a word whose reported end time
// does not come after its start time. Such words are kept rather than dropped
// so no recognized text is lost.
const MinWordDuration = 0.1

// WordToken is a single transcribed word with global timestamps in seconds.
// The Text field carries its own leading/trailing spacing as produced by the
// ASR engine; concatenating token texts reproduces the transcript verbatim.
type WordToken struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Validate reports whether the token's timestamps are usable numbers.
func (w WordToken) Validate() error {
	if math.IsNaN(w.Start) || math.IsInf(w.Start, 0) {
		return fmt.Errorf("word %q: invalid start timestamp", w.Text)
	}
	if math.IsNaN(w.End) || math.IsInf(w.End, 0) {
		return fmt.Errorf("word %q: invalid end timestamp", w.Text)
	}
	return nil
}

// Clamp returns a copy with a guaranteed positive duration. Words reported
// with end <= start get end = start + MinWordDuration.
func (w WordToken) Clamp() WordToken {
	if w.End <= w.Start {
		w.End = w.Start + MinWordDuration
	}
	return w
}

// Mid returns the word's midpoint timestamp, used for speaker lookup.
func (w WordToken) Mid() float64 {
	return w.Start + (w.End-w.Start)/2.0
}

// ASRResult is the output of one transcription call: word-level tokens plus
// the engine's own full-text rendering. The full text is diagnostic only;
// the final transcript is always rebuilt from the word stream.
type ASRResult struct {
	Words []WordToken `json:"words"`
	Text  string      `json:"text"`
}

// Validate checks the artifact shape. A nil word list means the result does
// not carry word timestamps at all and cannot be aligned.
func (r *ASRResult) Validate() error {
	if r == nil {
		return fmt.Errorf("asr result is nil")
	}
	if r.Words == nil {
		return fmt.Errorf("asr result has no word list")
	}
	return nil
}

// SpeakerInterval is one diarization turn: a speaker active on [Start, End).
type SpeakerInterval struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Timeline is the full diarization output. Intervals are not assumed sorted
// or disjoint; different speakers may overlap.
type Timeline []SpeakerInterval

// Validate checks the artifact shape: every interval must be a real span.
func (t Timeline) Validate() error {
	if t == nil {
		return fmt.Errorf("timeline is nil")
	}
	for i, iv := range t {
		if math.IsNaN(iv.Start) || math.IsNaN(iv.End) || iv.Start >= iv.End {
			return fmt.Errorf("timeline interval %d: bad span [%v, %v)", i, iv.Start, iv.End)
		}
	}
	return nil
}

// Segment is a maximal run of words attributed to one speaker.
type Segment struct {
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Empty reports whether the segment holds no visible text.
func (s Segment) Empty() bool {
	return strings.TrimSpace(s.Text) == ""
}
