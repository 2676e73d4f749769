// Package combine folds a speaker-labeled word stream into coalesced
// speaker turns.
package combine

import (
	"strings"

	"speech-scribe-go/internal/types"
)

// DefaultGap is the silence length, in seconds, that closes a segment even
// when the speaker does not change.
const DefaultGap = 1.0

// Merger is a single-pass state machine with one open segment at a time.
// Words must arrive in stream order; emitted segments are never reopened.
type Merger struct {
	gap     float64
	current *types.Segment
	done    []types.Segment
}

// NewMerger returns a Merger splitting on speaker change or on a silence of
// at least gap seconds. A non-positive gap falls back to DefaultGap.
func NewMerger(gap float64) *Merger {
	if gap <= 0 {
		gap = DefaultGap
	}
	return &Merger{gap: gap}
}

// Add feeds the next word. Token texts carry their own spacing from the ASR
// engine, so continuation appends text verbatim with no separator.
func (m *Merger) Add(speaker, text string, start, end float64) {
	switch {
	case m.current == nil:
		m.current = &types.Segment{Speaker: speaker, Text: text, Start: start, End: end}
	case m.current.Speaker == speaker && start-m.current.End < m.gap:
		m.current.Text += text
		m.current.End = end
	default:
		m.seal()
		m.current = &types.Segment{Speaker: speaker, Text: text, Start: start, End: end}
	}
}

// Finish seals any open segment and returns the completed sequence. The
// returned slice is never nil.
func (m *Merger) Finish() []types.Segment {
	m.seal()
	if m.done == nil {
		return []types.Segment{}
	}
	return m.done
}

// seal trims and emits the open segment; whitespace-only segments are
// discarded rather than emitted.
func (m *Merger) seal() {
	if m.current == nil {
		return
	}
	m.current.Text = strings.TrimSpace(m.current.Text)
	if m.current.Text != "" {
		m.done = append(m.done, *m.current)
	}
	m.current = nil
}
