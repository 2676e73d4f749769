// Package stitch merges per-window transcription results into one global,
// time-ordered, duplicate-free word stream.
package stitch

import (
	"math"
	"sort"
	"strings"

	"speech-scribe-go/internal/chunkplan"
	"speech-scribe-go/internal/types"
)

// Stitcher accumulates word tokens chunk by chunk. Windows must be added in
// submission order so overlap bookkeeping sees the first window first; the
// final ordering is re-established by sorting, so result order does not
// depend on timing within windows.
type Stitcher struct {
	overlap   float64
	added     int
	tokens    []types.WordToken
	textParts []string
}

// New returns a Stitcher for windows sharing overlap seconds.
func New(overlap float64) *Stitcher {
	return &Stitcher{overlap: overlap}
}

// AddChunk folds one window's chunk-local tokens into the stream. Token
// timestamps are shifted into global time by the window's start offset and
// rounded to millisecond precision. For every window after the first, tokens
// starting before the midpoint of the overlap region shared with the
// previous window are discarded: the previous window already supplied that
// time range. Tokens with unusable timestamps are dropped; the rest of the
// window is still consumed.
func (s *Stitcher) AddChunk(chunk chunkplan.Chunk, words []types.WordToken) {
	// Midpoint boundary halves the shared region between neighbours. This
	// does not guarantee exact stitching when a word straddles the boundary,
	// see the dedupe pass in Result.
	boundary := chunk.Start + s.overlap/2.0
	first := s.added == 0
	s.added++

	var chunkTexts []string
	for _, w := range words {
		if w.Validate() != nil {
			continue
		}
		w.Start = roundMillis(w.Start + chunk.Start)
		w.End = roundMillis(w.End + chunk.Start)
		chunkTexts = append(chunkTexts, strings.TrimSpace(w.Text))
		if !first && w.Start < boundary {
			continue
		}
		s.tokens = append(s.tokens, w)
	}
	if text := strings.Join(chunkTexts, " "); text != "" {
		s.textParts = append(s.textParts, text)
	}
}

// Result returns the stitched stream: sorted by start time, with exact
// (start, end, text) repeats removed. The Text field concatenates each
// window's own text and serves diagnostics only; callers rebuild the final
// transcript from Words.
func (s *Stitcher) Result() *types.ASRResult {
	tokens := make([]types.WordToken, len(s.tokens))
	copy(tokens, s.tokens)
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Start < tokens[j].Start
	})

	seen := make(map[types.WordToken]struct{}, len(tokens))
	unique := make([]types.WordToken, 0, len(tokens))
	for _, w := range tokens {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		unique = append(unique, w)
	}

	return &types.ASRResult{
		Words: unique,
		Text:  strings.Join(s.textParts, " "),
	}
}

func roundMillis(v float64) float64 {
	return math.Round(v*1000) / 1000
}
