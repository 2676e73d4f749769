package stitch

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speech-scribe-go/internal/chunkplan"
	"speech-scribe-go/internal/types"
)

func TestOverlapBoundaryFiltering(t *testing.T) {
	// Two windows [0,10) and [8,18) sharing 2s; effective boundary for the
	// second window is 8 + 1 = 9.
	s := New(2)
	s.AddChunk(chunkplan.Chunk{Start: 0, End: 10}, []types.WordToken{
		{Text: " hello", Start: 1.5, End: 1.9},
		{Text: " there", Start: 8.2, End: 8.6},
	})
	s.AddChunk(chunkplan.Chunk{Start: 8, End: 18}, []types.WordToken{
		{Text: " there", Start: 0.3, End: 0.7}, // global 8.3, before boundary
		{Text: " friend", Start: 1.5, End: 1.9}, // global 9.5, kept
	})

	res := s.Result()
	require.Len(t, res.Words, 3)
	assert.Equal(t, " hello", res.Words[0].Text)
	assert.Equal(t, " there", res.Words[1].Text)
	assert.Equal(t, 8.2, res.Words[1].Start)
	assert.Equal(t, " friend", res.Words[2].Text)
	assert.Equal(t, 9.5, res.Words[2].Start)
}

func TestFirstChunkKeepsEverything(t *testing.T) {
	s := New(30)
	s.AddChunk(chunkplan.Chunk{Start: 0, End: 300}, []types.WordToken{
		{Text: " a", Start: 0.0, End: 0.2},
		{Text: " b", Start: 14.9, End: 15.1},
	})
	res := s.Result()
	assert.Len(t, res.Words, 2)
}

func TestOffsetTranslationRoundsToMillis(t *testing.T) {
	s := New(0)
	s.AddChunk(chunkplan.Chunk{Start: 270, End: 540}, []types.WordToken{
		{Text: " x", Start: 0.10004, End: 0.49996},
	})
	res := s.Result()
	require.Len(t, res.Words, 1)
	assert.Equal(t, 270.1, res.Words[0].Start)
	assert.Equal(t, 270.5, res.Words[0].End)
}

func TestExactDuplicatesDropped(t *testing.T) {
	// A word passing the boundary test in both windows must appear once.
	s := New(2)
	s.AddChunk(chunkplan.Chunk{Start: 0, End: 10}, []types.WordToken{
		{Text: " same", Start: 9.5, End: 9.8},
	})
	s.AddChunk(chunkplan.Chunk{Start: 8, End: 18}, []types.WordToken{
		{Text: " same", Start: 1.5, End: 1.8}, // global 9.5-9.8
	})
	res := s.Result()
	require.Len(t, res.Words, 1)
	assert.Equal(t, " same", res.Words[0].Text)
}

func TestResultSortedByStart(t *testing.T) {
	s := New(2)
	s.AddChunk(chunkplan.Chunk{Start: 0, End: 10}, []types.WordToken{
		{Text: " c", Start: 5.0, End: 5.2},
		{Text: " a", Start: 1.0, End: 1.2},
	})
	s.AddChunk(chunkplan.Chunk{Start: 8, End: 18}, []types.WordToken{
		{Text: " d", Start: 4.0, End: 4.2},
		{Text: " b", Start: 1.2, End: 1.4},
	})
	res := s.Result()
	assert.True(t, sort.SliceIsSorted(res.Words, func(i, j int) bool {
		return res.Words[i].Start < res.Words[j].Start
	}))
}

func TestInvalidTokensDropped(t *testing.T) {
	nan := func() float64 { var z float64; return z / z }()
	s := New(0)
	s.AddChunk(chunkplan.Chunk{Start: 0, End: 10}, []types.WordToken{
		{Text: " bad", Start: nan, End: 1.0},
		{Text: " good", Start: 1.0, End: 1.4},
	})
	res := s.Result()
	require.Len(t, res.Words, 1)
	assert.Equal(t, " good", res.Words[0].Text)
}

func TestDiagnosticTextConcatenatesWindows(t *testing.T) {
	s := New(2)
	s.AddChunk(chunkplan.Chunk{Start: 0, End: 10}, []types.WordToken{
		{Text: " hello", Start: 1.0, End: 1.4},
	})
	s.AddChunk(chunkplan.Chunk{Start: 8, End: 18}, []types.WordToken{
		{Text: " world", Start: 2.0, End: 2.4},
	})
	res := s.Result()
	assert.Equal(t, "hello world", res.Text)
}
