// Package engine reaches the external diarization and transcription models.
// The pipeline core only sees the two interfaces below; concrete adapters
// speak HTTP to a model sidecar or exec a helper binary.
package engine

import (
	"context"

	"speech-scribe-go/internal/types"
)

// Diarizer produces a speaker timeline for a whole recording.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) (types.Timeline, error)
}

// Transcriber produces word-level tokens, in audio-local time, for one
// audio file (the full recording or a single chunk).
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*types.ASRResult, error)
}
