// Package chunkplan divides a recording's duration into overlapping
// fixed-size processing windows for batched transcription.
package chunkplan

import "fmt"

// Chunk is one processing window in global recording time, seconds.
type Chunk struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the window length in seconds.
func (c Chunk) Duration() float64 { return c.End - c.Start }

// Plan computes the ordered windows covering [0, total). Windows are
// chunkDur seconds long and consecutive windows share overlap seconds; the
// final window is clipped to total instead of overshooting. A configuration
// where overlap does not leave a positive step is rejected before any window
// is computed.
func Plan(total, chunkDur, overlap float64) ([]Chunk, error) {
	if total < 0 {
		return nil, fmt.Errorf("chunkplan: negative total duration %.3fs", total)
	}
	if chunkDur <= 0 {
		return nil, fmt.Errorf("chunkplan: chunk duration must be positive, got %.3fs", chunkDur)
	}
	if overlap < 0 || overlap >= chunkDur {
		return nil, fmt.Errorf("chunkplan: overlap %.3fs must satisfy 0 <= overlap < chunk duration %.3fs", overlap, chunkDur)
	}

	if total <= chunkDur {
		return []Chunk{{Start: 0, End: total}}, nil
	}

	step := chunkDur - overlap
	var chunks []Chunk
	for i := 0; ; i++ {
		start := float64(i) * step
		if start >= total {
			break
		}
		end := start + chunkDur
		if end > total {
			end = total
		}
		chunks = append(chunks, Chunk{Start: start, End: end})
		if end >= total {
			break
		}
	}
	return chunks, nil
}
