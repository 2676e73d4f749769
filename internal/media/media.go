// Package media shells out to ffmpeg/ffprobe for the audio handling the
// pipeline needs: duration probing and per-window WAV extraction.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"speech-scribe-go/internal/chunkplan"
)

// FFmpeg locates the ffmpeg/ffprobe binaries on PATH. The zero value uses
// the standard names.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
}

func (f FFmpeg) ffmpeg() string {
	if f.FFmpegPath != "" {
		return f.FFmpegPath
	}
	return "ffmpeg"
}

func (f FFmpeg) ffprobe() string {
	if f.FFprobePath != "" {
		return f.FFprobePath
	}
	return "ffprobe"
}

// Duration reads the recording length in seconds from the file's metadata.
func (f FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("audio file: %w", err)
	}
	cmd := exec.CommandContext(ctx, f.ffprobe(),
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return 0, fmt.Errorf("ffprobe %s: %s", path, strings.TrimSpace(string(ee.Stderr)))
		}
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: bad duration %q", path, strings.TrimSpace(string(out)))
	}
	return dur, nil
}

// ExportWindow extracts one processing window to a mono 16kHz WAV under
// destDir and returns its path. The caller owns the file and must remove it
// when done with the window.
func (f FFmpeg) ExportWindow(ctx context.Context, src string, c chunkplan.Chunk, destDir string) (string, error) {
	out := filepath.Join(destDir, fmt.Sprintf("chunk_%09.3f.wav", c.Start))
	cmd := exec.CommandContext(ctx, f.ffmpeg(),
		"-y", "-v", "error",
		"-ss", formatSeconds(c.Start),
		"-t", formatSeconds(c.Duration()),
		"-i", src,
		"-ac", "1", "-ar", "16000",
		"-f", "wav",
		out,
	)
	if err := cmd.Run(); err != nil {
		os.Remove(out)
		return "", fmt.Errorf("ffmpeg export window [%.3f, %.3f): %w", c.Start, c.End, err)
	}
	return out, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
