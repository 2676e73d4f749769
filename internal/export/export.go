// Package export writes the final segment sequence in the supported output
// formats. The plain text format is the canonical transcript artifact; the
// other formats are convenience exports of the same data.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"speech-scribe-go/internal/types"
)

// EmptyTranscriptLine is written when a run completes with zero segments.
// An empty result is a successful run, not an error.
const EmptyTranscriptLine = "No speech segments identified or combined."

// WriteText writes the canonical transcript: one line per segment,
// `[<speaker>] (<start>s - <end>s): <text>` with timestamps to 2 decimals.
func WriteText(path string, segments []types.Segment) error {
	var b strings.Builder
	if len(segments) == 0 {
		b.WriteString(EmptyTranscriptLine + "\n")
	}
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s] (%.2fs - %.2fs): %s\n", seg.Speaker, seg.Start, seg.End, text)
	}
	return atomicWrite(path, []byte(b.String()))
}

// WriteSRT writes a SubRip subtitle file with the speaker prefixed to each
// cue's text.
func WriteSRT(path string, segments []types.Segment) error {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", srtTimestamp(seg.Start), srtTimestamp(seg.End))
		fmt.Fprintf(&b, "%s: %s\n", seg.Speaker, strings.TrimSpace(seg.Text))
	}
	return atomicWrite(path, []byte(b.String()))
}

// WriteJSON writes the segment list as a JSON array.
func WriteJSON(path string, segments []types.Segment) error {
	if segments == nil {
		segments = []types.Segment{}
	}
	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	return atomicWrite(path, append(data, '\n'))
}

// WriteXLSX writes the segments as a spreadsheet, one row per segment.
func WriteXLSX(path string, segments []types.Segment) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"Speaker", "Start (s)", "End (s)", "Text"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for row, seg := range segments {
		values := []any{seg.Speaker, seg.Start, seg.End, strings.TrimSpace(seg.Text)}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// WriteAll writes the canonical text transcript plus any extra formats.
// basePath is the output path without extension. Failures are collected so
// one bad format does not stop the others.
func WriteAll(basePath string, segments []types.Segment, extraFormats []string) error {
	var errs []string
	if err := WriteText(basePath+".txt", segments); err != nil {
		errs = append(errs, fmt.Sprintf("txt: %v", err))
	}
	for _, f := range extraFormats {
		var err error
		switch f {
		case "srt":
			err = WriteSRT(basePath+".srt", segments)
		case "json":
			err = WriteJSON(basePath+".json", segments)
		case "xlsx":
			err = WriteXLSX(basePath+".xlsx", segments)
		default:
			errs = append(errs, fmt.Sprintf("unknown format %q", f))
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", f, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("transcript write errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func srtTimestamp(sec float64) string {
	d := time.Duration(sec * float64(time.Second))
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// atomicWrite writes data to path via a temp file + rename so a crashed run
// never leaves a partial transcript behind.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "transcript-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing transcript: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming transcript: %w", err)
	}
	return nil
}
