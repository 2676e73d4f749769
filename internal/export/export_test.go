package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"speech-scribe-go/internal/types"
)

func sampleSegments() []types.Segment {
	return []types.Segment{
		{Speaker: "SPEAKER_00", Text: "Good morning everyone.", Start: 0.0, End: 2.48},
		{Speaker: "SPEAKER_01", Text: "Morning, shall we start?", Start: 3.1, End: 5.0},
	}
}

func TestWriteTextExactFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, WriteText(path, sampleSegments()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "[SPEAKER_00] (0.00s - 2.48s): Good morning everyone.\n" +
		"[SPEAKER_01] (3.10s - 5.00s): Morning, shall we start?\n"
	assert.Equal(t, want, string(data))
}

func TestWriteTextEmptySegments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, WriteText(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "No speech segments identified or combined.\n", string(data))
}

func TestWriteSRT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	require.NoError(t, WriteSRT(path, sampleSegments()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(data)
	assert.Contains(t, got, "1\n00:00:00,000 --> 00:00:02,480\nSPEAKER_00: Good morning everyone.")
	assert.Contains(t, got, "2\n00:00:03,100 --> 00:00:05,000\nSPEAKER_01: Morning, shall we start?")
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteJSON(path, sampleSegments()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"SPEAKER_00"`)
	assert.Contains(t, string(data), `"Good morning everyone."`)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, sampleSegments()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Speaker", rows[0][0])
	assert.Equal(t, "SPEAKER_00", rows[1][0])
	assert.Equal(t, "Good morning everyone.", rows[1][3])
}

func TestWriteAllCollectsFailures(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	err := WriteAll(base, sampleSegments(), []string{"srt", "gopher"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gopher")
	// The good formats were still written.
	assert.FileExists(t, base+".txt")
	assert.FileExists(t, base+".srt")
}
