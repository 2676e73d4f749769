package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speech-scribe-go/internal/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(os.Stderr)
	s, err := NewStore(t.TempDir(), logrus.NewEntry(log))
	require.NoError(t, err)
	return s
}

func TestPutThenGetRoundTrip(t *testing.T) {
	s := testStore(t)
	in := types.Timeline{
		{Start: 0, End: 2.5, Speaker: "SPEAKER_00"},
		{Start: 2.5, End: 4.0, Speaker: "SPEAKER_01"},
	}
	require.NoError(t, s.Put(DiarizationKey("meeting"), in))

	var out types.Timeline
	ok := s.Get(DiarizationKey("meeting"), &out, false)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestGetMissingKey(t *testing.T) {
	s := testStore(t)
	var out types.Timeline
	assert.False(t, s.Get(DiarizationKey("absent"), &out, false))
}

func TestForceRecomputeBypassesRead(t *testing.T) {
	s := testStore(t)
	in := types.Timeline{{Start: 0, End: 1, Speaker: "SPEAKER_00"}}
	require.NoError(t, s.Put(DiarizationKey("meeting"), in))

	var out types.Timeline
	assert.False(t, s.Get(DiarizationKey("meeting"), &out, true))
	// A later non-forced read still sees the entry.
	assert.True(t, s.Get(DiarizationKey("meeting"), &out, false))
}

func TestCorruptEntryReadsAsMiss(t *testing.T) {
	s := testStore(t)
	key := DiarizationKey("meeting")
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, key), []byte("{not json"), 0o644))

	var out types.Timeline
	assert.False(t, s.Get(key, &out, false))
}

func TestWrongShapeReadsAsMiss(t *testing.T) {
	s := testStore(t)
	key := ASRKey("meeting", "openai/whisper-small", false)
	// Decodes fine but fails shape validation: no word list.
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, key), []byte(`{"text":"hi"}`), 0o644))

	var out types.ASRResult
	assert.False(t, s.Get(key, &out, false))
}

func TestPutOverwrites(t *testing.T) {
	s := testStore(t)
	key := DiarizationKey("meeting")
	require.NoError(t, s.Put(key, types.Timeline{{Start: 0, End: 1, Speaker: "OLD"}}))
	require.NoError(t, s.Put(key, types.Timeline{{Start: 0, End: 1, Speaker: "NEW"}}))

	var out types.Timeline
	require.True(t, s.Get(key, &out, false))
	require.Len(t, out, 1)
	assert.Equal(t, "NEW", out[0].Speaker)
}

func TestKeyNaming(t *testing.T) {
	assert.Equal(t, "call.diarization.json", DiarizationKey("call"))
	assert.Equal(t, "call_readerbench_whisper-ro.asr.json", ASRKey("call", "readerbench/whisper-ro", false))
	assert.Equal(t, "call_readerbench_whisper-ro.asr_chunked.json", ASRKey("call", "readerbench/whisper-ro", true))
}
