package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.AudioFile = "/recordings/standup.wav"
	return cfg
}

func TestDefaultsValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRequiresAudioFile(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio file")
}

func TestValidateRejectsDegenerateOverlap(t *testing.T) {
	cfg := validConfig()
	cfg.ChunkOverlapS = cfg.ChunkDurationS
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.ChunkDurationS = -1
	cfg.Chunking = "sometimes"
	cfg.ExtraFormats = []string{"pdf"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio file")
	assert.Contains(t, err.Error(), "chunk duration")
	assert.Contains(t, err.Error(), "chunking")
	assert.Contains(t, err.Error(), "pdf")
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scribe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"asr_model: openai/whisper-large-v3\nchunk_duration_s: 120\nextra_formats: [srt, xlsx]\n",
	), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai/whisper-large-v3", cfg.ASRModel)
	assert.Equal(t, 120.0, cfg.ChunkDurationS)
	assert.Equal(t, []string{"srt", "xlsx"}, cfg.ExtraFormats)
	// Untouched fields keep their defaults.
	assert.Equal(t, 30.0, cfg.ChunkOverlapS)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scribe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("asr_model: from-file\n"), 0o644))
	t.Setenv("ASR_MODEL", "from-env")
	t.Setenv("CHUNK_OVERLAP_S", "15")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ASRModel)
	assert.Equal(t, 15.0, cfg.ChunkOverlapS)
}

func TestStemAndTranscriptBase(t *testing.T) {
	cfg := validConfig()
	cfg.OutputDir = "/out"
	cfg.ASRModel = "readerbench/whisper-ro"
	assert.Equal(t, "standup", cfg.Stem())
	assert.Equal(t, filepath.Join("/out", "standup_readerbench_whisper-ro.diarized_transcript"), cfg.TranscriptBase())
}
