// Package config holds the pipeline settings. Values come from defaults, an
// optional YAML file, then environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"speech-scribe-go/internal/cache"
)

// Chunking modes. Auto enables batched transcription only when the
// recording is longer than ChunkThresholdS.
const (
	ChunkingAuto = "auto"
	ChunkingOn   = "on"
	ChunkingOff  = "off"
)

// Engine modes select how the external models are reached.
const (
	EngineHTTP    = "http"
	EngineCommand = "command"
)

type Config struct {
	AudioFile string `yaml:"audio_file"`
	OutputDir string `yaml:"output_dir"`

	DiarizationModel string `yaml:"diarization_model"`
	ASRModel         string `yaml:"asr_model"`

	// External engine wiring
	DiarizerMode       string `yaml:"diarizer_mode"`       // http | command
	TranscriberMode    string `yaml:"transcriber_mode"`    // http | command
	DiarizerURL        string `yaml:"diarizer_url"`
	TranscriberURL     string `yaml:"transcriber_url"`
	DiarizerCommand    string `yaml:"diarizer_command"`
	TranscriberCommand string `yaml:"transcriber_command"`

	ForceDiarization bool `yaml:"force_diarization"`
	ForceASR         bool `yaml:"force_asr"`

	Chunking        string  `yaml:"chunking"` // auto | on | off
	ChunkThresholdS float64 `yaml:"chunk_threshold_s"`
	ChunkDurationS  float64 `yaml:"chunk_duration_s"`
	ChunkOverlapS   float64 `yaml:"chunk_overlap_s"`

	MergeGapS float64 `yaml:"merge_gap_s"`

	// Extra transcript outputs beside the plain text file: srt, xlsx, json.
	ExtraFormats []string `yaml:"extra_formats"`
}

// Default returns the baseline configuration matching the pipeline's stock
// behavior: 5-minute windows, 30s overlap, chunking auto-enabled past 10
// minutes, 1s merge gap.
func Default() *Config {
	return &Config{
		OutputDir:        "./diarization_output",
		DiarizationModel: "pyannote/speaker-diarization-3.1",
		ASRModel:         "readerbench/whisper-ro",
		DiarizerMode:     EngineHTTP,
		TranscriberMode:  EngineHTTP,
		DiarizerURL:      "http://localhost:9090",
		TranscriberURL:   "http://localhost:9091",
		Chunking:         ChunkingAuto,
		ChunkThresholdS:  600,
		ChunkDurationS:   300,
		ChunkOverlapS:    30,
		MergeGapS:        1.0,
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.OutputDir = getEnv("OUTPUT_DIR", c.OutputDir)
	c.DiarizationModel = getEnv("DIARIZATION_MODEL", c.DiarizationModel)
	c.ASRModel = getEnv("ASR_MODEL", c.ASRModel)
	c.DiarizerMode = getEnv("DIARIZER_MODE", c.DiarizerMode)
	c.TranscriberMode = getEnv("TRANSCRIBER_MODE", c.TranscriberMode)
	c.DiarizerURL = getEnv("DIARIZER_URL", c.DiarizerURL)
	c.TranscriberURL = getEnv("TRANSCRIBER_URL", c.TranscriberURL)
	c.DiarizerCommand = getEnv("DIARIZER_COMMAND", c.DiarizerCommand)
	c.TranscriberCommand = getEnv("TRANSCRIBER_COMMAND", c.TranscriberCommand)
	c.Chunking = getEnv("ASR_CHUNKING", c.Chunking)
	c.ChunkThresholdS = getEnvFloat("CHUNK_THRESHOLD_S", c.ChunkThresholdS)
	c.ChunkDurationS = getEnvFloat("CHUNK_DURATION_S", c.ChunkDurationS)
	c.ChunkOverlapS = getEnvFloat("CHUNK_OVERLAP_S", c.ChunkOverlapS)
	c.MergeGapS = getEnvFloat("MERGE_GAP_S", c.MergeGapS)
}

// Validate rejects configurations the pipeline cannot run with. All problems
// are reported at once. The degenerate overlap configuration in particular
// must fail here, before any chunk is planned.
func (c *Config) Validate() error {
	var errs []string
	if c.AudioFile == "" {
		errs = append(errs, "audio file path is required")
	}
	if c.OutputDir == "" {
		errs = append(errs, "output directory is required")
	}
	if c.ChunkDurationS <= 0 {
		errs = append(errs, fmt.Sprintf("chunk duration must be positive, got %.1fs", c.ChunkDurationS))
	}
	if c.ChunkOverlapS < 0 || c.ChunkOverlapS >= c.ChunkDurationS {
		errs = append(errs, fmt.Sprintf("chunk overlap %.1fs must satisfy 0 <= overlap < chunk duration %.1fs", c.ChunkOverlapS, c.ChunkDurationS))
	}
	switch c.Chunking {
	case ChunkingAuto, ChunkingOn, ChunkingOff:
	default:
		errs = append(errs, fmt.Sprintf("chunking must be auto, on or off, got %q", c.Chunking))
	}
	for _, mode := range []string{c.DiarizerMode, c.TranscriberMode} {
		if mode != EngineHTTP && mode != EngineCommand {
			errs = append(errs, fmt.Sprintf("engine mode must be http or command, got %q", mode))
		}
	}
	for _, f := range c.ExtraFormats {
		switch f {
		case "srt", "xlsx", "json":
		default:
			errs = append(errs, fmt.Sprintf("unknown extra format %q", f))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Stem is the input file's identity for cache and output naming.
func (c *Config) Stem() string {
	base := filepath.Base(c.AudioFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TranscriptBase is the output file path without extension.
func (c *Config) TranscriptBase() string {
	name := fmt.Sprintf("%s_%s.diarized_transcript", c.Stem(), cache.ModelSlug(c.ASRModel))
	return filepath.Join(c.OutputDir, name)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
