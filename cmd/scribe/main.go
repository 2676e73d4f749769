package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"

	"speech-scribe-go/internal/cache"
	"speech-scribe-go/internal/config"
	"speech-scribe-go/internal/engine"
	"speech-scribe-go/internal/logger"
	"speech-scribe-go/internal/media"
	"speech-scribe-go/internal/pipeline"
	"speech-scribe-go/internal/types"
)

func main() {
	_ = godotenv.Load() // loads .env

	var (
		input        string
		configPath   string
		outputDir    string
		asrModel     string
		diarModel    string
		chunking     string
		formats      string
		forceASR     bool
		forceDiar    bool
		createDummy  bool
		watchDir     string
	)
	flag.StringVar(&input, "input", "", "path to the input audio file")
	flag.StringVar(&configPath, "config", "", "optional YAML config file")
	flag.StringVar(&outputDir, "output-dir", "", "directory for transcripts and cache")
	flag.StringVar(&asrModel, "asr-model", "", "ASR model identifier")
	flag.StringVar(&diarModel, "diarization-model", "", "diarization model identifier")
	flag.StringVar(&chunking, "chunking", "", "batched ASR: auto, on or off")
	flag.StringVar(&formats, "formats", "", "extra transcript formats, comma-separated (srt,json,xlsx)")
	flag.BoolVar(&forceASR, "force-recompute-asr", false, "ignore cached ASR results")
	flag.BoolVar(&forceDiar, "force-recompute-diarization", false, "ignore cached diarization results")
	flag.BoolVar(&createDummy, "create-dummy", false, "create a synthetic test WAV if the input is missing")
	flag.StringVar(&watchDir, "watch", "", "watch a directory and process audio files as they appear")
	flag.Parse()

	log := logger.New()
	log.WithField("service", "speech-scribe-go").Info("starting")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	// Flags win over file and environment.
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if asrModel != "" {
		cfg.ASRModel = asrModel
	}
	if diarModel != "" {
		cfg.DiarizationModel = diarModel
	}
	if chunking != "" {
		cfg.Chunking = chunking
	}
	if formats != "" {
		cfg.ExtraFormats = strings.Split(formats, ",")
	}
	cfg.ForceASR = forceASR
	cfg.ForceDiarization = forceDiar

	if watchDir != "" {
		if err := watchAndProcess(watchDir, cfg, log); err != nil {
			log.WithError(err).Fatal("watch mode failed")
		}
		return
	}

	if input == "" {
		log.Fatal("missing -input audio file (or use -watch)")
	}
	if _, err := os.Stat(input); err != nil {
		if !createDummy {
			log.WithError(err).Fatal("audio file not found")
		}
		input = filepath.Join(cfg.OutputDir, "dummy_audio_for_testing.wav")
		log.WithField("audio_file", input).Warn("input missing, creating dummy audio")
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			log.WithError(err).Fatal("failed to create output dir")
		}
		if err := media.WriteSineWAV(input, 10, 16000); err != nil {
			log.WithError(err).Fatal("failed to create dummy audio")
		}
	}
	cfg.AudioFile = input

	segments, err := runOne(cfg, log)
	if err != nil {
		log.WithError(err).Error("pipeline failed")
		os.Exit(1)
	}
	printTranscript(segments)
}

func runOne(cfg *config.Config, log *logger.Logger) ([]types.Segment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runLog := log.WithRun().WithField("audio_file", cfg.AudioFile)

	store, err := cache.NewStore(cfg.OutputDir, runLog)
	if err != nil {
		return nil, err
	}
	diarizer, err := engine.NewDiarizer(cfg, runLog)
	if err != nil {
		return nil, err
	}
	transcriber, err := engine.NewTranscriber(cfg, runLog)
	if err != nil {
		return nil, err
	}

	o := pipeline.New(cfg, runLog, diarizer, transcriber, store, media.FFmpeg{})
	return o.Run(context.Background())
}

func printTranscript(segments []types.Segment) {
	fmt.Println("\n--- Diarized Transcript ---")
	if len(segments) == 0 {
		fmt.Println("No segments generated/combined.")
		return
	}
	for _, seg := range segments {
		fmt.Printf("[%s] (%.2fs - %.2fs): %s\n", seg.Speaker, seg.Start, seg.End, strings.TrimSpace(seg.Text))
	}
}

var audioExts = map[string]bool{
	".wav": true, ".mp3": true, ".m4a": true, ".flac": true, ".ogg": true,
}

// watchAndProcess runs the pipeline for every audio file dropped into dir.
// Already-present files are processed on startup so a restart catches up.
func watchAndProcess(dir string, cfg *config.Config, log *logger.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.WithField("dir", dir).Info("watching for audio files")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() && audioExts[strings.ToLower(filepath.Ext(e.Name()))] {
			processWatched(filepath.Join(dir, e.Name()), cfg, log)
		}
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !audioExts[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}
			// Give the writer a moment to finish the file.
			time.Sleep(500 * time.Millisecond)
			processWatched(event.Name, cfg, log)
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			log.WithError(err).Warn("watcher error")
		}
	}
}

func processWatched(path string, cfg *config.Config, log *logger.Logger) {
	fileCfg := *cfg
	fileCfg.AudioFile = path
	if segments, err := runOne(&fileCfg, log); err != nil {
		log.WithError(err).WithField("audio_file", path).Error("pipeline failed")
	} else {
		log.WithField("audio_file", path).WithField("segments", len(segments)).Info("processed")
	}
}
