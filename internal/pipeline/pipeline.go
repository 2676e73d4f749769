// Package pipeline sequences diarization, transcription, alignment and
// merging for one recording, and owns every caching and failure decision
// along the way.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"speech-scribe-go/internal/align"
	"speech-scribe-go/internal/cache"
	"speech-scribe-go/internal/chunkplan"
	"speech-scribe-go/internal/combine"
	"speech-scribe-go/internal/config"
	"speech-scribe-go/internal/engine"
	"speech-scribe-go/internal/export"
	"speech-scribe-go/internal/stitch"
	"speech-scribe-go/internal/types"
)

// AudioToolkit is the slice of media handling the orchestrator needs:
// metadata probing and per-window extraction.
type AudioToolkit interface {
	Duration(ctx context.Context, path string) (float64, error)
	ExportWindow(ctx context.Context, src string, c chunkplan.Chunk, destDir string) (string, error)
}

// Orchestrator runs the full pipeline for one input file. Stages run
// strictly in sequence; any fatal stage error aborts the run and no segment
// list is returned.
type Orchestrator struct {
	cfg         *config.Config
	log         *logrus.Entry
	diarizer    engine.Diarizer
	transcriber engine.Transcriber
	store       *cache.Store
	audio       AudioToolkit
}

func New(cfg *config.Config, log *logrus.Entry, d engine.Diarizer, t engine.Transcriber, store *cache.Store, audio AudioToolkit) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		log:         log,
		diarizer:    d,
		transcriber: t,
		store:       store,
		audio:       audio,
	}
}

// Run executes diarization → ASR → alignment → merge → persist and returns
// the final segments. Alignment and merging are recomputed on every run so
// the output always reflects the current diarization/ASR combination.
func (o *Orchestrator) Run(ctx context.Context) ([]types.Segment, error) {
	o.log.WithField("audio_file", o.cfg.AudioFile).Info("starting pipeline")

	duration, err := o.audio.Duration(ctx, o.cfg.AudioFile)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}
	chunked := o.decideChunking(duration)
	o.log.WithFields(logrus.Fields{
		"duration_s": fmt.Sprintf("%.2f", duration),
		"chunked":    chunked,
	}).Info("chunking decision")

	timeline, err := o.runDiarization(ctx)
	if err != nil {
		return nil, fmt.Errorf("diarization stage: %w", err)
	}
	o.log.WithField("intervals", len(timeline)).Info("diarization step completed")

	asr, err := o.runASR(ctx, duration, chunked)
	if err != nil {
		return nil, fmt.Errorf("asr stage: %w", err)
	}
	o.log.WithField("words", len(asr.Words)).Info("asr step completed")

	if len(asr.Words) == 0 {
		o.log.Warn("asr found no words")
		if err := o.persist(nil); err != nil {
			return nil, err
		}
		return []types.Segment{}, nil
	}

	segments := o.mergeSegments(timeline, asr)
	o.log.WithField("segments", len(segments)).Info("combination step completed")

	if err := o.persist(segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// decideChunking applies the batching policy: an explicit setting wins,
// otherwise chunking turns on only past the configured threshold. A
// recording that fits in a single window is always processed single-shot,
// whatever the setting, so the cache key and the work match reality.
func (o *Orchestrator) decideChunking(duration float64) bool {
	if duration <= o.cfg.ChunkDurationS {
		return false
	}
	switch o.cfg.Chunking {
	case config.ChunkingOn:
		return true
	case config.ChunkingOff:
		return false
	default:
		return duration > o.cfg.ChunkThresholdS
	}
}

func (o *Orchestrator) runDiarization(ctx context.Context) (types.Timeline, error) {
	key := cache.DiarizationKey(o.cfg.Stem())
	var cached types.Timeline
	if o.store.Get(key, &cached, o.cfg.ForceDiarization) {
		return cached, nil
	}

	// Diarization always sees the whole file; it is never chunked.
	o.log.Info("performing speaker diarization on full audio")
	timeline, err := o.diarizer.Diarize(ctx, o.cfg.AudioFile)
	if err != nil {
		return nil, err
	}
	if err := timeline.Validate(); err != nil {
		return nil, fmt.Errorf("diarization result: %w", err)
	}
	if err := o.store.Put(key, timeline); err != nil {
		return nil, err
	}
	return timeline, nil
}

func (o *Orchestrator) runASR(ctx context.Context, duration float64, chunked bool) (*types.ASRResult, error) {
	key := cache.ASRKey(o.cfg.Stem(), o.cfg.ASRModel, chunked)
	var cached types.ASRResult
	if o.store.Get(key, &cached, o.cfg.ForceASR) {
		return &cached, nil
	}

	var result *types.ASRResult
	var err error
	if chunked {
		result, err = o.runChunkedASR(ctx, duration)
	} else {
		o.log.Info("performing asr on full audio")
		result, err = o.transcriber.Transcribe(ctx, o.cfg.AudioFile)
	}
	if err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("asr result: %w", err)
	}
	if err := o.store.Put(key, result); err != nil {
		return nil, err
	}
	return result, nil
}

// runChunkedASR plans the windows, transcribes them one at a time and
// stitches the streams. Windows are processed sequentially: the engine
// handle is not assumed safe for concurrent calls. Each exported window is
// a scoped file, removed on every exit path.
func (o *Orchestrator) runChunkedASR(ctx context.Context, duration float64) (*types.ASRResult, error) {
	chunks, err := chunkplan.Plan(duration, o.cfg.ChunkDurationS, o.cfg.ChunkOverlapS)
	if err != nil {
		return nil, err
	}
	o.log.WithField("chunks", len(chunks)).Info("performing asr in windows")

	workDir, err := os.MkdirTemp("", "scribe-chunks-*")
	if err != nil {
		return nil, fmt.Errorf("chunk workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	stitcher := stitch.New(o.cfg.ChunkOverlapS)
	for _, c := range chunks {
		if err := o.transcribeWindow(ctx, c, workDir, stitcher); err != nil {
			// One failed window invalidates the whole stage; a transcript
			// with a silent hole is worse than no transcript.
			return nil, fmt.Errorf("window [%.2f, %.2f): %w", c.Start, c.End, err)
		}
	}
	return stitcher.Result(), nil
}

func (o *Orchestrator) transcribeWindow(ctx context.Context, c chunkplan.Chunk, workDir string, stitcher *stitch.Stitcher) error {
	path, err := o.audio.ExportWindow(ctx, o.cfg.AudioFile, c, workDir)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	res, err := o.transcriber.Transcribe(ctx, path)
	if err != nil {
		return err
	}
	if err := res.Validate(); err != nil {
		return err
	}
	o.log.WithFields(logrus.Fields{
		"window_start": fmt.Sprintf("%.2f", c.Start),
		"words":        len(res.Words),
	}).Debug("window transcribed")
	stitcher.AddChunk(c, res.Words)
	return nil
}

// mergeSegments aligns each word to a speaker by its midpoint and folds the
// labeled stream into speaker turns. Individual malformed words are dropped
// here, never escalated.
func (o *Orchestrator) mergeSegments(timeline types.Timeline, asr *types.ASRResult) []types.Segment {
	aligner := align.New(timeline)
	merger := combine.NewMerger(o.cfg.MergeGapS)
	for i, w := range asr.Words {
		if err := w.Validate(); err != nil {
			o.log.WithError(err).WithField("word_index", i).Warn("skipping malformed word")
			continue
		}
		w = w.Clamp()
		merger.Add(aligner.SpeakerAt(w.Mid()), w.Text, w.Start, w.End)
	}
	return merger.Finish()
}

func (o *Orchestrator) persist(segments []types.Segment) error {
	base := o.cfg.TranscriptBase()
	if err := export.WriteAll(base, segments, o.cfg.ExtraFormats); err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}
	o.log.WithField("transcript", base+".txt").Info("transcript saved")
	return nil
}
