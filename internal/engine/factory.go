package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"speech-scribe-go/internal/config"
)

// NewDiarizer builds the configured diarization adapter.
func NewDiarizer(cfg *config.Config, log *logrus.Entry) (Diarizer, error) {
	switch cfg.DiarizerMode {
	case config.EngineHTTP:
		return NewHTTPDiarizer(cfg.DiarizerURL, cfg.DiarizationModel, log), nil
	case config.EngineCommand:
		if cfg.DiarizerCommand == "" {
			return nil, fmt.Errorf("diarizer command mode needs DIARIZER_COMMAND")
		}
		return NewCommandDiarizer(cfg.DiarizerCommand, cfg.DiarizationModel, log), nil
	default:
		return nil, fmt.Errorf("unknown diarizer mode %q", cfg.DiarizerMode)
	}
}

// NewTranscriber builds the configured transcription adapter.
func NewTranscriber(cfg *config.Config, log *logrus.Entry) (Transcriber, error) {
	switch cfg.TranscriberMode {
	case config.EngineHTTP:
		return NewHTTPTranscriber(cfg.TranscriberURL, cfg.ASRModel, log), nil
	case config.EngineCommand:
		if cfg.TranscriberCommand == "" {
			return nil, fmt.Errorf("transcriber command mode needs TRANSCRIBER_COMMAND")
		}
		return NewCommandTranscriber(cfg.TranscriberCommand, cfg.ASRModel, log), nil
	default:
		return nil, fmt.Errorf("unknown transcriber mode %q", cfg.TranscriberMode)
	}
}
