package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

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

	log := logger.New()
	log.WithField("service", "speech-scribe-go").Info("starting service")

	baseCfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	uploadDir := envOr("UPLOAD_DIR", filepath.Join(baseCfg.OutputDir, "uploads"))
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.WithError(err).Fatal("failed to create upload dir")
	}

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Info("health check")
		fmt.Fprint(w, "ok")
	})

	// diarize endpoint: multipart upload in, speaker-labeled segments out
	mux.HandleFunc("/diarize", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "diarize")
		reqLog.Info("diarize request received")

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		file, header, err := r.FormFile("audio_file")
		if err != nil {
			reqLog.WithError(err).Warn("missing audio_file")
			http.Error(w, "missing audio_file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		runID := uuid.New().String()
		uploadPath := filepath.Join(uploadDir, runID+"_"+filepath.Base(header.Filename))
		dst, err := os.Create(uploadPath)
		if err != nil {
			reqLog.WithError(err).Error("failed to store upload")
			http.Error(w, "failed to store upload", http.StatusInternalServerError)
			return
		}
		if _, err := io.Copy(dst, file); err != nil {
			dst.Close()
			os.Remove(uploadPath)
			reqLog.WithError(err).Error("failed to store upload")
			http.Error(w, "failed to store upload", http.StatusInternalServerError)
			return
		}
		dst.Close()
		defer os.Remove(uploadPath)

		cfg := *baseCfg
		cfg.AudioFile = uploadPath
		cfg.OutputDir = filepath.Join(baseCfg.OutputDir, runID)
		if model := r.FormValue("asr_model"); model != "" {
			cfg.ASRModel = model
		}
		reqLog = reqLog.WithField("run_id", runID).WithField("audio_file", header.Filename)

		start := time.Now()
		segments, err := runPipeline(&cfg, reqLog)
		reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).Info("pipeline finished")
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			reqLog.WithError(err).Warn("pipeline returned error")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]interface{}{
			"run_id":   runID,
			"segments": segments,
		}); err != nil {
			reqLog.WithError(err).Error("failed to write response")
		}
	})

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// Runs cover long recordings; keep the write window generous.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func runPipeline(cfg *config.Config, reqLog *logrus.Entry) ([]types.Segment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := cache.NewStore(cfg.OutputDir, reqLog)
	if err != nil {
		return nil, err
	}
	diarizer, err := engine.NewDiarizer(cfg, reqLog)
	if err != nil {
		return nil, err
	}
	transcriber, err := engine.NewTranscriber(cfg, reqLog)
	if err != nil {
		return nil, err
	}
	o := pipeline.New(cfg, reqLog, diarizer, transcriber, store, media.FFmpeg{})
	return o.Run(context.Background())
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
