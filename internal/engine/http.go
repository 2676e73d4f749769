package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"speech-scribe-go/internal/types"
)

// No overall timeout on inference calls: long recordings legitimately take
// minutes. Cancellation comes from the caller's context.
var httpClient = &http.Client{}

// httpEngine is the shared readiness handling for the HTTP adapters. The
// sidecar loads its model lazily; ensureReady pings it once (with retry for
// startup races) and remembers success, so the loaded/unloaded state is
// explicit instead of implied by the first inference call.
type httpEngine struct {
	baseURL string
	model   string
	log     *logrus.Entry

	mu    sync.Mutex
	ready bool
}

func (e *httpEngine) ensureReady(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready {
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(e.baseURL, "/")+"/health", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health check status %d", resp.StatusCode)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("engine at %s not ready: %w", e.baseURL, err)
	}
	e.log.WithField("engine_url", e.baseURL).Info("engine ready")
	e.ready = true
	return nil
}

// postAudio uploads the file once and decodes the JSON reply into target.
// Inference calls are never retried here; if the model fails, the stage
// fails and the decision to re-run belongs to the caller.
func (e *httpEngine) postAudio(ctx context.Context, route, audioPath string, target any) error {
	f, err := os.Open(audioPath)
	if err != nil {
		return fmt.Errorf("open audio %s: %w", audioPath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("audio_file", filepath.Base(audioPath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read audio %s: %w", audioPath, err)
	}
	if e.model != "" {
		_ = w.WriteField("model", e.model)
	}
	if err := w.Close(); err != nil {
		return err
	}

	url := strings.TrimRight(e.baseURL, "/") + route
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine %s returned %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode reply from %s: %w", url, err)
	}
	return nil
}

// HTTPDiarizer talks to a diarization sidecar (pyannote behind a small HTTP
// wrapper) exposing GET /health and POST /diarize.
type HTTPDiarizer struct {
	httpEngine
}

func NewHTTPDiarizer(baseURL, model string, log *logrus.Entry) *HTTPDiarizer {
	return &HTTPDiarizer{httpEngine{baseURL: baseURL, model: model, log: log.WithField("engine", "diarizer_http")}}
}

func (d *HTTPDiarizer) Diarize(ctx context.Context, audioPath string) (types.Timeline, error) {
	if err := d.ensureReady(ctx); err != nil {
		return nil, err
	}
	var reply struct {
		Segments types.Timeline `json:"segments"`
	}
	if err := d.postAudio(ctx, "/diarize", audioPath, &reply); err != nil {
		return nil, fmt.Errorf("diarization: %w", err)
	}
	if err := reply.Segments.Validate(); err != nil {
		return nil, fmt.Errorf("diarization reply: %w", err)
	}
	return reply.Segments, nil
}

// HTTPTranscriber talks to an ASR sidecar (whisper server with word
// timestamps) exposing GET /health and POST /transcribe.
type HTTPTranscriber struct {
	httpEngine
}

func NewHTTPTranscriber(baseURL, model string, log *logrus.Entry) *HTTPTranscriber {
	return &HTTPTranscriber{httpEngine{baseURL: baseURL, model: model, log: log.WithField("engine", "transcriber_http")}}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audioPath string) (*types.ASRResult, error) {
	if err := t.ensureReady(ctx); err != nil {
		return nil, err
	}
	var reply types.ASRResult
	if err := t.postAudio(ctx, "/transcribe", audioPath, &reply); err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}
	if err := reply.Validate(); err != nil {
		return nil, fmt.Errorf("transcription reply: %w", err)
	}
	return &reply, nil
}
