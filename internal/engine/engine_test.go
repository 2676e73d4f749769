package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	return logrus.NewEntry(l)
}

func audioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFfakewav"), 0o644))
	return path
}

func TestHTTPDiarizerRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/diarize":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, _, err := r.FormFile("audio_file")
			require.NoError(t, err)
			w.Write([]byte(`{"segments":[{"start":0,"end":2.5,"speaker":"SPEAKER_00"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	d := NewHTTPDiarizer(srv.URL, "pyannote/speaker-diarization-3.1", testLog())
	tl, err := d.Diarize(context.Background(), audioFixture(t))
	require.NoError(t, err)
	require.Len(t, tl, 1)
	assert.Equal(t, "SPEAKER_00", tl[0].Speaker)
}

func TestHTTPTranscriberRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/transcribe":
			w.Write([]byte(`{"text":" hello world","words":[{"text":" hello","start":0.1,"end":0.5},{"text":" world","start":0.6,"end":1.0}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "readerbench/whisper-ro", testLog())
	res, err := tr.Transcribe(context.Background(), audioFixture(t))
	require.NoError(t, err)
	require.Len(t, res.Words, 2)
	assert.Equal(t, " hello", res.Words[0].Text)
}

func TestHTTPTranscriberRejectsShapelessReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		// Decodes, but carries no word list at all.
		w.Write([]byte(`{"text":"hi"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "m", testLog())
	_, err := tr.Transcribe(context.Background(), audioFixture(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word list")
}

func TestHTTPEngineSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, "model load failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewHTTPDiarizer(srv.URL, "m", testLog())
	_, err := d.Diarize(context.Background(), audioFixture(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model load failed")
}

func TestCommandDiarizerParsesJSON(t *testing.T) {
	// Fake helper binary printing a fixed timeline, ignoring its arguments.
	script := filepath.Join(t.TempDir(), "fake-diarizer")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho '[{\"start\":0,\"end\":1.5,\"speaker\":\"SPEAKER_01\"}]'\n"), 0o755))
	d := NewCommandDiarizer(script, "", testLog())

	tl, err := d.Diarize(context.Background(), audioFixture(t))
	require.NoError(t, err)
	require.Len(t, tl, 1)
	assert.Equal(t, "SPEAKER_01", tl[0].Speaker)
}

func TestCommandTranscriberMissingBinary(t *testing.T) {
	tr := NewCommandTranscriber("definitely-not-a-real-binary-xyz", "", testLog())
	_, err := tr.Transcribe(context.Background(), audioFixture(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
