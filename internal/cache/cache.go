// Package cache persists expensive stage artifacts between runs so a
// recomputed pipeline can skip diarization and transcription it has already
// paid for.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Validator is implemented by artifacts that can check their own shape.
// Deserializability alone is not enough: an entry must carry the fields the
// pipeline expects before it is trusted.
type Validator interface {
	Validate() error
}

// Store is a key→blob store backed by JSON files in a single directory.
// Reads fail closed: anything wrong with an entry reads as a miss and the
// caller recomputes. Writes always overwrite. Concurrent runs against the
// same input can race on writes; last writer wins and both artifacts are
// equivalent, so this is accepted rather than locked.
type Store struct {
	dir string
	log *logrus.Entry
}

// NewStore returns a store rooted at dir, creating it if needed.
func NewStore(dir string, log *logrus.Entry) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Get loads the entry named key into v. force skips the read entirely, as if
// the entry did not exist. Any read, decode, or shape failure logs a warning
// and reads as a miss — never a hard error.
func (s *Store) Get(key string, v Validator, force bool) bool {
	if force {
		return false
	}
	path := filepath.Join(s.dir, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).WithField("cache_key", key).Warn("cache read failed, recomputing")
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.WithError(err).WithField("cache_key", key).Warn("cache entry undecodable, recomputing")
		return false
	}
	if err := v.Validate(); err != nil {
		s.log.WithError(err).WithField("cache_key", key).Warn("cache entry has wrong shape, recomputing")
		return false
	}
	s.log.WithField("cache_key", key).Info("loaded cached artifact")
	return true
}

// Put serializes v under key, replacing any previous entry. The write goes
// through a temp file and rename so readers never observe a partial blob.
func (s *Store) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	path := filepath.Join(s.dir, key)
	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: temp file for %s: %w", key, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: close %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: rename %s: %w", key, err)
	}
	s.log.WithField("cache_key", key).Info("cached artifact saved")
	return nil
}

// DiarizationKey names the cached timeline for one input file. The key is
// derived from the file's path stem so re-runs on the same file find it.
func DiarizationKey(stem string) string {
	return stem + ".diarization.json"
}

// ASRKey names the cached transcription for one input file and model. The
// batching mode is part of the key: a chunked result and a single-shot
// result for the same model are different artifacts.
func ASRKey(stem, model string, chunked bool) string {
	suffix := ".asr.json"
	if chunked {
		suffix = ".asr_chunked.json"
	}
	return stem + "_" + ModelSlug(model) + suffix
}

// ModelSlug flattens a model identifier into a filename-safe token.
func ModelSlug(model string) string {
	return strings.ReplaceAll(model, "/", "_")
}
