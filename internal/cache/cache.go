// Package cache implements BriefBot's two file-backed stores: a
// content-addressed response cache with a short TTL, and a per-provider
// model-preference cache with a much longer TTL. Both write atomically via
// write-then-rename, matching the teacher's "single-writer, readers never
// block" persistence discipline.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is a process-wide, file-backed content-addressed cache.
type Store struct {
	Dir    string
	Logger *slog.Logger
}

// NewStore ensures dir exists and returns a Store rooted there. Directory
// creation failures are logged, not fatal: spec.md requires that cache
// reads never block on network and writes are best-effort.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("cache: could not create cache directory", "dir", dir, "error", err)
	}
	return &Store{Dir: dir, Logger: logger}
}

// CacheKey hashes "topic|start|end|channel" with SHA-256 and truncates to
// 16 hex characters, satisfying spec.md's 16..20 hex contract.
func CacheKey(topic, start, end, channelSet string) string {
	sum := sha256.Sum256([]byte(topic + "|" + start + "|" + end + "|" + channelSet))
	return hex.EncodeToString(sum[:])[:16]
}

const modelPrefsFile = "model_prefs.json"

func (s *Store) path(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

// Save atomically writes obj under key via write-then-rename. Failures are
// logged and swallowed; the cache is never authoritative for correctness.
func (s *Store) Save(key string, obj any) {
	data, err := json.Marshal(obj)
	if err != nil {
		s.Logger.Warn("cache: marshal failed", "key", key, "error", err)
		return
	}
	s.writeAtomic(s.path(key), data)
}

func (s *Store) writeAtomic(path string, data []byte) {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.Logger.Warn("cache: write failed", "path", path, "error", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		s.Logger.Warn("cache: rename failed", "path", path, "error", err)
		os.Remove(tmp)
	}
}

// Load returns the cached object at key as raw JSON bytes iff the file's
// mtime is within ttl of now, and the bool reports whether it was a hit.
func (s *Store) Load(key string, ttl time.Duration) ([]byte, bool) {
	data, _, ok := s.LoadWithAge(key, ttl)
	return data, ok
}

// LoadWithAge returns the cached object and its age, honoring ttl.
func (s *Store) LoadWithAge(key string, ttl time.Duration) ([]byte, time.Duration, bool) {
	path := s.path(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, false
	}
	age := time.Since(info.ModTime())
	if age > ttl {
		return nil, age, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.Logger.Warn("cache: read failed", "path", path, "error", err)
		return nil, age, false
	}
	return data, age, true
}

// Stats reports the number of entries and total bytes used, excluding the
// model-preference file.
type Stats struct {
	Entries   int   `json:"entries"`
	SizeBytes int64 `json:"size_bytes"`
}

func (s *Store) Stats() Stats {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return Stats{}
	}
	var stats Stats
	for _, e := range entries {
		if e.IsDir() || e.Name() == modelPrefsFile || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.SizeBytes += info.Size()
	}
	return stats
}

// ClearAll removes every cached response file except the model-preference
// file.
func (s *Store) ClearAll() error {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return fmt.Errorf("cache: list dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == modelPrefsFile || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, e.Name())); err != nil {
			s.Logger.Warn("cache: remove failed", "name", e.Name(), "error", err)
		}
	}
	return nil
}

// ModelPrefs is the on-disk shape of model_prefs.json: one preferred model
// id per provider, each with its own save time for TTL purposes.
type ModelPrefs struct {
	OpenAI *ModelPref `json:"openai,omitempty"`
	XAI    *ModelPref `json:"xai,omitempty"`
}

type ModelPref struct {
	Model  string    `json:"model"`
	SavedAt time.Time `json:"saved_at"`
}

func (s *Store) modelPrefsPath() string {
	return filepath.Join(s.Dir, modelPrefsFile)
}

func (s *Store) loadModelPrefs() ModelPrefs {
	data, err := os.ReadFile(s.modelPrefsPath())
	if err != nil {
		return ModelPrefs{}
	}
	var prefs ModelPrefs
	if err := json.Unmarshal(data, &prefs); err != nil {
		return ModelPrefs{}
	}
	return prefs
}

// CachedModel returns the persisted model for provider ("openai" or "xai")
// if it is within ttl, best-effort.
func (s *Store) CachedModel(provider string, ttl time.Duration) (string, bool) {
	prefs := s.loadModelPrefs()
	var pref *ModelPref
	switch provider {
	case "openai":
		pref = prefs.OpenAI
	case "xai":
		pref = prefs.XAI
	}
	if pref == nil || pref.Model == "" {
		return "", false
	}
	if time.Since(pref.SavedAt) > ttl {
		return "", false
	}
	return pref.Model, true
}

// SetCachedModel persists the chosen model for provider, idempotently and
// best-effort; concurrent updates race but each write is internally
// consistent because it goes through write-then-rename.
func (s *Store) SetCachedModel(provider, model string) {
	prefs := s.loadModelPrefs()
	pref := &ModelPref{Model: model, SavedAt: time.Now().UTC()}
	switch provider {
	case "openai":
		prefs.OpenAI = pref
	case "xai":
		prefs.XAI = pref
	default:
		return
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		s.Logger.Warn("cache: marshal model prefs failed", "error", err)
		return
	}
	s.writeAtomic(s.modelPrefsPath(), data)
}
