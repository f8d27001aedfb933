package cache

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCacheKeyDeterministic(t *testing.T) {
	a := CacheKey("golang", "2026-01-01", "2026-01-31", "reddit,x")
	b := CacheKey("golang", "2026-01-01", "2026-01-31", "reddit,x")
	if a != b {
		t.Fatalf("CacheKey not deterministic: %q != %q", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("CacheKey length = %d, want 16", len(a))
	}
	c := CacheKey("rust", "2026-01-01", "2026-01-31", "reddit,x")
	if a == c {
		t.Fatalf("CacheKey collided across distinct topics")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	type payload struct {
		Topic string `json:"topic"`
	}
	key := CacheKey("golang", "2026-01-01", "2026-01-31", "reddit")
	s.Save(key, payload{Topic: "golang"})

	data, ok := s.Load(key, time.Hour)
	if !ok {
		t.Fatalf("expected cache hit")
	}
	var got payload
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Topic != "golang" {
		t.Fatalf("Topic = %q, want golang", got.Topic)
	}

	if _, ok := s.Load("missing-key", time.Hour); ok {
		t.Fatalf("expected miss for unknown key")
	}
	if _, ok := s.Load(key, 0); ok {
		t.Fatalf("expected miss once ttl is exceeded")
	}
}

func TestModelPrefsTTL(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	s.SetCachedModel("xai", "grok-4-fast")

	model, ok := s.CachedModel("xai", time.Hour)
	if !ok || model != "grok-4-fast" {
		t.Fatalf("CachedModel = %q, %v; want grok-4-fast, true", model, ok)
	}
	if _, ok := s.CachedModel("xai", 0); ok {
		t.Fatalf("expected miss once ttl is exceeded")
	}
	if _, ok := s.CachedModel("openai", time.Hour); ok {
		t.Fatalf("expected miss for unset provider")
	}
}

func TestClearAllPreservesModelPrefs(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	s.SetCachedModel("openai", "gpt-5")
	s.Save(CacheKey("a", "1", "2", "reddit"), map[string]string{"x": "y"})

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if model, ok := s.CachedModel("openai", time.Hour); !ok || model != "gpt-5" {
		t.Fatalf("model prefs should survive ClearAll, got %q %v", model, ok)
	}
	if stats := s.Stats(); stats.Entries != 0 {
		t.Fatalf("Stats.Entries = %d, want 0 after ClearAll", stats.Entries)
	}
}
