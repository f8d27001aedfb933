package cache

import (
	"context"
	"testing"
)

func TestChooseOpenAIModelFiltersAndRanks(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	mock := []OpenAIModelInfo{
		{ID: "gpt-5-mini", CreatedAt: 100},
		{ID: "gpt-5", CreatedAt: 10},
		{ID: "gpt-5.2", CreatedAt: 20},
		{ID: "gpt-5.2", CreatedAt: 50},
		{ID: "gpt-5-preview", CreatedAt: 999},
	}
	model, err := s.ChooseOpenAIModel(context.Background(), nil, PolicyAuto, "", "key", mock)
	if err != nil {
		t.Fatalf("ChooseOpenAIModel: %v", err)
	}
	if model != "gpt-5.2" {
		t.Fatalf("model = %q, want gpt-5.2 (highest version, then newest created_at)", model)
	}

	cached, ok := s.CachedModel("openai", modelPrefTTL)
	if !ok || cached != "gpt-5.2" {
		t.Fatalf("expected selection to be persisted, got %q %v", cached, ok)
	}
}

func TestChooseOpenAIModelPinned(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	model, err := s.ChooseOpenAIModel(context.Background(), nil, PolicyPinned, "gpt-5-custom", "key", nil)
	if err != nil {
		t.Fatalf("ChooseOpenAIModel: %v", err)
	}
	if model != "gpt-5-custom" {
		t.Fatalf("model = %q, want gpt-5-custom", model)
	}
}

func TestChooseXAIModelPreferenceOrder(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	model, err := s.ChooseXAIModel(context.Background(), nil, PolicyLatest, "", "key", []string{"grok-3", "grok-4-1-fast-non-reasoning"})
	if err != nil {
		t.Fatalf("ChooseXAIModel: %v", err)
	}
	if model != "grok-4-1-fast-non-reasoning" {
		t.Fatalf("model = %q, want grok-4-1-fast-non-reasoning", model)
	}
}

func TestChooseXAIModelFallbackToHardcoded(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	model, err := s.ChooseXAIModel(context.Background(), nil, PolicyLatest, "", "key", []string{"davinci"})
	if err != nil {
		t.Fatalf("ChooseXAIModel: %v", err)
	}
	if model != xaiHardcodedFallback {
		t.Fatalf("model = %q, want hardcoded fallback %q", model, xaiHardcodedFallback)
	}
}

func TestChooseXAIModelAccessErrorFallback(t *testing.T) {
	// Scenario F: chain [grok-4-fast, grok-4-1-fast-non-reasoning]; grok-4-fast
	// is unavailable for this key, so the live list only contains the second
	// candidate, and that is what gets selected and persisted.
	s := NewStore(t.TempDir(), nil)
	model, err := s.ChooseXAIModel(context.Background(), nil, PolicyLatest, "", "key", []string{"grok-4-1-fast-non-reasoning"})
	if err != nil {
		t.Fatalf("ChooseXAIModel: %v", err)
	}
	if model != "grok-4-1-fast-non-reasoning" {
		t.Fatalf("model = %q, want grok-4-1-fast-non-reasoning", model)
	}
	cached, ok := s.CachedModel("xai", modelPrefTTL)
	if !ok || cached != "grok-4-1-fast-non-reasoning" {
		t.Fatalf("expected xai preference persisted, got %q %v", cached, ok)
	}
}
