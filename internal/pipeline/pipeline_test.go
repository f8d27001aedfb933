package pipeline

import (
	"context"
	"testing"

	"github.com/briefbot/briefbot/internal/cache"
	"github.com/briefbot/briefbot/internal/content"
	"github.com/briefbot/briefbot/internal/providers"
)

func TestResolveSourcesNoCredentialsFallsBackToWebOnly(t *testing.T) {
	mode, channels := ResolveSources("all", map[content.Channel]bool{}, true)
	if mode != "web-only" {
		t.Fatalf("mode = %q, want web-only", mode)
	}
	if len(channels) != 1 || channels[0] != content.Web {
		t.Fatalf("channels = %v, want [web]", channels)
	}
}

func TestResolveSourcesAllFiltersByAvailability(t *testing.T) {
	available := map[content.Channel]bool{content.Reddit: true, content.X: false, content.YouTube: true, content.LinkedIn: false}
	mode, channels := ResolveSources("all", available, false)
	if mode != "all" {
		t.Fatalf("mode = %q, want all", mode)
	}
	want := map[content.Channel]bool{content.Reddit: true, content.YouTube: true}
	if len(channels) != len(want) {
		t.Fatalf("channels = %v, want reddit+youtube only", channels)
	}
	for _, ch := range channels {
		if !want[ch] {
			t.Fatalf("unexpected channel %v in result", ch)
		}
	}
}

func TestResolveSourcesExplicitRedditIgnoresWeb(t *testing.T) {
	available := map[content.Channel]bool{content.Reddit: true}
	mode, channels := ResolveSources("reddit", available, true)
	if mode != "reddit" {
		t.Fatalf("mode = %q, want reddit", mode)
	}
	if len(channels) != 1 || channels[0] != content.Reddit {
		t.Fatalf("channels = %v, want [reddit]", channels)
	}
}

func TestResolveSourcesRedditWebIncludesWeb(t *testing.T) {
	available := map[content.Channel]bool{content.Reddit: true}
	_, channels := ResolveSources("reddit-web", available, true)
	if len(channels) != 2 {
		t.Fatalf("channels = %v, want reddit+web", channels)
	}
}

func TestHardDateFilterDropsOutOfRangeKeepsUndated(t *testing.T) {
	signals := []*content.Signal{
		{Key: "a", Dated: "2026-01-15"},
		{Key: "b", Dated: "2020-01-01"},
		{Key: "c", Dated: ""},
	}
	out := hardDateFilter(signals, "2026-01-01", "2026-01-31", false)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2 (out-of-range dropped, undated kept)", len(out))
	}
}

func TestHardDateFilterExcludeUndated(t *testing.T) {
	signals := []*content.Signal{
		{Key: "a", Dated: "2026-01-15"},
		{Key: "c", Dated: ""},
	}
	out := hardDateFilter(signals, "2026-01-01", "2026-01-31", true)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1 (undated dropped when excludeUndated set)", len(out))
	}
}

func TestToSignalRedditFields(t *testing.T) {
	item := providers.RawItem{
		"key": "RDT-01", "headline": "h", "url": "https://reddit.com/r/golang/comments/1",
		"forum": "golang", "dated": "2026-01-10", "topicality": 0.9, "rationale": "why",
	}
	s := toSignal(content.Reddit, item)
	if s.Key != "RDT-01" || s.Byline != "golang" || s.Extras["subreddit"] != "golang" {
		t.Fatalf("unexpected signal: %+v", s)
	}
}

func TestToSignalClampsOutOfRangeTopicality(t *testing.T) {
	item := providers.RawItem{"key": "W-01", "headline": "h", "url": "https://ex.com", "topicality": 1.7}
	s := toSignal(content.Web, item)
	if s.Topicality != 1.0 {
		t.Fatalf("Topicality = %v, want clamped to 1.0", s.Topicality)
	}
}

func TestChannelSetKeyDeterministicOrder(t *testing.T) {
	a := channelSetKey([]content.Channel{content.X, content.Reddit, content.Web})
	b := channelSetKey([]content.Channel{content.Web, content.Reddit, content.X})
	if a != b {
		t.Fatalf("channelSetKey not order-independent: %q vs %q", a, b)
	}
}

func TestRunMockModeProducesRankedDedupedBrief(t *testing.T) {
	redditFixture := map[string]any{
		"threads": []any{
			map[string]any{"headline": "Goroutines 101", "url": "https://reddit.com/r/golang/comments/1", "forum": "r/golang", "dated": "2026-01-10", "topicality": 0.8, "rationale": "on topic"},
			map[string]any{"headline": "Goroutines 101 dup", "url": "https://reddit.com/r/golang/comments/1", "forum": "r/golang", "dated": "2026-01-10", "topicality": 0.5, "rationale": "dup"},
		},
	}
	xFixture := map[string]any{
		"posts": []any{
			map[string]any{"excerpt": "hot take on goroutines", "link": "https://x.com/a/status/1", "handle": "@golang", "posted": "2026-01-12", "metrics": map[string]any{"likes": 40.0}, "signal": 0.7},
		},
	}

	opts := Options{
		Topic:         "goroutines",
		Span:          content.Span{Start: "2026-01-01", End: "2026-01-31"},
		RequestedMode: "both",
		Credentials: Credentials{
			OpenAIAPIKey:     "test-openai-key",
			XAIAPIKey:        "test-xai-key",
			OpenAIModelPolicy: cache.PolicyPinned,
			XAIModelPolicy:    cache.PolicyPinned,
			OpenAIPin:         "gpt-5",
			XAIPin:            "grok-4-fast",
		},
		Sampling: providers.Standard,
		Mock: map[content.Channel]map[string]any{
			content.Reddit: redditFixture,
			content.X:      xFixture,
		},
		Store: cache.NewStore(t.TempDir(), nil),
	}

	brief, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(brief.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2 (one reddit dup suppressed, one x item)", len(brief.Items))
	}
	if !brief.UniqueKeys() {
		t.Fatalf("expected unique keys across brief")
	}
	for _, item := range brief.Items {
		if item.Rank < 0 || item.Rank > 100 {
			t.Fatalf("rank out of range: %+v", item)
		}
	}
}

func TestRunCacheHitSkipsRecompute(t *testing.T) {
	store := cache.NewStore(t.TempDir(), nil)
	opts := Options{
		Topic:         "caching topic",
		Span:          content.Span{Start: "2026-01-01", End: "2026-01-31"},
		RequestedMode: "reddit",
		Credentials: Credentials{
			OpenAIAPIKey:      "test-openai-key",
			OpenAIModelPolicy: cache.PolicyPinned,
			OpenAIPin:         "gpt-5",
		},
		Sampling: providers.Standard,
		Mock: map[content.Channel]map[string]any{
			content.Reddit: {"threads": []any{}},
		},
		Store: store,
	}

	first, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.Cache.Enabled {
		t.Fatalf("expected first run to be a cache miss")
	}

	second, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if !second.Cache.Enabled {
		t.Fatalf("expected second run to be served from cache")
	}
}
