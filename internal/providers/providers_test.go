package providers

import (
	"context"
	"testing"

	"github.com/briefbot/briefbot/internal/httpclient"
)

func TestParseRedditNormalizesForumAndDate(t *testing.T) {
	obj := map[string]any{
		"threads": []any{
			map[string]any{"headline": "Goroutines explained", "url": "https://reddit.com/r/golang/comments/abc", "forum": "r/golang", "dated": "not-a-date", "topicality": 1.4, "rationale": "relevant"},
			map[string]any{"headline": "spam", "url": "https://example.com/not-reddit"},
		},
	}
	items, err := ParseReddit(obj)
	if err != nil {
		t.Fatalf("ParseReddit error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1 (non-reddit url dropped)", len(items))
	}
	if items[0]["forum"] != "golang" {
		t.Fatalf("forum = %v, want golang", items[0]["forum"])
	}
	if items[0]["dated"] != "" {
		t.Fatalf("dated = %v, want empty (invalid date nulled)", items[0]["dated"])
	}
	if items[0]["topicality"] != 1.0 {
		t.Fatalf("topicality = %v, want clamped to 1.0", items[0]["topicality"])
	}
	if items[0]["key"] != "RDT-01" {
		t.Fatalf("key = %v, want RDT-01", items[0]["key"])
	}
}

func TestParseXNormalizesHandleAndClampsSignal(t *testing.T) {
	obj := map[string]any{
		"posts": []any{
			map[string]any{"excerpt": "hot take", "link": "https://x.com/a/status/1", "handle": "@golang", "posted": "2026-02-01", "metrics": map[string]any{"likes": 10.0}, "signal": 2.0},
		},
	}
	items, err := ParseX(obj)
	if err != nil {
		t.Fatalf("ParseX error: %v", err)
	}
	if items[0]["handle"] != "golang" {
		t.Fatalf("handle = %v, want golang (stripped @)", items[0]["handle"])
	}
	if items[0]["signal"] != 1.0 {
		t.Fatalf("signal = %v, want clamped to 1.0", items[0]["signal"])
	}
	if *items[0]["likes"].(*int) != 10 {
		t.Fatalf("likes = %v, want 10", items[0]["likes"])
	}
	if items[0]["reposts"].(*int) != nil {
		t.Fatalf("reposts should be nil when absent")
	}
}

func TestParseYouTubeRejectsNonVideoURLs(t *testing.T) {
	obj := map[string]any{
		"threads": []any{
			map[string]any{"headline": "a video", "url": "https://youtube.com/watch?v=abc"},
			map[string]any{"headline": "a playlist", "url": "https://youtube.com/playlist?list=1"},
			map[string]any{"headline": "a channel", "url": "https://youtube.com/channel/xyz"},
		},
	}
	items, _ := ParseYouTube(obj)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
}

func TestParseLinkedInRejectsJobURLs(t *testing.T) {
	obj := map[string]any{
		"threads": []any{
			map[string]any{"headline": "a post", "url": "https://linkedin.com/posts/abc"},
			map[string]any{"headline": "a job", "url": "https://linkedin.com/jobs/view/123"},
		},
	}
	items, _ := ParseLinkedIn(obj)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
}

func TestProcessResultsDropsBlockedAndOutOfRange(t *testing.T) {
	raw := []WebResult{
		{Title: "ok", URL: "https://ex.com/post", Snippet: "", Date: "2026-01-15"},
		{Title: "blocked", URL: "https://reddit.com/r/x", Date: "2026-01-15"},
		{Title: "empty url", URL: ""},
		{Title: "too old", URL: "https://ex.com/old", Date: "2020-01-01"},
	}
	items := ProcessResults(raw, "topic", "2026-01-01", "2026-01-31")
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0]["key"] != "W-01" {
		t.Fatalf("key = %v, want W-01", items[0]["key"])
	}
}

func TestIsAccessError(t *testing.T) {
	if !IsAccessError(400, `{"error":"does not have access to model"}`) {
		t.Fatalf("expected access error")
	}
	if !IsAccessError(403, "") {
		t.Fatalf("expected 403 with empty body to count as access error")
	}
	if IsAccessError(500, "internal error") {
		t.Fatalf("500 should never be an access error")
	}
	if IsAccessError(400, "generic bad request") {
		t.Fatalf("non-matching body should not be an access error")
	}
}

func TestRunWithFallbackAccessErrorScenarioF(t *testing.T) {
	// Scenario F: first candidate 400s with an access pattern, second succeeds.
	attempted := []string{}
	text, model, err := RunWithFallback(context.Background(), nil, "xai",
		[]string{"grok-4-fast", "grok-4-1-fast-non-reasoning"},
		func(ctx context.Context, m string) (string, error) {
			attempted = append(attempted, m)
			if m == "grok-4-fast" {
				return "", &httpclient.TransportError{Status: 400, Body: "does not have access"}
			}
			return `{"posts":[{"excerpt":"hi"}]}`, nil
		})
	if err != nil {
		t.Fatalf("RunWithFallback error: %v", err)
	}
	if model != "grok-4-1-fast-non-reasoning" {
		t.Fatalf("model = %q, want grok-4-1-fast-non-reasoning", model)
	}
	if len(attempted) != 2 {
		t.Fatalf("attempted = %v, want 2 candidates tried", attempted)
	}
	if text == "" {
		t.Fatalf("expected non-empty response text")
	}
}
