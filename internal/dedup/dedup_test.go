package dedup

import (
	"testing"

	"github.com/briefbot/briefbot/internal/content"
)

func TestRatioIdentical(t *testing.T) {
	if r := ratio("golang concurrency patterns", "golang concurrency patterns"); r != 1.0 {
		t.Fatalf("ratio = %v, want 1.0", r)
	}
}

func TestRatioDisjoint(t *testing.T) {
	if r := ratio("abc", "xyz"); r != 0 {
		t.Fatalf("ratio = %v, want 0", r)
	}
}

// Scenario E
func TestDeduplicateURLMatchScenarioE(t *testing.T) {
	signals := []*content.Signal{
		{Key: "RDT-01", URL: "https://reddit.com/r/golang/comments/abc", Rank: 80, Headline: "Goroutines are great"},
		{Key: "RDT-02", URL: "https://reddit.com/r/golang/comments/abc", Rank: 65, Headline: "Goroutines are great again"},
	}
	out := Deduplicate(signals, defaultThreshold)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].Rank != 80 {
		t.Fatalf("surviving rank = %d, want 80", out[0].Rank)
	}
}

func TestDeduplicateKeepsDistinctItems(t *testing.T) {
	signals := []*content.Signal{
		{Key: "RDT-01", URL: "https://reddit.com/a", Rank: 80, Headline: "Completely different topic about cats"},
		{Key: "RDT-02", URL: "https://reddit.com/b", Rank: 70, Headline: "Totally unrelated piece on rockets"},
	}
	out := Deduplicate(signals, defaultThreshold)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	signals := []*content.Signal{
		{Key: "RDT-01", URL: "https://reddit.com/r/golang/comments/abc", Rank: 80, Headline: "Goroutines are great"},
		{Key: "RDT-02", URL: "https://reddit.com/r/golang/comments/abc", Rank: 65, Headline: "Goroutines are great again"},
		{Key: "RDT-03", URL: "https://reddit.com/c", Rank: 50, Headline: "Unrelated rockets piece"},
	}
	once := Deduplicate(signals, defaultThreshold)
	twice := Deduplicate(once, defaultThreshold)
	if len(once) != len(twice) {
		t.Fatalf("not idempotent: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Key != twice[i].Key {
			t.Fatalf("order changed on second pass at index %d", i)
		}
	}
}
