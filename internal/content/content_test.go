package content

import "testing"

func TestSignalClampTopicality(t *testing.T) {
	s := &Signal{Topicality: 1.4}
	s.ClampTopicality()
	if s.Topicality != 1 {
		t.Fatalf("Topicality = %v, want 1", s.Topicality)
	}
	s.Topicality = -0.2
	s.ClampTopicality()
	if s.Topicality != 0 {
		t.Fatalf("Topicality = %v, want 0", s.Topicality)
	}
}

func TestApplyTimeConfidenceAbsent(t *testing.T) {
	s := &Signal{}
	s.ApplyTimeConfidence("2026-01-01", "2026-01-31")
	if s.TimeConfidence != "UNKNOWN" {
		t.Fatalf("TimeConfidence = %q, want UNKNOWN", s.TimeConfidence)
	}
}

func TestNormalizeURL(t *testing.T) {
	got := NormalizeURL("HTTPS://Example.com/Post/?utm=1#frag/")
	want := "https://example.com/post"
	if got != want {
		t.Fatalf("NormalizeURL = %q, want %q", got, want)
	}
}

func TestBriefUniqueKeysAndErrors(t *testing.T) {
	b := NewBrief("golang concurrency", Span{Start: "2026-01-01", End: "2026-01-31"}, "2026-01-31T00:00:00Z")
	b.Items = append(b.Items, Signal{Key: "RDT-01", Channel: Reddit}, Signal{Key: "RDT-02", Channel: Reddit}, Signal{Key: "X1", Channel: X})

	if !b.UniqueKeys() {
		t.Fatalf("expected unique keys")
	}
	if len(b.Reddit()) != 2 {
		t.Fatalf("Reddit() = %d items, want 2", len(b.Reddit()))
	}
	if len(b.X()) != 1 {
		t.Fatalf("X() = %d items, want 1", len(b.X()))
	}

	b.SetError("reddit", nil)
	if _, ok := b.Errors["reddit"]; ok {
		t.Fatalf("nil error should not be recorded")
	}
}
