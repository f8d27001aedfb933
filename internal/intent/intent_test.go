package intent

import "testing"

func TestClassifyComplexityBroadShortTopic(t *testing.T) {
	class, _ := ClassifyComplexity("golang news")
	if class != BroadExploratory {
		t.Fatalf("class = %q, want BROAD_EXPLORATORY", class)
	}
}

func TestClassifyComplexityAnalyticalCue(t *testing.T) {
	class, reason := ClassifyComplexity("why is Rust replacing C in embedded systems")
	if class != ComplexAnalytical {
		t.Fatalf("class = %q, want COMPLEX_ANALYTICAL (%s)", class, reason)
	}
}

func TestClassifyComplexityMultiClauseQuestion(t *testing.T) {
	class, _ := ClassifyComplexity("should teams adopt microservices and what are the tradeoffs?")
	if class != ComplexAnalytical {
		t.Fatalf("class = %q, want COMPLEX_ANALYTICAL", class)
	}
}

func TestClassifyEpistemicStanceHowTo(t *testing.T) {
	stance, _ := ClassifyEpistemicStance("how to install kubernetes step by step guide")
	if stance != HowToTutorial {
		t.Fatalf("stance = %q, want HOW_TO_TUTORIAL", stance)
	}
}

func TestClassifyEpistemicStanceBalancedDefault(t *testing.T) {
	stance, _ := ClassifyEpistemicStance("distributed systems consensus algorithms")
	if stance != Balanced {
		t.Fatalf("stance = %q, want BALANCED", stance)
	}
}

func TestStanceWeightsBalancedIsAllOne(t *testing.T) {
	weights := StanceWeights(Balanced)
	for ch, w := range weights {
		if w != 1.0 {
			t.Fatalf("channel %v weight = %v, want 1.0", ch, w)
		}
	}
}

func TestDecomposeQueryNilClientSkips(t *testing.T) {
	subs, source := DecomposeQuery(nil, nil, "golang", "gpt-5", 0)
	if source != "skipped" || subs != nil {
		t.Fatalf("expected skipped with nil client, got %v %q", subs, source)
	}
}
