// Package intent classifies a topic's complexity and epistemic stance and
// derives the per-channel stance weight table, per spec.md §4.6.
package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/briefbot/briefbot/internal/content"
	"github.com/briefbot/briefbot/internal/llm"
)

type ComplexityClass string

const (
	BroadExploratory  ComplexityClass = "BROAD_EXPLORATORY"
	ComplexAnalytical ComplexityClass = "COMPLEX_ANALYTICAL"
)

var broadCues = []string{"news", "updates", "trends", "trend", "overview", "what's new"}
var analyticalCues = []string{"why", "how", "despite", "because", "impact", "effect", "cause", "barrier", "replace", "replacing", "adoption", "versus", "vs", "compare", "difference", "tradeoff"}
var multiClauseJoiners = []string{"and", "but", "while", "despite"}

// ClassifyComplexity implements spec.md's classify_complexity.
func ClassifyComplexity(topic string) (ComplexityClass, string) {
	lower := strings.ToLower(topic)
	words := strings.Fields(lower)

	if len(words) <= 2 {
		return BroadExploratory, "topic has two or fewer word tokens"
	}
	for _, cue := range broadCues {
		if strings.Contains(lower, cue) {
			return BroadExploratory, fmt.Sprintf("topic contains broad cue %q", cue)
		}
	}

	for _, cue := range analyticalCues {
		if containsWord(lower, cue) {
			return ComplexAnalytical, fmt.Sprintf("topic contains analytical cue %q", cue)
		}
	}
	if strings.Contains(lower, "?") {
		for _, j := range multiClauseJoiners {
			if containsWord(lower, j) {
				return ComplexAnalytical, "multi-clause question"
			}
		}
	}
	if containsWord(lower, "vs") || containsWord(lower, "versus") {
		return ComplexAnalytical, "topic compares two things"
	}

	return BroadExploratory, "no analytical or multi-clause signal found; default"
}

func containsWord(haystack, word string) bool {
	for _, tok := range strings.Fields(haystack) {
		if strings.Trim(tok, ".,!?:;") == word {
			return true
		}
	}
	return strings.Contains(haystack, word)
}

type EpistemicStance string

const (
	HowToTutorial       EpistemicStance = "HOW_TO_TUTORIAL"
	TrendingBreaking    EpistemicStance = "TRENDING_BREAKING"
	ExperientialOpinion EpistemicStance = "EXPERIENTIAL_OPINION"
	FactualTemporal     EpistemicStance = "FACTUAL_TEMPORAL"
	Balanced            EpistemicStance = "BALANCED"
)

var stanceCues = []struct {
	stance EpistemicStance
	cues   []string
}{
	{HowToTutorial, []string{"how to", "tutorial", "guide", "steps", "walkthrough", "install", "setup", "build"}},
	{TrendingBreaking, []string{"breaking", "latest", "today", "this week", "right now", "news", "now", "live"}},
	{ExperientialOpinion, []string{"opinion", "sentiment", "community", "what do people think", "hot take", "reddit", "x"}},
	{FactualTemporal, []string{"why", "when", "where", "facts", "fact", "data", "statistics", "spec", "documentation", "technical", "price", "policy"}},
}

// ClassifyEpistemicStance implements spec.md's classify_epistemic_stance.
func ClassifyEpistemicStance(topic string) (EpistemicStance, string) {
	lower := strings.ToLower(topic)
	for _, group := range stanceCues {
		for _, cue := range group.cues {
			if strings.Contains(lower, cue) {
				return group.stance, fmt.Sprintf("topic contains cue %q", cue)
			}
		}
	}
	return Balanced, "no stance cue found"
}

// StanceWeights returns the channel weight multiplier table for a stance.
// BALANCED is all 1.0.
func StanceWeights(stance EpistemicStance) map[content.Channel]float64 {
	all1 := map[content.Channel]float64{
		content.Reddit: 1.0, content.X: 1.0, content.YouTube: 1.0, content.LinkedIn: 1.0, content.Web: 1.0,
	}
	switch stance {
	case HowToTutorial:
		return map[content.Channel]float64{
			content.Reddit: 1.05, content.X: 0.85, content.YouTube: 1.25, content.LinkedIn: 0.9, content.Web: 1.1,
		}
	case TrendingBreaking:
		return map[content.Channel]float64{
			content.Reddit: 1.05, content.X: 1.3, content.YouTube: 0.95, content.LinkedIn: 0.9, content.Web: 1.0,
		}
	case ExperientialOpinion:
		return map[content.Channel]float64{
			content.Reddit: 1.3, content.X: 1.15, content.YouTube: 0.85, content.LinkedIn: 0.8, content.Web: 0.9,
		}
	case FactualTemporal:
		return map[content.Channel]float64{
			content.Reddit: 0.9, content.X: 0.85, content.YouTube: 0.95, content.LinkedIn: 1.1, content.Web: 1.2,
		}
	default:
		return all1
	}
}

// DecomposeQuery optionally asks the LLM to split topic into 3-5
// sub-questions. Any failure silently returns ([], "skipped").
func DecomposeQuery(ctx context.Context, client *llm.Client, topic, model string, timeout time.Duration) ([]string, string) {
	if client == nil {
		return nil, "skipped"
	}
	prompt := fmt.Sprintf(
		"Break the research topic %q into 3 to 5 focused sub-questions. "+
			"Respond with JSON only: {\"subquestions\": [\"...\"]}", topic)

	text, err := client.Call(ctx, llm.Request{
		Model:           model,
		Prompt:          prompt,
		Temperature:     0.1,
		MaxOutputTokens: 400,
	}, timeout)
	if err != nil {
		return nil, "skipped"
	}

	obj, ok := llm.ExtractJSONObject(text)
	if !ok {
		return nil, "skipped"
	}
	raw, ok := obj["subquestions"].([]any)
	if !ok {
		return nil, "skipped"
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	if len(out) < 3 || len(out) > 5 {
		return nil, "skipped"
	}
	return out, "llm"
}
