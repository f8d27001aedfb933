package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/briefbot/briefbot/internal/content"
	"github.com/briefbot/briefbot/internal/llm"
)

var defaultRedditFallback = []string{"gpt-5", "gpt-5-mini"}

type redditProvider struct{ deps Deps }

func NewRedditProvider(deps Deps) Provider { return &redditProvider{deps: deps} }

func (p *redditProvider) Channel() content.Channel { return content.Reddit }

func redditPrompt(topic, start, end string) string {
	return fmt.Sprintf(
		"Compress the topic %q into a 2 to 4 word search query, search reddit.com broadly "+
			"for threads published between %s and %s, and return JSON only: "+
			`{"threads":[{"headline":"...","url":"https://reddit.com/...","forum":"...",`+
			`"dated":"YYYY-MM-DD"|null,"topicality":0.0,"rationale":"..."}]}`,
		topic, start, end)
}

func (p *redditProvider) Search(ctx context.Context, apiKey, model, topic, start, end string, sampling Sampling, mock map[string]any) Result {
	if mock != nil {
		items, err := ParseReddit(mock)
		return Result{Items: items, Raw: mock, Err: err}
	}
	if p.deps.LLM == nil {
		return Result{Err: fmt.Errorf("providers/reddit: no llm client configured")}
	}

	candidates := append([]string{model}, defaultRedditFallback...)
	timeout := Timeout(content.Reddit, sampling)

	text, _, err := RunWithFallback(ctx, p.deps.Store, "openai", candidates, func(ctx context.Context, m string) (string, error) {
		return p.deps.LLM.Call(ctx, llm.Request{
			Model:           m,
			Prompt:          redditPrompt(topic, start, end),
			Tool:            llm.Tool{Type: "web_search", Filters: map[string]any{"allowed_domains": []string{"reddit.com"}}},
			Temperature:     0.2,
			MaxOutputTokens: 1200,
		}, timeout)
	})
	if err != nil {
		return Result{Err: err}
	}
	obj, ok := llm.ExtractJSONObject(text)
	if !ok {
		return Result{}
	}
	items, parseErr := ParseReddit(obj)
	return Result{Items: items, Raw: obj, Err: parseErr}
}

// ParseReddit implements spec.md §4.4's Reddit parser: extract threads[],
// normalize url/forum/date/topicality, and assign RDT-NN keys.
func ParseReddit(obj map[string]any) ([]RawItem, error) {
	threads, ok := obj["threads"].([]any)
	if !ok {
		return nil, nil
	}
	out := make([]RawItem, 0, len(threads))
	for i, raw := range threads {
		t, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		url, _ := t["url"].(string)
		if !strings.Contains(url, "reddit.com") {
			continue
		}
		forum, _ := t["forum"].(string)
		forum = strings.TrimPrefix(forum, "r/")

		dated, _ := t["dated"].(string)
		if !isISODate(dated) {
			dated = ""
		}

		topicality := clamp01(floatField(t["topicality"]))

		item := RawItem{
			"key":        fmt.Sprintf("RDT-%02d", i+1),
			"headline":   stringField(t["headline"]),
			"url":        url,
			"forum":      forum,
			"dated":      dated,
			"topicality": topicality,
			"rationale":  stringField(t["rationale"]),
		}
		out = append(out, item)
	}
	return out, nil
}

func isISODate(s string) bool {
	if len(s) != 10 {
		return false
	}
	if s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, ch := range s {
		if i == 4 || i == 7 {
			continue
		}
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func floatField(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err == nil {
			return f
		}
	}
	return 0
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}
