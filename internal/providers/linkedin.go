package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/briefbot/briefbot/internal/content"
	"github.com/briefbot/briefbot/internal/llm"
)

type linkedinProvider struct{ deps Deps }

func NewLinkedInProvider(deps Deps) Provider { return &linkedinProvider{deps: deps} }

func (p *linkedinProvider) Channel() content.Channel { return content.LinkedIn }

func linkedinPrompt(topic, start, end string) string {
	return fmt.Sprintf(
		"Search linkedin.com for posts about %q published between %s and %s, excluding job listings. "+
			"Return JSON only: {\"threads\":[{\"headline\":\"...\",\"url\":\"https://linkedin.com/...\","+
			"\"forum\":\"...\",\"dated\":\"YYYY-MM-DD\"|null,\"topicality\":0.0,\"rationale\":\"...\","+
			"\"reactions\":0,\"comments\":0,\"author\":\"...\",\"role\":\"...\"}]}",
		topic, start, end)
}

func (p *linkedinProvider) Search(ctx context.Context, apiKey, model, topic, start, end string, sampling Sampling, mock map[string]any) Result {
	if mock != nil {
		items, err := ParseLinkedIn(mock)
		return Result{Items: items, Raw: mock, Err: err}
	}
	if p.deps.LLM == nil {
		return Result{Err: fmt.Errorf("providers/linkedin: no llm client configured")}
	}

	candidates := append([]string{model}, defaultRedditFallback...)
	timeout := Timeout(content.LinkedIn, sampling)

	text, _, err := RunWithFallback(ctx, p.deps.Store, "openai", candidates, func(ctx context.Context, m string) (string, error) {
		return p.deps.LLM.Call(ctx, llm.Request{
			Model:           m,
			Prompt:          linkedinPrompt(topic, start, end),
			Tool:            llm.Tool{Type: "web_search", Filters: map[string]any{"allowed_domains": []string{"linkedin.com"}}},
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
	items, parseErr := ParseLinkedIn(obj)
	return Result{Items: items, Raw: obj, Err: parseErr}
}

// ParseLinkedIn implements spec.md §4.4's LinkedIn parser.
func ParseLinkedIn(obj map[string]any) ([]RawItem, error) {
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
		if !strings.Contains(url, "linkedin.com") {
			continue
		}
		if strings.Contains(url, "/jobs/") || strings.Contains(url, "/job/") {
			continue
		}

		dated, _ := t["dated"].(string)
		if !isISODate(dated) {
			dated = ""
		}

		item := RawItem{
			"key":        fmt.Sprintf("LI-%02d", i+1),
			"headline":   stringField(t["headline"]),
			"url":        url,
			"author":     stringField(t["author"]),
			"role":       stringField(t["role"]),
			"dated":      dated,
			"topicality": clamp01(floatField(t["topicality"])),
			"rationale":  stringField(t["rationale"]),
			"reactions":  intOrNil(t["reactions"]),
			"comments":   intOrNil(t["comments"]),
		}
		out = append(out, item)
	}
	return out, nil
}
