package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/briefbot/briefbot/internal/content"
	"github.com/briefbot/briefbot/internal/llm"
)

type youtubeProvider struct{ deps Deps }

func NewYouTubeProvider(deps Deps) Provider { return &youtubeProvider{deps: deps} }

func (p *youtubeProvider) Channel() content.Channel { return content.YouTube }

func youtubePrompt(topic, start, end string) string {
	return fmt.Sprintf(
		"Search youtube.com and youtu.be for videos about %q published between %s and %s. "+
			"Only return actual video URLs, never /playlist, /channel/, or /@ pages. "+
			"Return JSON only: {\"threads\":[{\"headline\":\"...\",\"url\":\"https://youtube.com/watch?v=...\","+
			"\"forum\":\"...\",\"dated\":\"YYYY-MM-DD\"|null,\"topicality\":0.0,\"rationale\":\"...\","+
			"\"views\":0,\"likes\":0,\"description\":\"...\",\"channel_name\":\"...\"}]}",
		topic, start, end)
}

func (p *youtubeProvider) Search(ctx context.Context, apiKey, model, topic, start, end string, sampling Sampling, mock map[string]any) Result {
	if mock != nil {
		items, err := ParseYouTube(mock)
		return Result{Items: items, Raw: mock, Err: err}
	}
	if p.deps.LLM == nil {
		return Result{Err: fmt.Errorf("providers/youtube: no llm client configured")}
	}

	candidates := append([]string{model}, defaultRedditFallback...)
	timeout := Timeout(content.YouTube, sampling)

	text, _, err := RunWithFallback(ctx, p.deps.Store, "openai", candidates, func(ctx context.Context, m string) (string, error) {
		return p.deps.LLM.Call(ctx, llm.Request{
			Model:           m,
			Prompt:          youtubePrompt(topic, start, end),
			Tool:            llm.Tool{Type: "web_search", Filters: map[string]any{"allowed_domains": []string{"youtube.com", "youtu.be"}}},
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
	items, parseErr := ParseYouTube(obj)
	return Result{Items: items, Raw: obj, Err: parseErr}
}

var rejectedYouTubePaths = []string{"/playlist", "/channel/", "/@"}

// ParseYouTube implements spec.md §4.4's YouTube parser.
func ParseYouTube(obj map[string]any) ([]RawItem, error) {
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
		if !strings.Contains(url, "youtube.com") && !strings.Contains(url, "youtu.be") {
			continue
		}
		rejected := false
		for _, path := range rejectedYouTubePaths {
			if strings.Contains(url, path) {
				rejected = true
				break
			}
		}
		if rejected {
			continue
		}

		dated, _ := t["dated"].(string)
		if !isISODate(dated) {
			dated = ""
		}

		item := RawItem{
			"key":          fmt.Sprintf("YT-%02d", i+1),
			"headline":     stringField(t["headline"]),
			"url":          url,
			"channel_name": stringField(t["channel_name"]),
			"dated":        dated,
			"topicality":   clamp01(floatField(t["topicality"])),
			"rationale":    stringField(t["rationale"]),
			"views":        intOrNil(t["views"]),
			"likes":        intOrNil(t["likes"]),
			"description":  stringField(t["description"]),
		}
		out = append(out, item)
	}
	return out, nil
}
