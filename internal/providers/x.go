package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/briefbot/briefbot/internal/content"
	"github.com/briefbot/briefbot/internal/httpclient"
	"github.com/briefbot/briefbot/internal/llm"
)

// defaultXAIFallback is the ordered candidate chain supplemented from
// original_source, tried after the caller-supplied model.
var defaultXAIFallback = []string{"grok-4-fast", "grok-4-1-fast-non-reasoning", "grok-4-1-fast-reasoning", "grok-4-1", "grok-4"}

type xProvider struct{ deps Deps }

func NewXProvider(deps Deps) Provider { return &xProvider{deps: deps} }

func (p *xProvider) Channel() content.Channel { return content.X }

func xPrompt(topic, start, end string) string {
	return fmt.Sprintf(
		"Find recent posts about %q published between %s and %s with strong engagement. "+
			"Return JSON only: {\"posts\":[{\"excerpt\":\"...\",\"link\":\"https://x.com/...\","+
			"\"handle\":\"...\",\"posted\":\"YYYY-MM-DD\",\"metrics\":{\"likes\":0,\"reposts\":0,"+
			"\"replies\":0,\"quotes\":0},\"signal\":0.0,\"reason\":\"...\"}]}",
		topic, start, end)
}

func (p *xProvider) Search(ctx context.Context, apiKey, model, topic, start, end string, sampling Sampling, mock map[string]any) Result {
	if mock != nil {
		items, err := ParseX(mock)
		return Result{Items: items, Raw: mock, Err: err}
	}
	if p.deps.LLM == nil {
		return Result{Err: fmt.Errorf("providers/x: no llm client configured")}
	}

	candidates := append([]string{model}, defaultXAIFallback...)
	timeout := Timeout(content.X, sampling)

	tried := map[string]bool{}
	text, _, err := RunWithFallback(ctx, p.deps.Store, "xai", candidates, func(ctx context.Context, m string) (string, error) {
		tried[m] = true
		return p.deps.LLM.Call(ctx, llm.Request{
			Model:  m,
			Prompt: xPrompt(topic, start, end),
			Tool:   llm.Tool{Type: "x_search"},
		}, timeout)
	})
	if err != nil {
		// Once the hardcoded chain is exhausted, query the live list for
		// any untried grok-* candidate before giving up, per spec.md §4.4.
		// A non-access error stopped the chain early and propagates as is.
		if te, ok := err.(*httpclient.TransportError); !ok || !IsAccessError(te.Status, te.Body) {
			return Result{Err: err}
		}
		discovered := xaiDiscoverFallback(ctx, p.deps.LLM.HTTP, apiKey, tried)
		if len(discovered) == 0 {
			return Result{Err: err}
		}
		text, _, err = RunWithFallback(ctx, p.deps.Store, "xai", discovered, func(ctx context.Context, m string) (string, error) {
			return p.deps.LLM.Call(ctx, llm.Request{
				Model:  m,
				Prompt: xPrompt(topic, start, end),
				Tool:   llm.Tool{Type: "x_search"},
			}, timeout)
		})
		if err != nil {
			return Result{Err: err}
		}
	}

	obj, ok := llm.ExtractJSONObject(text)
	if !ok {
		return Result{}
	}
	items, parseErr := ParseX(obj)
	return Result{Items: items, Raw: obj, Err: parseErr}
}

// ParseX implements spec.md §4.4's X parser.
func ParseX(obj map[string]any) ([]RawItem, error) {
	posts, ok := obj["posts"].([]any)
	if !ok {
		return nil, nil
	}
	out := make([]RawItem, 0, len(posts))
	for i, raw := range posts {
		p, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		handle := strings.TrimPrefix(stringField(p["handle"]), "@")
		posted := stringField(p["posted"])
		if !isISODate(posted) {
			posted = ""
		}

		metrics, _ := p["metrics"].(map[string]any)
		item := RawItem{
			"key":     fmt.Sprintf("X%d", i+1),
			"excerpt": stringField(p["excerpt"]),
			"link":    stringField(p["link"]),
			"handle":  handle,
			"posted":  posted,
			"likes":   intOrNil(metrics["likes"]),
			"reposts": intOrNil(metrics["reposts"]),
			"replies": intOrNil(metrics["replies"]),
			"quotes":  intOrNil(metrics["quotes"]),
			"signal":  clamp01(floatField(p["signal"])),
			"reason":  stringField(p["reason"]),
		}
		out = append(out, item)
	}
	return out, nil
}

func intOrNil(v any) *int {
	switch x := v.(type) {
	case float64:
		i := int(x)
		return &i
	case int:
		return &x
	}
	return nil
}
