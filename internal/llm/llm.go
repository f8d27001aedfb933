// Package llm speaks the OpenAI and xAI Responses APIs: a single JSON POST
// carrying a tool (web_search or x_search) plus a text prompt, tolerant of
// the handful of shapes a Responses-API reply can take. Adapted from the
// teacher's internal/gemini/gemini.go retry loop and JSON-extraction logic,
// generalized from a single Gemini call shape to any Responses-API call.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/briefbot/briefbot/internal/httpclient"
)

// Tool describes a Responses-API tool block, e.g. web_search with allowed
// domains, or x_search with no filters.
type Tool struct {
	Type    string         `json:"type"`
	Filters map[string]any `json:"filters,omitempty"`
}

// Request is a Responses-API call: model, prompt, and a single tool.
type Request struct {
	Model           string
	Prompt          string
	Tool            Tool
	Temperature     float64
	MaxOutputTokens int
}

// Client calls a Responses-API-shaped endpoint with the teacher's
// retry/backoff policy and extracts the first balanced JSON object out of
// whatever text shape the model handed back.
type Client struct {
	HTTP      *httpclient.Client
	Endpoint  string
	APIKey    string
	Logger    *slog.Logger
	maxRetries int
}

// NewClient builds an llm.Client pointed at endpoint (OpenAI's or xAI's
// Responses API), authenticated with apiKey.
func NewClient(http *httpclient.Client, endpoint, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{HTTP: http, Endpoint: endpoint, APIKey: apiKey, Logger: logger, maxRetries: 3}
}

// Call issues req and returns the raw response-text. Callers run their own
// per-provider parser over the text; this layer's job stops at "the text
// the model produced", matching spec.md §4.4's split between search and
// parse_*.
func (c *Client) Call(ctx context.Context, req Request, timeout time.Duration) (string, error) {
	body := map[string]any{
		"model": req.Model,
		"input": []map[string]any{
			{"role": "user", "content": req.Prompt},
		},
		"tools": []Tool{req.Tool},
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.MaxOutputTokens > 0 {
		body["max_output_tokens"] = req.MaxOutputTokens
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		resp, err := c.HTTP.RequestJSON(ctx, "POST", c.Endpoint, map[string]string{
			"Authorization": "Bearer " + c.APIKey,
		}, body, timeout, 1)
		if err != nil {
			lastErr = err
			if te, ok := err.(*httpclient.TransportError); ok && te.Status != 0 {
				// Status/body errors are the caller's business for model
				// fallback decisions; surface immediately rather than retry
				// here (the fallback chain is the real retry policy).
				return "", te
			}
			if attempt < c.maxRetries {
				delay := 500 * time.Millisecond * time.Duration(1<<uint(attempt-1))
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(delay):
				}
				continue
			}
			return "", fmt.Errorf("llm: call failed after %d attempts: %w", c.maxRetries, lastErr)
		}
		return ExtractText(resp), nil
	}
	return "", lastErr
}

// ExtractText pulls the model's text out of any of the three shapes
// spec.md §4.4 names: a plain string under "output", a list of dicts with
// nested content[] of {type:output_text, text}, or legacy
// choices[].message.content.
func ExtractText(resp map[string]any) string {
	if s, ok := resp["output"].(string); ok {
		return s
	}
	if list, ok := resp["output"].([]any); ok {
		var sb strings.Builder
		for _, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			content, ok := obj["content"].([]any)
			if !ok {
				continue
			}
			for _, c := range content {
				co, ok := c.(map[string]any)
				if !ok {
					continue
				}
				if co["type"] == "output_text" {
					if txt, ok := co["text"].(string); ok {
						sb.WriteString(txt)
					}
				}
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	if choices, ok := resp["choices"].([]any); ok && len(choices) > 0 {
		if first, ok := choices[0].(map[string]any); ok {
			if msg, ok := first["message"].(map[string]any); ok {
				if s, ok := msg["content"].(string); ok {
					return s
				}
			}
		}
	}
	return ""
}

// ExtractJSONObject scans text for the first balanced top-level JSON
// object and unmarshals it, stripping a fenced ```json code block first if
// present, matching the teacher's sanitizeJSONResponse.
func ExtractJSONObject(text string) (map[string]any, bool) {
	text = stripCodeFence(text)
	start := strings.Index(text, "{")
	if start < 0 {
		return nil, false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				var obj map[string]any
				if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
					return obj, true
				}
				// Not a match at this closing brace; keep scanning for the
				// next top-level object start.
				rest := text[i+1:]
				next := strings.Index(rest, "{")
				if next < 0 {
					return nil, false
				}
				start = i + 1 + next
				i = start - 1
				depth = 0
			}
		}
	}
	return nil, false
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return trimmed
}
