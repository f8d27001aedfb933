package providers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/briefbot/briefbot/internal/cache"
	"github.com/briefbot/briefbot/internal/httpclient"
	"github.com/briefbot/briefbot/internal/llm"
)

// Deps bundles the shared collaborators every provider needs.
type Deps struct {
	LLM    *llm.Client
	Store  *cache.Store
	Logger *slog.Logger
}

// accessErrorStatuses are the HTTP statuses that, combined with an
// access/verification body pattern, trigger model fallback rather than
// propagating.
var accessErrorStatuses = map[int]bool{
	400: true, 401: true, 403: true, 404: true, 409: true, 422: true, 429: true,
}

var accessErrorPatterns = []string{
	"organization must be verified",
	"does not have access",
	"model not found",
	"not available for your account",
	"access denied",
}

// IsAccessError reports whether status/body match the access-error pattern
// spec.md §4.4 describes. A 403 with an empty body counts as an access
// error too.
func IsAccessError(status int, body string) bool {
	if !accessErrorStatuses[status] {
		return false
	}
	if status == 403 && strings.TrimSpace(body) == "" {
		return true
	}
	lower := strings.ToLower(body)
	for _, pattern := range accessErrorPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// CallFn issues one LLM call for a candidate model and returns its raw
// Responses-API text, or an httpclient.TransportError on failure.
type CallFn func(ctx context.Context, model string) (string, error)

// RunWithFallback tries candidates in order, starting with the
// caller-supplied model. On an access-error response it moves to the next
// candidate; on success it persists the winning model via provider (the
// cache key, "openai" or "xai") and returns its text. Non-access errors
// propagate immediately.
func RunWithFallback(ctx context.Context, store *cache.Store, providerKey string, candidates []string, call CallFn) (string, string, error) {
	var lastErr error
	for i, model := range candidates {
		text, err := call(ctx, model)
		if err == nil {
			if store != nil {
				store.SetCachedModel(providerKey, model)
			}
			return text, model, nil
		}
		if te, ok := err.(*httpclient.TransportError); ok && IsAccessError(te.Status, te.Body) {
			lastErr = err
			continue
		}
		return "", model, err
	}
	return "", "", lastErr
}

// xaiDiscoverFallback queries the live xAI model list for any grok-*
// candidate not already tried, used once the hardcoded fallback chain is
// exhausted.
func xaiDiscoverFallback(ctx context.Context, httpc *httpclient.Client, apiKey string, tried map[string]bool) []string {
	if httpc == nil {
		return nil
	}
	resp, err := httpc.RequestJSON(ctx, "GET", "https://api.x.ai/v1/models", map[string]string{
		"Authorization": "Bearer " + apiKey,
	}, nil, 20*time.Second, 1)
	if err != nil {
		return nil
	}
	raw, _ := resp["data"].([]any)
	var out []string
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := obj["id"].(string)
		if strings.HasPrefix(id, "grok-") && !tried[id] {
			out = append(out, id)
		}
	}
	return out
}
