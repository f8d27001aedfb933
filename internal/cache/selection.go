package cache

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/briefbot/briefbot/internal/httpclient"
)

// modelPrefTTL is the long TTL for persisted model-selection preferences,
// distinct from (and much longer than) the response-cache TTL.
const modelPrefTTL = 4 * 24 * time.Hour

// ModelPolicy governs how a provider's model is chosen.
type ModelPolicy string

const (
	PolicyPinned ModelPolicy = "pinned"
	PolicyAuto   ModelPolicy = "auto"
	PolicyLatest ModelPolicy = "latest"
)

var (
	gptStandard = regexp.MustCompile(`^gpt-5(\.\d+)*$`)
	gptBlocklist = []string{"mini", "nano", "chat", "codex", "preview", "turbo", "experimental", "snapshot"}
)

// OpenAIModelInfo is one entry from the model-listing endpoint.
type OpenAIModelInfo struct {
	ID        string
	CreatedAt int64
}

// ChooseOpenAIModel implements spec.md §4.3's OpenAI selection: pinned
// policy returns the pin; auto policy prefers a fresh cached selection,
// otherwise lists models, filters to standard GPT identifiers, sorts by
// (version, created_at) descending, and persists the winner.
func (s *Store) ChooseOpenAIModel(ctx context.Context, client *httpclient.Client, policy ModelPolicy, pin string, apiKey string, mockList []OpenAIModelInfo) (string, error) {
	if policy == PolicyPinned {
		return pin, nil
	}
	if cached, ok := s.CachedModel("openai", modelPrefTTL); ok {
		return cached, nil
	}

	list := mockList
	if list == nil {
		fetched, err := listOpenAIModels(ctx, client, apiKey)
		if err != nil {
			return "", err
		}
		list = fetched
	}

	var candidates []OpenAIModelInfo
	for _, m := range list {
		if !gptStandard.MatchString(m.ID) {
			continue
		}
		blocked := false
		for _, b := range gptBlocklist {
			if strings.Contains(m.ID, b) {
				blocked = true
				break
			}
		}
		if !blocked {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return "", nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		vi, vj := versionTuple(candidates[i].ID), versionTuple(candidates[j].ID)
		if cmp := compareVersionTuples(vi, vj); cmp != 0 {
			return cmp > 0
		}
		return candidates[i].CreatedAt > candidates[j].CreatedAt
	})
	winner := candidates[0].ID
	s.SetCachedModel("openai", winner)
	return winner, nil
}

func versionTuple(id string) []int {
	trimmed := strings.TrimPrefix(id, "gpt-")
	parts := strings.Split(trimmed, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, _ := strconv.Atoi(p)
		out[i] = n
	}
	return out
}

func compareVersionTuples(a, b []int) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			return av - bv
		}
	}
	return 0
}

func listOpenAIModels(ctx context.Context, client *httpclient.Client, apiKey string) ([]OpenAIModelInfo, error) {
	resp, err := client.RequestJSON(ctx, "GET", "https://api.openai.com/v1/models", map[string]string{
		"Authorization": "Bearer " + apiKey,
	}, nil, 20*time.Second, 2)
	if err != nil {
		return nil, err
	}
	raw, _ := resp["data"].([]any)
	out := make([]OpenAIModelInfo, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := obj["id"].(string)
		var created int64
		if c, ok := obj["created"].(float64); ok {
			created = int64(c)
		}
		out = append(out, OpenAIModelInfo{ID: id, CreatedAt: created})
	}
	return out, nil
}

// xaiPreferenceOrder is the ordered fallback list supplemented from
// original_source, tried in order when no cached xAI selection exists.
var xaiPreferenceOrder = []string{
	"grok-4-fast",
	"grok-4-1-fast-non-reasoning",
	"grok-4-1-fast-reasoning",
	"grok-4-1",
	"grok-4",
}

const xaiHardcodedFallback = "grok-4"

// ChooseXAIModel implements spec.md §4.3's xAI selection.
func (s *Store) ChooseXAIModel(ctx context.Context, client *httpclient.Client, policy ModelPolicy, pin string, apiKey string, mockList []string) (string, error) {
	if policy == PolicyPinned {
		return pin, nil
	}
	if cached, ok := s.CachedModel("xai", modelPrefTTL); ok {
		return cached, nil
	}

	list := mockList
	if list == nil {
		fetched, err := listXAIModels(ctx, client, apiKey)
		if err != nil {
			return "", err
		}
		list = fetched
	}

	available := make(map[string]bool, len(list))
	for _, m := range list {
		available[m] = true
	}
	for _, candidate := range xaiPreferenceOrder {
		if available[candidate] {
			s.SetCachedModel("xai", candidate)
			return candidate, nil
		}
	}

	var grokModels []string
	for _, m := range list {
		if strings.HasPrefix(m, "grok-4") {
			grokModels = append(grokModels, m)
		}
	}
	if len(grokModels) > 0 {
		sort.Strings(grokModels)
		s.SetCachedModel("xai", grokModels[0])
		return grokModels[0], nil
	}

	s.SetCachedModel("xai", xaiHardcodedFallback)
	return xaiHardcodedFallback, nil
}

func listXAIModels(ctx context.Context, client *httpclient.Client, apiKey string) ([]string, error) {
	resp, err := client.RequestJSON(ctx, "GET", "https://api.x.ai/v1/models", map[string]string{
		"Authorization": "Bearer " + apiKey,
	}, nil, 20*time.Second, 2)
	if err != nil {
		return nil, err
	}
	raw, _ := resp["data"].([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]any); ok {
			if id, ok := obj["id"].(string); ok {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

// SelectedModels is the {openai, xai} pair returned to the orchestrator.
type SelectedModels struct {
	OpenAI string
	XAI    string
}

// GetModels resolves both vendor models based on which credentials are
// present, matching spec.md's get_models.
func (s *Store) GetModels(ctx context.Context, client *httpclient.Client, openaiKey, xaiKey string, openaiPolicy, xaiPolicy ModelPolicy, openaiPin, xaiPin string, mockOpenAI []OpenAIModelInfo, mockXAI []string) SelectedModels {
	var out SelectedModels
	if openaiKey != "" {
		if m, err := s.ChooseOpenAIModel(ctx, client, openaiPolicy, openaiPin, openaiKey, mockOpenAI); err == nil {
			out.OpenAI = m
		}
	}
	if xaiKey != "" {
		if m, err := s.ChooseXAIModel(ctx, client, xaiPolicy, xaiPin, xaiKey, mockXAI); err == nil {
			out.XAI = m
		}
	}
	return out
}
