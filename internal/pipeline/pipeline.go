// Package pipeline wires the research pipeline's components into a
// single orchestrator: resolve requested channels against available
// credentials, fan out to providers concurrently, enrich Reddit threads,
// normalize raw items into Signals, filter/rank/dedup, and populate a
// Brief. Grounded on the teacher's internal/personalization/curate.go
// worker-pool shape (buffered job channel + sync.WaitGroup) adapted from
// a persistent background pool to a bounded one-shot fan-out of exactly
// len(channels) goroutines, and on internal/scheduler/scheduler.go's
// per-type-goroutine + buffered-error-channel pattern.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/briefbot/briefbot/internal/cache"
	"github.com/briefbot/briefbot/internal/content"
	"github.com/briefbot/briefbot/internal/dedup"
	"github.com/briefbot/briefbot/internal/enrichment"
	"github.com/briefbot/briefbot/internal/httpclient"
	"github.com/briefbot/briefbot/internal/intent"
	"github.com/briefbot/briefbot/internal/llm"
	"github.com/briefbot/briefbot/internal/providers"
	"github.com/briefbot/briefbot/internal/ranking"
)

// Credentials bundles the provider API keys and model-selection policy.
// Absence of a key disables the corresponding channel.
type Credentials struct {
	OpenAIAPIKey     string
	XAIAPIKey        string
	OpenAIModelPolicy cache.ModelPolicy
	XAIModelPolicy    cache.ModelPolicy
	OpenAIPin         string
	XAIPin            string
	MockOpenAIModels  []cache.OpenAIModelInfo
	MockXAIModels     []string
}

// ProgressSink is the narrow callback protocol an external caller (e.g.
// a CLI) may supply. A nil Sink is treated as a complete no-op. The core never reads from stdout/stderr directly.
type ProgressSink interface {
	StartChannel(ch content.Channel)
	EndChannel(ch content.Channel, n int)
	StartReddit()
	EndReddit(n int)
	StartRedditEnrich(current, total int)
	UpdateRedditEnrich(current, total int)
	EndRedditEnrich()
	ShowError(msg string)
	StartProcessing()
	EndProcessing()
	ShowComplete(itemCount int, durationMS int64)
}

// Options configures a single Run invocation.
type Options struct {
	Topic          string
	Span           content.Span
	RequestedMode  string
	Credentials    Credentials
	Sampling       providers.Sampling
	Mock           map[content.Channel]map[string]any // fixture JSON per channel; when set, that channel's provider parses the fixture instead of calling its API (Reddit thread enrichment still fetches over the network)
	WebResults     []providers.WebResult
	IncludeWeb     bool
	ExcludeUndated bool
	Refresh        bool
	Progress       ProgressSink
	Store          *cache.Store
	HTTP           *httpclient.Client
	Logger         *slog.Logger
}

type noopSink struct{}

func (noopSink) StartChannel(content.Channel)          {}
func (noopSink) EndChannel(content.Channel, int)       {}
func (noopSink) StartReddit()                          {}
func (noopSink) EndReddit(int)                          {}
func (noopSink) StartRedditEnrich(int, int)            {}
func (noopSink) UpdateRedditEnrich(int, int)           {}
func (noopSink) EndRedditEnrich()                      {}
func (noopSink) ShowError(string)                      {}
func (noopSink) StartProcessing()                      {}
func (noopSink) EndProcessing()                        {}
func (noopSink) ShowComplete(int, int64)                {}

var allChannels = []content.Channel{content.Reddit, content.X, content.YouTube, content.LinkedIn}

// ResolveSources maps a requested mode string to the effective channel set
// given which credentials are available, per spec.md §4.9. Web is only
// included when includeWeb is true (the caller actually supplied results).
func ResolveSources(requested string, available map[content.Channel]bool, includeWeb bool) (mode string, channels []content.Channel) {
	anyCred := available[content.Reddit] || available[content.X] || available[content.YouTube] || available[content.LinkedIn]
	if !anyCred {
		if includeWeb {
			return "web-only", []content.Channel{content.Web}
		}
		return "web-only", nil
	}

	requested = strings.ToLower(strings.TrimSpace(requested))
	var want []content.Channel
	switch requested {
	case "reddit":
		want = []content.Channel{content.Reddit}
	case "x":
		want = []content.Channel{content.X}
	case "youtube":
		want = []content.Channel{content.YouTube}
	case "linkedin":
		want = []content.Channel{content.LinkedIn}
	case "web":
		want = nil
	case "both":
		want = []content.Channel{content.Reddit, content.X}
	case "reddit-web":
		want = []content.Channel{content.Reddit}
	case "x-web":
		want = []content.Channel{content.X}
	case "all", "auto", "":
		want = append(want, allChannels...)
	default:
		want = append(want, allChannels...)
	}

	var effective []content.Channel
	for _, ch := range want {
		if available[ch] {
			effective = append(effective, ch)
		}
	}
	if includeWeb && (requested == "web" || requested == "all" || requested == "auto" || requested == "" ||
		requested == "reddit-web" || requested == "x-web") {
		effective = append(effective, content.Web)
	}

	if len(effective) == 0 {
		if includeWeb {
			return "web-only", []content.Channel{content.Web}
		}
		return "web-only", nil
	}
	if requested == "" || requested == "auto" {
		requested = "auto"
	}
	return requested, effective
}

type dispatchResult struct {
	channel content.Channel
	items   []providers.RawItem
	raw     map[string]any
	err     error
}

// Run executes one research pipeline pass: resolve channels, dispatch
// provider tasks concurrently, enrich Reddit, normalize, filter, rank,
// dedup, and populate a Brief. Matches spec.md §6's
// run(topic, span, channels, credentials, sampling, mock) -> Brief shape.
func Run(ctx context.Context, opts Options) (*content.Brief, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Progress
	if sink == nil {
		sink = noopSink{}
	}
	store := opts.Store
	if store == nil {
		store = cache.NewStore("", logger)
	}
	httpc := opts.HTTP
	if httpc == nil {
		httpc = httpclient.NewClient(logger)
	}

	available := map[content.Channel]bool{
		content.Reddit:   opts.Credentials.OpenAIAPIKey != "",
		content.YouTube:  opts.Credentials.OpenAIAPIKey != "",
		content.LinkedIn: opts.Credentials.OpenAIAPIKey != "",
		content.X:        opts.Credentials.XAIAPIKey != "",
	}
	mode, channels := ResolveSources(opts.RequestedMode, available, opts.IncludeWeb)

	channelSet := channelSetKey(channels)
	cacheKey := cache.CacheKey(opts.Topic, opts.Span.Start, opts.Span.End, channelSet)
	if !opts.Refresh {
		if data, age, ok := store.LoadWithAge(cacheKey, 20*time.Hour); ok {
			if brief, err := decodeBrief(data); err == nil {
				brief.Cache = content.CacheInfo{Enabled: true, AgeHours: age.Hours()}
				return brief, nil
			}
		}
	}

	start := time.Now()
	brief := content.NewBrief(opts.Topic, opts.Span, start.UTC().Format(time.RFC3339))
	brief.Mode = mode

	models := store.GetModels(ctx, httpc,
		opts.Credentials.OpenAIAPIKey, opts.Credentials.XAIAPIKey,
		firstNonEmptyPolicy(opts.Credentials.OpenAIModelPolicy, cache.PolicyAuto),
		firstNonEmptyPolicy(opts.Credentials.XAIModelPolicy, cache.PolicyLatest),
		opts.Credentials.OpenAIPin, opts.Credentials.XAIPin,
		opts.Credentials.MockOpenAIModels, opts.Credentials.MockXAIModels)
	if models.OpenAI != "" {
		brief.Models["openai"] = models.OpenAI
	}
	if models.XAI != "" {
		brief.Models["xai"] = models.XAI
	}

	complexity, complexityReason := intent.ClassifyComplexity(opts.Topic)
	stance, stanceReason := intent.ClassifyEpistemicStance(opts.Topic)
	brief.ComplexityClass = string(complexity)
	brief.ComplexityReason = complexityReason
	brief.EpistemicStance = string(stance)
	brief.EpistemicReason = stanceReason

	openaiClient := llm.NewClient(httpc, "https://api.openai.com/v1/responses", opts.Credentials.OpenAIAPIKey, logger)
	xaiClient := llm.NewClient(httpc, "https://api.x.ai/v1/responses", opts.Credentials.XAIAPIKey, logger)
	openaiDeps := providers.Deps{LLM: openaiClient, Store: store, Logger: logger}
	xaiDeps := providers.Deps{LLM: xaiClient, Store: store, Logger: logger}

	results := dispatch(ctx, opts, channels, models, openaiDeps, xaiDeps, sink)

	var allItems []providers.RawItem
	channelOf := map[int]content.Channel{}
	for _, res := range results {
		if res.channel == "" {
			continue
		}
		sink.EndChannel(res.channel, len(res.items))
		if res.channel == content.Reddit {
			sink.EndReddit(len(res.items))
		}
		brief.SetError(string(res.channel), res.err)
		for _, item := range res.items {
			channelOf[len(allItems)] = res.channel
			allItems = append(allItems, item)
		}
	}
	if opts.IncludeWeb && channelIncluded(channels, content.Web) {
		webItems := providers.ProcessResults(opts.WebResults, opts.Topic, opts.Span.Start, opts.Span.End)
		for _, item := range webItems {
			channelOf[len(allItems)] = content.Web
			allItems = append(allItems, item)
		}
	}

	sink.StartProcessing()

	signals := make([]*content.Signal, 0, len(allItems))
	for i, item := range allItems {
		s := toSignal(channelOf[i], item)
		signals = append(signals, s)
	}

	redditSignals := filterByChannel(signals, content.Reddit)
	sink.StartRedditEnrich(0, len(redditSignals))
	for i, s := range redditSignals {
		enrichment.Enrich(ctx, httpc, s, func(msg string) { sink.ShowError(msg) })
		sink.UpdateRedditEnrich(i+1, len(redditSignals))
	}
	sink.EndRedditEnrich()

	for _, s := range signals {
		s.ApplyTimeConfidence(opts.Span.Start, opts.Span.End)
	}

	signals = hardDateFilter(signals, opts.Span.Start, opts.Span.End, opts.ExcludeUndated)

	platformSignals := make([]*content.Signal, 0, len(signals))
	var webSignals []*content.Signal
	for _, s := range signals {
		if s.Channel == content.Web {
			webSignals = append(webSignals, s)
			continue
		}
		platformSignals = append(platformSignals, s)
	}
	for _, ch := range allChannels {
		ranking.RankPlatformBatch(filterByChannel(platformSignals, ch))
	}
	for _, s := range webSignals {
		ranking.RankWeb(s)
	}

	signals = append(platformSignals, webSignals...)
	signals = dedup.Deduplicate(signals, 0.88)

	weights := intent.StanceWeights(stance)
	ranking.ApplyStanceWeights(signals, weights)
	ranking.SortGlobally(signals)

	brief.Items = make([]content.Signal, 0, len(signals))
	for _, s := range signals {
		brief.Items = append(brief.Items, *s)
	}

	brief.Metrics = content.Metrics{
		SearchDurationMS: time.Since(start).Milliseconds(),
		ItemCount:        len(brief.Items),
	}
	sink.EndProcessing()
	sink.ShowComplete(len(brief.Items), brief.Metrics.SearchDurationMS)

	store.Save(cacheKey, brief)
	return brief, nil
}

func dispatch(ctx context.Context, opts Options, channels []content.Channel, models cache.SelectedModels, openaiDeps, xaiDeps providers.Deps, sink ProgressSink) []dispatchResult {
	results := make([]dispatchResult, len(channels))
	var wg sync.WaitGroup
	for i, ch := range channels {
		if ch == content.Web {
			continue
		}
		wg.Add(1)
		go func(i int, ch content.Channel) {
			defer wg.Done()
			sink.StartChannel(ch)
			if ch == content.Reddit {
				sink.StartReddit()
			}
			deps := openaiDeps
			if ch == content.X {
				deps = xaiDeps
			}
			results[i] = runProvider(ctx, opts, ch, models, deps)
		}(i, ch)
	}
	wg.Wait()
	return results
}

func runProvider(ctx context.Context, opts Options, ch content.Channel, models cache.SelectedModels, deps providers.Deps) dispatchResult {
	provider, err := providers.Factory(ch, deps)
	if err != nil {
		return dispatchResult{channel: ch, err: err}
	}

	timeout := providers.Timeout(ch, opts.Sampling)
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	apiKey, model := apiKeyAndModel(ch, opts, models)
	mock := opts.Mock[ch]
	res := provider.Search(taskCtx, apiKey, model, opts.Topic, opts.Span.Start, opts.Span.End, opts.Sampling, mock)
	return dispatchResult{channel: ch, items: res.Items, raw: res.Raw, err: res.Err}
}

// apiKeyAndModel returns the channel's API key and its already-resolved
// model id (from GetModels), which providers use as the first fallback
// candidate before trying their hardcoded chain.
func apiKeyAndModel(ch content.Channel, opts Options, models cache.SelectedModels) (string, string) {
	switch ch {
	case content.X:
		return opts.Credentials.XAIAPIKey, models.XAI
	default:
		return opts.Credentials.OpenAIAPIKey, models.OpenAI
	}
}

func channelIncluded(channels []content.Channel, target content.Channel) bool {
	for _, ch := range channels {
		if ch == target {
			return true
		}
	}
	return false
}

func channelSetKey(channels []content.Channel) string {
	names := make([]string, 0, len(channels))
	for _, ch := range channels {
		names = append(names, string(ch))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func firstNonEmptyPolicy(p cache.ModelPolicy, fallback cache.ModelPolicy) cache.ModelPolicy {
	if p == "" {
		return fallback
	}
	return p
}

func filterByChannel(signals []*content.Signal, ch content.Channel) []*content.Signal {
	var out []*content.Signal
	for _, s := range signals {
		if s.Channel == ch {
			out = append(out, s)
		}
	}
	return out
}

// hardDateFilter drops items whose dated falls outside [start, end];
// items with an absent dated are kept unless excludeUndated is set.
func hardDateFilter(signals []*content.Signal, start, end string, excludeUndated bool) []*content.Signal {
	out := make([]*content.Signal, 0, len(signals))
	for _, s := range signals {
		if s.Dated == "" {
			if !excludeUndated {
				out = append(out, s)
			}
			continue
		}
		if s.Dated < start || s.Dated > end {
			continue
		}
		out = append(out, s)
	}
	return out
}

// toSignal converts one provider's RawItem into a content.Signal, per
// spec.md §4.9 step 2's per-channel factories.
func toSignal(ch content.Channel, item providers.RawItem) *content.Signal {
	s := &content.Signal{
		Channel: ch,
		Extras:  map[string]string{},
	}
	switch ch {
	case content.Reddit:
		s.Key = strField(item, "key")
		s.Headline = strField(item, "headline")
		s.URL = strField(item, "url")
		s.Byline = strField(item, "forum")
		s.Dated = strField(item, "dated")
		s.Topicality = floatFieldRaw(item, "topicality")
		s.Rationale = strField(item, "rationale")
		s.Extras["subreddit"] = strField(item, "forum")
	case content.X:
		s.Key = strField(item, "key")
		s.Headline = strField(item, "excerpt")
		s.URL = strField(item, "link")
		s.Byline = "@" + strField(item, "handle")
		s.Dated = strField(item, "posted")
		s.Topicality = floatFieldRaw(item, "signal")
		s.Rationale = strField(item, "reason")
		s.Interaction = &content.Interaction{
			Likes:   intPtrField(item, "likes"),
			Reposts: intPtrField(item, "reposts"),
			Replies: intPtrField(item, "replies"),
			Quotes:  intPtrField(item, "quotes"),
		}
	case content.YouTube:
		s.Key = strField(item, "key")
		s.Headline = strField(item, "headline")
		s.URL = strField(item, "url")
		s.Byline = strField(item, "channel_name")
		s.Blurb = strField(item, "description")
		s.Dated = strField(item, "dated")
		s.Topicality = floatFieldRaw(item, "topicality")
		s.Rationale = strField(item, "rationale")
		s.Interaction = &content.Interaction{
			Views: intPtrField(item, "views"),
			Likes: intPtrField(item, "likes"),
		}
	case content.LinkedIn:
		s.Key = strField(item, "key")
		s.Headline = strField(item, "headline")
		s.URL = strField(item, "url")
		s.Byline = strField(item, "author")
		s.Dated = strField(item, "dated")
		s.Topicality = floatFieldRaw(item, "topicality")
		s.Rationale = strField(item, "rationale")
		s.Extras["author_title"] = strField(item, "role")
		s.Interaction = &content.Interaction{
			Reactions: intPtrField(item, "reactions"),
			Comments:  intPtrField(item, "comments"),
		}
	case content.Web:
		s.Key = strField(item, "key")
		s.Headline = strField(item, "headline")
		s.URL = strField(item, "url")
		s.Blurb = strField(item, "blurb")
		s.Dated = strField(item, "dated")
		s.Topicality = floatFieldRaw(item, "topicality")
		s.Extras["source_domain"] = webHost(s.URL)
	}
	s.ClampTopicality()
	return s
}

func strField(item providers.RawItem, key string) string {
	s, _ := item[key].(string)
	return s
}

func floatFieldRaw(item providers.RawItem, key string) float64 {
	switch v := item[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func intPtrField(item providers.RawItem, key string) *int {
	v, _ := item[key].(*int)
	return v
}

func webHost(raw string) string {
	idx := strings.Index(raw, "://")
	if idx < 0 {
		return ""
	}
	rest := raw[idx+3:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func decodeBrief(data []byte) (*content.Brief, error) {
	var brief content.Brief
	if err := json.Unmarshal(data, &brief); err != nil {
		return nil, fmt.Errorf("pipeline: decode cached brief: %w", err)
	}
	return &brief, nil
}
