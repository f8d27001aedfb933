// Package providers implements the five discovery providers in the
// unified shape spec.md §4.4 describes: search against an LLM Responses
// API (or, for Web, no network call at all) followed by a tolerant parser.
// Grounded on the teacher's internal/source/source.go Source interface and
// Factory, adapted from "content source" to "discovery provider".
package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/briefbot/briefbot/internal/content"
)

// RawItem is one unparsed item as produced by a provider's parse_* step,
// before it is converted into a content.Signal by the pipeline.
type RawItem map[string]any

// Sampling governs target item counts and per-provider timeouts.
type Sampling string

const (
	Lite     Sampling = "lite"
	Standard Sampling = "standard"
	Dense    Sampling = "dense"
)

// TargetCount returns the (min, max) target item count for a channel and
// sampling tier, per spec.md §4.4.
func TargetCount(ch content.Channel, tier Sampling) (int, int) {
	switch tier {
	case Lite:
		return 6, 14
	case Dense:
		return 26, 74
	default:
		switch ch {
		case content.Reddit:
			return 18, 32
		case content.X:
			return 14, 30
		default:
			return 12, 22
		}
	}
}

// Timeout returns the per-task timeout for a channel and sampling tier.
func Timeout(ch content.Channel, tier Sampling) time.Duration {
	table := map[content.Channel]map[Sampling]time.Duration{
		content.Reddit: {Lite: 60 * time.Second, Standard: 90 * time.Second, Dense: 150 * time.Second},
		content.X:      {Lite: 70 * time.Second, Standard: 100 * time.Second, Dense: 145 * time.Second},
		content.YouTube:  {Lite: 90 * time.Second, Standard: 120 * time.Second, Dense: 180 * time.Second},
		content.LinkedIn: {Lite: 90 * time.Second, Standard: 120 * time.Second, Dense: 180 * time.Second},
	}
	if byTier, ok := table[ch]; ok {
		if d, ok := byTier[tier]; ok {
			return d
		}
		return byTier[Standard]
	}
	return 90 * time.Second
}

// Result is what a provider task returns to the orchestrator: parsed
// items, the raw response (kept for debugging/fixture capture), and an
// optional error.
type Result struct {
	Items []RawItem
	Raw   map[string]any
	Err   error
}

// Provider is the shape every discovery provider implements.
type Provider interface {
	Channel() content.Channel
	Search(ctx context.Context, apiKey, model, topic, start, end string, sampling Sampling, mock map[string]any) Result
}

// Factory builds the Provider for a channel, or an error if the channel is
// unrecognized. Mirrors the teacher's source.Factory switch shape.
func Factory(ch content.Channel, deps Deps) (Provider, error) {
	switch ch {
	case content.Reddit:
		return NewRedditProvider(deps), nil
	case content.X:
		return NewXProvider(deps), nil
	case content.YouTube:
		return NewYouTubeProvider(deps), nil
	case content.LinkedIn:
		return NewLinkedInProvider(deps), nil
	case content.Web:
		return NewWebProvider(), nil
	default:
		return nil, fmt.Errorf("providers: unknown channel %q", ch)
	}
}
