// Package ranking computes per-channel interaction composites, percentile
// normalization, the weighted-geometric combine, and the global ordering
// key described in spec.md §4.7.
package ranking

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/briefbot/briefbot/internal/content"
	"github.com/briefbot/briefbot/internal/timeframe"
)

// PlatformWeights are the weights for Reddit/X/YouTube/LinkedIn scoring.
var PlatformWeights = map[string]float64{
	"topicality": 0.38,
	"freshness":  0.27,
	"traction":   0.23,
	"trust":      0.12,
}

// WebWeights are the weights for the Web channel's simpler formula.
var WebWeights = map[string]float64{
	"topicality": 0.52,
	"freshness":  0.33,
	"trust":      0.15,
}

// SourceTrustBase is the baseline trust score per channel.
var SourceTrustBase = map[content.Channel]int{
	content.Reddit:   61,
	content.X:        53,
	content.YouTube:  59,
	content.LinkedIn: 66,
	content.Web:      49,
}

const (
	trustAdjustSolid   = 6
	trustAdjustWeak    = -5
	trustAdjustUnknown = -10

	missingInteractionFallback = 42
	missingInteractionPenalty  = -7

	webSourcePenalty      = -6
	webDateSolidBonus     = 5
	webDateWeakPenalty    = -9
	webDateUnknownPenalty = -13

	tractionFallback = 42
)

func scale(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Sqrt(x)
}

func optFloat(p *int) float64 {
	if p == nil {
		return 0
	}
	return float64(*p)
}

// RedditPulse computes the Reddit interaction composite.
func RedditPulse(in *content.Interaction) float64 {
	if in == nil {
		return 0
	}
	ratio := 0.55
	if in.VoteRatio != nil {
		ratio = clamp01(*in.VoteRatio)
	}
	return 0.40*scale(optFloat(in.Upvotes)) + 0.40*scale(optFloat(in.Comments)) + 0.20*(ratio*10)
}

// XPulse computes the X interaction composite.
func XPulse(in *content.Interaction) float64 {
	if in == nil {
		return 0
	}
	return 0.46*scale(optFloat(in.Likes)) + 0.26*scale(optFloat(in.Replies)) + 0.16*scale(optFloat(in.Reposts)) + 0.12*scale(optFloat(in.Quotes))
}

// YouTubePulse computes the YouTube interaction composite.
func YouTubePulse(in *content.Interaction) float64 {
	if in == nil {
		return 0
	}
	return 0.68*scale(optFloat(in.Views)) + 0.32*scale(optFloat(in.Likes))
}

// LinkedInPulse computes the LinkedIn interaction composite.
func LinkedInPulse(in *content.Interaction) float64 {
	if in == nil {
		return 0
	}
	return 0.62*scale(optFloat(in.Reactions)) + 0.38*scale(optFloat(in.Comments))
}

// Pulse dispatches to the right composite for a channel and stores the
// result on the Interaction.
func Pulse(ch content.Channel, in *content.Interaction) float64 {
	if in == nil {
		return 0
	}
	var p float64
	switch ch {
	case content.Reddit:
		p = RedditPulse(in)
	case content.X:
		p = XPulse(in)
	case content.YouTube:
		p = YouTubePulse(in)
	case content.LinkedIn:
		p = LinkedInPulse(in)
	}
	in.Pulse = p
	return p
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// PercentileRanks computes, for a batch of nullable values, each value's
// percentile position after sorting ascending: (rank_index / max(1, n-1)) * 100.
// Equal values share the rank_index of the first of them, so the result is
// monotone in the input. Nulls are replaced by fallback before ranking.
func PercentileRanks(values []*float64, fallback float64) []float64 {
	n := len(values)
	filled := make([]float64, n)
	for i, v := range values {
		if v == nil {
			filled[i] = fallback
		} else {
			filled[i] = *v
		}
	}

	type indexed struct {
		value float64
		index int
	}
	sorted := make([]indexed, n)
	for i, v := range filled {
		sorted[i] = indexed{value: v, index: i}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].value < sorted[j].value })

	out := make([]float64, n)
	denom := float64(n - 1)
	if denom < 1 {
		denom = 1
	}
	groupStart := 0
	for rank, item := range sorted {
		if rank > 0 && item.value != sorted[rank-1].value {
			groupStart = rank
		}
		out[item.index] = (float64(groupStart) / denom) * 100
	}
	return out
}

func trustFor(ch content.Channel, conf timeframe.Confidence) int {
	base := SourceTrustBase[ch]
	switch conf {
	case timeframe.SOLID:
		return base + trustAdjustSolid
	case timeframe.WEAK:
		return base + trustAdjustWeak
	case timeframe.UNKNOWN:
		return base + trustAdjustUnknown
	default:
		return base
	}
}

func clampScore(x float64) int {
	if x < 0 {
		x = 0
	}
	if x > 100 {
		x = 100
	}
	return int(math.Round(x))
}

// weightedGeometricCombine computes product(max(1,v_i)^w_i)^(1/sum(w_i)).
func weightedGeometricCombine(values map[string]float64, weights map[string]float64) float64 {
	var logSum, weightSum float64
	for k, w := range weights {
		v := values[k]
		if v < 1 {
			v = 1
		}
		logSum += w * math.Log(v)
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return math.Exp(logSum / weightSum)
}

// RankPlatformBatch ranks a batch of Signals from the same non-Web channel
// in place, following spec.md §4.7 steps 1-5.
func RankPlatformBatch(signals []*content.Signal) {
	n := len(signals)
	if n == 0 {
		return
	}

	rawTopicality := make([]float64, n)
	rawFreshness := make([]float64, n)
	rawTraction := make([]*float64, n)
	interactionAbsent := make([]bool, n)

	for i, s := range signals {
		rawTopicality[i] = s.Topicality * 100
		rawFreshness[i] = float64(timeframe.RecencyScore(s.Dated, 30))
		interactionAbsent[i] = s.Interaction.IsAbsent()
		if s.Interaction != nil {
			pulse := Pulse(s.Channel, s.Interaction)
			rawTraction[i] = &pulse
		}
	}

	topPct := PercentileRanks(toPtrSlice(rawTopicality), 0)
	freshPct := PercentileRanks(toPtrSlice(rawFreshness), 0)
	tracPct := PercentileRanks(rawTraction, tractionFallback)

	for i, s := range signals {
		trust := trustFor(s.Channel, s.TimeConfidence)
		combined := weightedGeometricCombine(map[string]float64{
			"topicality": topPct[i],
			"freshness":  freshPct[i],
			"traction":   tracPct[i],
			"trust":      float64(trust),
		}, PlatformWeights)

		if interactionAbsent[i] {
			combined += missingInteractionPenalty
		}
		switch s.TimeConfidence {
		case timeframe.WEAK:
			combined -= 5
		case timeframe.UNKNOWN:
			combined -= 9
		}

		s.Rank = clampScore(combined)
		s.Scorecard = content.Scorecard{
			Topicality: clampScore(topPct[i]),
			Freshness:  clampScore(freshPct[i]),
			Traction:   clampScore(tracPct[i]),
			Trust:      clampScore(float64(trust)),
		}
	}
}

func toPtrSlice(vals []float64) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		v := vals[i]
		out[i] = &v
	}
	return out
}

// RankWeb scores a single Web Signal per spec.md's simpler formula.
func RankWeb(s *content.Signal) {
	trust := trustFor(content.Web, s.TimeConfidence)
	total := WebWeights["topicality"]*(s.Topicality*100) +
		WebWeights["freshness"]*float64(timeframe.RecencyScore(s.Dated, 30)) +
		WebWeights["trust"]*float64(trust) +
		webSourcePenalty

	switch s.TimeConfidence {
	case timeframe.SOLID:
		total += webDateSolidBonus
	case timeframe.WEAK:
		total += webDateWeakPenalty
	case timeframe.UNKNOWN:
		total += webDateUnknownPenalty
	}

	s.Rank = clampScore(total)
	s.Scorecard = content.Scorecard{
		Topicality: clampScore(s.Topicality * 100),
		Freshness:  clampScore(float64(timeframe.RecencyScore(s.Dated, 30))),
		Traction:   0,
		Trust:      clampScore(float64(trust)),
	}
}

// ApplyStanceWeights multiplies each Signal's rank by its channel's stance
// weight, clamps, rounds, and records the multiplier in extras when it is
// not 1.0.
func ApplyStanceWeights(signals []*content.Signal, weights map[content.Channel]float64) {
	for _, s := range signals {
		w, ok := weights[s.Channel]
		if !ok || w == 1.0 {
			continue
		}
		s.Rank = clampScore(float64(s.Rank) * w)
		if s.Extras == nil {
			s.Extras = map[string]string{}
		}
		s.Extras["stance_weight"] = trimFloat(w)
	}
}

func trimFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return s
}

// SortGlobally orders signals by (-rank, -trust, -date_ordinal(dated),
// lowercased headline), stable and deterministic.
func SortGlobally(signals []*content.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if a.Rank != b.Rank {
			return a.Rank > b.Rank
		}
		ta, tb := a.Scorecard.Trust, b.Scorecard.Trust
		if ta != tb {
			return ta > tb
		}
		da, db := dateOrdinal(a.Dated), dateOrdinal(b.Dated)
		if da != db {
			return da > db
		}
		return strings.ToLower(a.Headline) < strings.ToLower(b.Headline)
	})
}

func dateOrdinal(dated string) int64 {
	if dated == "" {
		return 0
	}
	t, err := time.Parse("2006-01-02", dated)
	if err != nil {
		return 0
	}
	return t.Unix()
}
