// Package content defines BriefBot's unified result model: the Signal
// produced by every provider, and the Brief that aggregates them.
package content

import (
	"strings"

	"github.com/briefbot/briefbot/internal/timeframe"
)

// Channel is one of the five discovery sources.
type Channel string

const (
	Reddit   Channel = "reddit"
	X        Channel = "x"
	YouTube  Channel = "youtube"
	LinkedIn Channel = "linkedin"
	Web      Channel = "web"
)

// Interaction holds platform-agnostic engagement metrics. A nil pointer
// means the field is absent for this channel, not zero.
//
// @Description Per-item engagement metrics; only channel-relevant fields are populated.
type Interaction struct {
	Upvotes   *int     `json:"upvotes,omitempty"`
	Comments  *int     `json:"comments,omitempty"`
	VoteRatio *float64 `json:"vote_ratio,omitempty"`
	Likes     *int     `json:"likes,omitempty"`
	Reposts   *int     `json:"reposts,omitempty"`
	Replies   *int     `json:"replies,omitempty"`
	Quotes    *int     `json:"quotes,omitempty"`
	Views     *int     `json:"views,omitempty"`
	Reactions *int     `json:"reactions,omitempty"`
	Bookmarks *int     `json:"bookmarks,omitempty"`
	Pulse     float64  `json:"pulse"`
}

// IsAbsent reports whether no interaction field at all was populated.
func (i *Interaction) IsAbsent() bool {
	if i == nil {
		return true
	}
	return i.Upvotes == nil && i.Comments == nil && i.VoteRatio == nil &&
		i.Likes == nil && i.Reposts == nil && i.Replies == nil && i.Quotes == nil &&
		i.Views == nil && i.Reactions == nil && i.Bookmarks == nil
}

// Scorecard holds the four 0..100 subscores behind a Signal's final rank.
//
// @Description Four integer 0..100 subscores behind the final rank.
type Scorecard struct {
	Topicality int `json:"topicality"`
	Freshness  int `json:"freshness"`
	Traction   int `json:"traction"`
	Trust      int `json:"trust"`
}

// ThreadNote is one excerpted Reddit comment.
//
// @Description One comment excerpt attached to a Reddit Signal.
type ThreadNote struct {
	Score  int    `json:"score"`
	Dated  string `json:"dated,omitempty"`
	Author string `json:"author"`
	Excerpt string `json:"excerpt"`
	URL    string `json:"url"`
}

// Signal is a single discovered item normalized into the unified model.
//
// @Description A single discovered item normalized into BriefBot's unified content model.
type Signal struct {
	Key           string            `json:"key" example:"RDT-01"`
	Channel       Channel           `json:"channel" example:"reddit"`
	Headline      string            `json:"headline"`
	URL           string            `json:"url"`
	Byline        string            `json:"byline,omitempty"`
	Blurb         string            `json:"blurb,omitempty"`
	Dated         string            `json:"dated,omitempty"`
	TimeConfidence timeframe.Confidence `json:"time_confidence"`
	Interaction   *Interaction      `json:"interaction,omitempty"`
	Topicality    float64           `json:"topicality"`
	Rationale     string            `json:"rationale,omitempty"`
	Rank          int               `json:"rank"`
	Scorecard     Scorecard         `json:"scorecard"`
	ThreadNotes   []ThreadNote      `json:"thread_notes,omitempty"`
	Notables      []string          `json:"notables,omitempty"`
	Extras        map[string]string `json:"extras,omitempty"`
}

// ClampTopicality clamps Topicality into [0, 1], per the invariant that
// out-of-range model outputs must be clamped rather than rejected.
func (s *Signal) ClampTopicality() {
	if s.Topicality < 0 {
		s.Topicality = 0
	}
	if s.Topicality > 1 {
		s.Topicality = 1
	}
}

// ApplyTimeConfidence recomputes TimeConfidence from Dated and the span,
// per the invariant: absent date => UNKNOWN.
func (s *Signal) ApplyTimeConfidence(start, end string) {
	if s.Dated == "" {
		s.TimeConfidence = timeframe.UNKNOWN
		return
	}
	s.TimeConfidence = timeframe.DateConfidence(s.Dated, start, end)
}

// NormalizedURL lowercases the URL and strips query/fragment and a
// trailing slash, for dedup's URL-key identity check.
func (s *Signal) NormalizedURL() string {
	return NormalizeURL(s.URL)
}

// NormalizeURL applies the same lowering/stripping rule standalone, so
// providers can use it when assigning keys or filtering.
func NormalizeURL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimSuffix(u, "/")
}

// Span is an inclusive [start, end] ISO date window.
//
// @Description Inclusive ISO date window.
type Span struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CacheInfo reports whether a Brief was served from cache.
type CacheInfo struct {
	Enabled   bool    `json:"enabled"`
	AgeHours  float64 `json:"age_hours,omitempty"`
}

// Metrics reports run-level statistics.
type Metrics struct {
	SearchDurationMS int64 `json:"search_duration_ms"`
	ItemCount        int   `json:"item_count"`
}

// Brief is the aggregated output of a research run.
//
// @Description The aggregated, ranked, deduplicated output of a BriefBot research run.
type Brief struct {
	Topic      string   `json:"topic"`
	Span       Span     `json:"span"`
	GeneratedAt string  `json:"generated_at"`
	Mode       string   `json:"mode" example:"auto"`
	Models     map[string]string `json:"models"`

	ComplexityClass   string `json:"complexity_class,omitempty"`
	ComplexityReason  string `json:"complexity_reason,omitempty"`
	EpistemicStance   string `json:"epistemic_stance,omitempty"`
	EpistemicReason   string `json:"epistemic_reason,omitempty"`
	Decomposition       []string `json:"decomposition,omitempty"`
	DecompositionSource string   `json:"decomposition_source,omitempty"`

	Items  []Signal          `json:"items"`
	Errors map[string]string `json:"errors,omitempty"`
	Cache  CacheInfo         `json:"cache"`
	Metrics Metrics          `json:"metrics"`
}

// NewBrief creates an empty Brief for a fresh pipeline run.
func NewBrief(topic string, span Span, generatedAt string) *Brief {
	return &Brief{
		Topic:       topic,
		Span:        span,
		GeneratedAt: generatedAt,
		Models:      map[string]string{},
		Items:       []Signal{},
		Errors:      map[string]string{},
	}
}

// ByChannel returns the Items belonging to ch, preserving order.
func (b *Brief) ByChannel(ch Channel) []Signal {
	var out []Signal
	for _, s := range b.Items {
		if s.Channel == ch {
			out = append(out, s)
		}
	}
	return out
}

func (b *Brief) Reddit() []Signal   { return b.ByChannel(Reddit) }
func (b *Brief) X() []Signal        { return b.ByChannel(X) }
func (b *Brief) YouTube() []Signal  { return b.ByChannel(YouTube) }
func (b *Brief) LinkedIn() []Signal { return b.ByChannel(LinkedIn) }
func (b *Brief) Web() []Signal      { return b.ByChannel(Web) }

// SetError records a channel's error string. A nil/empty err is ignored,
// matching the invariant that per-channel error setters ignore nil input.
func (b *Brief) SetError(channel string, err error) {
	if err == nil {
		return
	}
	if b.Errors == nil {
		b.Errors = map[string]string{}
	}
	b.Errors[channel] = err.Error()
}

// UniqueKeys reports whether every Signal's key is unique, for test
// assertions of the Brief invariant.
func (b *Brief) UniqueKeys() bool {
	seen := make(map[string]bool, len(b.Items))
	for _, s := range b.Items {
		if seen[s.Key] {
			return false
		}
		seen[s.Key] = true
	}
	return true
}
