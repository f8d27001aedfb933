package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/briefbot/briefbot/internal/content"
	"github.com/briefbot/briefbot/internal/timeframe"
)

// WebResult is one pre-fetched web-search result the orchestrator's caller
// supplies, per spec.md §6's web-channel contract.
type WebResult struct {
	Title     string
	URL       string
	Snippet   string
	Date      string
	Relevance float64
}

var blockedWebHosts = map[string]bool{
	"reddit.com": true, "www.reddit.com": true, "old.reddit.com": true,
	"twitter.com": true, "x.com": true,
}

type webProvider struct{}

func NewWebProvider() Provider { return &webProvider{} }

func (p *webProvider) Channel() content.Channel { return content.Web }

// Search for the Web provider never hits the network; the orchestrator
// passes the caller-supplied results through ProcessResults instead. This
// method exists only to satisfy the Provider interface uniformly.
func (p *webProvider) Search(ctx context.Context, apiKey, model, topic, start, end string, sampling Sampling, mock map[string]any) Result {
	return Result{}
}

// ProcessResults implements spec.md §4.4's Web provider: drop empty URLs,
// drop blocked hosts, detect a date via timeframe.DetectDate, hard-drop
// items outside [start, end], clamp relevance, assign W-NN keys.
func ProcessResults(raw []WebResult, topic, start, end string) []RawItem {
	out := make([]RawItem, 0, len(raw))
	n := 0
	for _, r := range raw {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		host := normalizedHost(r.URL)
		if blockedWebHosts[host] {
			continue
		}

		dated := r.Date
		confidence := timeframe.SOFT
		if dated == "" {
			d, conf := timeframe.DetectDate(r.URL, r.Snippet, r.Title)
			dated, confidence = d, conf
		}
		if dated != "" && (dated < start || dated > end) {
			continue
		}

		n++
		out = append(out, RawItem{
			"key":        fmt.Sprintf("W-%02d", n),
			"headline":   r.Title,
			"url":        r.URL,
			"blurb":      r.Snippet,
			"dated":      dated,
			"confidence": string(confidence),
			"topicality": clamp01(r.Relevance),
		})
	}
	return out
}

func normalizedHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
