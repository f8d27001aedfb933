package api

import (
	"fmt"
	"time"

	"github.com/briefbot/briefbot/internal/content"
	"github.com/briefbot/briefbot/internal/providers"
)

// BriefRequest is the request body for POST /v1/briefs.
// @Description Request body for generating a research brief on a topic
type BriefRequest struct {
	Topic          string                `json:"topic" example:"rust async runtimes"`
	Days           int                   `json:"days,omitempty" example:"14"`
	Start          string                `json:"start,omitempty" example:"2026-07-01"`
	End            string                `json:"end,omitempty" example:"2026-07-30"`
	Mode           string                `json:"mode,omitempty" example:"auto" enums:"auto,reddit,x,youtube,linkedin,web,both,reddit-web,x-web,all"`
	Sampling       string                `json:"sampling,omitempty" example:"standard" enums:"lite,standard,dense"`
	ExcludeUndated bool                  `json:"exclude_undated,omitempty"`
	Refresh        bool                  `json:"refresh,omitempty"`
	WebResults     []providers.WebResult `json:"web_results,omitempty"`
}

// ErrorResponse is a standard error envelope.
// @Description Standard error response format
type ErrorResponse struct {
	Error string `json:"error" example:"topic is required"`
}

// HealthResponse reports process and cache health.
// @Description Service health and cache status
type HealthResponse struct {
	Status    string       `json:"status" example:"healthy"`
	Timestamp time.Time    `json:"timestamp"`
	Cache     cacheSummary `json:"cache"`
}

type cacheSummary struct {
	Entries   int   `json:"entries"`
	SizeBytes int64 `json:"size_bytes"`
}

// resolveSpan turns the request's days/start/end fields into a content.Span,
// defaulting to the last 14 days when neither is set.
func resolveSpan(req BriefRequest, now time.Time) (content.Span, error) {
	if req.Start != "" || req.End != "" {
		if req.Start == "" || req.End == "" {
			return content.Span{}, fmt.Errorf("start and end must both be set when either is provided")
		}
		return content.Span{Start: req.Start, End: req.End}, nil
	}
	days := req.Days
	if days <= 0 {
		days = 14
	}
	end := now.UTC()
	start := end.AddDate(0, 0, -days)
	return content.Span{Start: start.Format("2006-01-02"), End: end.Format("2006-01-02")}, nil
}

func resolveSampling(s string) providers.Sampling {
	switch s {
	case "lite":
		return providers.Lite
	case "dense":
		return providers.Dense
	default:
		return providers.Standard
	}
}
