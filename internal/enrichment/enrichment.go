// Package enrichment fetches a Reddit thread's public JSON and overwrites
// a Signal's engagement metrics with the real numbers, selects top
// comments, and extracts notable excerpts. Grounded on the teacher's
// internal/source/reddit.go, which walks the same Reddit listing
// []interface{} shape to paginate comments; adapted here from "fetch a
// source's comment tree" to "enrich one already-discovered Signal".
package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/briefbot/briefbot/internal/content"
	"github.com/briefbot/briefbot/internal/httpclient"
	"github.com/briefbot/briefbot/internal/timeframe"
)

const (
	maxThreadNotes     = 10
	maxNotableScanDepth = 24
	maxNotables         = 6
	minNotableLength    = 28
	maxNotableExcerpt   = 190
	sentenceBoundaryMin = 70
)

var deletedAuthors = map[string]bool{"[deleted]": true, "[removed]": true}

var lowValuePattern = regexp.MustCompile(`^(yep|nope|same|agreed|this|lol|lmao|haha|hah|\[deleted\]|\[removed\])[.!]*$`)

// isRedditThreadURL and threadJSONURL are package-level indirections so
// tests can point enrichment at a local fixture server instead of
// www.reddit.com; production callers never override them.
var isRedditThreadURL = func(u string) bool { return strings.Contains(u, "reddit.com") }
var threadJSONURL = httpclient.RedditThreadJSONURL

// Enrich fetches the Reddit thread behind s.URL and overwrites its
// engagement, thread notes, and notables in place. Any failure (network,
// unexpected shape) is non-fatal: the Signal is left unmodified and the
// failure is logged through progress if provided.
func Enrich(ctx context.Context, httpc *httpclient.Client, s *content.Signal, progress func(msg string)) {
	if !isRedditThreadURL(s.URL) {
		return
	}
	jsonURL, err := threadJSONURL(s.URL)
	if err != nil {
		notify(progress, fmt.Sprintf("enrichment: bad reddit url %s: %v", s.URL, err))
		return
	}

	resp, err := httpc.RequestJSON(ctx, "GET", jsonURL, nil, nil, 20*time.Second, 2)
	if err != nil {
		notify(progress, fmt.Sprintf("enrichment: fetch failed for %s: %v", s.URL, err))
		return
	}

	listing, ok := resp["data"].([]any)
	if !ok || len(listing) < 2 {
		notify(progress, fmt.Sprintf("enrichment: unexpected shape for %s", s.URL))
		return
	}

	submission, ok := firstChildData(listing[0])
	if !ok {
		notify(progress, fmt.Sprintf("enrichment: no submission data for %s", s.URL))
		return
	}
	applySubmission(s, submission)

	comments := commentChildren(listing[1])
	sortByScoreDesc(comments)

	s.ThreadNotes = buildThreadNotes(comments)
	s.Notables = extractNotables(comments)
}

func notify(progress func(msg string), msg string) {
	if progress != nil {
		progress(msg)
		return
	}
	slog.Default().Debug(msg)
}

func firstChildData(listingElem any) (map[string]any, bool) {
	obj, ok := listingElem.(map[string]any)
	if !ok {
		return nil, false
	}
	data, ok := obj["data"].(map[string]any)
	if !ok {
		return nil, false
	}
	children, ok := data["children"].([]any)
	if !ok || len(children) == 0 {
		return nil, false
	}
	first, ok := children[0].(map[string]any)
	if !ok {
		return nil, false
	}
	childData, ok := first["data"].(map[string]any)
	return childData, ok
}

func commentChildren(listingElem any) []map[string]any {
	obj, ok := listingElem.(map[string]any)
	if !ok {
		return nil
	}
	data, ok := obj["data"].(map[string]any)
	if !ok {
		return nil
	}
	children, ok := data["children"].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(children))
	for _, c := range children {
		co, ok := c.(map[string]any)
		if !ok || co["kind"] != "t1" {
			continue
		}
		cd, ok := co["data"].(map[string]any)
		if !ok {
			continue
		}
		out = append(out, cd)
	}
	return out
}

func applySubmission(s *content.Signal, submission map[string]any) {
	if s.Interaction == nil {
		s.Interaction = &content.Interaction{}
	}
	if score, ok := submission["score"].(float64); ok {
		n := int(score)
		s.Interaction.Upvotes = &n
	}
	if nc, ok := submission["num_comments"].(float64); ok {
		n := int(nc)
		s.Interaction.Comments = &n
	}
	if ratio, ok := submission["upvote_ratio"].(float64); ok {
		s.Interaction.VoteRatio = &ratio
	}
	if created, ok := submission["created_utc"].(float64); ok {
		if d, ok := timeframe.ToISODate(created); ok {
			s.Dated = d
		}
	}
}

func sortByScoreDesc(comments []map[string]any) {
	sort.SliceStable(comments, func(i, j int) bool {
		return commentScore(comments[i]) > commentScore(comments[j])
	})
}

func commentScore(c map[string]any) int {
	if s, ok := c["score"].(float64); ok {
		return int(s)
	}
	return 0
}

func buildThreadNotes(comments []map[string]any) []content.ThreadNote {
	var notes []content.ThreadNote
	for _, c := range comments {
		if len(notes) >= maxThreadNotes {
			break
		}
		author, _ := c["author"].(string)
		if deletedAuthors[author] {
			continue
		}
		body, _ := c["body"].(string)
		permalink, _ := c["permalink"].(string)
		url := ""
		if permalink != "" {
			url = "https://www.reddit.com" + permalink
		}
		var dated string
		if created, ok := c["created_utc"].(float64); ok {
			if d, ok := timeframe.ToISODate(created); ok {
				dated = d
			}
		}
		notes = append(notes, content.ThreadNote{
			Score:  commentScore(c),
			Dated:  dated,
			Author: author,
			Excerpt: body,
			URL:    url,
		})
	}
	return notes
}

func extractNotables(comments []map[string]any) []string {
	var notables []string
	limit := len(comments)
	if limit > maxNotableScanDepth {
		limit = maxNotableScanDepth
	}
	for i := 0; i < limit && len(notables) < maxNotables; i++ {
		author, _ := comments[i]["author"].(string)
		if deletedAuthors[author] {
			continue
		}
		body, _ := comments[i]["body"].(string)
		if len(body) < minNotableLength {
			continue
		}
		if lowValuePattern.MatchString(strings.ToLower(strings.TrimSpace(body))) {
			continue
		}
		notables = append(notables, excerptWithSentenceBoundary(body))
	}
	return notables
}

func excerptWithSentenceBoundary(body string) string {
	if len(body) <= maxNotableExcerpt {
		return body
	}
	window := body[:maxNotableExcerpt]
	cut := len(window)
	for i := sentenceBoundaryMin; i < len(window); i++ {
		if window[i] == '.' || window[i] == '!' || window[i] == '?' {
			cut = i + 1
			break
		}
	}
	return strings.TrimSpace(window[:cut])
}
