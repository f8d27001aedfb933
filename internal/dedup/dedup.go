// Package dedup suppresses near-duplicate Signals by soft string
// similarity and URL-key identity, per spec.md §4.8. The legacy n-gram
// Jaccard path is deliberately not implemented here — spec.md's Open
// Questions call it obsolete.
package dedup

import (
	"regexp"
	"strings"

	"github.com/briefbot/briefbot/internal/content"
)

const (
	defaultThreshold = 0.88
	substringBoost   = 0.92
)

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

func squashedSignature(s *content.Signal) string {
	raw := strings.ToLower(s.Headline + " " + s.Byline + " " + s.Blurb)
	squashed := nonAlphaNum.ReplaceAllString(raw, " ")
	tokens := strings.Fields(squashed)
	return strings.Join(tokens, " ")
}

// Deduplicate returns signals with near-duplicates removed, keeping the
// higher-ranked item of each colliding pair (ties keep the lower-indexed
// one), preserving the pre-existing order of survivors.
func Deduplicate(signals []*content.Signal, threshold float64) []*content.Signal {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	n := len(signals)
	urlKeys := make([]string, n)
	sigs := make([]string, n)
	discarded := make([]bool, n)
	for i, s := range signals {
		urlKeys[i] = s.NormalizedURL()
		sigs[i] = squashedSignature(s)
	}

	for i := 0; i < n; i++ {
		if discarded[i] {
			continue
		}
		for j := i + 1; j < n; j++ {
			if discarded[j] {
				continue
			}
			var similarity float64
			if urlKeys[i] != "" && urlKeys[j] != "" && urlKeys[i] == urlKeys[j] {
				similarity = 1.0
			} else {
				similarity = ratio(sigs[i], sigs[j])
				if strings.Contains(sigs[i], sigs[j]) || strings.Contains(sigs[j], sigs[i]) {
					if similarity < substringBoost {
						similarity = substringBoost
					}
				}
			}
			if similarity >= threshold {
				loser := j
				if signals[j].Rank > signals[i].Rank {
					loser = i
				}
				discarded[loser] = true
				if loser == i {
					break
				}
			}
		}
	}

	out := make([]*content.Signal, 0, n)
	for i, s := range signals {
		if !discarded[i] {
			out = append(out, s)
		}
	}
	return out
}
