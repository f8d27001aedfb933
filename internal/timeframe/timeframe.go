// Package timeframe computes date windows, parses dates out of whatever
// shape a provider handed back, and scores how fresh or how confidently
// dated an item is.
package timeframe

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Confidence labels how much we trust a Signal's dated field.
type Confidence string

const (
	SOLID   Confidence = "SOLID"
	SOFT    Confidence = "SOFT"
	WEAK    Confidence = "WEAK"
	UNKNOWN Confidence = "UNKNOWN"
)

const isoDateLayout = "2006-01-02"

// Span computes a date window ending today (UTC) and starting daysBack
// earlier, both formatted as ISO dates.
func Span(daysBack int) (start, end string) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	s := today.AddDate(0, 0, -daysBack)
	return s.Format(isoDateLayout), today.Format(isoDateLayout)
}

var monthDayYear = regexp.MustCompile(`(?i)^(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),?\s+(\d{4})$`)
var dayMonthYear = regexp.MustCompile(`(?i)^(\d{1,2})\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})$`)

// ParseMoment accepts an ISO date, an ISO datetime (with or without a
// trailing Z), a Unix timestamp (numeric, as int or string), or a natural
// "Month D, Y" / "D Month Y" string, and returns the UTC instant it names.
func ParseMoment(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if ts, err := strconv.ParseFloat(s, 64); err == nil {
		sec := int64(ts)
		nsec := int64((ts - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC(), true
	}
	layouts := []string{
		isoDateLayout,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
		time.RFC3339,
		"2006-01-02T15:04:05.999999999Z07:00",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if m := monthDayYear.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("January 2 2006", m[1]+" "+m[2]+" "+m[3]); err == nil {
			return t.UTC(), true
		}
	}
	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("2 January 2006", m[1]+" "+m[2]+" "+m[3]); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ToISODate converts a Unix timestamp (seconds, may carry a fractional
// part) into a YYYY-MM-DD string.
func ToISODate(unix float64) (string, bool) {
	sec := int64(unix)
	if sec <= 0 {
		return "", false
	}
	return time.Unix(sec, 0).UTC().Format(isoDateLayout), true
}

// graceBandDays is how far outside the span a date can fall and still be
// considered SOFT rather than WEAK.
const graceBandDays = 5

// DateConfidence classifies a date relative to a [start, end] window.
func DateConfidence(dated, start, end string) Confidence {
	if dated == "" {
		return UNKNOWN
	}
	d, err := time.Parse(isoDateLayout, dated)
	if err != nil {
		return UNKNOWN
	}
	s, errS := time.Parse(isoDateLayout, start)
	e, errE := time.Parse(isoDateLayout, end)
	if errS != nil || errE != nil {
		return UNKNOWN
	}
	if !d.Before(s) && !d.After(e) {
		return SOLID
	}
	grace := time.Duration(graceBandDays) * 24 * time.Hour
	if d.Before(s) && s.Sub(d) <= grace {
		return SOFT
	}
	if d.After(e) && d.Sub(e) <= grace {
		return SOFT
	}
	return WEAK
}

// DaysSince returns how many days ago dated was, clamped at 0 for dates in
// the future.
func DaysSince(dated string) (int, bool) {
	d, err := time.Parse(isoDateLayout, dated)
	if err != nil {
		return 0, false
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(d).Hours() / 24)
	if days < 0 {
		return 0, true
	}
	return days, true
}

// RecencyScore scores a date's freshness on a 0..100 scale: today is 100,
// maxDays ago is 0, absent is 0, future dates are 100. Linear interpolation
// in between, matching the original implementation's formula exactly.
func RecencyScore(dated string, maxDays int) int {
	if dated == "" {
		return 0
	}
	d, err := time.Parse(isoDateLayout, dated)
	if err != nil {
		return 0
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	ageDays := int(today.Sub(d).Hours() / 24)
	if ageDays < 0 {
		return 100
	}
	if ageDays >= maxDays {
		return 0
	}
	ratio := 1 - float64(ageDays)/float64(maxDays)
	return int(100 * ratio)
}

var (
	urlYMD   = regexp.MustCompile(`/(\d{4})/(\d{2})/(\d{2})/`)
	urlYMD2  = regexp.MustCompile(`/(\d{4})-(\d{2})-(\d{2})/`)
	urlYMD3  = regexp.MustCompile(`/(\d{4})(\d{2})(\d{2})/`)
	minYear  = 2019
	maxYear  = 2033
)

// ScanURLDate recognizes /YYYY/MM/DD/, /YYYYMMDD/, and /YYYY-MM-DD/ date
// components in a URL path, restricted to a plausible year range.
func ScanURLDate(url string) (string, bool) {
	for _, re := range []*regexp.Regexp{urlYMD, urlYMD2, urlYMD3} {
		if m := re.FindStringSubmatch(url); m != nil {
			year, _ := strconv.Atoi(m[1])
			if year < minYear || year > maxYear {
				continue
			}
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			if month < 1 || month > 12 || day < 1 || day > 31 {
				continue
			}
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(isoDateLayout), true
		}
	}
	return "", false
}

var (
	textISO      = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	textMonthDay = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})(?:,\s*(\d{4}))?\b`)
	textDayMonth = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})\b`)
	textDaysAgo  = regexp.MustCompile(`(?i)\b(\d{1,2})\s+days?\s+ago\b`)
	textHoursAgo = regexp.MustCompile(`(?i)\b\d{1,2}\s+hours?\s+ago\b`)
)

// ScanTextDate scans free text for a recognizable date, including relative
// forms ("today", "yesterday", "N days ago" with N<=90, "N hours ago",
// "last week", "this week", "last month").
func ScanTextDate(text string) (string, bool) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	lower := strings.ToLower(text)

	if m := textISO.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if strings.Contains(lower, "today") {
		return today.Format(isoDateLayout), true
	}
	if strings.Contains(lower, "yesterday") {
		return today.AddDate(0, 0, -1).Format(isoDateLayout), true
	}
	if textHoursAgo.MatchString(lower) {
		return today.Format(isoDateLayout), true
	}
	if m := textDaysAgo.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n <= 90 {
			return today.AddDate(0, 0, -n).Format(isoDateLayout), true
		}
	}
	if strings.Contains(lower, "last week") {
		return today.AddDate(0, 0, -7).Format(isoDateLayout), true
	}
	if strings.Contains(lower, "this week") {
		return today.AddDate(0, 0, -3).Format(isoDateLayout), true
	}
	if strings.Contains(lower, "last month") {
		return today.AddDate(0, 0, -30).Format(isoDateLayout), true
	}
	if m := textMonthDay.FindStringSubmatch(text); m != nil {
		year := today.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		day, _ := strconv.Atoi(m[2])
		if t, err := time.Parse("January 2 2006", fixMonthCase(m[1])+" "+m[2]+" "+strconv.Itoa(year)); err == nil && day > 0 {
			return t.Format(isoDateLayout), true
		}
	}
	if m := textDayMonth.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("2 January 2006", m[1]+" "+fixMonthCase(m[2])+" "+m[3]); err == nil {
			return t.Format(isoDateLayout), true
		}
	}
	return "", false
}

func fixMonthCase(month string) string {
	if month == "" {
		return month
	}
	return strings.ToUpper(month[:1]) + strings.ToLower(month[1:])
}

// DetectDate applies the priority order: a URL date hit is SOLID; a title
// hit is SOFT; a snippet hit is SOFT; otherwise absent with WEAK.
func DetectDate(url, snippet, title string) (string, Confidence) {
	if d, ok := ScanURLDate(url); ok {
		return d, SOLID
	}
	if d, ok := ScanTextDate(title); ok {
		return d, SOFT
	}
	if d, ok := ScanTextDate(snippet); ok {
		return d, SOFT
	}
	return "", WEAK
}
