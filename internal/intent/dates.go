package intent

import (
	"regexp"
	"strings"
	"time"
)

var (
	isoDatePattern    = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	isoRangePattern   = regexp.MustCompile(`from\s+(\d{4}-\d{2}-\d{2})\s+to\s+(\d{4}-\d{2}-\d{2})`)
	proseRangePattern = regexp.MustCompile(`between\s+(\d{1,2}\s+\w+(?:\s+\d{4})?)\s+and\s+(\d{1,2}\s+\w+(?:\s+\d{4})?)`)
	proseDatePattern  = regexp.MustCompile(`\b(\d{1,2})\s+(january|february|march|april|may|june|july|august|september|october|november|december)(?:\s+(\d{4}))?\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// dateOnly truncates t to a UTC calendar date.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseISODate parses a strict YYYY-MM-DD date.
func parseISODate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseProseDate parses "D MONTH [YYYY]". A missing year substitutes the
// current year; the year-present distinction is carried by the regexp
// capture, never by a sentinel year value. Out-of-range days (e.g.
// "31 February") do not match.
func parseProseDate(s string, now time.Time) (time.Time, bool) {
	m := proseDatePattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return time.Time{}, false
	}
	day := atoi(m[1])
	month := monthsByName[m[2]]
	year := now.Year()
	if m[3] != "" {
		year = atoi(m[3])
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

func matchExplicitRange(q string, _ time.Time) (DateFilter, bool) {
	m := isoRangePattern.FindStringSubmatch(q)
	if m == nil {
		return DateFilter{}, false
	}
	start, ok1 := parseISODate(m[1])
	end, ok2 := parseISODate(m[2])
	if !ok1 || !ok2 {
		return DateFilter{}, false
	}
	return DateFilter{Kind: DateExplicitRange, Start: start, End: end}, true
}

func matchProseRange(q string, now time.Time) (DateFilter, bool) {
	m := proseRangePattern.FindStringSubmatch(q)
	if m == nil {
		return DateFilter{}, false
	}
	start, ok1 := parseProseDate(m[1], now)
	end, ok2 := parseProseDate(m[2], now)
	if !ok1 || !ok2 {
		return DateFilter{}, false
	}
	return DateFilter{Kind: DateProseRange, Start: start, End: end}, true
}

func matchExplicitDay(q string, now time.Time) (DateFilter, bool) {
	if m := isoDatePattern.FindStringSubmatch(q); m != nil {
		if d, ok := parseISODate(m[1]); ok {
			return DateFilter{Kind: DateExplicitDay, Start: d, End: d}, true
		}
	}
	if d, ok := parseProseDate(q, now); ok {
		return DateFilter{Kind: DateExplicitDay, Start: d, End: d}, true
	}
	return DateFilter{}, false
}

func matchYesterday(q string, now time.Time) (DateFilter, bool) {
	if !strings.Contains(q, "yesterday") {
		return DateFilter{}, false
	}
	d := dateOnly(now).AddDate(0, 0, -1)
	return DateFilter{Kind: DateYesterday, Start: d, End: d}, true
}

func matchLastSevenDays(q string, now time.Time) (DateFilter, bool) {
	if !strings.Contains(q, "last 7 day") {
		return DateFilter{}, false
	}
	end := dateOnly(now)
	return DateFilter{Kind: DateLastSevenDays, Start: end.AddDate(0, 0, -7), End: end}, true
}
