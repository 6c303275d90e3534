// Package intent parses natural-language purchase questions into a
// structured intent: an optional date filter plus a content intent.
// Both are resolved by ordered rule cascades where the first applicable
// rule wins and any parse failure falls through to the next rule.
package intent

import (
	"regexp"
	"strings"
	"time"
)

// DateFilterKind tags which date rule matched.
type DateFilterKind int

const (
	// DateNone means no date expression was recognized; all records pass.
	DateNone DateFilterKind = iota
	// DateExplicitRange is "from YYYY-MM-DD to YYYY-MM-DD".
	DateExplicitRange
	// DateProseRange is "between D MONTH [YYYY] and D MONTH [YYYY]".
	DateProseRange
	// DateExplicitDay is a single ISO or prose date, used as a one-day range.
	DateExplicitDay
	// DateYesterday is the relative keyword "yesterday".
	DateYesterday
	// DateLastSevenDays is the relative keyword "last 7 day(s)".
	DateLastSevenDays
)

// DateFilter is an inclusive [Start, End] calendar-date range.
type DateFilter struct {
	Kind  DateFilterKind
	Start time.Time
	End   time.Time
}

// Active reports whether a date rule matched.
func (f DateFilter) Active() bool { return f.Kind != DateNone }

// Contains reports whether d falls within [Start, End] inclusive.
func (f DateFilter) Contains(d time.Time) bool {
	return !d.Before(f.Start) && !d.After(f.End)
}

// ContentKind tags the content intent of a question.
type ContentKind int

const (
	// ContentGeneric lists the filtered matches verbatim.
	ContentGeneric ContentKind = iota
	// ContentWhereItem looks up where an item was purchased.
	ContentWhereItem
	// ContentTotalExpense sums prices over the filtered matches.
	ContentTotalExpense
)

// Intent is the parse result for one question.
type Intent struct {
	Question string
	Date     DateFilter
	Content  ContentKind
	Item     string // lower-cased item phrase, set for ContentWhereItem
}

type dateRule func(q string, now time.Time) (DateFilter, bool)

// dateRules are tried in priority order; the first match wins.
var dateRules = []dateRule{
	matchExplicitRange,
	matchProseRange,
	matchExplicitDay,
	matchYesterday,
	matchLastSevenDays,
}

var whereItemPattern = regexp.MustCompile(`where did i buy (.+?)(?: from| on|$)`)

// matchWhereItem extracts the lower-cased item phrase, or "" when the
// question carries the pattern but no usable phrase.
func matchWhereItem(q string) string {
	m := whereItemPattern.FindStringSubmatch(q)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Parse extracts the date filter and content intent from a free-text
// question. It never fails: unrecognized dates degrade to DateNone and
// unrecognized content degrades to ContentGeneric.
func Parse(question string, now time.Time) Intent {
	q := strings.ToLower(question)
	in := Intent{Question: question}

	for _, rule := range dateRules {
		if f, ok := rule(q, now); ok {
			in.Date = f
			break
		}
	}

	if item := matchWhereItem(q); item != "" {
		in.Content = ContentWhereItem
		in.Item = item
	} else if strings.Contains(q, "total") && strings.Contains(q, "expense") {
		in.Content = ContentTotalExpense
	}
	return in
}
