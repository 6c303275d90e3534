package store

import "time"

// dateLayouts are the formats accepted when normalizing an incoming date.
// Output is always an ISO calendar date.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2 January 2006",
}

// NormalizeDate normalizes a date value to an ISO calendar-date string.
// Nil stays nil; values that parse under no known layout become nil rather
// than an error.
func NormalizeDate(date *string) *string {
	if date == nil {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *date); err == nil {
			iso := t.Format("2006-01-02")
			return &iso
		}
	}
	return nil
}
