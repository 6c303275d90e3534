// Package ingest turns OCR-extracted receipt text into purchase records.
// Image acquisition and character recognition happen upstream; this package
// only sees text.
package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Header is the receipt-level extraction result.
type Header struct {
	Merchant string  `json:"merchant"`
	Date     string  `json:"date"` // ISO calendar date, or empty when undetected
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
	RawText  string  `json:"raw_text"`
}

// Item is a single extracted line item.
type Item struct {
	Name      string   `json:"name"`
	Qty       float64  `json:"qty"`
	UnitPrice *float64 `json:"unit_price"`
	LineTotal *float64 `json:"line_total"`
	Price     float64  `json:"price"`
}

var (
	moneyPattern    = regexp.MustCompile(`([€$£]?)\s*([0-9]+(?:[.,][0-9]{1,2})?)`)
	itemPattern     = regexp.MustCompile(`^\s*(?:(\d+)\s+)?(.+?)\s+([0-9]+(?:[.,][0-9]{1,2})?)\s*\$([0-9]+(?:[.,][0-9]{1,2})?)\s*$`)
	fallbackPattern = regexp.MustCompile(`(.+?)\s+([0-9.,]+\d)\s*$`)
	priceEndPattern = regexp.MustCompile(`\d+[.,]\d{2}\s*$`)
	totalPattern    = regexp.MustCompile(`(?i)(total|amount due|amount|balance|grand total|amt due|payment)`)

	// Each pattern carries the only layouts allowed to parse its match, so a
	// token rejected by one pattern can never be reinterpreted by another
	// pattern's layouts (the two-digit-year layouts would otherwise accept
	// substrings of a four-digit-year date).
	dateRules = []struct {
		pattern *regexp.Regexp
		layouts []string
	}{
		{
			regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`),
			[]string{"2006-01-02", "2006/01/02", "2006-1-2", "2006/1/2"},
		},
		{
			regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`),
			[]string{"02-01-2006", "02/01/2006", "2-1-2006", "2/1/2006", "2-1-06", "2/1/06"},
		},
		{
			regexp.MustCompile(`(?i)\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[a-z]*\s+\d{2,4}`),
			[]string{"2 Jan 2006", "2 January 2006", "2 Jan 06"},
		},
	}
)

var headerSkipWords = []string{"receipt", "invoice", "tax", "total", "subtotal", "balance"}

var itemSkipWords = []string{
	"receipt", "invoice", "tax", "subtotal", "balance",
	"billed to", "customer", "notes", "thank you", "food receipt",
}

var excludedItemNames = []string{"subtotal", "tax", "total", "change", "balance", "visa", "mastercard", "amt"}

// ParseReceiptText extracts the header and line items from raw receipt text.
// Extraction is best-effort throughout: undetected fields stay zero, and
// lines that match no pattern are skipped, never errors.
func ParseReceiptText(raw string, now time.Time) (Header, []Item) {
	var lines []string
	for _, ln := range strings.Split(raw, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}

	h := Header{
		Merchant: extractMerchant(lines),
		Date:     extractDate(lines, now),
		RawText:  raw,
	}
	h.Total, h.Currency = extractTotal(lines)
	return h, extractItems(lines)
}

// extractMerchant picks the first plausible header line.
func extractMerchant(lines []string) string {
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, ln := range lines[:limit] {
		if len(ln) <= 2 {
			continue
		}
		low := strings.ToLower(ln)
		skip := false
		for _, w := range headerSkipWords {
			if low == w {
				skip = true
				break
			}
		}
		if !skip {
			return ln
		}
	}
	if len(lines) > 0 {
		return lines[0]
	}
	return "Unknown"
}

// extractDate returns the first parseable date not in the future, as ISO.
// A line whose date token is matched but rejected (future, or unparseable by
// the pattern's layouts) is skipped entirely; scanning resumes on the next line.
func extractDate(lines []string, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, ln := range lines {
		for _, rule := range dateRules {
			m := rule.pattern.FindString(ln)
			if m == "" {
				continue
			}
			for _, layout := range rule.layouts {
				d, err := time.Parse(layout, m)
				if err != nil {
					continue
				}
				if !d.After(today) {
					return d.Format("2006-01-02")
				}
				break
			}
			break
		}
	}
	return ""
}

// extractTotal scans the trailing lines for a labeled total; failing that,
// it falls back to the largest money value near the end.
func extractTotal(lines []string) (float64, string) {
	tail := lines
	if len(tail) > 12 {
		tail = tail[len(tail)-12:]
	}
	for i := len(tail) - 1; i >= 0; i-- {
		if !totalPattern.MatchString(tail[i]) {
			continue
		}
		if m := moneyPattern.FindStringSubmatch(tail[i]); m != nil {
			if v, ok := safeFloat(m[2]); ok {
				return v, m[1]
			}
		}
	}

	tail = lines
	if len(tail) > 20 {
		tail = tail[len(tail)-20:]
	}
	var best float64
	var currency string
	var found bool
	for _, ln := range tail {
		for _, m := range moneyPattern.FindAllStringSubmatch(ln, -1) {
			if v, ok := safeFloat(m[2]); ok && (!found || v > best) {
				best, currency, found = v, m[1], true
			}
		}
	}
	return best, currency
}

func extractItems(lines []string) []Item {
	var items []Item
	for _, ln := range lines {
		if !isLikelyItemLine(ln) {
			continue
		}
		if m := itemPattern.FindStringSubmatch(ln); m != nil {
			qty := 1.0
			if m[1] != "" {
				if q, ok := safeFloat(m[1]); ok {
					qty = q
				}
			}
			unitPrice, hasUnit := safeFloat(m[3])
			lineTotal, hasTotal := safeFloat(m[4])
			if !hasTotal && hasUnit {
				lineTotal, hasTotal = unitPrice*qty, true
			}
			it := Item{Name: collapseSpaces(m[2]), Qty: qty}
			if hasUnit {
				it.UnitPrice = &unitPrice
			}
			if hasTotal {
				it.LineTotal = &lineTotal
				it.Price = lineTotal
			}
			items = append(items, it)
			continue
		}
		if m := fallbackPattern.FindStringSubmatch(ln); m != nil {
			v, _ := safeFloat(m[2])
			it := Item{Name: collapseSpaces(m[1]), Qty: 1, LineTotal: &v, Price: v}
			items = append(items, it)
		}
	}

	kept := items[:0]
	for _, it := range items {
		low := strings.ToLower(it.Name)
		excluded := false
		for _, w := range excludedItemNames {
			if strings.Contains(low, w) {
				excluded = true
				break
			}
		}
		if !excluded && it.Name != "" {
			kept = append(kept, it)
		}
	}
	return kept
}

// isLikelyItemLine filters out headers, addresses, and summary lines;
// an item line must end with a decimal price.
func isLikelyItemLine(line string) bool {
	low := strings.ToLower(line)
	for _, w := range itemSkipWords {
		if strings.Contains(low, w) {
			return false
		}
	}
	return priceEndPattern.MatchString(line)
}

// safeFloat parses a money token, tolerating comma decimal separators and
// stray thousands dots.
func safeFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if strings.Count(s, ".") > 1 {
		parts := strings.Split(s, ".")
		s = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
