// Package answer synthesizes deterministic natural-language answers from
// ranked matches, a parsed intent, and the record metadata.
package answer

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/kaimono/internal/index"
	"github.com/hyperjump/kaimono/internal/intent"
	"github.com/hyperjump/kaimono/internal/models"
)

// DefaultConfidenceThreshold is the minimum item/merchant similarity below
// which a location lookup answers "not found" instead of a low-quality guess.
const DefaultConfidenceThreshold = 0.2

// Synthesizer turns a question plus its similarity matches into an answer string.
type Synthesizer struct {
	threshold float64
	now       func() time.Time
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithThreshold overrides the item/merchant confidence threshold.
func WithThreshold(t float64) Option {
	return func(s *Synthesizer) { s.threshold = t }
}

// WithClock overrides the time source used by relative date expressions.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// New creates a Synthesizer with the default threshold and wall clock.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{threshold: DefaultConfidenceThreshold, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer executes the content-intent branch for the question over the given
// matches. It never fails: every degenerate case maps to an explanatory string.
func (s *Synthesizer) Answer(question string, matches []models.Match) string {
	if len(matches) == 0 {
		return "I couldn't find any matching items."
	}

	in := intent.Parse(question, s.now())
	filtered := filterByDate(matches, in.Date)

	switch in.Content {
	case intent.ContentWhereItem:
		return s.answerWhereItem(in, filtered)
	case intent.ContentTotalExpense:
		var total float64
		for _, m := range filtered {
			total += m.Metadata.SafePrice()
		}
		return fmt.Sprintf("Your total expenses were %.2f.", total)
	default:
		if len(filtered) == 0 {
			return "No purchases found in the selected date range."
		}
		texts := make([]string, len(filtered))
		for i, m := range filtered {
			texts[i] = m.Metadata.Text
		}
		return "You bought: " + strings.Join(texts, ", ")
	}
}

// answerWhereItem answers an item-location lookup. When the question carries
// "where" it names the best-matching merchant; otherwise it lists the item
// texts containing the phrase.
func (s *Synthesizer) answerWhereItem(in intent.Intent, filtered []models.Match) string {
	if strings.Contains(strings.ToLower(in.Question), "where") {
		text, merchant, ok := s.bestMerchant(in.Item, filtered)
		if !ok {
			return fmt.Sprintf("No purchases of '%s' found in the selected date range.", in.Item)
		}
		return fmt.Sprintf("You bought '%s' from: %s", text, merchant)
	}

	var texts []string
	for _, m := range filtered {
		if strings.Contains(strings.ToLower(m.Metadata.Text), in.Item) {
			texts = append(texts, m.Metadata.Text)
		}
	}
	if len(texts) == 0 {
		return fmt.Sprintf("No purchases of '%s' found in the selected date range.", in.Item)
	}
	return fmt.Sprintf("You bought %s in the selected date range.", strings.Join(texts, ", "))
}

// bestMerchant picks the merchant whose record text is most similar to the
// item phrase. The comparison runs a second, query-local TF-IDF fit over
// the candidate texts plus the item phrase; it shares no vocabulary or
// state with the store's persistent index. Below the confidence threshold the lookup
// reports not found.
func (s *Synthesizer) bestMerchant(item string, matches []models.Match) (text, merchant string, ok bool) {
	var texts, merchants []string
	for _, m := range matches {
		if m.Metadata.Merchant == nil || *m.Metadata.Merchant == "" {
			continue
		}
		texts = append(texts, strings.ToLower(m.Metadata.Text))
		merchants = append(merchants, *m.Metadata.Merchant)
	}
	if len(texts) == 0 {
		return "", "", false
	}

	v := index.NewVectorizer(index.WithoutStopwords())
	v.Fit(append(append([]string{}, texts...), item))
	itemVec := v.Transform(item)

	bestIdx, bestScore := 0, -1.0
	for i, t := range texts {
		if score := index.Cosine(itemVec, v.Transform(t)); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestScore < s.threshold {
		return "", "", false
	}
	return texts[bestIdx], merchants[bestIdx], true
}

// filterByDate keeps matches whose date falls within the filter. With an
// active filter, matches with absent or unparsable dates are dropped; with
// no filter, everything passes untouched.
func filterByDate(matches []models.Match, f intent.DateFilter) []models.Match {
	if !f.Active() {
		return matches
	}
	filtered := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Metadata.Date == nil {
			continue
		}
		d, err := time.Parse("2006-01-02", *m.Metadata.Date)
		if err != nil {
			continue
		}
		if f.Contains(d) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
